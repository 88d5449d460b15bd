package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wordgame/fictionary/pkg/achievements"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/queue"
)

type recordingPublisher struct {
	unlocks    []achievements.ID
	increments []achievements.Counter
	err        error
}

func (p *recordingPublisher) Unlock(ctx context.Context, user gametypes.PlayerID, id achievements.ID) error {
	p.unlocks = append(p.unlocks, id)
	return p.err
}

func (p *recordingPublisher) Increment(ctx context.Context, user gametypes.PlayerID, counter achievements.Counter) error {
	p.increments = append(p.increments, counter)
	return p.err
}

func TestPublishAchievementsWorker_drainsQueue(t *testing.T) {
	eventQueue := queue.NewInMemoryQueue(16)
	eventQueue.Enqueue(achievements.Event{User: "alice", Unlock: achievements.FirstPlace})
	eventQueue.Enqueue(achievements.Event{User: "alice", Increment: achievements.CounterWin})

	publisher := &recordingPublisher{}
	w := NewPublishAchievementsWorker(NewPublishAchievementsWorkerOptions{
		EventQueue: eventQueue,
		Publisher:  publisher,
		Interval:   time.Second,
	})

	w.publishPending(context.Background())

	assert.Equal(t, []achievements.ID{achievements.FirstPlace}, publisher.unlocks)
	assert.Equal(t, []achievements.Counter{achievements.CounterWin}, publisher.increments)
	assert.Equal(t, 0, eventQueue.Size())
}

func TestPublishAchievementsWorker_dropsFailedEvents(t *testing.T) {
	eventQueue := queue.NewInMemoryQueue(16)
	eventQueue.Enqueue(achievements.Event{User: "alice", Unlock: achievements.FirstPlace})

	publisher := &recordingPublisher{err: errors.New("backend down")}
	w := NewPublishAchievementsWorker(NewPublishAchievementsWorkerOptions{
		EventQueue: eventQueue,
		Publisher:  publisher,
		Interval:   time.Second,
	})

	w.publishPending(context.Background())

	// The failure is logged, not retried.
	assert.Equal(t, 0, eventQueue.Size())
}
