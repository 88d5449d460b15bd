package workers

import (
	"context"
	"time"

	"github.com/wordgame/fictionary/pkg/achievements"
	"github.com/wordgame/fictionary/pkg/log"
	"github.com/wordgame/fictionary/pkg/queue"
)

type PublishAchievementsWorker struct {
	eventQueue queue.Queue
	publisher  achievements.Publisher
	interval   time.Duration
}

type NewPublishAchievementsWorkerOptions struct {
	EventQueue queue.Queue
	Publisher  achievements.Publisher
	Interval   time.Duration
}

// NewPublishAchievementsWorker creates a new PublishAchievementsWorker.
// The worker periodically drains the achievement event queue and forwards
// the events to the publisher. Publish failures are logged and the event
// is dropped; achievements are best effort.
func NewPublishAchievementsWorker(opts NewPublishAchievementsWorkerOptions) *PublishAchievementsWorker {
	return &PublishAchievementsWorker{
		eventQueue: opts.EventQueue,
		publisher:  opts.Publisher,
		interval:   opts.Interval,
	}
}

func (w *PublishAchievementsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.publishPending(ctx)
		}
	}
}

func (w *PublishAchievementsWorker) publishPending(ctx context.Context) {
	for _, item := range w.eventQueue.ReadAllMessages() {
		event, ok := item.(achievements.Event)
		if !ok {
			log.Error("Unexpected achievement event type: %T", item)
			continue
		}
		if event.Unlock != "" {
			if err := w.publisher.Unlock(ctx, event.User, event.Unlock); err != nil {
				log.Error("Failed to publish unlock %s for %s: %v", event.Unlock, event.User, err)
			}
		}
		if event.Increment != "" {
			if err := w.publisher.Increment(ctx, event.User, event.Increment); err != nil {
				log.Error("Failed to publish counter %s for %s: %v", event.Increment, event.User, err)
			}
		}
	}
}
