package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordgame/fictionary/pkg/game/constants"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/gateway"
	"github.com/wordgame/fictionary/pkg/repositories/models"
)

func zephyrTheme() models.ThemeRecord {
	return models.ThemeRecord{
		Author:      "dan",
		Word:        "Zephyr",
		Reading:     "zef",
		Meaning:     "a light wind from the west",
		SourceLabel: "Wiktionary",
		URL:         "https://example.com/zephyr",
	}
}

func TestCuratedRound_fullFlow(t *testing.T) {
	m, repo, gw := newTestManager()
	repo.themes = []models.ThemeRecord{zephyrTheme()}
	ctx := context.Background()

	require.NoError(t, m.RequestCuratedRound(ctx))
	require.Equal(t, gametypes.PhaseCollectingMeanings, m.game.Phase)
	assert.Equal(t, gametypes.PlayerID("dan"), m.game.Author)
	assert.Equal(t, "Zephyr", m.game.Theme.Word)
	require.NotNil(t, m.game.Deadline)
	assert.Equal(t, testTime.Add(90*time.Minute), *m.game.Deadline)

	// The author may not participate in their own round.
	assert.True(t, IsValidation(m.SubmitMeaning(ctx, "dan", "a sneaky hint")))

	require.NoError(t, m.SubmitMeaning(ctx, "alice", "a festival mask"))
	require.NoError(t, m.SubmitMeaning(ctx, "bob", "a fencing maneuver"))
	require.NoError(t, m.SubmitMeaning(ctx, "carol", "an alpine shepherd's call"))

	m.onDeadline(gametypes.PhaseCollectingMeanings)
	require.Equal(t, gametypes.PhaseCollectingBettings, m.game.Phase)
	assert.Equal(t, testTime.Add(30*time.Minute), *m.game.Deadline)
	require.Len(t, m.game.ShuffledMeanings, 5)

	truthIndex := -1
	aliceIndex := -1
	for i, card := range m.game.ShuffledMeanings {
		if card.IsTruth() {
			truthIndex = i
		}
		if card.Player == "alice" {
			aliceIndex = i
		}
	}
	require.NotEqual(t, -1, truthIndex)
	require.NotEqual(t, -1, aliceIndex)

	require.NoError(t, m.PlaceBet(ctx, "alice", truthIndex, 1))
	require.NoError(t, m.PlaceBet(ctx, "bob", aliceIndex, 1))
	require.NoError(t, m.PlaceBet(ctx, "carol", truthIndex, 1))

	assert.Equal(t, gametypes.PhaseWaiting, m.game.Phase)
	assert.Equal(t, []string{"zef"}, repo.markedDone)
	assert.Equal(t, []gametypes.PlayerID{"dan"}, m.game.AuthorHistory)

	// 2 humans right, 1 wrong: the author loses the difference.
	require.Len(t, m.game.Ratings["dan"], 1)
	assert.Equal(t, -1, m.game.Ratings["dan"][0].Rating)
	assert.Equal(t, 2, m.game.Ratings["alice"][0].Rating)
	assert.Equal(t, -2, m.game.Ratings["bob"][0].Rating)
	assert.Equal(t, 1, m.game.Ratings["carol"][0].Rating)

	require.Len(t, gw.byKind(gateway.UpdateResults), 1)
}

func TestCuratedRound_underpopulatedStashesAndResumes(t *testing.T) {
	m, repo, gw := newTestManager()
	repo.themes = []models.ThemeRecord{zephyrTheme()}
	ctx := context.Background()

	require.NoError(t, m.RequestCuratedRound(ctx))
	require.NoError(t, m.SubmitMeaning(ctx, "alice", "a festival mask"))

	m.onDeadline(gametypes.PhaseCollectingMeanings)

	assert.Equal(t, gametypes.PhaseWaiting, m.game.Phase)
	require.NotNil(t, m.game.StashedDaily)
	assert.Equal(t, "Zephyr", m.game.StashedDaily.Theme.Word)
	assert.Equal(t, "a festival mask", m.game.StashedDaily.Meanings["alice"])
	// An aborted round does not retire the theme or rotate the author.
	assert.Empty(t, repo.markedDone)
	assert.Empty(t, m.game.AuthorHistory)
	require.Len(t, gw.byKind(gateway.UpdateRoundAborted), 1)

	// The next curated trigger resumes the stash with its participants.
	require.NoError(t, m.RequestCuratedRound(ctx))
	assert.Equal(t, gametypes.PhaseCollectingMeanings, m.game.Phase)
	assert.Nil(t, m.game.StashedDaily)
	assert.Equal(t, "a festival mask", m.game.Meanings["alice"])

	started := gw.byKind(gateway.UpdateRoundStarted)
	require.Len(t, started, 2)
	assert.Equal(t, []gametypes.PlayerID{"alice"}, started[1].Registered)
}

func TestCuratedRound_zeroMeaningsLeavesNoStash(t *testing.T) {
	m, repo, _ := newTestManager()
	repo.themes = []models.ThemeRecord{zephyrTheme()}
	ctx := context.Background()

	require.NoError(t, m.RequestCuratedRound(ctx))
	m.onDeadline(gametypes.PhaseCollectingMeanings)

	assert.Equal(t, gametypes.PhaseWaiting, m.game.Phase)
	assert.Nil(t, m.game.StashedDaily)
}

func TestCuratedRound_emptyBacklogAborts(t *testing.T) {
	m, _, gw := newTestManager()
	ctx := context.Background()

	require.NoError(t, m.RequestCuratedRound(ctx))

	assert.Equal(t, gametypes.PhaseWaiting, m.game.Phase)
	aborted := gw.byKind(gateway.UpdateRoundAborted)
	require.Len(t, aborted, 1)
	assert.Equal(t, "no themes in stock", aborted[0].Reason)
}

func TestCuratedRound_relaxesAuthorExclusion(t *testing.T) {
	m, repo, _ := newTestManager()
	repo.themes = []models.ThemeRecord{zephyrTheme()}
	m.game.AuthorHistory = []gametypes.PlayerID{"dan"}
	ctx := context.Background()

	// dan is the only stocked author, so the exclusion gives way.
	require.NoError(t, m.RequestCuratedRound(ctx))
	assert.Equal(t, gametypes.PhaseCollectingMeanings, m.game.Phase)
	assert.Equal(t, gametypes.PlayerID("dan"), m.game.Author)
}

func TestRequestCuratedRoundByAuthor(t *testing.T) {
	m, repo, _ := newTestManager()
	repo.themes = []models.ThemeRecord{zephyrTheme()}
	ctx := context.Background()

	assert.True(t, IsValidation(m.RequestCuratedRoundByAuthor(ctx, "nobody")))

	require.NoError(t, m.RequestCuratedRoundByAuthor(ctx, "dan"))
	assert.Equal(t, gametypes.PhaseCollectingMeanings, m.game.Phase)
	assert.Equal(t, gametypes.PlayerID("dan"), m.game.Author)

	assert.ErrorIs(t, m.RequestCuratedRoundByAuthor(ctx, "dan"), ErrBusy)
}

func TestRequestCuratedRound_whileBusyIsRemembered(t *testing.T) {
	m, repo, _ := newTestManager()
	repo.themes = []models.ThemeRecord{zephyrTheme()}
	ctx := context.Background()
	startLiveRound(t, m)

	assert.ErrorIs(t, m.RequestCuratedRound(ctx), ErrBusy)
	assert.True(t, m.game.IsWaitingDaily)

	require.NoError(t, m.SubmitMeaning(ctx, "alice", "a kind of ancient pottery"))
	require.NoError(t, m.SubmitMeaning(ctx, "bob", "a migratory songbird"))
	m.onDeadline(gametypes.PhaseCollectingMeanings)

	var truthIndex, aliceIndex int
	for i, card := range m.game.ShuffledMeanings {
		if card.IsTruth() {
			truthIndex = i
		}
		if card.Player == "alice" {
			aliceIndex = i
		}
	}
	require.NoError(t, m.PlaceBet(ctx, "alice", truthIndex, 1))
	require.NoError(t, m.PlaceBet(ctx, "bob", aliceIndex, 1))

	// The live round finished; the pending curated round starts on its own.
	assert.Equal(t, gametypes.PhaseCollectingMeanings, m.game.Phase)
	assert.Equal(t, gametypes.PlayerID("dan"), m.game.Author)
	assert.False(t, m.game.IsWaitingDaily)
}

func TestOnDeadline_staleTimerIsANoop(t *testing.T) {
	m, _, gw := newTestManager()
	ctx := context.Background()
	startLiveRound(t, m)
	require.NoError(t, m.SubmitMeaning(ctx, "alice", "a kind of ancient pottery"))

	// A timer for a phase that already moved on does nothing.
	m.onDeadline(gametypes.PhaseCollectingBettings)
	assert.Equal(t, gametypes.PhaseCollectingMeanings, m.game.Phase)
	assert.Empty(t, gw.byKind(gateway.UpdateBettingStarted))
}

func TestResumeDelay(t *testing.T) {
	now := testTime

	tests := []struct {
		name     string
		deadline *time.Time
		want     time.Duration
	}{
		{
			name:     "future deadline runs out its remaining time",
			deadline: timePtr(now.Add(10 * time.Minute)),
			want:     10 * time.Minute,
		},
		{
			name:     "missed deadline gets the grace period",
			deadline: timePtr(now.Add(-time.Hour)),
			want:     constants.ResumeGrace,
		},
		{
			name:     "missing deadline gets the grace period",
			deadline: nil,
			want:     constants.ResumeGrace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResumeDelay(tt.deadline, now))
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
