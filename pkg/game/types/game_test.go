package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppendRating_evictsOldestBeyondWindow(t *testing.T) {
	g := NewGame()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		g.AppendRating("alice", RatingEntry{Timestamp: base.AddDate(0, 0, i), Rating: i}, 5)
	}

	entries := g.Ratings["alice"]
	if assert.Len(t, entries, 5) {
		assert.Equal(t, 2, entries[0].Rating)
		assert.Equal(t, 6, entries[4].Rating)
	}
}

func TestResetRound_preservesDurableState(t *testing.T) {
	g := NewGame()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	g.Phase = PhaseCollectingBettings
	g.Theme = &Theme{Word: "w", Reading: "r"}
	g.Author = "dan"
	g.AuthorHistory = []PlayerID{"erin"}
	g.Meanings["alice"] = "m"
	g.ShuffledMeanings = []MeaningCard{{Text: "m", Player: "alice"}}
	g.Bettings["alice"] = Betting{Choice: 0, Coins: 1}
	g.Comments = []Comment{{Player: "alice", Text: "hi", Time: now}}
	g.Ratings["alice"] = []RatingEntry{{Timestamp: now, Rating: 3}}
	g.StashedDaily = &Stash{Author: "erin"}
	g.Deadline = &now

	g.ResetRound()

	assert.Equal(t, PhaseWaiting, g.Phase)
	assert.Nil(t, g.Theme)
	assert.Empty(t, g.Author)
	assert.Empty(t, g.Meanings)
	assert.Empty(t, g.ShuffledMeanings)
	assert.Empty(t, g.Bettings)
	assert.Empty(t, g.Comments)
	assert.Nil(t, g.Deadline)

	assert.Equal(t, []PlayerID{"erin"}, g.AuthorHistory)
	assert.Len(t, g.Ratings["alice"], 1)
	assert.NotNil(t, g.StashedDaily)
}

func TestMeaningCard_IsTruth(t *testing.T) {
	assert.True(t, MeaningCard{Text: "m"}.IsTruth())
	assert.False(t, MeaningCard{Text: "m", Player: "alice"}.IsTruth())
	assert.False(t, MeaningCard{Text: "m", Decoy: "word"}.IsTruth())
}
