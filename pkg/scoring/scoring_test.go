package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wordgame/fictionary/pkg/game/constants"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
)

func allHuman(gametypes.PlayerID) bool { return true }

func TestScore(t *testing.T) {
	tests := []struct {
		name               string
		game               *gametypes.Game
		isHuman            func(gametypes.PlayerID) bool
		wantCorrectIndex   int
		wantDeltas         map[gametypes.PlayerID]int
		wantCorrectBettors []gametypes.PlayerID
	}{
		{
			name: "correct bet wins coins, wrong bet pays the deceiver",
			game: &gametypes.Game{
				Meanings: map[gametypes.PlayerID]string{
					"alice": "x", "bob": "y", "carol": "z",
				},
				ShuffledMeanings: []gametypes.MeaningCard{
					{Text: "truth"},
					{Text: "x", Player: "alice"},
					{Text: "y", Player: "bob"},
					{Text: "z", Player: "carol"},
					{Text: "d", Decoy: "word"},
				},
				Bettings: map[gametypes.PlayerID]gametypes.Betting{
					"alice": {Choice: 0, Coins: 2},
					"bob":   {Choice: 1, Coins: 3},
					"carol": {Choice: 4, Coins: 1},
				},
			},
			isHuman:          allHuman,
			wantCorrectIndex: 0,
			wantDeltas: map[gametypes.PlayerID]int{
				"alice": 2 + 3, // won the bet and fooled bob
				"bob":   -4,
				"carol": -2,
			},
			wantCorrectBettors: []gametypes.PlayerID{"alice"},
		},
		{
			name: "missing bet pays the default stake and fools nobody",
			game: &gametypes.Game{
				Meanings: map[gametypes.PlayerID]string{
					"alice": "x", "bob": "y",
				},
				ShuffledMeanings: []gametypes.MeaningCard{
					{Text: "truth"},
					{Text: "x", Player: "alice"},
					{Text: "y", Player: "bob"},
				},
				Bettings: map[gametypes.PlayerID]gametypes.Betting{
					"alice": {Choice: 0, Coins: 1},
				},
			},
			isHuman:          allHuman,
			wantCorrectIndex: 0,
			wantDeltas: map[gametypes.PlayerID]int{
				"alice": 1,
				"bob":   -2,
			},
			wantCorrectBettors: []gametypes.PlayerID{"alice"},
		},
		{
			name: "curated author gains wrong minus correct, humans only",
			game: &gametypes.Game{
				Author: "dan",
				Meanings: map[gametypes.PlayerID]string{
					"alice": "x", "bob": "y", "carol": "z", "bot": "w",
				},
				ShuffledMeanings: []gametypes.MeaningCard{
					{Text: "x", Player: "alice"},
					{Text: "truth"},
					{Text: "y", Player: "bob"},
					{Text: "z", Player: "carol"},
					{Text: "w", Player: "bot"},
				},
				Bettings: map[gametypes.PlayerID]gametypes.Betting{
					"alice": {Choice: 1, Coins: 1},
					"bob":   {Choice: 0, Coins: 2},
					"carol": {Choice: 0, Coins: 1},
					"bot":   {Choice: 1, Coins: 1},
				},
			},
			isHuman:          func(id gametypes.PlayerID) bool { return id != "bot" },
			wantCorrectIndex: 1,
			wantDeltas: map[gametypes.PlayerID]int{
				"alice": 1 + 3, // correct bet plus two fooled bettors
				"bob":   -3,
				"carol": -2,
				"bot":   1,
				"dan":   2 - 1, // two humans wrong, one right
			},
			wantCorrectBettors: []gametypes.PlayerID{"alice", "bot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.game, tt.isHuman)
			assert.Equal(t, tt.wantCorrectIndex, got.CorrectIndex)
			assert.Equal(t, tt.wantDeltas, got.Deltas)
			assert.Equal(t, tt.wantCorrectBettors, got.CorrectBettors)
		})
	}
}

func TestDecayedRating(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		entry gametypes.RatingEntry
		want  float64
	}{
		{
			name:  "fresh entry keeps its value",
			entry: gametypes.RatingEntry{Timestamp: now, Rating: 5},
			want:  5,
		},
		{
			name:  "ten days shave two points",
			entry: gametypes.RatingEntry{Timestamp: now.Add(-10 * 24 * time.Hour), Rating: 5},
			want:  3,
		},
		{
			name:  "decay rounds toward positive infinity at tenths",
			entry: gametypes.RatingEntry{Timestamp: now.Add(-6 * time.Hour), Rating: 3},
			want:  3, // 3 - 0.05 rounds back up to 3.0
		},
		{
			name:  "decay never passes the floor",
			entry: gametypes.RatingEntry{Timestamp: now.Add(-40 * 24 * time.Hour), Rating: 1},
			want:  constants.RatingFloor,
		},
		{
			name:  "floor entries do not decay",
			entry: gametypes.RatingEntry{Timestamp: now.Add(-100 * 24 * time.Hour), Rating: -6},
			want:  -6,
		},
		{
			name:  "entries below the floor keep their raw value",
			entry: gametypes.RatingEntry{Timestamp: now.Add(-100 * 24 * time.Hour), Rating: -9},
			want:  -9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DecayedRating(tt.entry, now), 1e-9)
		})
	}
}

func TestWindowScore_padsMissingEntries(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	entries := []gametypes.RatingEntry{
		{Timestamp: now, Rating: 4},
		{Timestamp: now, Rating: 2},
	}
	// Three missing rounds count as floor entries.
	want := 4.0 + 2.0 + 3*float64(constants.RatingFloor)
	assert.InDelta(t, want, WindowScore(entries, now), 1e-9)
}

func TestRanking(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	full := func(rating int) []gametypes.RatingEntry {
		entries := make([]gametypes.RatingEntry, constants.RatingWindow)
		for i := range entries {
			entries[i] = gametypes.RatingEntry{Timestamp: now, Rating: rating}
		}
		return entries
	}

	ratings := map[gametypes.PlayerID][]gametypes.RatingEntry{
		"alice": full(4),
		"bob":   full(1),
		"carol": {{Timestamp: now, Rating: 2}}, // 2 - 24 padding = -22
		"dave":  full(constants.RatingFloor),   // exactly -30, grouped low
	}

	ranked, low := Ranking(ratings, now)

	rankedPlayers := make([]gametypes.PlayerID, len(ranked))
	for i, entry := range ranked {
		rankedPlayers[i] = entry.Player
	}
	assert.Equal(t, []gametypes.PlayerID{"alice", "bob", "carol"}, rankedPlayers)

	if assert.Len(t, low, 1) {
		assert.Equal(t, gametypes.PlayerID("dave"), low[0].Player)
		assert.InDelta(t, -30, low[0].Score, 1e-9)
	}
}

func TestRanking_tiesBreakByPlayer(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	entry := []gametypes.RatingEntry{{Timestamp: now, Rating: 3}}
	ranked, low := Ranking(map[gametypes.PlayerID][]gametypes.RatingEntry{
		"zoe": entry,
		"amy": entry,
	}, now)

	assert.Empty(t, low)
	if assert.Len(t, ranked, 2) {
		assert.Equal(t, gametypes.PlayerID("amy"), ranked[0].Player)
		assert.Equal(t, gametypes.PlayerID("zoe"), ranked[1].Player)
	}
}
