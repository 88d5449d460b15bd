package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/wordgame/fictionary/pkg/game/constants"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
)

// noChoice marks a participant who never placed a bet. They still pay the
// default stake.
const noChoice = -1

// Result is the outcome of scoring one finished round.
type Result struct {
	// CorrectIndex is the position of the true meaning in the shuffled list.
	CorrectIndex int
	// Deltas holds the per-round rating change for every affected participant.
	Deltas map[gametypes.PlayerID]int
	// CorrectBettors lists the participants who picked the true meaning.
	CorrectBettors []gametypes.PlayerID
}

// Score computes the round's rating deltas. It is pure: the game record is
// read, never written. isHuman distinguishes automated participants for the
// curated author's bonus, which counts human bettors only.
func Score(g *gametypes.Game, isHuman func(gametypes.PlayerID) bool) Result {
	correctIndex := noChoice
	for i, card := range g.ShuffledMeanings {
		if card.IsTruth() {
			correctIndex = i
			break
		}
	}

	deltas := make(map[gametypes.PlayerID]int, len(g.Meanings)+1)
	for user := range g.Meanings {
		deltas[user] = 0
	}
	if g.Author != "" {
		deltas[g.Author] = 0
	}

	var correctBettors []gametypes.PlayerID
	for user := range g.Meanings {
		bet, ok := g.Bettings[user]
		if !ok {
			bet = gametypes.Betting{Choice: noChoice, Coins: 1}
		}

		if bet.Choice == correctIndex {
			deltas[user] += bet.Coins
			correctBettors = append(correctBettors, user)
			continue
		}

		deltas[user] -= bet.Coins + 1
		if bet.Choice == noChoice {
			continue
		}
		// Reward the participant whose false meaning fooled this bettor.
		if fooledBy := g.ShuffledMeanings[bet.Choice].Player; fooledBy != "" {
			deltas[fooledBy] += bet.Coins
		}
	}
	sort.Slice(correctBettors, func(i, j int) bool { return correctBettors[i] < correctBettors[j] })

	if g.Author != "" {
		correct := 0
		humans := 0
		for user := range g.Meanings {
			if !isHuman(user) {
				continue
			}
			humans++
			if bet, ok := g.Bettings[user]; ok && bet.Choice == correctIndex {
				correct++
			}
		}
		wrong := humans - correct
		deltas[g.Author] += wrong - correct
	}

	return Result{
		CorrectIndex:   correctIndex,
		Deltas:         deltas,
		CorrectBettors: correctBettors,
	}
}

// DecayedRating returns a single ledger entry's contribution to the ranking
// at the given time. Ratings above the floor lose RatingDecayPerDay per
// elapsed day; the decayed value rounds toward positive infinity at 0.1
// granularity and never falls below the floor. Entries at or below the
// floor are left unmodified.
func DecayedRating(entry gametypes.RatingEntry, now time.Time) float64 {
	if entry.Rating <= constants.RatingFloor {
		return float64(entry.Rating)
	}
	days := now.Sub(entry.Timestamp).Hours() / 24
	decayed := math.Ceil((float64(entry.Rating)-days*constants.RatingDecayPerDay)*10) / 10
	return math.Max(constants.RatingFloor, decayed)
}

// WindowScore sums a participant's decayed ledger, padding missing entries
// with the floor value.
func WindowScore(entries []gametypes.RatingEntry, now time.Time) float64 {
	total := 0.0
	for _, entry := range entries {
		total += DecayedRating(entry, now)
	}
	for i := len(entries); i < constants.RatingWindow; i++ {
		total += constants.RatingFloor
	}
	return total
}

// RankEntry is one displayed line of the current ranking.
type RankEntry struct {
	Player  gametypes.PlayerID `json:"player"`
	Score   float64            `json:"score"`
	Decayed []float64          `json:"decayed"`
}

// Ranking orders all rated participants by windowed decayed score.
// Participants at or below the low bucket threshold are returned separately
// and are displayed grouped rather than individually ranked.
func Ranking(ratings map[gametypes.PlayerID][]gametypes.RatingEntry, now time.Time) (ranked, low []RankEntry) {
	all := make([]RankEntry, 0, len(ratings))
	for player, entries := range ratings {
		decayed := make([]float64, len(entries))
		for i, entry := range entries {
			decayed[i] = DecayedRating(entry, now)
		}
		all = append(all, RankEntry{
			Player:  player,
			Score:   WindowScore(entries, now),
			Decayed: decayed,
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].Player < all[j].Player
	})

	for _, entry := range all {
		if entry.Score <= constants.LowBucketThreshold {
			low = append(low, entry)
		} else {
			ranked = append(ranked, entry)
		}
	}
	return ranked, low
}
