package game

import (
	"time"

	"github.com/wordgame/fictionary/pkg/achievements"
	"github.com/wordgame/fictionary/pkg/game/constants"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/scoring"
)

// publishRoundAchievements enqueues unlock and counter events for a scored
// round. Only humans earn achievements; automated agents are skipped. The
// events are drained asynchronously, so a slow achievement backend never
// delays the reveal.
func (m *Manager) publishRoundAchievements(result scoring.Result, now time.Time) {
	correct := make(map[gametypes.PlayerID]bool, len(result.CorrectBettors))
	for _, user := range result.CorrectBettors {
		correct[user] = true
		if m.isHuman(user) {
			m.enqueueIncrement(user, achievements.CounterWin)
		}
	}

	// fooled counts how many humans each participant's false meaning took in.
	fooled := make(map[gametypes.PlayerID]int)
	fooledBy := make(map[gametypes.PlayerID]gametypes.PlayerID)
	for user, bet := range m.game.Bettings {
		if !m.isHuman(user) || bet.Choice == result.CorrectIndex {
			continue
		}
		if bet.Choice < 0 || bet.Choice >= len(m.game.ShuffledMeanings) {
			continue
		}
		card := m.game.ShuffledMeanings[bet.Choice]
		if card.Player != "" {
			fooledBy[user] = card.Player
			if m.isHuman(card.Player) {
				fooled[card.Player]++
			}
		}
		if (card.Player != "" && !m.isHuman(card.Player)) || card.Decoy != "" {
			m.enqueueUnlock(user, achievements.FooledByMachine)
		}
	}
	for user, bet := range m.game.Bettings {
		if m.isHuman(user) && bet.Coins == constants.MaxCoins {
			m.enqueueUnlock(user, achievements.FiveCoinBet)
		}
	}

	for user, count := range fooled {
		m.enqueueIncrement(user, achievements.CounterDeceive)
		m.enqueueUnlock(user, achievements.Deceived)
		if count >= 3 {
			m.enqueueUnlock(user, achievements.Deceived3)
		}
	}
	for user, deceiver := range fooledBy {
		if !m.isHuman(deceiver) {
			continue
		}
		if other, ok := fooledBy[deceiver]; ok && other == user {
			m.enqueueUnlock(user, achievements.MutualDeception)
			m.enqueueUnlock(deceiver, achievements.MutualDeception)
		}
	}

	for user, delta := range result.Deltas {
		if !m.isHuman(user) {
			continue
		}
		if delta >= 6 {
			m.enqueueUnlock(user, achievements.RoundRating6)
		}
		if delta >= 10 {
			m.enqueueUnlock(user, achievements.RoundRating10)
		}
		if entries := m.game.Ratings[user]; len(entries) >= 2 {
			if entries[len(entries)-2].Rating-entries[len(entries)-1].Rating >= 10 {
				m.enqueueUnlock(user, achievements.RatingDrop10)
			}
		}
		if delta > 0 && !correct[user] && user != m.game.Author {
			m.enqueueUnlock(user, achievements.ProfitWithoutWin)
		}
	}

	if ranked, _ := scoring.Ranking(m.game.Ratings, now); len(ranked) > 0 {
		if leader := ranked[0].Player; m.isHuman(leader) {
			m.enqueueUnlock(leader, achievements.FirstPlace)
		}
	}
}
