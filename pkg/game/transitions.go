package game

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/wordgame/fictionary/pkg/achievements"
	"github.com/wordgame/fictionary/pkg/game/constants"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/gateway"
	"github.com/wordgame/fictionary/pkg/log"
	"github.com/wordgame/fictionary/pkg/oracle"
	"github.com/wordgame/fictionary/pkg/pool"
	"github.com/wordgame/fictionary/pkg/repositories"
	"github.com/wordgame/fictionary/pkg/repositories/models"
	"github.com/wordgame/fictionary/pkg/scoring"
)

// scheduleDeadline arms the phase timer. The callback re-checks the phase
// under the lock, so a timer firing after the phase already advanced is a
// no-op rather than a double transition.
func (m *Manager) scheduleDeadline(phase gametypes.Phase, d time.Duration) {
	m.cancelDeadline()
	m.timer = time.AfterFunc(d, func() {
		m.onDeadline(phase)
	})
}

func (m *Manager) cancelDeadline() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) onDeadline(phase gametypes.Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.game.Phase != phase {
		return
	}

	ctx := context.Background()
	var err error
	switch phase {
	case gametypes.PhaseCollectingMeanings:
		err = m.finishMeanings(ctx)
	case gametypes.PhaseCollectingBettings:
		err = m.finishBettings(ctx)
	}
	if err != nil {
		log.Error("Failed to complete %s phase: %v", phase, err)
	}
}

// Resume picks up an in-flight round after a restart. An already expired
// deadline gets a short grace period instead of firing immediately, so
// participants can react before the phase closes.
func (m *Manager) Resume(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.game.Phase {
	case gametypes.PhaseCollectingMeanings, gametypes.PhaseCollectingBettings:
		if m.roundID == "" {
			m.roundID = uuid.NewString()
		}
		delay := ResumeDelay(m.game.Deadline, m.now())
		m.scheduleDeadline(m.game.Phase, delay)
		log.Info("Resumed %s phase, closing in %s", m.game.Phase, delay)
	case gametypes.PhaseWaiting:
		if m.game.IsWaitingDaily {
			if err := m.startCurated(ctx); err != nil {
				log.Error("Failed to start pending curated round: %v", err)
			}
		}
	}
}

// ResumeDelay returns how long a resumed phase keeps running. A deadline
// still in the future runs out its remaining time; a missed deadline gets
// the grace period.
func ResumeDelay(deadline *time.Time, now time.Time) time.Duration {
	if deadline == nil || !deadline.After(now) {
		return constants.ResumeGrace
	}
	return deadline.Sub(now)
}

// startCurated begins the daily curated round: a stashed round resumes
// with its collected meanings, otherwise the backlog supplies a theme from
// the least recent author available.
func (m *Manager) startCurated(ctx context.Context) error {
	m.game.IsWaitingDaily = false

	if stash := m.game.StashedDaily; stash != nil {
		m.game.StashedDaily = nil
		theme := stash.Theme
		m.roundID = uuid.NewString()
		deadline := m.now().Add(constants.CollectMeaningsCurated)
		m.game.Phase = gametypes.PhaseCollectingMeanings
		m.game.Theme = &theme
		m.game.Author = stash.Author
		m.game.Meanings = stash.Meanings
		if m.game.Meanings == nil {
			m.game.Meanings = make(map[gametypes.PlayerID]string)
		}
		m.game.Bettings = make(map[gametypes.PlayerID]gametypes.Betting)
		m.game.Comments = stash.Comments
		m.game.Deadline = &deadline
		if err := m.persist(ctx); err != nil {
			return err
		}

		m.scheduleDeadline(gametypes.PhaseCollectingMeanings, constants.CollectMeaningsCurated)
		registered := make([]gametypes.PlayerID, 0, len(m.game.Meanings))
		for user := range m.game.Meanings {
			registered = append(registered, user)
		}
		sort.Slice(registered, func(i, j int) bool { return registered[i] < registered[j] })
		m.postUpdate(ctx, gateway.Update{
			Kind:       gateway.UpdateRoundStarted,
			Reading:    theme.Reading,
			Author:     stash.Author,
			Deadline:   m.game.Deadline,
			Registered: registered,
		})
		return m.requestOracleMeanings(ctx)
	}

	// Relax the author exclusion one entry at a time, oldest first, so the
	// most recent authors stay excluded the longest.
	exclude := m.game.AuthorHistory
	var record *models.ThemeRecord
	for {
		var err error
		record, err = m.repo.NextTheme(ctx, exclude)
		if err == nil {
			break
		}
		if !repositories.IsNotFound(err) {
			return fmt.Errorf("failed to draw a theme from the backlog: %w", err)
		}
		if len(exclude) == 0 {
			m.postUpdate(ctx, gateway.Update{
				Kind:   gateway.UpdateRoundAborted,
				Reason: "no themes in stock",
			})
			return m.persist(ctx)
		}
		exclude = exclude[1:]
	}

	return m.startCuratedWith(ctx, record)
}

// startCuratedWith opens the collection phase for a backlog theme.
func (m *Manager) startCuratedWith(ctx context.Context, record *models.ThemeRecord) error {
	m.roundID = uuid.NewString()
	deadline := m.now().Add(constants.CollectMeaningsCurated)
	m.game.Phase = gametypes.PhaseCollectingMeanings
	m.game.Theme = &gametypes.Theme{
		Word:        record.Word,
		Reading:     record.Reading,
		Meaning:     record.Meaning,
		SourceLabel: record.SourceLabel,
		URL:         record.URL,
	}
	m.game.Author = record.Author
	m.game.Meanings = make(map[gametypes.PlayerID]string)
	m.game.Bettings = make(map[gametypes.PlayerID]gametypes.Betting)
	m.game.Comments = nil
	m.game.Deadline = &deadline
	if err := m.persist(ctx); err != nil {
		return err
	}

	m.scheduleDeadline(gametypes.PhaseCollectingMeanings, constants.CollectMeaningsCurated)
	m.postUpdate(ctx, gateway.Update{
		Kind:     gateway.UpdateRoundStarted,
		Reading:  record.Reading,
		Author:   record.Author,
		Deadline: m.game.Deadline,
	})
	return m.requestOracleMeanings(ctx)
}

// requestOracleMeanings asks each automated agent for a meaning. Requests
// are idempotent per agent and per round; generation failures are logged
// and the agent simply sits the round out.
func (m *Manager) requestOracleMeanings(ctx context.Context) error {
	if m.game.Phase != gametypes.PhaseCollectingMeanings || m.game.Theme == nil {
		return nil
	}
	theme := *m.game.Theme

	for _, agent := range m.oracles {
		if _, ok := m.game.Meanings[agent.ID]; ok {
			continue
		}
		text, err := agent.Meaner.ProposeMeaning(ctx, theme.Reading)
		if err != nil {
			log.Warn("Agent %s produced no meaning for %q: %v", agent.ID, theme.Reading, err)
			continue
		}
		text = pool.NormalizeMeaning(text)
		if text == "" || len(text) > constants.MaxMeaningBytes {
			continue
		}
		// Discard generated text that reproduces the authentic meaning, or
		// every bet on it would be a giveaway.
		limit := len([]rune(theme.Meaning))
		if l := len([]rune(text)); l > limit {
			limit = l
		}
		if levenshtein.ComputeDistance(text, theme.Meaning) <= limit/2 {
			log.Info("Agent %s nearly reproduced the meaning of %q, discarding", agent.ID, theme.Reading)
			continue
		}
		m.game.Meanings[agent.ID] = text
	}
	return m.persist(ctx)
}

// finishMeanings closes the collection phase: it aborts underpopulated
// rounds, otherwise builds the shuffled choice list, places the automated
// bets and opens the betting phase.
func (m *Manager) finishMeanings(ctx context.Context) error {
	m.cancelDeadline()
	humans := m.humanCount()
	curated := m.game.Author != ""

	if curated && humans < constants.MinCuratedParticipants {
		if len(m.game.Meanings) > 0 {
			m.game.StashedDaily = &gametypes.Stash{
				Theme:    *m.game.Theme,
				Author:   m.game.Author,
				Meanings: m.game.Meanings,
				Comments: m.game.Comments,
			}
		}
		m.postUpdate(ctx, gateway.Update{
			Kind:       gateway.UpdateRoundAborted,
			Author:     m.game.Author,
			HumanCount: humans,
			Reason:     "not enough participants",
		})
		m.game.ResetRound()
		return m.persist(ctx)
	}

	if humans == 0 {
		m.postUpdate(ctx, gateway.Update{
			Kind:   gateway.UpdateRoundAborted,
			Reason: "no participants",
		})
		m.game.ResetRound()
		if err := m.persist(ctx); err != nil {
			return err
		}
		return m.maybeStartPendingCurated(ctx)
	}

	cards := make([]gametypes.MeaningCard, 0, len(m.game.Meanings)+constants.DecoyTarget)
	cards = append(cards, gametypes.MeaningCard{Text: m.game.Theme.Meaning})
	participants := make([]gametypes.PlayerID, 0, len(m.game.Meanings))
	for user := range m.game.Meanings {
		participants = append(participants, user)
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i] < participants[j] })
	for _, user := range participants {
		cards = append(cards, gametypes.MeaningCard{Text: m.game.Meanings[user], Player: user})
	}
	cards = append(cards, m.injector.Inject(ctx, *m.game.Theme, len(m.game.Meanings), curated)...)
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	duration := constants.CollectBettingsLive
	if curated {
		duration = constants.CollectBettingsCurated
	}
	deadline := m.now().Add(duration)
	m.game.ShuffledMeanings = cards
	m.game.Phase = gametypes.PhaseCollectingBettings
	m.game.Deadline = &deadline

	// Automated bets go in immediately. They never complete the phase
	// early; only a user's bet can do that.
	for _, agent := range m.oracles {
		own, ok := m.game.Meanings[agent.ID]
		if !ok {
			continue
		}
		if choice := oracle.PickBet(own, cards, agent.ID); choice >= 0 {
			m.game.Bettings[agent.ID] = gametypes.Betting{Choice: choice, Coins: 1}
		}
	}
	if err := m.persist(ctx); err != nil {
		return err
	}

	m.scheduleDeadline(gametypes.PhaseCollectingBettings, duration)
	choices := make([]string, len(cards))
	for i, card := range cards {
		choices[i] = card.Text
	}
	m.postUpdate(ctx, gateway.Update{
		Kind:       gateway.UpdateBettingStarted,
		Reading:    m.game.Theme.Reading,
		Choices:    choices,
		Deadline:   m.game.Deadline,
		HumanCount: humans,
	})

	if humans >= constants.MinCuratedParticipants {
		for _, user := range participants {
			if m.isHuman(user) {
				m.enqueueIncrement(user, achievements.CounterParticipate)
			}
		}
	}
	return nil
}

// finishBettings scores the round, records the rating ledger entries,
// reveals the results and returns the game to waiting.
func (m *Manager) finishBettings(ctx context.Context) error {
	m.cancelDeadline()
	now := m.now()
	result := scoring.Score(m.game, m.isHuman)
	for user, delta := range result.Deltas {
		m.game.AppendRating(user, gametypes.RatingEntry{Timestamp: now, Rating: delta}, constants.RatingWindow)
	}

	results := m.buildResults(result)
	author := m.game.Author
	reading := m.game.Theme.Reading
	comments := m.game.Comments

	m.publishRoundAchievements(result, now)

	if author != "" {
		// A failed backlog update must not hold the round hostage; the
		// theme may come up again, which is tolerable.
		if err := m.repo.MarkThemeDone(ctx, reading); err != nil {
			log.Error("Failed to retire theme %q from the backlog: %v", reading, err)
		}
		m.game.AuthorHistory = append(m.game.AuthorHistory, author)
	}

	m.game.ResetRound()
	if err := m.persist(ctx); err != nil {
		return err
	}

	m.postUpdate(ctx, gateway.Update{
		Kind:    gateway.UpdateResults,
		Author:  author,
		Results: results,
	})
	ranked, low := scoring.Ranking(m.game.Ratings, now)
	m.postUpdate(ctx, gateway.Update{
		Kind:    gateway.UpdateRanking,
		Ranking: &gateway.RankingUpdate{Ranked: ranked, Low: low},
	})
	if len(comments) > 0 {
		m.postUpdate(ctx, gateway.Update{
			Kind:     gateway.UpdateComments,
			Comments: comments,
		})
	}

	return m.maybeStartPendingCurated(ctx)
}

func (m *Manager) maybeStartPendingCurated(ctx context.Context) error {
	if !m.game.IsWaitingDaily {
		return nil
	}
	return m.startCurated(ctx)
}

// buildResults renders the full reveal, including each card's provenance
// and the bets placed on it.
func (m *Manager) buildResults(result scoring.Result) *gateway.RoundResults {
	theme := *m.game.Theme
	themeURL := theme.URL
	if themeURL == "" {
		themeURL = pool.WordURL(gametypes.Candidate{Word: theme.Word, Source: theme.Source, ID: theme.ID})
	}

	bettors := make(map[int][]gateway.BettorRef)
	for user, bet := range m.game.Bettings {
		bettors[bet.Choice] = append(bettors[bet.Choice], gateway.BettorRef{Player: user, Coins: bet.Coins})
	}
	for _, refs := range bettors {
		sort.Slice(refs, func(i, j int) bool { return refs[i].Player < refs[j].Player })
	}

	cards := make([]gateway.ResultCard, len(m.game.ShuffledMeanings))
	for i, card := range m.game.ShuffledMeanings {
		rendered := gateway.ResultCard{
			Text:    card.Text,
			Player:  card.Player,
			Decoy:   card.Decoy,
			Correct: i == result.CorrectIndex,
			Bettors: bettors[i],
		}
		switch {
		case card.IsTruth():
			rendered.Title = theme.Word
			rendered.URL = themeURL
			rendered.IconURL = pool.IconURL(theme.Source)
		case card.Decoy != "":
			rendered.Title = card.Decoy
			rendered.URL = pool.WordURL(gametypes.Candidate{Word: card.Decoy, Source: card.DecoySource})
			rendered.IconURL = pool.IconURL(card.DecoySource)
		}
		cards[i] = rendered
	}

	return &gateway.RoundResults{
		Theme:          theme,
		ThemeURL:       themeURL,
		CorrectIndex:   result.CorrectIndex,
		CorrectBettors: result.CorrectBettors,
		Cards:          cards,
	}
}
