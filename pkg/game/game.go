package game

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wordgame/fictionary/pkg/achievements"
	"github.com/wordgame/fictionary/pkg/dummies"
	"github.com/wordgame/fictionary/pkg/game/constants"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/gateway"
	"github.com/wordgame/fictionary/pkg/log"
	"github.com/wordgame/fictionary/pkg/oracle"
	"github.com/wordgame/fictionary/pkg/pool"
	"github.com/wordgame/fictionary/pkg/queue"
	"github.com/wordgame/fictionary/pkg/repositories"
	"github.com/wordgame/fictionary/pkg/repositories/models"
)

// Manager owns the single game record and drives its phase machine. Every
// entry point acquires one non-reentrant mutex and holds it across any
// awaited collaborator call, so concurrent triggers for the same logical
// transition are strictly serialized; whichever loses the race observes a
// phase that has already moved on and becomes a no-op.
type Manager struct {
	mu        sync.Mutex
	game      *gametypes.Game
	repo      repositories.Repository
	gateway   gateway.Gateway
	pool      *pool.Pool
	injector  *dummies.Injector
	resolver  pool.Resolver
	oracles   []*oracle.Agent
	automated map[gametypes.PlayerID]bool
	events    queue.Queue
	roundID   string
	timer     *time.Timer
	now       func() time.Time
}

// NewManagerOptions contains options for creating a new Manager.
type NewManagerOptions struct {
	Game       *gametypes.Game
	Repository repositories.Repository
	Gateway    gateway.Gateway
	Pool       *pool.Pool
	Resolver   pool.Resolver
	Oracles    []*oracle.Agent
	EventQueue queue.Queue
}

func NewManager(opts NewManagerOptions) *Manager {
	game := opts.Game
	if game == nil {
		game = gametypes.NewGame()
	}
	game.EnsureMaps()

	resolver := opts.Resolver
	if resolver == nil {
		resolver = pool.RawResolver{}
	}
	events := opts.EventQueue
	if events == nil {
		events = queue.NewInMemoryQueue(1024)
	}

	automated := make(map[gametypes.PlayerID]bool, len(opts.Oracles))
	for _, agent := range opts.Oracles {
		automated[agent.ID] = true
	}

	return &Manager{
		game:      game,
		repo:      opts.Repository,
		gateway:   opts.Gateway,
		pool:      opts.Pool,
		injector:  dummies.NewInjector(opts.Pool, resolver),
		resolver:  resolver,
		oracles:   opts.Oracles,
		automated: automated,
		events:    events,
		now:       time.Now,
	}
}

func (m *Manager) isHuman(user gametypes.PlayerID) bool {
	return !m.automated[user]
}

func (m *Manager) humanCount() int {
	count := 0
	for user := range m.game.Meanings {
		if m.isHuman(user) {
			count++
		}
	}
	return count
}

func (m *Manager) persist(ctx context.Context) error {
	if err := m.repo.SaveSnapshot(ctx, m.game); err != nil {
		return fmt.Errorf("failed to persist game snapshot: %w", err)
	}
	return nil
}

// postUpdate delivers a round update; delivery failures are logged and
// swallowed so they never abort a transition in progress.
func (m *Manager) postUpdate(ctx context.Context, update gateway.Update) {
	update.RoundID = m.roundID
	if _, err := m.gateway.PostRoundUpdate(ctx, update); err != nil {
		log.Error("Failed to post %s update: %v", update.Kind, err)
	}
}

func (m *Manager) enqueueUnlock(user gametypes.PlayerID, id achievements.ID) {
	m.events.Enqueue(achievements.Event{User: user, Unlock: id})
}

func (m *Manager) enqueueIncrement(user gametypes.PlayerID, counter achievements.Counter) {
	m.events.Enqueue(achievements.Event{User: user, Increment: counter})
}

// RequestNewRound offers a fresh set of theme candidates for a live round.
func (m *Manager) RequestNewRound(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.game.Phase != gametypes.PhaseWaiting {
		return ErrBusy
	}

	candidates := m.pool.Sample(constants.CandidateCount)
	m.game.Candidates = candidates
	if err := m.persist(ctx); err != nil {
		return err
	}

	readings := make([]string, len(candidates))
	for i, c := range candidates {
		readings[i] = c.Reading
	}
	m.postUpdate(ctx, gateway.Update{
		Kind:       gateway.UpdateCandidatePrompt,
		Candidates: readings,
	})
	return nil
}

// ChooseCandidate starts a live round with the candidate matching the
// given reading. The selection prompt must be outstanding.
func (m *Manager) ChooseCandidate(ctx context.Context, reading string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.game.Phase != gametypes.PhaseWaiting {
		return ErrBusy
	}

	var chosen *gametypes.Candidate
	for i := range m.game.Candidates {
		if m.game.Candidates[i].Reading == reading {
			chosen = &m.game.Candidates[i]
			break
		}
	}
	if chosen == nil {
		return &ValidationError{Field: "reading", Reason: "not among the offered candidates"}
	}

	meaning, err := m.resolver.Resolve(ctx, *chosen)
	if err != nil || meaning == "" {
		if err != nil {
			log.Warn("Failed to resolve theme meaning for %q, using raw text: %v", chosen.Word, err)
		}
		meaning = pool.NormalizeMeaning(chosen.RawMeaning)
	}

	m.roundID = uuid.NewString()
	deadline := m.now().Add(constants.CollectMeaningsLive)
	m.game.Phase = gametypes.PhaseCollectingMeanings
	m.game.Theme = &gametypes.Theme{
		Word:    chosen.Word,
		Reading: chosen.Reading,
		Meaning: meaning,
		Source:  chosen.Source,
		ID:      chosen.ID,
	}
	m.game.Candidates = nil
	m.game.Meanings = make(map[gametypes.PlayerID]string)
	m.game.Bettings = make(map[gametypes.PlayerID]gametypes.Betting)
	m.game.Comments = nil
	m.game.Deadline = &deadline
	if err := m.persist(ctx); err != nil {
		return err
	}

	m.scheduleDeadline(gametypes.PhaseCollectingMeanings, constants.CollectMeaningsLive)
	m.postUpdate(ctx, gateway.Update{
		Kind:     gateway.UpdateRoundStarted,
		Reading:  m.game.Theme.Reading,
		Deadline: m.game.Deadline,
	})

	return m.requestOracleMeanings(ctx)
}

// SubmitMeaning records a participant's candidate meaning. Resubmission
// overwrites the previous text without a second participation notice.
func (m *Manager) SubmitMeaning(ctx context.Context, user gametypes.PlayerID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.game.Phase != gametypes.PhaseCollectingMeanings {
		return &ValidationError{Field: "phase", Reason: "meanings are not being collected"}
	}
	if user == m.game.Author {
		return &ValidationError{Field: "user", Reason: "the round author may not participate"}
	}
	if len(text) > constants.MaxMeaningBytes {
		return &ValidationError{Field: "text", Reason: "meaning is too long"}
	}
	meaning := pool.NormalizeMeaning(text)
	if meaning == "" {
		return &ValidationError{Field: "text", Reason: "meaning is empty"}
	}

	_, isUpdate := m.game.Meanings[user]
	m.game.Meanings[user] = meaning
	if err := m.persist(ctx); err != nil {
		return err
	}

	if !isUpdate {
		humans := m.humanCount()
		remaining := 0
		if m.game.Author != "" && humans < constants.MinCuratedParticipants {
			remaining = constants.MinCuratedParticipants - humans
		}
		m.postUpdate(ctx, gateway.Update{
			Kind:             gateway.UpdateParticipantJoined,
			Player:           user,
			HumanCount:       humans,
			RemainingToStart: remaining,
		})
		if m.isHuman(user) {
			m.enqueueUnlock(user, achievements.MeaningSubmitted)
		}
	}
	return nil
}

// PlaceBet records a participant's wager on one of the shuffled meanings.
// When the last missing bet arrives the betting phase completes early and
// the outstanding deadline timer is cancelled.
func (m *Manager) PlaceBet(ctx context.Context, user gametypes.PlayerID, choice, coins int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.game.Phase != gametypes.PhaseCollectingBettings {
		return &ValidationError{Field: "phase", Reason: "bets are not being collected"}
	}
	if _, ok := m.game.Meanings[user]; !ok {
		return &ValidationError{Field: "user", Reason: "only participants who submitted a meaning may bet"}
	}
	if choice < 0 || choice >= len(m.game.ShuffledMeanings) {
		return &ValidationError{Field: "choice", Reason: "choice number is out of range"}
	}
	if m.game.ShuffledMeanings[choice].Player == user {
		return &ValidationError{Field: "choice", Reason: "betting on your own meaning is not allowed"}
	}
	if humans := m.humanCount(); coins > humans {
		return &ValidationError{Field: "coins", Reason: fmt.Sprintf("cannot bet more coins than there are participants (%d)", humans)}
	}
	if coins < constants.MinCoins || coins > constants.MaxCoins {
		return &ValidationError{Field: "coins", Reason: fmt.Sprintf("bet must be between %d and %d coins", constants.MinCoins, constants.MaxCoins)}
	}

	_, isUpdate := m.game.Bettings[user]
	m.game.Bettings[user] = gametypes.Betting{Choice: choice, Coins: coins}
	if err := m.persist(ctx); err != nil {
		return err
	}

	if !isUpdate {
		m.postUpdate(ctx, gateway.Update{
			Kind:   gateway.UpdateBetPlaced,
			Player: user,
		})
	}

	if len(m.game.Bettings) == len(m.game.Meanings) {
		m.cancelDeadline()
		return m.finishBettings(ctx)
	}
	return nil
}

// AddComment attaches a free-form comment to the current round; comments
// are republished with the results.
func (m *Manager) AddComment(ctx context.Context, user gametypes.PlayerID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return &ValidationError{Field: "text", Reason: "comment is empty"}
	}

	m.game.Comments = append(m.game.Comments, gametypes.Comment{
		Player: user,
		Text:   text,
		Time:   m.now(),
	})
	return m.persist(ctx)
}

// RequestCuratedRound starts the daily curated round. When a round is
// already in progress the request is remembered and replayed as soon as
// the engine returns to waiting.
func (m *Manager) RequestCuratedRound(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.game.Phase != gametypes.PhaseWaiting {
		m.game.IsWaitingDaily = true
		if err := m.persist(ctx); err != nil {
			return err
		}
		return ErrBusy
	}
	return m.startCurated(ctx)
}

// RequestCuratedRoundByAuthor starts a curated round from a specific
// author's backlog, bypassing the rotation. Unlike the scheduled trigger it
// is not remembered while a round is in progress.
func (m *Manager) RequestCuratedRoundByAuthor(ctx context.Context, author gametypes.PlayerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.game.Phase != gametypes.PhaseWaiting {
		return ErrBusy
	}

	record, err := m.repo.NextThemeByAuthor(ctx, author)
	if err != nil {
		if repositories.IsNotFound(err) {
			return &ValidationError{Field: "author", Reason: "no themes in stock for this author"}
		}
		return fmt.Errorf("failed to draw a theme from the backlog: %w", err)
	}
	return m.startCuratedWith(ctx, record)
}

// RegisterTheme validates and stores a curated theme in the backlog.
func (m *Manager) RegisterTheme(ctx context.Context, record *models.ThemeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record.Word == "" {
		return &ValidationError{Field: "word", Reason: "word is empty"}
	}
	record.Reading = strings.ToLower(strings.TrimSpace(record.Reading))
	if record.Reading == "" {
		return &ValidationError{Field: "reading", Reason: "reading is empty"}
	}
	record.Meaning = pool.NormalizeMeaning(record.Meaning)
	if record.Meaning == "" {
		return &ValidationError{Field: "meaning", Reason: "meaning is empty"}
	}
	if len(record.Meaning) > constants.MaxMeaningBytes {
		return &ValidationError{Field: "meaning", Reason: "meaning is too long"}
	}
	if record.SourceLabel == "" {
		return &ValidationError{Field: "source", Reason: "source is empty"}
	}
	if parsed, err := url.Parse(record.URL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return &ValidationError{Field: "url", Reason: "url must be http or https"}
	}

	exists, err := m.repo.HasTheme(ctx, record.Reading)
	if err != nil {
		return fmt.Errorf("failed to check theme backlog: %w", err)
	}
	if exists {
		return &ValidationError{Field: "reading", Reason: "a theme with this reading is already registered"}
	}

	record.CreatedAt = m.now().Unix()
	if err := m.repo.RegisterTheme(ctx, record); err != nil {
		return fmt.Errorf("failed to register theme: %w", err)
	}

	if stock, err := m.repo.ThemeStock(ctx); err != nil {
		log.Error("Failed to load theme stock: %v", err)
	} else {
		entries := make([]gateway.StockEntry, len(stock))
		for i, s := range stock {
			entries[i] = gateway.StockEntry{Author: s.Author, Count: s.Count}
		}
		m.postUpdate(ctx, gateway.Update{
			Kind:   gateway.UpdateBacklogStock,
			Player: record.Author,
			Stock:  entries,
		})
	}

	m.enqueueUnlock(record.Author, achievements.ThemeRegistered)
	return nil
}

// StatusView is a sanitized projection of the game record for read-only
// consumers. It never includes the secret theme.
type StatusView struct {
	Phase        gametypes.Phase      `json:"phase"`
	Reading      string               `json:"reading,omitempty"`
	Author       gametypes.PlayerID   `json:"author,omitempty"`
	Deadline     *time.Time           `json:"deadline,omitempty"`
	Participants []gametypes.PlayerID `json:"participants,omitempty"`
	BetsPlaced   int                  `json:"betsPlaced"`
	Candidates   []string             `json:"candidates,omitempty"`
	Choices      []string             `json:"choices,omitempty"`
}

func (m *Manager) Status() StatusView {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := StatusView{
		Phase:      m.game.Phase,
		Author:     m.game.Author,
		Deadline:   m.game.Deadline,
		BetsPlaced: len(m.game.Bettings),
	}
	if m.game.Theme != nil {
		view.Reading = m.game.Theme.Reading
	}
	for user := range m.game.Meanings {
		view.Participants = append(view.Participants, user)
	}
	for _, c := range m.game.Candidates {
		view.Candidates = append(view.Candidates, c.Reading)
	}
	if m.game.Phase == gametypes.PhaseCollectingBettings {
		for _, card := range m.game.ShuffledMeanings {
			view.Choices = append(view.Choices, card.Text)
		}
	}
	return view
}
