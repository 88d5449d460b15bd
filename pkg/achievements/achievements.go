package achievements

import (
	"context"

	gametypes "github.com/wordgame/fictionary/pkg/game/types"
)

// ID names a one-time unlock.
type ID string

const (
	// MeaningSubmitted fires on a participant's first ever meaning.
	MeaningSubmitted ID = "meaning-submitted"
	// ThemeRegistered fires when a user adds a theme to the backlog.
	ThemeRegistered ID = "theme-registered"
	// RoundRating6 and RoundRating10 fire on single-round deltas.
	RoundRating6  ID = "round-rating-6"
	RoundRating10 ID = "round-rating-10"
	// RatingDrop10 fires when the two newest ledger entries drop by 10 or more.
	RatingDrop10 ID = "rating-drop-10"
	// FirstPlace fires for the participant topping the current ranking.
	FirstPlace ID = "first-place"
	// FiveCoinBet fires on a maximum-stake bet.
	FiveCoinBet ID = "five-coin-bet"
	// Deceived and Deceived3 fire on fooling one / three bettors in a round.
	Deceived  ID = "deceived-one"
	Deceived3 ID = "deceived-three"
	// FooledByMachine fires when an automated participant's meaning fools a human.
	FooledByMachine ID = "fooled-by-machine"
	// MutualDeception fires when two participants fool each other.
	MutualDeception ID = "mutual-deception"
	// ProfitWithoutWin fires on a positive delta despite a wrong bet.
	ProfitWithoutWin ID = "profit-without-win"
)

// Counter names a monotonically incremented statistic.
type Counter string

const (
	CounterParticipate Counter = "rounds-participated"
	CounterWin         Counter = "rounds-won"
	CounterDeceive     Counter = "bettors-deceived"
)

// Publisher records unlocks and counters on an external achievement
// service. Calls are fire-and-forget; failures must never block the game.
type Publisher interface {
	Unlock(ctx context.Context, user gametypes.PlayerID, id ID) error
	Increment(ctx context.Context, user gametypes.PlayerID, counter Counter) error
}

// Event is one pending publication, queued by the game and drained by the
// publish worker.
type Event struct {
	User      gametypes.PlayerID
	Unlock    ID      // empty when the event is a counter increment
	Increment Counter // empty when the event is an unlock
}

// NopPublisher discards everything. Useful when no achievement service is
// configured.
type NopPublisher struct{}

func (NopPublisher) Unlock(context.Context, gametypes.PlayerID, ID) error { return nil }

func (NopPublisher) Increment(context.Context, gametypes.PlayerID, Counter) error { return nil }
