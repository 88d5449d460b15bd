package types

import "time"

// Game is the single shared game record. There is one instance per process;
// rounds overwrite its fields in place and it is serialized to the
// persistence store after every mutating transition.
type Game struct {
	Phase Phase `json:"phase"`
	// Theme is nil exactly while Phase is waiting.
	Theme *Theme `json:"theme"`
	// Author is set for curated rounds; the author may not submit or bet.
	Author PlayerID `json:"author,omitempty"`
	// AuthorHistory orders past curated-round authors, most recent last.
	AuthorHistory []PlayerID `json:"authorHistory,omitempty"`
	// Candidates is populated only while a theme-selection prompt is outstanding.
	Candidates []Candidate `json:"candidates,omitempty"`
	// Meanings maps participants to their submitted meaning text.
	Meanings map[PlayerID]string `json:"meanings"`
	// ShuffledMeanings is built once at the meanings-to-bettings transition;
	// its indices are the public choice numbers.
	ShuffledMeanings []MeaningCard `json:"shuffledMeanings,omitempty"`
	// Bettings maps participants to their wager. Only participants present
	// in Meanings may bet.
	Bettings map[PlayerID]Betting `json:"bettings"`
	Comments []Comment            `json:"comments,omitempty"`
	// Ratings is the durable reputation ledger, at most RatingWindow entries
	// per participant, oldest evicted first.
	Ratings map[PlayerID][]RatingEntry `json:"ratings"`
	// StashedDaily holds an aborted curated round awaiting resumption.
	StashedDaily *Stash `json:"stashedDaily,omitempty"`
	// IsWaitingDaily is set when a curated round was requested while busy.
	IsWaitingDaily bool `json:"isWaitingDaily,omitempty"`
	// Deadline is the absolute end of the current phase; nil while waiting.
	Deadline *time.Time `json:"deadline,omitempty"`
}

func NewGame() *Game {
	return &Game{
		Phase:    PhaseWaiting,
		Meanings: make(map[PlayerID]string),
		Bettings: make(map[PlayerID]Betting),
		Ratings:  make(map[PlayerID][]RatingEntry),
	}
}

// EnsureMaps initializes any nil maps, e.g. after deserializing a snapshot.
func (g *Game) EnsureMaps() {
	if g.Meanings == nil {
		g.Meanings = make(map[PlayerID]string)
	}
	if g.Bettings == nil {
		g.Bettings = make(map[PlayerID]Betting)
	}
	if g.Ratings == nil {
		g.Ratings = make(map[PlayerID][]RatingEntry)
	}
}

// AppendRating appends an entry to a participant's ledger, evicting the
// oldest entries beyond the window.
func (g *Game) AppendRating(user PlayerID, entry RatingEntry, window int) {
	entries := append(g.Ratings[user], entry)
	if len(entries) > window {
		entries = entries[len(entries)-window:]
	}
	g.Ratings[user] = entries
}

// ResetRound clears all per-round fields and returns the game to waiting.
// The ratings ledger, author history and stash survive across rounds.
func (g *Game) ResetRound() {
	g.Phase = PhaseWaiting
	g.Theme = nil
	g.Author = ""
	g.Candidates = nil
	g.Meanings = make(map[PlayerID]string)
	g.ShuffledMeanings = nil
	g.Bettings = make(map[PlayerID]Betting)
	g.Comments = nil
	g.Deadline = nil
}
