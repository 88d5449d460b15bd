package types

import "time"

// Phase is the current stage of the round lifecycle.
type Phase string

const (
	PhaseWaiting            Phase = "waiting"
	PhaseCollectingMeanings Phase = "collecting_meanings"
	PhaseCollectingBettings Phase = "collecting_bettings"
)

// PlayerID identifies a participant. Automated participants use ordinary
// PlayerIDs; whether an ID is automated is decided by the game manager's
// configuration, never by inspecting the ID itself.
type PlayerID string

// Candidate is one entry of the candidate pool: a word usable as a round
// theme or as a decoy.
type Candidate struct {
	Word       string `json:"word"`
	Reading    string `json:"reading"`
	Source     string `json:"source"`
	RawMeaning string `json:"rawMeaning,omitempty"`
	ID         string `json:"id,omitempty"`
}

// Theme is the secret answer of the current round.
type Theme struct {
	Word        string `json:"word"`
	Reading     string `json:"reading"`
	Meaning     string `json:"meaning"`
	Source      string `json:"source,omitempty"`      // corpus source id; empty for curated themes
	SourceLabel string `json:"sourceLabel,omitempty"` // human-readable source of a curated theme
	URL         string `json:"url,omitempty"`
	ID          string `json:"id,omitempty"`
}

// MeaningCard is one entry of the shuffled list shown to bettors.
// The true meaning is the single card with neither Player nor Decoy set.
type MeaningCard struct {
	Text   string   `json:"text"`
	Player PlayerID `json:"player,omitempty"`
	Decoy  string   `json:"decoy,omitempty"`       // source word of a decoy meaning
	DecoySource string `json:"decoySource,omitempty"` // corpus source of the decoy
}

func (c MeaningCard) IsTruth() bool {
	return c.Player == "" && c.Decoy == ""
}

// Betting is one participant's wager.
type Betting struct {
	Choice int `json:"choice"` // index into ShuffledMeanings
	Coins  int `json:"coins"`
}

// RatingEntry is one round outcome in a participant's reputation ledger.
type RatingEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Rating    int       `json:"rating"`
}

type Comment struct {
	Player PlayerID  `json:"player"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

// Stash preserves a curated round that was aborted for insufficient
// participation so it can resume later with the same theme and answers.
type Stash struct {
	Theme    Theme               `json:"theme"`
	Author   PlayerID            `json:"author"`
	Meanings map[PlayerID]string `json:"meanings"`
	Comments []Comment           `json:"comments"`
}
