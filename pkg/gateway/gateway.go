package gateway

import (
	"context"
	"time"

	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/scoring"
)

// MessageHandle identifies a posted round update on the delivery side.
type MessageHandle string

// Gateway delivers structured round content to whatever chat or web surface
// hosts the game. The engine never formats platform markup itself.
type Gateway interface {
	PostRoundUpdate(ctx context.Context, update Update) (MessageHandle, error)
	PostEphemeralError(ctx context.Context, user gametypes.PlayerID, text string) error
}

// UpdateKind discriminates the structured round updates.
type UpdateKind string

const (
	UpdateCandidatePrompt   UpdateKind = "candidate_prompt"
	UpdateRoundStarted      UpdateKind = "round_started"
	UpdateParticipantJoined UpdateKind = "participant_joined"
	UpdateBettingStarted    UpdateKind = "betting_started"
	UpdateBetPlaced         UpdateKind = "bet_placed"
	UpdateRoundAborted      UpdateKind = "round_aborted"
	UpdateResults           UpdateKind = "results"
	UpdateRanking           UpdateKind = "ranking"
	UpdateComments          UpdateKind = "comments"
	UpdateBacklogStock      UpdateKind = "backlog_stock"
)

// Update is one structured round event. Only the fields relevant to the
// Kind are populated.
type Update struct {
	Kind    UpdateKind `json:"kind"`
	RoundID string     `json:"roundId,omitempty"`
	// Reading of the current theme; the word itself stays secret until results.
	Reading  string             `json:"reading,omitempty"`
	Author   gametypes.PlayerID `json:"author,omitempty"`
	Player   gametypes.PlayerID `json:"player,omitempty"`
	Deadline *time.Time         `json:"deadline,omitempty"`
	// Candidates are the readings offered for theme selection.
	Candidates []string `json:"candidates,omitempty"`
	// Choices are the shuffled meaning texts, in public choice order.
	Choices []string `json:"choices,omitempty"`
	// HumanCount and RemainingToStart accompany participation updates.
	HumanCount       int `json:"humanCount,omitempty"`
	RemainingToStart int `json:"remainingToStart,omitempty"`
	// Registered lists participants carried over into a resumed curated round.
	Registered []gametypes.PlayerID `json:"registered,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	Results    *RoundResults        `json:"results,omitempty"`
	Ranking    *RankingUpdate       `json:"ranking,omitempty"`
	Comments   []gametypes.Comment  `json:"comments,omitempty"`
	Stock      []StockEntry         `json:"stock,omitempty"`
}

// RoundResults is the full reveal posted when a round is scored.
type RoundResults struct {
	Theme          gametypes.Theme      `json:"theme"`
	ThemeURL       string               `json:"themeUrl,omitempty"`
	CorrectIndex   int                  `json:"correctIndex"`
	CorrectBettors []gametypes.PlayerID `json:"correctBettors,omitempty"`
	Cards          []ResultCard         `json:"cards"`
}

// ResultCard is one revealed meaning with its provenance and bettors.
type ResultCard struct {
	Text    string             `json:"text"`
	Player  gametypes.PlayerID `json:"player,omitempty"`
	Decoy   string             `json:"decoy,omitempty"`
	Title   string             `json:"title,omitempty"`
	URL     string             `json:"url,omitempty"`
	IconURL string             `json:"iconUrl,omitempty"`
	Correct bool               `json:"correct,omitempty"`
	Bettors []BettorRef        `json:"bettors,omitempty"`
}

type BettorRef struct {
	Player gametypes.PlayerID `json:"player"`
	Coins  int                `json:"coins"`
}

// RankingUpdate carries the current decayed standings. Low holds the
// grouped bucket of participants at or below the low threshold.
type RankingUpdate struct {
	Ranked []scoring.RankEntry `json:"ranked"`
	Low    []scoring.RankEntry `json:"low,omitempty"`
}

// StockEntry is one author's remaining backlog count.
type StockEntry struct {
	Author gametypes.PlayerID `json:"author"`
	Count  int                `json:"count"`
}
