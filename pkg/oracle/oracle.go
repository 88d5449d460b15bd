package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	gametypes "github.com/wordgame/fictionary/pkg/game/types"
)

// Meaner generates a plausible meaning text for a reading. The generation
// itself is an opaque oracle; the engine only cares about the text.
type Meaner interface {
	ProposeMeaning(ctx context.Context, reading string) (string, error)
}

// Agent is an automated participant: it submits a generated meaning and
// places a similarity-driven bet like any other player.
type Agent struct {
	ID     gametypes.PlayerID
	Name   string
	Meaner Meaner
}

func NewAgent(id gametypes.PlayerID, name string, meaner Meaner) *Agent {
	return &Agent{
		ID:     id,
		Name:   name,
		Meaner: meaner,
	}
}

// HTTPMeaner asks a remote text-generation endpoint for a meaning.
type HTTPMeaner struct {
	endpoint string
	model    string
	client   *http.Client
}

func NewHTTPMeaner(endpoint, model string) *HTTPMeaner {
	return &HTTPMeaner{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (m *HTTPMeaner) ProposeMeaning(ctx context.Context, reading string) (string, error) {
	params := url.Values{
		"reading": {reading},
		"model":   {m.model},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query meaning generator: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("meaning generator returned status %d", resp.StatusCode)
	}

	var body struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode meaning generator response: %v", err)
	}
	if body.Result == "" {
		return "", fmt.Errorf("meaning generator returned an empty result")
	}
	return body.Result, nil
}

// PickBet chooses the shuffled-meaning index the agent bets on: the card
// whose text agrees most with the agent's own submitted meaning, measured
// by character n-gram recall for n = 1..3 weighted by 10^n. The agent's own
// card is excluded. A negligible random term breaks ties.
func PickBet(own string, cards []gametypes.MeaningCard, self gametypes.PlayerID) int {
	best := -1
	bestScore := 0.0
	ownRunes := []rune(own)
	for i, card := range cards {
		if card.Player == self {
			continue
		}
		score := rand.Float64() * 1e-10
		candidate := []rune(card.Text)
		for n := 1; n <= 3; n++ {
			if len(candidate) < n || len(ownRunes) < n {
				continue
			}
			score += ngramRecall(candidate, ownRunes, n) * pow10(n)
		}
		if best == -1 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

// ngramRecall is the fraction of the reference's character n-grams that also
// occur in the candidate, with multiplicity.
func ngramRecall(candidate, reference []rune, n int) float64 {
	refGrams := ngramCounts(reference, n)
	if len(refGrams) == 0 {
		return 0
	}
	total := 0
	for _, count := range refGrams {
		total += count
	}

	candGrams := ngramCounts(candidate, n)
	overlap := 0
	for gram, count := range refGrams {
		if have, ok := candGrams[gram]; ok {
			if have < count {
				overlap += have
			} else {
				overlap += count
			}
		}
	}
	return float64(overlap) / float64(total)
}

func ngramCounts(runes []rune, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(runes); i++ {
		counts[string(runes[i:i+n])]++
	}
	return counts
}

func pow10(n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}
