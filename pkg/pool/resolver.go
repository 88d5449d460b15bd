package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gametypes "github.com/wordgame/fictionary/pkg/game/types"
)

// Resolver resolves the displayed meaning of a candidate. Both themes and
// decoys go through the same resolution so they read alike.
type Resolver interface {
	Resolve(ctx context.Context, c gametypes.Candidate) (string, error)
}

// RawResolver returns the meaning text stored in the corpus as-is,
// normalized. It is also the fallback when a remote lookup fails.
type RawResolver struct{}

func (RawResolver) Resolve(_ context.Context, c gametypes.Candidate) (string, error) {
	if c.RawMeaning == "" {
		return "", fmt.Errorf("candidate %q has no stored meaning", c.Word)
	}
	return NormalizeMeaning(c.RawMeaning), nil
}

// WikiResolver fetches a one-sentence plain-text extract from the MediaWiki
// API for wiki-backed sources and falls through to the stored raw meaning
// for everything else.
type WikiResolver struct {
	client *http.Client
}

func NewWikiResolver() *WikiResolver {
	return &WikiResolver{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *WikiResolver) Resolve(ctx context.Context, c gametypes.Candidate) (string, error) {
	var endpoint string
	switch c.Source {
	case "wikipedia":
		endpoint = "https://ja.wikipedia.org/w/api.php"
	case "wiktionary":
		endpoint = "https://ja.wiktionary.org/w/api.php"
	default:
		return RawResolver{}.Resolve(ctx, c)
	}

	// Single-sentence extracts of stub articles sometimes cut mid-sentence;
	// widen the window until the extract looks complete.
	var extract string
	for sentences := 1; sentences <= 3; sentences++ {
		text, err := r.fetchExtract(ctx, endpoint, c, sentences)
		if err != nil {
			return "", err
		}
		extract = text
		if extract != "" && !strings.HasSuffix(extract, "?") {
			break
		}
	}
	if extract == "" {
		return "", fmt.Errorf("no article extract for %q", c.Word)
	}

	return meaningFromExtract(extract, c.Source), nil
}

func (r *WikiResolver) fetchExtract(ctx context.Context, endpoint string, c gametypes.Candidate, sentences int) (string, error) {
	params := url.Values{
		"action":      {"query"},
		"prop":        {"extracts"},
		"titles":      {c.Word},
		"exlimit":     {"1"},
		"explaintext": {"true"},
		"exsentences": {strconv.Itoa(sentences)},
		"redirects":   {"1"},
		"format":      {"json"},
	}
	if c.Source == "wikipedia" {
		params.Set("exintro", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	var body struct {
		Query struct {
			Pages map[string]struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode extract response: %v", err)
	}
	for _, page := range body.Query.Pages {
		return page.Extract, nil
	}
	return "", nil
}

// meaningFromExtract picks the defining line out of a plain-text article
// extract and strips the leading "X is ..." phrasing when the whole extract
// is a single line.
func meaningFromExtract(extract, source string) string {
	var lines []string
	for _, line := range strings.Split(extract, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) > 1 {
		if source == "wikipedia" {
			return NormalizeMeaning(lines[1])
		}
		return NormalizeMeaning(lines[len(lines)-1])
	}

	meaning := NormalizeMeaning(extract)
	for _, marker := range []string{"とは、", "は、", "とは", "、"} {
		if idx := strings.Index(meaning, marker); idx >= 0 {
			meaning = meaning[idx+len(marker):]
			break
		}
	}
	if idx := strings.Index(meaning, "であり、"); idx >= 0 {
		meaning = meaning[:idx]
	}
	if idx := strings.Index(meaning, "で、"); idx >= 0 {
		meaning = meaning[:idx]
	}
	return strings.TrimSpace(meaning)
}
