package game

import (
	"context"
	"sync"

	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/gateway"
	"github.com/wordgame/fictionary/pkg/repositories"
	"github.com/wordgame/fictionary/pkg/repositories/models"
)

// fakeRepository keeps everything in memory and records snapshot saves.
type fakeRepository struct {
	snapshot   *gametypes.Game
	themes     []models.ThemeRecord
	markedDone []string
	saves      int
	saveErr    error
}

func (r *fakeRepository) Close(ctx context.Context) error { return nil }

func (r *fakeRepository) SaveSnapshot(ctx context.Context, game *gametypes.Game) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.snapshot = game
	return nil
}

func (r *fakeRepository) LoadSnapshot(ctx context.Context) (*gametypes.Game, error) {
	if r.snapshot == nil {
		return nil, &repositories.ErrNotFound{}
	}
	return r.snapshot, nil
}

func (r *fakeRepository) RegisterTheme(ctx context.Context, theme *models.ThemeRecord) error {
	r.themes = append(r.themes, *theme)
	return nil
}

func (r *fakeRepository) HasTheme(ctx context.Context, reading string) (bool, error) {
	for _, theme := range r.themes {
		if theme.Reading == reading && !theme.Done {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepository) NextTheme(ctx context.Context, excludeAuthors []gametypes.PlayerID) (*models.ThemeRecord, error) {
	excluded := make(map[gametypes.PlayerID]bool, len(excludeAuthors))
	for _, author := range excludeAuthors {
		excluded[author] = true
	}
	for i := range r.themes {
		if !r.themes[i].Done && !excluded[r.themes[i].Author] {
			return &r.themes[i], nil
		}
	}
	return nil, &repositories.ErrNotFound{}
}

func (r *fakeRepository) NextThemeByAuthor(ctx context.Context, author gametypes.PlayerID) (*models.ThemeRecord, error) {
	for i := range r.themes {
		if !r.themes[i].Done && r.themes[i].Author == author {
			return &r.themes[i], nil
		}
	}
	return nil, &repositories.ErrNotFound{}
}

func (r *fakeRepository) MarkThemeDone(ctx context.Context, reading string) error {
	r.markedDone = append(r.markedDone, reading)
	for i := range r.themes {
		if r.themes[i].Reading == reading {
			r.themes[i].Done = true
		}
	}
	return nil
}

func (r *fakeRepository) ListThemes(ctx context.Context, author gametypes.PlayerID) ([]models.ThemeRecord, error) {
	var out []models.ThemeRecord
	for _, theme := range r.themes {
		if theme.Author == author && !theme.Done {
			out = append(out, theme)
		}
	}
	return out, nil
}

func (r *fakeRepository) DeleteTheme(ctx context.Context, author gametypes.PlayerID, reading string) (bool, error) {
	for i := range r.themes {
		if r.themes[i].Author == author && r.themes[i].Reading == reading {
			r.themes = append(r.themes[:i], r.themes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepository) ThemeStock(ctx context.Context) ([]models.StockCount, error) {
	counts := make(map[gametypes.PlayerID]int)
	for _, theme := range r.themes {
		if !theme.Done {
			counts[theme.Author]++
		}
	}
	var out []models.StockCount
	for author, count := range counts {
		out = append(out, models.StockCount{Author: author, Count: count})
	}
	return out, nil
}

// fakeGateway records every posted update.
type fakeGateway struct {
	mu      sync.Mutex
	updates []gateway.Update
}

func (g *fakeGateway) PostRoundUpdate(ctx context.Context, update gateway.Update) (gateway.MessageHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates = append(g.updates, update)
	return "handle", nil
}

func (g *fakeGateway) PostEphemeralError(ctx context.Context, user gametypes.PlayerID, text string) error {
	return nil
}

func (g *fakeGateway) byKind(kind gateway.UpdateKind) []gateway.Update {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []gateway.Update
	for _, update := range g.updates {
		if update.Kind == kind {
			out = append(out, update)
		}
	}
	return out
}

// fixedMeaner always proposes the same meaning text.
type fixedMeaner struct {
	text string
	err  error
	asks int
}

func (m *fixedMeaner) ProposeMeaning(ctx context.Context, reading string) (string, error) {
	m.asks++
	return m.text, m.err
}
