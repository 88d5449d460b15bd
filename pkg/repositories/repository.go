package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/repositories/models"
)

// Repository persists the game snapshot and the backlog of curated themes.
type Repository interface {
	Close(ctx context.Context) error

	// SaveSnapshot persists the full game record. It is called after every
	// mutating transition; failures are fatal to the triggering operation.
	SaveSnapshot(ctx context.Context, game *gametypes.Game) error
	// LoadSnapshot restores the game record, or ErrNotFound when no
	// snapshot was ever written.
	LoadSnapshot(ctx context.Context) (*gametypes.Game, error)

	// RegisterTheme adds a curated theme to the backlog.
	RegisterTheme(ctx context.Context, theme *models.ThemeRecord) error
	// HasTheme reports whether an undone theme with this reading exists.
	HasTheme(ctx context.Context, reading string) (bool, error)
	// NextTheme picks a random undone theme whose author is not excluded,
	// or ErrNotFound.
	NextTheme(ctx context.Context, excludeAuthors []gametypes.PlayerID) (*models.ThemeRecord, error)
	// NextThemeByAuthor picks a random undone theme by the given author,
	// or ErrNotFound.
	NextThemeByAuthor(ctx context.Context, author gametypes.PlayerID) (*models.ThemeRecord, error)
	// MarkThemeDone consumes a theme so it is never served again.
	MarkThemeDone(ctx context.Context, reading string) error
	// ListThemes returns an author's undone themes.
	ListThemes(ctx context.Context, author gametypes.PlayerID) ([]models.ThemeRecord, error)
	// DeleteTheme removes an author's undone theme, reporting whether
	// anything was deleted.
	DeleteTheme(ctx context.Context, author gametypes.PlayerID, reading string) (bool, error)
	// ThemeStock returns per-author counts of undone themes, largest first.
	ThemeStock(ctx context.Context) ([]models.StockCount, error)
}

// encodeSnapshot serializes a game record as gzipped JSON for storage.
func encodeSnapshot(game *gametypes.Game) ([]byte, error) {
	data, err := json.Marshal(game)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %v", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %v", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %v", err)
	}
	return buf.Bytes(), nil
}

// decodeSnapshot restores a game record from its stored form.
func decodeSnapshot(blob []byte) (*gametypes.Game, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %v", err)
	}
	game := &gametypes.Game{}
	if err := json.Unmarshal(data, game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %v", err)
	}
	game.EnsureMaps()
	return game, nil
}
