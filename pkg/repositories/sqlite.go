package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/repositories/models"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string, migrations string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	dir, err := os.ReadDir(migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}

		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return nil, fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, game *gametypes.Game) error {
	blob, err := encodeSnapshot(game)
	if err != nil {
		return err
	}

	q := `
	INSERT OR REPLACE INTO snapshots (id, updated_at, data)
	VALUES (1, ?, ?);
	`
	if _, err := r.db.ExecContext(ctx, q, time.Now().UnixMilli(), blob); err != nil {
		return fmt.Errorf("failed to save snapshot: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) (*gametypes.Game, error) {
	q := `
	SELECT data FROM snapshots WHERE id = 1;
	`
	var blob []byte
	if err := r.db.QueryRowContext(ctx, q).Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan snapshot: %v", err)
	}

	return decodeSnapshot(blob)
}

func (r *SQLiteRepository) RegisterTheme(ctx context.Context, theme *models.ThemeRecord) error {
	q := `
	INSERT INTO themes (author, word, reading, meaning, source, url, created_at, done)
	VALUES (?, ?, ?, ?, ?, ?, ?, 0);
	`
	_, err := r.db.ExecContext(ctx, q, string(theme.Author), theme.Word, theme.Reading, theme.Meaning, theme.SourceLabel, theme.URL, theme.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert theme: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) HasTheme(ctx context.Context, reading string) (bool, error) {
	q := `
	SELECT 1 FROM themes WHERE done = 0 AND reading = ? LIMIT 1;
	`
	var one int
	if err := r.db.QueryRowContext(ctx, q, reading).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to query theme: %v", err)
	}

	return true, nil
}

func (r *SQLiteRepository) NextTheme(ctx context.Context, excludeAuthors []gametypes.PlayerID) (*models.ThemeRecord, error) {
	q := `
	SELECT author, word, reading, meaning, source, url, created_at
	FROM themes
	WHERE done = 0
	`
	args := make([]interface{}, 0, len(excludeAuthors))
	if len(excludeAuthors) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(excludeAuthors)), ",")
		q += fmt.Sprintf(" AND author NOT IN (%s)", placeholders)
		for _, author := range excludeAuthors {
			args = append(args, string(author))
		}
	}
	q += " ORDER BY RANDOM() LIMIT 1;"

	return r.scanTheme(r.db.QueryRowContext(ctx, q, args...))
}

func (r *SQLiteRepository) NextThemeByAuthor(ctx context.Context, author gametypes.PlayerID) (*models.ThemeRecord, error) {
	q := `
	SELECT author, word, reading, meaning, source, url, created_at
	FROM themes
	WHERE done = 0 AND author = ?
	ORDER BY RANDOM() LIMIT 1;
	`
	return r.scanTheme(r.db.QueryRowContext(ctx, q, string(author)))
}

func (r *SQLiteRepository) scanTheme(row *sql.Row) (*models.ThemeRecord, error) {
	theme := &models.ThemeRecord{}
	var author string
	if err := row.Scan(&author, &theme.Word, &theme.Reading, &theme.Meaning, &theme.SourceLabel, &theme.URL, &theme.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan theme: %v", err)
	}
	theme.Author = gametypes.PlayerID(author)

	return theme, nil
}

func (r *SQLiteRepository) MarkThemeDone(ctx context.Context, reading string) error {
	q := `
	UPDATE themes SET done = 1 WHERE reading = ?;
	`
	if _, err := r.db.ExecContext(ctx, q, reading); err != nil {
		return fmt.Errorf("failed to mark theme done: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) ListThemes(ctx context.Context, author gametypes.PlayerID) ([]models.ThemeRecord, error) {
	q := `
	SELECT author, word, reading, meaning, source, url, created_at
	FROM themes
	WHERE done = 0 AND author = ?
	ORDER BY created_at;
	`
	rows, err := r.db.QueryContext(ctx, q, string(author))
	if err != nil {
		return nil, fmt.Errorf("failed to query themes: %v", err)
	}
	defer rows.Close()

	var themes []models.ThemeRecord
	for rows.Next() {
		theme := models.ThemeRecord{}
		var rowAuthor string
		if err := rows.Scan(&rowAuthor, &theme.Word, &theme.Reading, &theme.Meaning, &theme.SourceLabel, &theme.URL, &theme.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan theme: %v", err)
		}
		theme.Author = gametypes.PlayerID(rowAuthor)
		themes = append(themes, theme)
	}

	return themes, rows.Err()
}

func (r *SQLiteRepository) DeleteTheme(ctx context.Context, author gametypes.PlayerID, reading string) (bool, error) {
	q := `
	DELETE FROM themes WHERE done = 0 AND author = ? AND reading = ?;
	`
	result, err := r.db.ExecContext(ctx, q, string(author), reading)
	if err != nil {
		return false, fmt.Errorf("failed to delete theme: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted themes: %v", err)
	}

	return affected > 0, nil
}

func (r *SQLiteRepository) ThemeStock(ctx context.Context) ([]models.StockCount, error) {
	q := `
	SELECT author, count(author) AS cnt
	FROM themes
	WHERE done = 0
	GROUP BY author
	ORDER BY cnt DESC;
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query theme stock: %v", err)
	}
	defer rows.Close()

	var stock []models.StockCount
	for rows.Next() {
		var author string
		var count int
		if err := rows.Scan(&author, &count); err != nil {
			return nil, fmt.Errorf("failed to scan theme stock: %v", err)
		}
		stock = append(stock, models.StockCount{Author: gametypes.PlayerID(author), Count: count})
	}

	return stock, rows.Err()
}
