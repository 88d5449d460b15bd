package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	gametypes "github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/repositories/models"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository creates a Repository backed by Postgres.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveSnapshot(ctx context.Context, game *gametypes.Game) error {
	blob, err := encodeSnapshot(game)
	if err != nil {
		return err
	}

	q := `
	INSERT INTO snapshots (id, updated_at, data) VALUES (1, $1, $2)
	ON CONFLICT (id) DO UPDATE SET updated_at = $1, data = $2;
	`
	if _, err := r.conn.Exec(ctx, q, time.Now().UnixMilli(), blob); err != nil {
		return fmt.Errorf("failed to save snapshot: %v", err)
	}

	return nil
}

func (r *PostgresRepository) LoadSnapshot(ctx context.Context) (*gametypes.Game, error) {
	q := `
	SELECT data FROM snapshots WHERE id = 1;
	`
	var blob []byte
	if err := r.conn.QueryRow(ctx, q).Scan(&blob); err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan snapshot: %v", err)
	}

	return decodeSnapshot(blob)
}

func (r *PostgresRepository) RegisterTheme(ctx context.Context, theme *models.ThemeRecord) error {
	q := `
	INSERT INTO themes (author, word, reading, meaning, source, url, created_at, done)
	VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE);
	`
	_, err := r.conn.Exec(ctx, q, string(theme.Author), theme.Word, theme.Reading, theme.Meaning, theme.SourceLabel, theme.URL, theme.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert theme: %v", err)
	}

	return nil
}

func (r *PostgresRepository) HasTheme(ctx context.Context, reading string) (bool, error) {
	q := `
	SELECT 1 FROM themes WHERE done = FALSE AND reading = $1 LIMIT 1;
	`
	var one int
	if err := r.conn.QueryRow(ctx, q, reading).Scan(&one); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to query theme: %v", err)
	}

	return true, nil
}

func (r *PostgresRepository) NextTheme(ctx context.Context, excludeAuthors []gametypes.PlayerID) (*models.ThemeRecord, error) {
	q := `
	SELECT author, word, reading, meaning, source, url, created_at
	FROM themes
	WHERE done = FALSE
	`
	args := make([]interface{}, 0, len(excludeAuthors))
	if len(excludeAuthors) > 0 {
		placeholders := make([]string, len(excludeAuthors))
		for i, author := range excludeAuthors {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, string(author))
		}
		q += fmt.Sprintf(" AND author NOT IN (%s)", strings.Join(placeholders, ","))
	}
	q += " ORDER BY RANDOM() LIMIT 1;"

	return r.scanTheme(r.conn.QueryRow(ctx, q, args...))
}

func (r *PostgresRepository) NextThemeByAuthor(ctx context.Context, author gametypes.PlayerID) (*models.ThemeRecord, error) {
	q := `
	SELECT author, word, reading, meaning, source, url, created_at
	FROM themes
	WHERE done = FALSE AND author = $1
	ORDER BY RANDOM() LIMIT 1;
	`
	return r.scanTheme(r.conn.QueryRow(ctx, q, string(author)))
}

func (r *PostgresRepository) scanTheme(row pgx.Row) (*models.ThemeRecord, error) {
	theme := &models.ThemeRecord{}
	var author string
	if err := row.Scan(&author, &theme.Word, &theme.Reading, &theme.Meaning, &theme.SourceLabel, &theme.URL, &theme.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan theme: %v", err)
	}
	theme.Author = gametypes.PlayerID(author)

	return theme, nil
}

func (r *PostgresRepository) MarkThemeDone(ctx context.Context, reading string) error {
	q := `
	UPDATE themes SET done = TRUE WHERE reading = $1;
	`
	if _, err := r.conn.Exec(ctx, q, reading); err != nil {
		return fmt.Errorf("failed to mark theme done: %v", err)
	}

	return nil
}

func (r *PostgresRepository) ListThemes(ctx context.Context, author gametypes.PlayerID) ([]models.ThemeRecord, error) {
	q := `
	SELECT author, word, reading, meaning, source, url, created_at
	FROM themes
	WHERE done = FALSE AND author = $1
	ORDER BY created_at;
	`
	rows, err := r.conn.Query(ctx, q, string(author))
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

func (r *PostgresRepository) DeleteTheme(ctx context.Context, author gametypes.PlayerID, reading string) (bool, error) {
	q := `
	DELETE FROM themes WHERE done = FALSE AND author = $1 AND reading = $2;
	`
	result, err := r.conn.Exec(ctx, q, string(author), reading)
	if err != nil {
		return false, fmt.Errorf("failed to delete theme: %v", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *PostgresRepository) ThemeStock(ctx context.Context) ([]models.StockCount, error) {
	q := `
	SELECT author, count(author) AS cnt
	FROM themes
	WHERE done = FALSE
	GROUP BY author
	ORDER BY cnt DESC;
	`
	rows, err := r.conn.Query(ctx, q)
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
