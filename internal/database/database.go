// Package database handles PostgreSQL connections and deck queries.
//
// Go Pattern: sqlx extends database/sql with struct scanning. We still
// write raw SQL, and the *sqlx.DB connection pool is created once and
// shared by every goroutine.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/Shimizu-Technology/quizcards-api/internal/models"
)

// ErrDeckNotFound is returned when no deck has the requested ID.
var ErrDeckNotFound = errors.New("deck not found")

// DB wraps the sqlx database connection with deck operations.
type DB struct {
	*sqlx.DB
}

// New creates a new database connection with connection pooling configured.
func New(databaseURL string) (*DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	return &DB{db}, nil
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// --- Deck Operations ---

// CreateDeck inserts a finished deck and fills in its ID and timestamp.
func (db *DB) CreateDeck(ctx context.Context, d *models.Deck) error {
	query := `
		INSERT INTO decks (session_id, filename, summary, questions, question_count, page_count, word_count, content_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return db.QueryRowContext(ctx, query,
		d.SessionID, d.Filename, d.Summary, []byte(d.Questions),
		d.QuestionCount, d.PageCount, d.WordCount, d.ContentHash,
	).Scan(&d.ID, &d.CreatedAt)
}

// GetDeck retrieves one of a session's decks by ID. Decks owned by other
// sessions and IDs that are not UUIDs report ErrDeckNotFound.
func (db *DB) GetDeck(ctx context.Context, id, sessionID string) (*models.Deck, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrDeckNotFound
	}

	var d models.Deck
	err := db.GetContext(ctx, &d,
		`SELECT * FROM decks WHERE id = $1 AND session_id = $2`, id, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	return &d, nil
}

// ListDecks returns a session's most recent decks, newest first.
func (db *DB) ListDecks(ctx context.Context, sessionID string, limit int) ([]models.Deck, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var decks []models.Deck
	err := db.SelectContext(ctx, &decks,
		`SELECT * FROM decks WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	return decks, nil
}

// DeleteDeck removes one of a session's decks by ID.
func (db *DB) DeleteDeck(ctx context.Context, id, sessionID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrDeckNotFound
	}

	result, err := db.ExecContext(ctx,
		`DELETE FROM decks WHERE id = $1 AND session_id = $2`, id, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrDeckNotFound
	}
	return nil
}
