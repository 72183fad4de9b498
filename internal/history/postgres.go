package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"localradar/internal/model"
)

// PostgresStore persists history rows to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, waits for the database to come up, and
// ensures the schema exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping failed after retries: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS report_history (
			id SERIAL PRIMARY KEY,
			requester_name TEXT NOT NULL,
			category TEXT NOT NULL,
			location TEXT NOT NULL,
			competition_level TEXT NOT NULL,
			title TEXT NOT NULL,
			slogan TEXT NOT NULL,
			niche_alert TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Append writes one history row. The database serializes concurrent inserts.
func (s *PostgresStore) Append(ctx context.Context, e model.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_history
			(requester_name, category, location, competition_level, title, slogan, niche_alert)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.Requester, e.Category, e.Location, e.CompetitionLevel, e.Title, e.Slogan, e.NicheAlert)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns the newest rows, most recent first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT requester_name, category, location, competition_level, title, slogan, niche_alert, created_at
		FROM report_history
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.Requester, &e.Category, &e.Location,
			&e.CompetitionLevel, &e.Title, &e.Slogan, &e.NicheAlert, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
