// Package history persists one row per completed report request. A failed
// append is logged by the caller, never fatal: report generation and history
// logging are independent outcomes.
package history

import (
	"context"
	"fmt"

	"localradar/internal/config"
	"localradar/internal/model"
)

// Store is the append-only history log.
type Store interface {
	Append(ctx context.Context, entry model.HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]model.HistoryEntry, error)
	Close() error
}

// NewStore builds the backend selected by config. An empty backend disables
// history with a no-op store.
func NewStore(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "postgres":
		return NewPostgresStore(cfg.DB.DSN())
	case "csv":
		return NewCSVStore(cfg.CSVPath)
	case "":
		return nopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown history backend: %s", cfg.Backend)
	}
}

type nopStore struct{}

func (nopStore) Append(context.Context, model.HistoryEntry) error { return nil }
func (nopStore) Recent(context.Context, int) ([]model.HistoryEntry, error) {
	return nil, nil
}
func (nopStore) Close() error { return nil }
