package history

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"localradar/internal/model"
)

var csvHeader = []string{
	"requester_name", "category", "location",
	"competition_level", "title", "slogan", "niche_alert", "created_at",
}

// CSVStore appends history rows to a CSV file. A mutex keeps the file
// single-writer so concurrent requests cannot interleave records.
type CSVStore struct {
	mu   sync.Mutex
	path string
}

// NewCSVStore creates the file with a header row if it does not exist yet.
func NewCSVStore(path string) (*CSVStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: create output dir: %w", err)
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("history: create file %q: %w", path, err)
		}
		w := csv.NewWriter(f)
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("history: write header: %w", err)
		}
		w.Flush()
		if err := f.Close(); err != nil {
			return nil, err
		}
	}

	return &CSVStore{path: path}, nil
}

// Append writes one row. The file is opened per call so a crash never leaves
// a dangling handle with buffered rows.
func (s *CSVStore) Append(_ context.Context, e model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("history: open for append: %w", err)
	}
	defer f.Close()

	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		e.Requester, e.Category, e.Location,
		e.CompetitionLevel, e.Title, e.Slogan, e.NicheAlert,
		created.Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("history: write row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Recent reads the file back and returns the newest rows, most recent first.
func (s *CSVStore) Recent(_ context.Context, limit int) ([]model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("history: read: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	records = records[1:] // drop header

	if limit <= 0 {
		limit = 50
	}
	var entries []model.HistoryEntry
	for i := len(records) - 1; i >= 0 && len(entries) < limit; i-- {
		rec := records[i]
		if len(rec) != len(csvHeader) {
			continue
		}
		created, _ := time.Parse(time.RFC3339, rec[7])
		entries = append(entries, model.HistoryEntry{
			Requester:        rec[0],
			Category:         rec[1],
			Location:         rec[2],
			CompetitionLevel: rec[3],
			Title:            rec[4],
			Slogan:           rec[5],
			NicheAlert:       rec[6],
			CreatedAt:        created,
		})
	}
	return entries, nil
}

func (s *CSVStore) Close() error { return nil }
