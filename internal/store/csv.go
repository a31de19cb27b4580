package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
)

const (
	eventsFile  = "events.csv"
	resultsFile = "final.csv"
)

// CSVStore is the flat-file variant: two append-only CSV files with a fixed
// header row, written under an exclusive lock since appends come from both
// the flush loop and finalize requests.
type CSVStore struct {
	log *zap.Logger
	dir string
	mu  sync.Mutex
}

// NewCSVStore creates the data directory if needed.
func NewCSVStore(dir string, log *zap.Logger) (*CSVStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}
	return &CSVStore{log: log, dir: dir}, nil
}

func (s *CSVStore) Name() string { return "csv" }

func (s *CSVStore) Configured() bool { return true }

func (s *CSVStore) Close() error { return nil }

// AppendEvents appends the batch to events.csv.
func (s *CSVStore) AppendEvents(ctx context.Context, events []models.Event) error {
	rows := make([][]string, len(events))
	for i, ev := range events {
		rows[i] = ev.StringRow()
	}
	return s.appendRows(eventsFile, models.EventHeaders, rows)
}

// WriteResult appends one row to final.csv.
func (s *CSVStore) WriteResult(ctx context.Context, result models.Result) error {
	return s.appendRows(resultsFile, models.ResultHeaders, [][]string{result.StringRow()})
}

func (s *CSVStore) appendRows(name string, headers []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	needHeader := false
	if info, err := os.Stat(path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		needHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrUnavailable, name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(headers); err != nil {
			return fmt.Errorf("writing header to %s: %w", name, err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row to %s: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flushing %s: %v", ErrUnavailable, name, err)
	}
	s.log.Debug("Appended rows to CSV", zap.String("file", name), zap.Int("rows", len(rows)))
	return nil
}
