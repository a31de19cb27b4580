package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/patmartin03-stack/shadowai-experiment/internal/config"
	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
)

// ErrUnavailable marks failures where the persistence backend could not be
// reached or authenticated. Handlers map it to 503 on the paths that are
// allowed to fail visibly.
var ErrUnavailable = errors.New("persistence backend unavailable")

// Store is one persistence backend for experiment data. AppendEvents writes
// a drained batch in one call; WriteResult writes a single session summary.
type Store interface {
	// AppendEvents performs one bulk write of the batch. It either persists
	// the whole batch or returns an error; there is no partial success.
	AppendEvents(ctx context.Context, events []models.Event) error
	// WriteResult persists one session summary.
	WriteResult(ctx context.Context, result models.Result) error
	// Configured reports whether the backend has enough configuration to
	// accept writes. Surfaced by /health.
	Configured() bool
	// Name identifies the backend in logs and /health.
	Name() string
	Close() error
}

// New builds the Store selected by configuration.
func New(cfg config.StoreConfig, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "sheets":
		return NewSheetsStore(cfg.Sheets, log), nil
	case "postgres":
		return NewPostgresStore(cfg.Postgres.DSN, log)
	case "csv", "":
		return NewCSVStore(cfg.CSV.Directory, log)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
