package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"github.com/patmartin03-stack/shadowai-experiment/internal/config"
)

func newCachedStore(t *testing.T) (*SheetsStore, *int, *time.Time) {
	t.Helper()
	s := NewSheetsStore(config.SheetsConfig{
		CredentialsJSON: `{"type":"service_account"}`,
		SpreadsheetID:   "sheet-id",
		HandleTTL:       300,
	}, zap.NewNop())

	connects := 0
	s.connect = func(ctx context.Context) (*sheets.Service, error) {
		connects++
		return &sheets.Service{}, nil
	}

	current := time.Now()
	s.now = func() time.Time { return current }
	return s, &connects, &current
}

func TestSheetsHandleCacheHitWithinTTL(t *testing.T) {
	s, connects, current := newCachedStore(t)
	ctx := context.Background()

	_, err := s.service(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, *connects)

	*current = current.Add(299 * time.Second)
	_, err = s.service(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, *connects, "within the TTL no re-authentication happens")
}

func TestSheetsHandleExpiryReauthenticates(t *testing.T) {
	s, connects, current := newCachedStore(t)
	ctx := context.Background()

	_, err := s.service(ctx)
	require.NoError(t, err)

	// Resolved worksheets must not survive a handle refresh.
	s.mu.Lock()
	s.worksheets[eventsWorksheet] = true
	s.mu.Unlock()

	*current = current.Add(301 * time.Second)
	_, err = s.service(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, *connects)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.worksheets, "new handle invalidates cached sub-handles")
}

func TestSheetsInvalidateDropsOneWorksheet(t *testing.T) {
	s, _, _ := newCachedStore(t)

	s.mu.Lock()
	s.worksheets[eventsWorksheet] = true
	s.worksheets[resultsWorksheet] = true
	s.mu.Unlock()

	s.invalidate(eventsWorksheet)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.NotContains(t, s.worksheets, eventsWorksheet)
	assert.Contains(t, s.worksheets, resultsWorksheet)
}

func TestSheetsUnconfigured(t *testing.T) {
	s := NewSheetsStore(config.SheetsConfig{}, zap.NewNop())
	assert.False(t, s.Configured())

	_, err := s.service(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
