package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patmartin03-stack/shadowai-experiment/internal/config"
	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
)

func configWithBackend(name string) config.StoreConfig {
	return config.StoreConfig{Backend: name}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVAppendEventsWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVStore(dir, zap.NewNop())
	require.NoError(t, err)

	events := []models.Event{
		{Timestamp: "2025-01-01T00:00:00Z", SubjectID: "S1", Policy: "restrictive", EventType: "click", PayloadJSON: "{}"},
		{Timestamp: "2025-01-01T00:00:01Z", SubjectID: "S1", Policy: "restrictive", EventType: "keypress", PayloadJSON: "{}"},
	}
	require.NoError(t, s.AppendEvents(context.Background(), events))
	require.NoError(t, s.AppendEvents(context.Background(), events[:1]))

	rows := readCSV(t, filepath.Join(dir, "events.csv"))
	require.Len(t, rows, 4, "header + three event rows")
	assert.Equal(t, models.EventHeaders, rows[0])
	assert.Equal(t, "S1", rows[1][1])
	assert.Equal(t, "click", rows[1][3])
}

func TestCSVWriteResult(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVStore(dir, zap.NewNop())
	require.NoError(t, err)

	result := models.Result{
		Timestamp: "2025-01-01T00:00:00Z",
		SubjectID: "S2",
		Policy:    "permissive",
		TaskText:  "hello world",
		Words:     2,
	}
	require.NoError(t, s.WriteResult(context.Background(), result))

	rows := readCSV(t, filepath.Join(dir, "final.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, models.ResultHeaders, rows[0])
	require.Len(t, rows[1], len(models.ResultHeaders))
	assert.Equal(t, "S2", rows[1][1])
	assert.Equal(t, "hello world", rows[1][11])
	assert.Equal(t, "2", rows[1][12])
	assert.Equal(t, "0", rows[1][13])
}

func TestNewStoreUnknownBackend(t *testing.T) {
	_, err := New(configWithBackend("mongodb"), zap.NewNop())
	assert.Error(t, err)
}

func TestNewStoreDefaultsToCSV(t *testing.T) {
	cfg := configWithBackend("")
	cfg.CSV.Directory = t.TempDir()
	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "csv", s.Name())
}
