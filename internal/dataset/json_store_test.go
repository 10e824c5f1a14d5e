package dataset

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flywaywatch/birdcast-scraper/internal/record"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
}

func readJSONRows(t *testing.T, path string) []record.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rows []record.Record
	require.NoError(t, json.Unmarshal(data, &rows))
	return rows
}

func TestJSONPersistCreatesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corridor.json")
	store := NewJSONStore(path, zap.NewNop())
	scrapedAt := time.Date(2025, 8, 18, 4, 10, 0, 0, time.UTC)

	require.NoError(t, store.Persist(context.Background(), []record.Record{
		testRecord(t, "US-VT-007", scrapedAt, nil),
	}))

	rows := readJSONRows(t, path)
	require.Len(t, rows, 1)
	require.Equal(t, "US-VT-007", rows[0].String(record.ColRegionCode))
}

func TestJSONPersistExtendsExistingArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corridor.json")
	store := NewJSONStore(path, zap.NewNop())
	scrapedAt := time.Date(2025, 8, 18, 4, 10, 0, 0, time.UTC)

	require.NoError(t, store.Persist(context.Background(), []record.Record{
		testRecord(t, "US-VT-007", scrapedAt, nil),
	}))
	require.NoError(t, store.Persist(context.Background(), []record.Record{
		testRecord(t, "US-NY-031", scrapedAt, nil),
	}))

	rows := readJSONRows(t, path)
	require.Len(t, rows, 2)
}

func TestJSONPersistRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corridor.json")
	writeFile(t, path, "{ not json")

	store := NewJSONStore(path, zap.NewNop())
	scrapedAt := time.Date(2025, 8, 18, 4, 10, 0, 0, time.UTC)
	require.NoError(t, store.Persist(context.Background(), []record.Record{
		testRecord(t, "US-VT-007", scrapedAt, nil),
	}))

	rows := readJSONRows(t, path)
	require.Len(t, rows, 1)
}

func TestJSONExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corridor.json")
	store := NewJSONStore(path, zap.NewNop())
	require.False(t, store.Exists())

	scrapedAt := time.Date(2025, 8, 18, 4, 10, 0, 0, time.UTC)
	require.NoError(t, store.Persist(context.Background(), []record.Record{
		testRecord(t, "US-VT-007", scrapedAt, nil),
	}))
	require.True(t, store.Exists())
}
