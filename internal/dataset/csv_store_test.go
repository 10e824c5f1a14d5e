package dataset

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flywaywatch/birdcast-scraper/internal/record"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	lines, err := r.ReadAll()
	require.NoError(t, err)
	return lines
}

func TestCSVPersistWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corridor.csv")
	store := NewCSVStore(path, zap.NewNop())
	scrapedAt := time.Date(2025, 8, 18, 4, 10, 0, 0, time.UTC)

	require.NoError(t, store.Persist(context.Background(), []record.Record{
		testRecord(t, "US-VT-007", scrapedAt, map[string]any{record.ColTotalBirds: "500"}),
	}))
	require.NoError(t, store.Persist(context.Background(), []record.Record{
		testRecord(t, "US-NY-031", scrapedAt, map[string]any{record.ColTotalBirds: "900"}),
	}))

	lines := readCSV(t, path)
	require.Len(t, lines, 3)
	require.Equal(t, []string{"region_code", "scrape_timestamp", "total_birds", "url"}, lines[0])
	require.Equal(t, "US-VT-007", lines[1][0])
	require.Equal(t, "US-NY-031", lines[2][0])
}

func TestCSVPersistProjectsOntoExistingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corridor.csv")
	store := NewCSVStore(path, zap.NewNop())
	scrapedAt := time.Date(2025, 8, 18, 4, 10, 0, 0, time.UTC)

	require.NoError(t, store.Persist(context.Background(), []record.Record{
		testRecord(t, "US-VT-007", scrapedAt, nil),
	}))
	require.NoError(t, store.Persist(context.Background(), []record.Record{
		testRecord(t, "US-NY-031", scrapedAt, map[string]any{record.ColDirection: "SSW"}),
	}))

	lines := readCSV(t, path)
	require.Len(t, lines, 3)
	// flight_direction arrived after the header was fixed, so it is dropped.
	require.NotContains(t, lines[0], record.ColDirection)
	require.Len(t, lines[2], len(lines[0]))
}

func TestCSVPersistEmptyBatchIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corridor.csv")
	store := NewCSVStore(path, zap.NewNop())
	require.NoError(t, store.Persist(context.Background(), nil))
	require.NoFileExists(t, path)
}
