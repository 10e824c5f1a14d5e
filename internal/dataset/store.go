// Package dataset persists scrape batches. The primary store is a single
// snappy-compressed parquet file per corridor whose column set is the union
// of every field any run has ever produced. Each persist rereads the full
// history, merges the new batch, re-deduplicates globally, and atomically
// rewrites the file; that rewrite is what keeps the one-row-per-(region,
// day) invariant global instead of per-batch, so it must not be optimized
// into a true append.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/flywaywatch/birdcast-scraper/internal/metrics"
	"github.com/flywaywatch/birdcast-scraper/internal/record"
)

// Store owns one parquet dataset file.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore builds a Store for the dataset at path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the dataset file location.
func (s *Store) Path() string {
	return s.path
}

// Persist merges batch into the dataset. A missing or unreadable existing
// file is treated as empty rather than failing the run. At most one row per
// (region_code, day-key) survives; on conflict the row with the latest
// scrape_timestamp wins. Rows without a region code are never merged
// against each other.
func (s *Store) Persist(ctx context.Context, batch []record.Record) error {
	if len(batch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	existing := s.loadExisting()
	rows := make([]record.Record, 0, len(existing)+len(batch))
	rows = append(rows, existing...)
	for _, rec := range batch {
		rows = append(rows, rec.Clone())
	}

	coerceNumeric(rows)
	rows = Deduplicate(rows)

	if err := s.write(rows); err != nil {
		return fmt.Errorf("write dataset %q: %w", s.path, err)
	}
	metrics.SetDatasetRows(filepath.Base(s.path), len(rows))
	s.logger.Info("dataset persisted",
		zap.String("path", s.path),
		zap.Int("batch_rows", len(batch)),
		zap.Int("total_rows", len(rows)))
	return nil
}

// Rows returns every row currently in the dataset. A missing file yields an
// empty slice.
func (s *Store) Rows() []record.Record {
	return s.loadExisting()
}

func (s *Store) loadExisting() []record.Record {
	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("could not open existing dataset; starting fresh", zap.Error(err))
		}
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.logger.Warn("could not stat existing dataset; starting fresh", zap.Error(err))
		return nil
	}
	rows, err := readParquet(f, info.Size())
	if err != nil {
		s.logger.Warn("could not read existing dataset; starting fresh", zap.Error(err))
		return nil
	}
	return rows
}

func readParquet(f io.ReaderAt, size int64) ([]record.Record, error) {
	pf, err := parquet.OpenFile(f, size)
	if err != nil {
		return nil, err
	}

	fields := pf.Schema().Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
	}

	var out []record.Record
	buf := make([]parquet.Row, 64)
	for _, rg := range pf.RowGroups() {
		rowsReader := rg.Rows()
		for {
			n, err := rowsReader.ReadRows(buf)
			for _, row := range buf[:n] {
				out = append(out, rowToRecord(row, names))
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				rowsReader.Close() //nolint:errcheck
				return nil, err
			}
			if n == 0 {
				break
			}
		}
		if err := rowsReader.Close(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func rowToRecord(row parquet.Row, names []string) record.Record {
	rec := make(record.Record, len(row))
	for _, value := range row {
		if value.IsNull() {
			continue
		}
		col := value.Column()
		if col < 0 || col >= len(names) {
			continue
		}
		switch value.Kind() {
		case parquet.ByteArray, parquet.FixedLenByteArray:
			rec[names[col]] = string(value.ByteArray())
		case parquet.Int64:
			rec[names[col]] = value.Int64()
		case parquet.Int32:
			rec[names[col]] = int64(value.Int32())
		case parquet.Double:
			rec[names[col]] = value.Double()
		case parquet.Boolean:
			rec[names[col]] = value.Boolean()
		}
	}
	return rec
}

func (s *Store) write(rows []record.Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}

	schema, columns := buildSchema(rows)
	maps := make([]map[string]any, len(rows))
	for i, row := range rows {
		maps[i] = map[string]any(row)
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	writer := parquet.NewGenericWriter[map[string]any](f, schema, parquet.Compression(&parquet.Snappy))
	if _, err := writer.Write(maps); err != nil {
		writer.Close() //nolint:errcheck
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("finalize parquet: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("replace dataset: %w", err)
	}
	s.logger.Debug("dataset schema", zap.Strings("columns", columns))
	return nil
}

// buildSchema derives the dataset schema from the union of every column
// present in rows. Known numeric columns become nullable int64; everything
// else is a nullable string.
func buildSchema(rows []record.Record) (*parquet.Schema, []string) {
	union := map[string]struct{}{}
	for _, row := range rows {
		for col := range row {
			union[col] = struct{}{}
		}
	}
	columns := make([]string, 0, len(union))
	for col := range union {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	group := parquet.Group{}
	for _, col := range columns {
		if isNumericColumn(col) {
			group[col] = parquet.Optional(parquet.Int(64))
		} else {
			group[col] = parquet.Optional(parquet.String())
		}
	}
	return parquet.NewSchema("scrape_records", group), columns
}

func isNumericColumn(col string) bool {
	for _, numeric := range record.NumericColumns {
		if col == numeric {
			return true
		}
	}
	return false
}

// coerceNumeric forces the known numeric columns to int64. Values that do
// not parse become null (the column is dropped from the row) rather than
// failing the persist.
func coerceNumeric(rows []record.Record) {
	for _, row := range rows {
		for _, col := range record.NumericColumns {
			v, ok := row[col]
			if !ok {
				continue
			}
			n, ok := toInt64(v)
			if !ok {
				delete(row, col)
				continue
			}
			row[col] = n
		}
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		parsed, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Deduplicate keeps the most recently scraped row per (region_code,
// day-key). Rows without a region code carry no identity and are always
// kept; collapsing unrelated failures together would over-merge.
func Deduplicate(rows []record.Record) []record.Record {
	sorted := make([]record.Record, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return scrapeTime(sorted[i]).After(scrapeTime(sorted[j]))
	})

	type key struct {
		region string
		day    string
	}
	seen := make(map[key]struct{}, len(sorted))
	out := make([]record.Record, 0, len(sorted))
	for _, row := range sorted {
		code := row.String(record.ColRegionCode)
		if code == "" {
			out = append(out, row)
			continue
		}
		k := key{region: code, day: row.DayKey()}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, row)
	}
	return out
}

func scrapeTime(rec record.Record) time.Time {
	t, ok := rec.ScrapeTime()
	if !ok {
		return time.Time{}
	}
	return t
}
