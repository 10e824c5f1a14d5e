package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/flywaywatch/birdcast-scraper/internal/record"
)

// CSVStore appends batches to a flat CSV export. The header is written once
// when the file is created, from the sorted column union of the first
// batch; later batches are projected onto that header and any new columns
// they carry are dropped with a warning. Corridors that need full schema
// evolution should read the parquet store instead.
type CSVStore struct {
	path   string
	logger *zap.Logger
}

// NewCSVStore builds a CSVStore for the file at path.
func NewCSVStore(path string, logger *zap.Logger) *CSVStore {
	return &CSVStore{path: path, logger: logger}
}

// Path returns the CSV file location.
func (s *CSVStore) Path() string {
	return s.path
}

// Persist appends batch to the CSV file, creating it with a header when
// missing.
func (s *CSVStore) Persist(ctx context.Context, batch []record.Record) error {
	if len(batch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}

	header, created, err := s.header(batch)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open csv dataset: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if created {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}

	known := make(map[string]struct{}, len(header))
	for _, col := range header {
		known[col] = struct{}{}
	}
	for _, row := range batch {
		for col := range row {
			if _, ok := known[col]; !ok {
				s.logger.Warn("csv dataset dropping column not in header",
					zap.String("column", col), zap.String("path", s.path))
				known[col] = struct{}{}
			}
		}
		line := make([]string, len(header))
		for i, col := range header {
			if v, ok := row[col]; ok {
				line[i] = fmt.Sprint(v)
			}
		}
		if err := w.Write(line); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv dataset: %w", err)
	}
	s.logger.Info("csv dataset appended",
		zap.String("path", s.path), zap.Int("batch_rows", len(batch)))
	return nil
}

// header returns the column list to write against and whether the file had
// to be created. For an existing file the first line is authoritative.
func (s *CSVStore) header(batch []record.Record) ([]string, bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, false, fmt.Errorf("open csv dataset: %w", err)
		}
		union := map[string]struct{}{}
		for _, row := range batch {
			for col := range row {
				union[col] = struct{}{}
			}
		}
		header := make([]string, 0, len(union))
		for col := range union {
			header = append(header, col)
		}
		sort.Strings(header)
		return header, true, nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, false, fmt.Errorf("read csv header: %w", err)
	}
	return header, false, nil
}
