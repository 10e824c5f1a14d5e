package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/flywaywatch/birdcast-scraper/internal/record"
)

// JSONStore maintains a legacy JSON-array dataset alongside the parquet
// store. It is kept only for corridors whose downstream tooling still reads
// JSON; new corridors should not create one.
type JSONStore struct {
	path   string
	logger *zap.Logger
}

// NewJSONStore builds a JSONStore for the file at path.
func NewJSONStore(path string, logger *zap.Logger) *JSONStore {
	return &JSONStore{path: path, logger: logger}
}

// Path returns the JSON file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Exists reports whether the JSON file is already present. Callers use this
// to extend existing legacy files without creating new ones.
func (s *JSONStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Persist appends batch to the JSON array and rewrites the file. Unlike the
// parquet store there is no deduplication; the file is a raw append log.
// An unreadable existing file is logged and treated as empty.
func (s *JSONStore) Persist(ctx context.Context, batch []record.Record) error {
	if len(batch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	existing := s.loadExisting()
	rows := append(existing, batch...)

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("replace dataset: %w", err)
	}
	s.logger.Info("json dataset persisted",
		zap.String("path", s.path),
		zap.Int("batch_rows", len(batch)),
		zap.Int("total_rows", len(rows)))
	return nil
}

func (s *JSONStore) loadExisting() []record.Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("could not read existing json dataset; starting fresh", zap.Error(err))
		}
		return nil
	}
	var rows []record.Record
	if err := json.Unmarshal(data, &rows); err != nil {
		s.logger.Warn("existing json dataset is corrupt; starting fresh", zap.Error(err))
		return nil
	}
	return rows
}
