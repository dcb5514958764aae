// Package storage provides outcome persistence with pluggable backends.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bobmcallan/extrato/internal/common"
	"github.com/bobmcallan/extrato/internal/interfaces"
	"github.com/bobmcallan/extrato/internal/models"
)

// FileStore keeps one JSON file per outcome under <path>/outcomes.
type FileStore struct {
	dir    string
	logger *common.Logger
}

var _ interfaces.OutcomeStore = (*FileStore)(nil)

// NewFileStore creates a FileStore and ensures its directory exists.
func NewFileStore(logger *common.Logger, path string) (*FileStore, error) {
	dir := filepath.Join(path, "outcomes")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	logger.Debug().Str("path", dir).Msg("FileStore opened")
	return &FileStore{dir: dir, logger: logger}, nil
}

// sanitizeKey makes a key safe for use as a filename.
// Replaces /, \, : with _ and collapses ".." to "_" to prevent path traversal.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func (fs *FileStore) filePath(id string) string {
	return filepath.Join(fs.dir, sanitizeKey(id)+".json")
}

func (fs *FileStore) SaveOutcome(ctx context.Context, outcome *models.StoredOutcome) error {
	if outcome == nil || outcome.ID == "" {
		return fmt.Errorf("outcome ID is required")
	}
	return fs.writeJSON(fs.filePath(outcome.ID), outcome)
}

func (fs *FileStore) GetOutcome(ctx context.Context, id string) (*models.StoredOutcome, error) {
	var out models.StoredOutcome
	if err := fs.readJSON(fs.filePath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (fs *FileStore) ListOutcomes(ctx context.Context, holder string) ([]*models.StoredOutcome, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", fs.dir, err)
	}

	var outcomes []*models.StoredOutcome
	for _, e := range entries {
		name := e.Name()
		// Only .json files, not .tmp-* temp files
		if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var out models.StoredOutcome
		if err := fs.readJSON(filepath.Join(fs.dir, name), &out); err != nil {
			fs.logger.Warn().Str("file", name).Err(err).Msg("Skipping unreadable outcome")
			continue
		}
		if holder != "" && out.Holder != holder {
			continue
		}
		outcomes = append(outcomes, &out)
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		if outcomes[i].ParsedAt.Equal(outcomes[j].ParsedAt) {
			return outcomes[i].ID > outcomes[j].ID
		}
		return outcomes[i].ParsedAt.After(outcomes[j].ParsedAt)
	})
	return outcomes, nil
}

func (fs *FileStore) DeleteOutcome(ctx context.Context, id string) error {
	if err := os.Remove(fs.filePath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete outcome %s: %w", id, err)
	}
	return nil
}

func (fs *FileStore) Close() error {
	return nil
}

// readJSON reads and unmarshals a JSON file.
func (fs *FileStore) readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return interfaces.ErrOutcomeNotFound
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("'%s' is empty", filepath.Base(path))
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON marshals data to indented JSON and writes it atomically.
func (fs *FileStore) writeJSON(target string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	// Atomic write: write to temp file in the same directory, then rename
	tmpFile, err := os.CreateTemp(fs.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
