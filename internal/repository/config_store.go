package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"ttlock-bridge/internal/logger"
	"ttlock-bridge/internal/models"
)

// FileStore keeps the configuration record as one pretty-printed JSON
// document on disk. There is no locking and no schema versioning beyond
// additive defaulting; concurrent writers are last-writer-wins at the file
// level (accepted for a single-operator deployment).
type FileStore struct {
	path string
	log  *logger.Logger
}

func NewFileStore(path string, log *logger.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Load reads the record from disk. A missing file, a read failure or corrupt
// content all fall back to an all-defaults record; the discarded cause is
// logged, never propagated. Whatever was parsed is merged onto a fresh
// default record so every key exists regardless of schema drift.
func (s *FileStore) Load(ctx context.Context) (models.Config, error) {
	cfg := models.DefaultConfig()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) && s.log != nil {
			s.log.Warnw("config_read_failed_using_defaults", "path", s.path, "err", err)
		}
		return cfg, nil
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		// Corrupt content is never partially trusted.
		if s.log != nil {
			s.log.Warnw("config_parse_failed_using_defaults", "path", s.path, "err", err)
		}
		return models.DefaultConfig(), nil
	}
	if cfg.Locks == nil {
		cfg.Locks = []models.LockSummary{}
	}
	return cfg, nil
}

// Save writes the full record, replacing prior content wholesale.
func (s *FileStore) Save(ctx context.Context, cfg models.Config) error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}
