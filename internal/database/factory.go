package database

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"lostfound/internal/config"
)

// NewItemStoreFromConfig creates a store based on the database config type.
// The SQLite file is named after the instance.
func NewItemStoreFromConfig(cfg config.DatabaseConfig, instanceID string) (*SQLiteStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, errors.New("data_dir required for sqlite database")
		}
		if instanceID == "" {
			return nil, errors.New("instance_id required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, errors.Wrap(err, "creating data directory")
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, instanceID+".db"))
	case "memory":
		return NewSQLiteStore(":memory:")
	default:
		return nil, errors.Newf("unknown database type: %s", cfg.Type)
	}
}
