package storage

import (
	"fmt"

	"github.com/OCAP2/bouncemarker/internal/config"
	"github.com/OCAP2/bouncemarker/internal/database"
	"github.com/OCAP2/bouncemarker/internal/storage/gormstore"
	"github.com/OCAP2/bouncemarker/internal/storage/influx"
	"github.com/OCAP2/bouncemarker/internal/storage/memory"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		// always recorded in memory; a configured path receives a dump per run
		db, err := database.GetSqliteDB("")
		if err != nil {
			return nil, err
		}
		return gormstore.New(db, gormstore.Options{DumpPath: cfg.SQLite.Path}), nil
	case "postgres":
		db, err := database.GetPostgresDB(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return gormstore.New(db, gormstore.Options{}), nil
	case "influx":
		return influx.New(cfg.Influx), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
