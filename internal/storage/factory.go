// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/OCAP2/geotime/internal/config"
	"github.com/OCAP2/geotime/internal/storage/memory"
	"github.com/OCAP2/geotime/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/geotime/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// Backend type names accepted in storage.type.
const (
	TypeMemory   = "memory"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// NewBackend creates a storage backend based on configuration. The caller
// must call Init.
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case TypePostgres:
		return postgres.New(cfg.DB, log)
	case TypeSQLite:
		return sqlitestorage.New(cfg.SQLite, log)
	case TypeMemory, "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Type)
	}
}
