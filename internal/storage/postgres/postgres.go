// Package postgres runs the gorm backend on PostgreSQL.
package postgres

import (
	"fmt"

	"github.com/OCAP2/geotime/internal/config"
	"github.com/OCAP2/geotime/internal/database"
	gormstorage "github.com/OCAP2/geotime/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Backend is the Postgres storage backend.
type Backend struct {
	*gormstorage.Backend
}

// New connects to Postgres. The connection is validated with a ping.
func New(cfg config.DBConfig, log zerolog.Logger) (*Backend, error) {
	db, err := database.GetPostgresDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres at %s:%s: %w", cfg.Host, cfg.Port, err)
	}
	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to database")
	return &Backend{Backend: gormstorage.New(db, log)}, nil
}
