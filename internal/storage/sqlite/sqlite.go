// Package sqlitestorage runs the gorm backend on SQLite. With no path the
// database lives in memory and is snapshotted to disk with VACUUM INTO on a
// timer and at shutdown.
package sqlitestorage

import (
	"context"
	"fmt"
	"time"

	"github.com/OCAP2/geotime/internal/config"
	"github.com/OCAP2/geotime/internal/database"
	gormstorage "github.com/OCAP2/geotime/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Backend wraps the gorm backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg config.SQLiteConfig
	log zerolog.Logger
}

// New opens the SQLite database described by cfg.
func New(cfg config.SQLiteConfig, log zerolog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	if cfg.Path == "" {
		log.Info().Msg("Using local SQLite DB in memory with periodic disk dump")
	} else {
		log.Info().Str("path", cfg.Path).Msg("Using local SQLite DB")
	}

	return &Backend{
		Backend: gormstorage.New(db, log),
		cfg:     cfg,
		log:     log,
	}, nil
}

// InMemory reports whether snapshots are needed to keep data.
func (b *Backend) InMemory() bool {
	return b.cfg.Path == ""
}

// Dump writes a snapshot to the configured dump path.
func (b *Backend) Dump() error {
	return b.Manager().DumpToDisk(b.cfg.DumpPath)
}

// Run dumps the in-memory database every DumpInterval until ctx is done.
// It returns immediately for on-disk databases or when dumps are disabled.
func (b *Backend) Run(ctx context.Context) error {
	if !b.InMemory() || b.cfg.DumpPath == "" || b.cfg.DumpInterval <= 0 {
		return nil
	}

	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := b.Dump(); err != nil {
				b.log.Error().Err(err).Msg("Error dumping to disk")
			}
		}
	}
}

// Close takes a final snapshot of an in-memory database, then closes it.
func (b *Backend) Close() error {
	if b.InMemory() && b.cfg.DumpPath != "" {
		if err := b.Dump(); err != nil {
			b.log.Error().Err(err).Msg("Final dump failed")
		}
	}
	return b.Backend.Close()
}
