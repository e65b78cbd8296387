// Package backend opens the record store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/whiskey-inventory/cmd/api/config"
	"github.com/whiskey-inventory/cmd/api/database"
	"github.com/whiskey-inventory/cmd/api/inmemory"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

// Store is a record store that can also answer the readiness probe.
type Store interface {
	whiskey.Repository
	CheckReady() (status, message string)
}

// Open returns the configured store and a function releasing its resources.
// The postgres store is migrated first when cfg.DatabaseMigrate is set.
func Open(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		store, err := inmemory.NewInMemoryStore()
		if err != nil {
			return nil, nil, fmt.Errorf("opening memory store: %w", err)
		}
		slog.Info("using in-memory store, records are lost on exit")
		return store, func() {}, nil

	case config.BackendPostgres:
		db, err := database.ConnectDb(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting with db: %w", err)
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				slog.Error("closing db", slog.String("error", err.Error()))
			}
		}

		store := database.NewStore(db)
		if cfg.DatabaseMigrate {
			if err := database.MigrationUp(store); err != nil {
				closeDB()
				return nil, nil, fmt.Errorf("migrating: %w", err)
			}
		}
		return store, closeDB, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
