// Package storage opens the document store backend named by the
// configuration. The server and wishlistctl share it so both see the same data.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/wishlist/internal/config"
	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/docstore/memory"
	"github.com/mmynk/wishlist/internal/docstore/redisstore"
	"github.com/mmynk/wishlist/internal/docstore/sqlite"
)

// Open returns the store for cfg.StoreDriver. The caller closes it.
func Open(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", cfg.StoreDriver, "database", cfg.DBPath)
		return store, nil

	case config.DriverRedis:
		store, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", cfg.StoreDriver, "addr", cfg.RedisAddr)
		return store, nil

	case config.DriverMemory:
		slog.Warn("Using in-memory storage; data is lost on exit")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
