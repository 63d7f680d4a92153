// Package store selects the product store named by the configuration.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/priceingest/internal/config"
	"github.com/JonMunkholm/priceingest/internal/core"
	"github.com/JonMunkholm/priceingest/internal/store/memory"
	"github.com/JonMunkholm/priceingest/internal/store/postgres"
	"github.com/JonMunkholm/priceingest/internal/store/sqlite"
)

// Open returns the store for cfg.Driver. The caller closes it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (core.ProductStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", config.DriverMemory:
		return memory.New(), nil

	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, nil

	case config.DriverPostgres:
		if cfg.URL == "" {
			return nil, fmt.Errorf("postgres store requires DATABASE_URL")
		}
		s, err := postgres.Open(ctx, cfg.URL, postgres.PoolOptions{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
