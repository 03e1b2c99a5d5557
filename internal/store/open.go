package store

import (
	"context"
	"fmt"

	"github.com/al3xb0/mindpal-task/internal/config"
	"go.uber.org/zap"
)

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.FavoritesStoreConfig, logger *zap.Logger) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory favorites store, favorites are lost on restart")
		s = NewMemoryStore()
	case config.DriverSQLite:
		s, err = openAs(OpenSQLite(ctx, cfg.SQLite.Path, logger))
	case config.DriverPostgres:
		s, err = openAs(NewPostgresStore(ctx, cfg.Postgres, logger))
	case config.DriverRedis:
		s, err = openAs(NewRedisStore(ctx, cfg.Redis, logger))
	default:
		return nil, fmt.Errorf("unknown favorites store driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s favorites store: %w", cfg.Driver, err)
	}

	return s, nil
}

func openAs[T Store](s T, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
