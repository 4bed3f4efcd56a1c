package storage

import (
	"context"
	"fmt"

	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/logger"
)

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (KV, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return NewMemoryStore(), nil

	case config.StorageFile:
		fs, err := OpenFileStore(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		logger.Debug("using state file", map[string]any{"path": fs.Path()})
		return fs, nil

	case config.StoragePostgres:
		db, err := database.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &PostgresStore{db: db, ownsDB: true}, nil

	case config.StorageRedis:
		client, err := DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.Redis.Prefix), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
