// Package store opens the configured key-value backend for the ledger.
package store

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/simaogato/caixinha-backend/internal/adapter/store/badger"
	"github.com/simaogato/caixinha-backend/internal/adapter/store/memory"
	"github.com/simaogato/caixinha-backend/internal/adapter/store/postgres"
	redisstore "github.com/simaogato/caixinha-backend/internal/adapter/store/redis"
	"github.com/simaogato/caixinha-backend/internal/adapter/store/sqlite"
	"github.com/simaogato/caixinha-backend/internal/config"
	"github.com/simaogato/caixinha-backend/internal/domain"
)

// Open connects to the backend named by cfg.Store.Driver.
// The returned close function releases the backend and is never nil.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.BatchStore, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, ledger will not survive a restart")
		return memory.NewStore(), noop, nil

	case config.DriverBadger:
		s, err := badger.Open(cfg.Store.Path)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("opened badger store", zap.String("path", cfg.Store.Path))
		return s, s.Close, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("opened sqlite store", zap.String("path", cfg.Store.Path))
		return s, s.Close, nil

	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, noop, err
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		logger.Info("opened postgres store")
		return postgres.NewStore(db), db.Close, nil

	case config.DriverRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("failed to ping redis: %w", err)
		}
		logger.Info("opened redis store", zap.String("addr", cfg.Redis.Addr), zap.String("prefix", cfg.Redis.Prefix))
		return redisstore.NewStore(client, cfg.Redis.Prefix), client.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
