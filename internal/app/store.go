// Package app wires configuration into the concrete stores and collaborators
// shared by the catalog binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"catalogservice/internal/book"
	"catalogservice/internal/config"
	"catalogservice/internal/platform/database"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is an opened book store together with its health probe and cleanup.
type Store struct {
	Repo  book.Repository
	Ready func(ctx context.Context) error

	closers []func() error
}

func (s *Store) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenStore connects the store selected by cfg.StoreDriver, applies
// migrations when asked to, and puts the Redis cache in front of it when
// cfg.RedisAddr is set.
func OpenStore(ctx context.Context, cfg config.Config, log *zap.Logger) (*Store, error) {
	s := &Store{}

	switch cfg.StoreDriver {
	case "pgx":
		pool, err := database.OpenPool(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("cannot connect to database (%s): %w", database.RedactDSN(cfg.DBDSN), err)
		}
		s.closers = append(s.closers, func() error { pool.Close(); return nil })

		if cfg.MigrateOnStart {
			if err := database.Migrate(ctx, pool); err != nil {
				_ = s.Close()
				return nil, err
			}
			log.Info("migrations applied")
		}
		s.Repo = book.NewPostgresRepo(pool, cfg.DBTimeout)
		s.Ready = pool.Ping

	case "gorm-postgres", "sqlite":
		gdb, err := database.OpenGorm(cfg.StoreDriver, cfg.DBDSN, log)
		if err != nil {
			return nil, fmt.Errorf("cannot open %s store (%s): %w", cfg.StoreDriver, database.RedactDSN(cfg.DBDSN), err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, sqlDB.Close)

		repo := book.NewGormRepo(gdb)
		if cfg.MigrateOnStart || cfg.StoreDriver == "sqlite" {
			if err := repo.AutoMigrate(); err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("auto migrate: %w", err)
			}
		}
		s.Repo = repo
		s.Ready = sqlDB.PingContext

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s.closers = append(s.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, cache will fall through until it recovers",
				zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		s.Repo = book.NewCachedRepo(s.Repo, client, cfg.CacheTTL, log)
		log.Info("book cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
	}

	return s, nil
}
