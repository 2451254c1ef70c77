package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"taskbot/internal/cache"
	"taskbot/internal/logging"
	"taskbot/internal/repository"
	"taskbot/internal/repository/postgres"
	"taskbot/internal/repository/sqlite"
)

// CreateRepository opens the configured durable store. The schema is not
// touched; call EnsureSchema on the result.
func CreateRepository(ctx context.Context, config *Config) (repository.Repository, error) {
	switch config.Database.Driver {
	case DriverPostgres:
		repo, err := postgres.New(ctx, config.Database.URL, postgres.Options{
			MaxConns:       config.Database.MaxConns,
			ConnectTimeout: config.Database.ConnectTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repo, nil

	case DriverSQLite:
		dbPath := config.GetDatabasePath()
		if dbPath != ":memory:" {
			if err := os.MkdirAll(config.Database.Dir, os.FileMode(config.Database.DirPermissions)); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		repo, err := sqlite.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repo, nil

	default:
		return nil, &ConfigError{Field: "database.driver", Message: "unsupported driver " + config.Database.Driver}
	}
}

// CreateTestRepository creates an in-memory repository with its schema applied
func CreateTestRepository(ctx context.Context) (repository.Repository, error) {
	repo, err := sqlite.New(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize test database: %w", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// CreateTaskCache builds the configured cache. An unreachable redis server
// is logged and the backend kept; outages degrade to cache misses.
func CreateTaskCache(ctx context.Context, config *Config, logger *slog.Logger) (*cache.TaskCache, error) {
	var backend cache.Backend
	switch config.Cache.Backend {
	case CacheRedis:
		redisBackend := cache.NewRedis(cache.RedisOptions{
			Addr:        config.Cache.Addr,
			Password:    config.Cache.Password,
			DB:          config.Cache.DB,
			DialTimeout: config.Cache.DialTimeout,
			OpTimeout:   config.Cache.OpTimeout,
		})
		pingCtx, cancel := context.WithTimeout(ctx, config.Cache.DialTimeout)
		err := redisBackend.Ping(pingCtx)
		cancel()
		if err != nil {
			logging.OrDiscard(logger).Warn("redis unreachable, serving from the store until it returns",
				"addr", config.Cache.Addr,
				"error", err)
		}
		backend = redisBackend
	case CacheMemory:
		backend = cache.NewMemory()
	case CacheNone:
		backend = cache.Noop{}
	default:
		return nil, &ConfigError{Field: "cache.backend", Message: "unsupported backend " + config.Cache.Backend}
	}

	return cache.NewTaskCache(backend, cache.Options{
		KeyPrefix: config.Cache.KeyPrefix,
		TTL:       config.Cache.TTL,
		OpTimeout: config.Cache.OpTimeout,
		Logger:    logger,
	}), nil
}
