package cli

import (
	"context"
	"io"
	"log/slog"

	"taskbot/internal/bot"
	"taskbot/internal/cache"
	"taskbot/internal/config"
	"taskbot/internal/logging"
	"taskbot/internal/repository"
	"taskbot/internal/services"
)

// App holds the wired components for one process.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	repo     repository.Repository
	cache    *cache.TaskCache
	handler  *bot.Handler
}

// NewApp opens the store and cache and wires the service and bot handler.
// The schema is ensured before returning.
func NewApp(ctx context.Context, cfg *config.Config, logOutput io.Writer) (*App, error) {
	logger := logging.New(logOutput, cfg.Application.LogLevel, cfg.Application.LogFormat)

	repo, err := config.CreateRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	schemaCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()
	if err := repo.EnsureSchema(schemaCtx); err != nil {
		repo.Close()
		return nil, err
	}

	taskCache, err := config.CreateTaskCache(ctx, cfg, logger)
	if err != nil {
		repo.Close()
		return nil, err
	}

	svc := services.NewTaskService(repo, taskCache, services.Options{
		QueryTimeout:  cfg.GetQueryTimeout(),
		WriteTimeout:  cfg.GetWriteTimeout(),
		MaxTextLength: cfg.Validation.TaskTextMaxLength,
		Logger:        logger,
	})

	handler := bot.NewHandler(svc, bot.Options{
		ListTimeFormat:   cfg.Display.ListTimeFormat,
		ExportTimeFormat: cfg.Display.ExportTimeFormat,
		Location:         cfg.Location(),
		DoneMark:         cfg.Display.DoneMark,
		PendingMark:      cfg.Display.PendingMark,
		DoneLabel:        cfg.Display.DoneLabel,
		PendingLabel:     cfg.Display.PendingLabel,
		ExportFilename:   cfg.Display.ExportFilename,
		Logger:           logger,
	})

	logger.Debug("app initialized",
		"driver", cfg.Database.Driver,
		"cache", cfg.Cache.Backend)

	return &App{
		config:   cfg,
		logger:   logger,
		repo:     repo,
		cache:    taskCache,
		handler:  handler,
	}, nil
}

// Close releases the cache and the store.
func (a *App) Close() error {
	cacheErr := a.cache.Close()
	if err := a.repo.Close(); err != nil {
		return err
	}
	return cacheErr
}
