// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package bootstrap assembles the shot list service from configuration.

Both the HTTP server and the shotctl command line tool start from the same
wiring so they always read and write the same snapshot.

Flow:

  - Storage: Opens the configured key-value substrate (redis, postgres or memory).
  - Domain: Builds the entity store, persistence and service.
  - Collaborators: Attaches the Gemini client when an API key is present.
*/
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/cinescript/internal/core/shotlist"
	"github.com/taibuivan/cinescript/internal/platform/config"
	"github.com/taibuivan/cinescript/internal/platform/migration"
	"github.com/taibuivan/cinescript/internal/platform/postgres"
	redisstore "github.com/taibuivan/cinescript/internal/platform/redis"
	"github.com/taibuivan/cinescript/internal/services/gemini"
)

// App holds the wired service together with the resources it owns.
type App struct {
	Service *shotlist.Service

	// Backend names the storage substrate in use.
	Backend string

	closers []func()
}

/*
New opens storage and builds the service. The returned App must be closed.

Parameters:
  - context: context.Context bounding the connection attempts
  - cfg: *config.Config
  - logger: *slog.Logger

Returns:
  - *App: Wired application
  - error: Storage connectivity or migration failures
*/
func New(context context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Backend: cfg.StorageBackend}

	kv, err := app.openStore(context, cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	entities := shotlist.NewEntityStore()
	persistence := shotlist.NewPersistence(kv, entities, cfg.StorageKeyPrefix, logger)

	options := []shotlist.ServiceOption{shotlist.WithStrictInvariants(cfg.Strict())}

	if cfg.GeminiEnabled() {
		client := gemini.NewClient(gemini.Config{
			APIKey:     cfg.GeminiAPIKey,
			BaseURL:    cfg.GeminiBaseURL,
			TextModel:  cfg.GeminiTextModel,
			ImageModel: cfg.GeminiImageModel,
			Timeout:    cfg.GeminiTimeout,
		})
		options = append(options, shotlist.WithEnricher(client), shotlist.WithImageSynthesizer(client))
		logger.Info("gemini_collaborators_enabled",
			slog.String("text_model", cfg.GeminiTextModel),
			slog.String("image_model", cfg.GeminiImageModel),
		)
	} else {
		logger.Warn("gemini_collaborators_disabled", slog.String("reason", "GEMINI_API_KEY not set"))
	}

	app.Service = shotlist.NewService(entities, persistence, logger, options...)

	return app, nil
}

// openStore connects the configured [shotlist.KeyValueStore].
func (app *App) openStore(context context.Context, cfg *config.Config, logger *slog.Logger) (shotlist.KeyValueStore, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		client, err := redisstore.NewClient(context, cfg.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect to redis: %w", err)
		}
		app.closers = append(app.closers, func() {
			if err := client.Close(); err != nil {
				logger.Error("redis_close_failed", slog.Any("error", err))
			}
		})
		return shotlist.NewRedisKeyValueStore(client), nil

	case config.BackendPostgres:
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
			return nil, fmt.Errorf("bootstrap: run migrations: %w", err)
		}
		pool, err := postgres.NewPool(context, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect to postgres: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		return shotlist.NewPostgresKeyValueStore(pool), nil

	case config.BackendMemory:
		logger.Warn("memory_storage_selected", slog.String("reason", "data is lost on restart"))
		return shotlist.NewMemoryKeyValueStore(), nil
	}

	return nil, fmt.Errorf("bootstrap: unknown storage backend %q", cfg.StorageBackend)
}

// Close releases storage connections in reverse order of acquisition.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}
