// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the CineScript HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (and an optional .env file).
//  3. Open the configured snapshot store (redis, postgres or memory).
//  4. Load the persisted shot list, seeding a sample project when empty.
//  5. Wire HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/cinescript/internal/api"
	"github.com/taibuivan/cinescript/internal/bootstrap"
	"github.com/taibuivan/cinescript/internal/core/shotlist"
	"github.com/taibuivan/cinescript/internal/platform/config"
	"github.com/taibuivan/cinescript/internal/platform/constants"
	"github.com/taibuivan/cinescript/internal/platform/middleware"
	"github.com/taibuivan/cinescript/internal/services/export"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("storage", cfg.StorageBackend),
		slog.Bool("strict_invariants", cfg.Strict()),
	)

	// Bounded so misconfiguration fails fast instead of hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Storage & Domain ───────────────────────────────────────────────
	app, err := bootstrap.New(startupCtx, cfg, log)
	must(log, err, "wire application")
	defer app.Close()

	// ── 4. Initial Load ───────────────────────────────────────────────────
	state := app.Service.Load(startupCtx)
	log.Info("shot_list_ready",
		slog.Int("projects", len(state.Projects)),
		slog.String("current_project_id", state.Selection.CurrentProjectID),
	)

	// ── 5. HTTP Wiring ────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(log, api.HealthCheck{
		Name:  app.Backend,
		Check: app.Service.Ready,
	})

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Generative calls get their own, tighter budget on top of the global limit.
	collaboratorLimit := middleware.RateLimit(rootCtx, "collaborators",
		constants.CollaboratorRateLimitRPS, constants.CollaboratorRateLimitBurst)

	server := api.NewServer(rootCtx, cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		ShotList:  shotlist.NewHandler(app.Service, export.NewFormatter(), shotlist.WithCollaboratorGuard(collaboratorLimit)),
	})

	// ── 6. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger tagged with the application name and installs it as default.
func newLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(logger)
	return logger
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
