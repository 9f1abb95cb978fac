// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/taibuivan/cinescript/internal/bootstrap"
	"github.com/taibuivan/cinescript/internal/core/shotlist"
	"github.com/taibuivan/cinescript/internal/platform/config"
)

// commandContext lazily opens the snapshot store shared by every subcommand.
type commandContext struct {
	envFile string
	verbose bool

	app *bootstrap.App
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

// service returns the loaded shot list service, opening storage on first use.
func (ctx *commandContext) service(context context.Context) (*shotlist.Service, error) {
	if ctx.app != nil {
		return ctx.app.Service, nil
	}

	var files []string
	if ctx.envFile != "" {
		files = append(files, ctx.envFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}

	app, err := bootstrap.New(context, cfg, ctx.logger())
	if err != nil {
		return nil, err
	}

	app.Service.Load(context)
	ctx.app = app

	return app.Service, nil
}

func (ctx *commandContext) logger() *slog.Logger {
	level := slog.LevelError
	if ctx.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (ctx *commandContext) close() {
	if ctx.app != nil {
		ctx.app.Close()
		ctx.app = nil
	}
}
