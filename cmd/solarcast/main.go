package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/solarcast/solarcast/pkg/forecast"
	"github.com/solarcast/solarcast/pkg/log"
	"github.com/solarcast/solarcast/pkg/server"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

func main() {
	// init packages
	p := forecast.Configured()

	// init server
	srv := server.Configured(p)

	// parse flags
	lflag.Configure()

	// lflag automatically sets llog's level, but we need to set the slog level
	level, err := log.LevelFromLLog(llog.GetLevel())
	if err != nil {
		panic(err)
	}
	log.SetDefaultLogLevel(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	log.Ctx(ctx).DebugContext(ctx, "logger configured", slog.String("level", level.String()))

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
