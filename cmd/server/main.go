package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"skill-journal/internal/app"
	"skill-journal/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, cleanup, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to bootstrap app: %v", err)
	}
	defer cleanup()

	if err := server.Run(ctx); err != nil {
		server.Container.Logger.Error("server stopped with error", slog.Any("error", err))
		cleanup()
		log.Fatalf("server error: %v", err)
	}
}
