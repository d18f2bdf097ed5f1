// Package main implements the entry point for the marketplace API server,
// which serves user profiles, the follow graph, and product and service
// listings over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/marketplace-api/internal/config"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/platform/postgres"
)

func main() {
	migrate := flag.String("migrate", "", "run a goose migration command (up, down, status, version, redo, reset) and exit")
	flag.Parse()

	if err := run(*migrate, flag.Args()); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(migrateCmd string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateCmd != "" {
		return postgres.Migrate(ctx, cfg.Database.URL, migrateCmd, log, args...)
	}

	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("redis_enabled", cfg.Redis.URL != ""),
		slog.Bool("rabbitmq_enabled", cfg.RabbitMQ.URL != ""))

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.Run(ctx)
}
