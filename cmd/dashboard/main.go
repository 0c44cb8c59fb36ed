package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/botivate/systems-dashboard/internal/bootstrap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run() error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger := bootstrap.InitLogger(cfg.LogLevel, cfg.IsDev)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "starting systems dashboard",
		"addr", cfg.HTTP.Addr,
		"session_backend", string(cfg.Session.Backend),
		"catalog_oauth", cfg.Catalog.OAuth.Enabled(),
		"metrics", cfg.Observability.Metrics.IsEnabled(),
	)

	if err := bootstrap.Run(ctx, bootstrap.RunConfig{Config: &cfg, Logger: logger}); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		return err
	}
	logger.Info("systems dashboard stopped")
	return nil
}
