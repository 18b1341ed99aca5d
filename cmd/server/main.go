// Package main implements the taskwatch server, which tracks one remote
// transcription job at a time, polls its status endpoint and serves the
// tracked state and notification feed over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskwatch/internal/config"
	"github.com/phrazzld/taskwatch/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("taskwatch server failed: %v", err)
	}
}

func run() error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.run(ctx)
}

// loadAppConfig loads configuration from config.yaml and the environment.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"storage_driver", cfg.Storage.Driver)
	if cfg.Auth.AuthEnabled() {
		slog.Debug("Auth configuration", "jwt_secret_present", true)
	}

	return cfg, nil
}
