// Tillerstead admin server
// Entry point for the back-office API
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/app"
	"github.com/tillerstead/admin/internal/config"
	"github.com/tillerstead/admin/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wire stores and services
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize admin server", zap.Error(err))
	}
	defer a.Close()

	if a.GeneratedAdminPassword != "" {
		logger.Warn("seeded admin account with a generated password; change it after first login",
			zap.String("username", "admin"),
			zap.String("password", a.GeneratedAdminPassword),
		)
	}

	if err := a.Serve(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
