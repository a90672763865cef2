package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"facturas/internal/config"
	applog "facturas/internal/log"
	"facturas/internal/seed"
	"facturas/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(applog.Config{
		Level: applog.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting seed run", "data_dir", cfg.SeedDataDir, "db", cfg.SQLiteDBPath)

	seeder := seed.New(store, cfg.SeedDataDir)
	if err := seeder.Run(ctx); err != nil {
		logger.Error("Seed run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Seed run complete")
}
