// Package main is the entry point for the hometender API server.
//
// main only reads configuration, builds the logger and hands both to
// internal/server; everything else lives in internal packages.
//
// Configuration comes from an optional YAML file (-config flag or
// CONFIG_PATH) overlaid with environment variables. SESSION_SECRET is the
// only required setting:
//
//	SESSION_SECRET=$(openssl rand -hex 32) go run ./cmd/server
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/hometender/internal/config"
	"github.com/sakif/hometender/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level, _ := cfg.Log.SlogLevel() // checked by Validate
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Create the database directory (like `mkdir -p`). Skipped for
	// ":memory:", whose Dir is ".".
	if dbDir := filepath.Dir(cfg.Database.Path); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the server's resources.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
