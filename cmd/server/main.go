package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/terminal-bench/capacities/internal/config"
	"github.com/terminal-bench/capacities/internal/logging"
	"github.com/terminal-bench/capacities/internal/repository"
	"github.com/terminal-bench/capacities/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	seed, err := cfg.Seed()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load seed capacities")
	}

	repo, err := repository.NewCapacityRepository(seed)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize repository")
	}
	logger.WithField("capacities", repo.Count()).Info("repository seeded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, repo, logger)
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		logger.WithError(err).Fatal("Server exited with error")
	}

	logger.Info("Server exiting")
}
