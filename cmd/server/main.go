// Package main is the entry point for the cryptodeck dashboard backend.
// It serves the prediction, portfolio, sentiment, and chart APIs and runs
// the background jobs (cache cleanup, nightly retrain, backups).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptodeck/internal/config"
	"cryptodeck/internal/di"
	"cryptodeck/internal/scheduler"
	"cryptodeck/internal/server"
	"cryptodeck/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting cryptodeck")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	sched := scheduler.New(log)
	if err := sched.Register(cfg.Schedules.CacheCleanup, jobs.CacheCleanup); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule cache cleanup")
	}
	if err := sched.Register(cfg.Schedules.Retrain, jobs.Retrain); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule retrain")
	}
	if jobs.Backup != nil {
		if err := sched.Register(cfg.Schedules.Backup, jobs.Backup); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule backup")
		}
	} else {
		log.Info().Msg("Cloud backups disabled (no object storage configured)")
	}
	sched.Start()

	srv := server.New(cfg, container, log)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
