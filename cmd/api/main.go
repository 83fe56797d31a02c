package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os/signal"
	"syscall"
	"time"

	"github.com/milankatira/uptime-sub000/config"
	"github.com/milankatira/uptime-sub000/internals/app"
	"github.com/milankatira/uptime-sub000/internals/server"
	"github.com/milankatira/uptime-sub000/pkg/db"
	"github.com/milankatira/uptime-sub000/pkg/logger"
)

func main() {
	// Load envs
	cfg, err := config.LoadConfig("env.yaml")
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	// Context with signals attached: Done closes when a signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize base/global logger
	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	// Initialize DB pool
	dbPool, err := db.ConnectToDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize db pool")
	}
	log.Info().Msg("database pool initialized")
	defer dbPool.Close()

	// Inject dependencies
	container, err := app.NewContainer(ctx, dbPool, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	// Rebuild the durable schedule from the monitor catalog
	if err := container.Reconcile(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to reconcile schedule")
	}

	// Start background workers
	container.Dispatcher.Start()
	go container.Scheduler.Run()
	go container.Watcher.Run()
	app.StartConsumer(ctx, container)
	log.Info().Msg("background workers started")

	// Register routes
	router := app.RegisterRoutes(container)
	log.Info().Msg("routes registered")

	// Start HTTP server in the background
	srv := server.New(fmt.Sprintf(":%d", cfg.Port), router, log)
	srv.Start()

	// main goroutine waits for the shutdown signal
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// 1. Stop HTTP server (stop accepting requests)
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// 2. Shutdown background workers and infra
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dependencies shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
