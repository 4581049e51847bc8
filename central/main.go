// Command central is the background worker that drains the generation job queue.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cgtestdeepak-cmd/QA/pkg/app"
	"github.com/cgtestdeepak-cmd/QA/pkg/config"
	"github.com/cgtestdeepak-cmd/QA/pkg/history"
	"github.com/cgtestdeepak-cmd/QA/pkg/worker"
)

func main() {
	app.LoadDotEnv(slog.Default())

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, cfg)

	// A separate worker only makes sense with shared storage and a broker.
	if cfg.Postgres_DSN == "" || cfg.RabbitMQ_URL == "" {
		logger.Error("POSTGRES_DSN and RABBITMQ_URL must be set for the standalone worker")
		os.Exit(1)
	}

	logger.Info("Starting generation worker...",
		slog.String("log_level", cfg.LogLevel),
		slog.String("queue", cfg.GenerationQueue))

	// --- Context for graceful shutdown ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.Close()

	w := worker.New(deps.Queue, deps.Store, history.NewService(deps.Store, logger), deps.Generator, worker.Config{
		PollInterval:      cfg.WorkerPollInterval,
		GenerationTimeout: cfg.GenerationTimeout,
	}, logger)

	if err := w.Run(ctx); err != nil {
		logger.Error("Worker stopped with error", slog.String("error", err.Error()))
	}
	logger.Info("Shutdown complete.")
}
