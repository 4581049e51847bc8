package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cgtestdeepak-cmd/QA/pkg/api"
	"github.com/cgtestdeepak-cmd/QA/pkg/app"
	"github.com/cgtestdeepak-cmd/QA/pkg/auth"
	"github.com/cgtestdeepak-cmd/QA/pkg/config"
	"github.com/cgtestdeepak-cmd/QA/pkg/extract"
	"github.com/cgtestdeepak-cmd/QA/pkg/history"
	"github.com/cgtestdeepak-cmd/QA/pkg/worker"
)

func main() {
	// --- Load .env file (for local development only) ---
	app.LoadDotEnv(slog.Default())

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stdout, cfg)
	logger.Info("Starting test case generation server...", slog.String("log_level", cfg.LogLevel))

	// --- Context for graceful shutdown ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Dependency Injection ---
	deps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.Close()

	authn, err := auth.NewAuthenticator(cfg.JWTSecret)
	if err != nil {
		logger.Error("Failed to initialize authenticator", slog.String("error", err.Error()))
		os.Exit(1)
	}

	hist := history.NewService(deps.Store, logger)
	apiHandler := api.NewAPI(deps.Generator, hist, deps.Store, deps.Queue, extract.DocumentExtractor{}, authn, logger, cfg)
	router := api.SetupRouter(apiHandler)
	logger.Info("API router configured")

	// Without a broker the queue lives in this process, so the worker has to as well.
	workerDone := make(chan struct{})
	if deps.InProcessQueue {
		w := worker.New(deps.Queue, deps.Store, hist, deps.Generator, worker.Config{
			PollInterval:      cfg.WorkerPollInterval,
			GenerationTimeout: cfg.GenerationTimeout,
		}, logger)
		go func() {
			defer close(workerDone)
			_ = w.Run(ctx)
		}()
	} else {
		close(workerDone)
	}

	// --- HTTP Server Setup ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout + (5 * time.Second),
		WriteTimeout: cfg.GenerationTimeout + (10 * time.Second), // Generation is the slowest handler
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	// --- Start Server Goroutine ---
	go func() {
		var err error
		if cfg.TLSEnabled() {
			logger.Info("Server starting on address", slog.String("protocol", "https"), slog.String("address", server.Addr))
			err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			logger.Info("Server starting on address", slog.String("protocol", "http"), slog.String("address", server.Addr))
			err = server.ListenAndServe()
		}
		if errors.Is(err, syscall.EADDRINUSE) {
			logger.Error("Port is already in use. Is another instance of the server already running?", slog.String("address", server.Addr))
			stop()
		} else if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start or unexpectedly closed", slog.String("error", err.Error()))
			stop()
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server graceful shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("Server gracefully stopped")
	}
	<-workerDone

	logger.Info("Shutdown complete.")
}
