// Package app wires configuration into the concrete stores, queue and model client
// shared by the API server and the worker process.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/cgtestdeepak-cmd/QA/pkg/cache"
	"github.com/cgtestdeepak-cmd/QA/pkg/config"
	"github.com/cgtestdeepak-cmd/QA/pkg/generation"
	"github.com/cgtestdeepak-cmd/QA/pkg/generation/gemini"
	"github.com/cgtestdeepak-cmd/QA/pkg/queue"
	queuemem "github.com/cgtestdeepak-cmd/QA/pkg/queue/memory"
	"github.com/cgtestdeepak-cmd/QA/pkg/queue/rabbitmq"
	"github.com/cgtestdeepak-cmd/QA/pkg/storage"
	"github.com/cgtestdeepak-cmd/QA/pkg/storage/memory"
	"github.com/cgtestdeepak-cmd/QA/pkg/storage/persistent"
)

// LoadDotEnv reads .env files outside production. Missing files are not an error.
func LoadDotEnv(logger *slog.Logger, files ...string) {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	if err := godotenv.Load(files...); err != nil {
		logger.Info("Could not load .env file, relying on environment variables", slog.String("error", err.Error()))
		return
	}
	logger.Info("Loaded configuration from .env file for local development")
}

// NewLogger builds the JSON logger at the configured level and makes it the default.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return logger
}

// Deps are the long-lived dependencies of a process. Close releases them in reverse order.
type Deps struct {
	Store     storage.Store
	Queue     queue.Manager
	Generator *generation.Service
	// InProcessQueue is set when no broker is configured; jobs then have to be
	// processed by a worker inside the same process.
	InProcessQueue bool

	closers []func() error
}

func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

// Build connects every configured backend and falls back to in-process
// implementations for the ones left unset.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Deps, error) {
	d := &Deps{}

	if cfg.Postgres_DSN != "" {
		store, err := persistent.NewStore(ctx, persistent.Options{
			PostgresDSN:    cfg.Postgres_DSN,
			MinioEndpoint:  cfg.MinIO_Endpoint,
			MinioAccessKey: cfg.MinIO_AccessKey,
			MinioSecretKey: cfg.MinIO_SecretKey,
			BucketName:     cfg.MinIO_BucketName,
			UseSSL:         cfg.MinIO_UseSSL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize persistent store: %w", err)
		}
		d.Store = store
	} else {
		logger.Warn("POSTGRES_DSN not set, history and jobs are kept in memory")
		d.Store = memory.NewStore()
	}
	d.closers = append(d.closers, d.Store.Close)

	if cfg.RabbitMQ_URL != "" {
		qm, err := rabbitmq.NewRabbitMQManager(cfg.RabbitMQ_URL, cfg.GenerationQueue, logger)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ queue manager: %w", err)
		}
		d.Queue = qm
	} else {
		logger.Warn("RABBITMQ_URL not set, jobs are queued in memory")
		d.Queue = queuemem.New()
		d.InProcessQueue = true
	}
	d.closers = append(d.closers, d.Queue.Close)

	var resultCache cache.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(cfg.RedisAddr, logger)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("failed to initialize result cache: %w", err)
		}
		resultCache = rc
		d.closers = append(d.closers, rc.Close)
	}

	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:          cfg.GeminiAPIKey,
		Model:           cfg.GeminiModel,
		Temperature:     float32(cfg.GeminiTemperature),
		MaxOutputTokens: int32(cfg.GeminiMaxOutputTokens),
	}, logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Generator = generation.NewService(client, resultCache, cfg.CacheTTL, logger.With(slog.String("component", "generation")))
	return d, nil
}
