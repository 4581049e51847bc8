package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration values.
// Empty POSTGRES_DSN, RABBITMQ_URL or REDIS_ADDR select the in-process fallback for that concern.
type Config struct {
	Port              string
	CertFile          string // TLS is enabled when both files are set
	KeyFile           string
	LogLevel          string // e.g., "debug", "info", "warn", "error"
	RequestTimeout    time.Duration
	GenerationTimeout time.Duration
	AllowedOrigins    []string

	Postgres_DSN     string
	MinIO_Endpoint   string
	MinIO_AccessKey  string
	MinIO_SecretKey  string
	MinIO_UseSSL     bool
	MinIO_BucketName string

	RabbitMQ_URL       string
	GenerationQueue    string
	WorkerPollInterval time.Duration

	RedisAddr string
	CacheTTL  time.Duration

	GeminiAPIKey          string
	GeminiModel           string
	GeminiTemperature     float64
	GeminiMaxOutputTokens int

	JWTSecret          string
	MaxAttachmentBytes int64
	MaxAttachments     int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Helper to get env var with default
	getenv := func(key, fallback string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return fallback
	}

	getenvBool := func(key string, fallback bool) bool {
		if valueStr, exists := os.LookupEnv(key); exists {
			value, err := strconv.ParseBool(valueStr)
			if err == nil {
				return value
			}
		}
		return fallback
	}

	getenvInt := func(key string, fallback int) int {
		if valueStr, exists := os.LookupEnv(key); exists {
			value, err := strconv.Atoi(valueStr)
			if err == nil {
				return value
			}
		}
		return fallback
	}

	getenvInt64 := func(key string, fallback int64) int64 {
		if valueStr, exists := os.LookupEnv(key); exists {
			value, err := strconv.ParseInt(valueStr, 10, 64)
			if err == nil {
				return value
			}
		}
		return fallback
	}

	getenvFloat := func(key string, fallback float64) float64 {
		if valueStr, exists := os.LookupEnv(key); exists {
			value, err := strconv.ParseFloat(valueStr, 64)
			if err == nil {
				return value
			}
		}
		return fallback
	}

	getenvDuration := func(key string, fallback time.Duration) time.Duration {
		if valueStr, exists := os.LookupEnv(key); exists {
			value, err := time.ParseDuration(valueStr)
			if err == nil {
				return value
			}
		}
		return fallback
	}

	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		CertFile:          getenv("CERT_FILE", ""),
		KeyFile:           getenv("KEY_FILE", ""),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		RequestTimeout:    getenvDuration("REQUEST_TIMEOUT", 15*time.Second),
		GenerationTimeout: getenvDuration("GENERATION_TIMEOUT", 2*time.Minute),
		AllowedOrigins:    splitList(getenv("ALLOWED_ORIGINS", "https://*,http://*")),

		Postgres_DSN:     getenv("POSTGRES_DSN", ""),
		MinIO_Endpoint:   getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinIO_AccessKey:  getenv("MINIO_ACCESS_KEY", ""), // Must be set in .env when POSTGRES_DSN is
		MinIO_SecretKey:  getenv("MINIO_SECRET_KEY", ""),
		MinIO_UseSSL:     getenvBool("MINIO_USE_SSL", false),
		MinIO_BucketName: getenv("MINIO_BUCKET_NAME", "tcgen-attachments"),

		RabbitMQ_URL:       getenv("RABBITMQ_URL", ""),
		GenerationQueue:    getenv("GENERATION_QUEUE", "generation_jobs"),
		WorkerPollInterval: getenvDuration("WORKER_POLL_INTERVAL", 5*time.Second),

		RedisAddr: getenv("REDIS_ADDR", ""),
		CacheTTL:  getenvDuration("CACHE_TTL", 24*time.Hour),

		GeminiAPIKey:          getenv("GEMINI_API_KEY", ""),
		GeminiModel:           getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTemperature:     getenvFloat("GEMINI_TEMPERATURE", 0.2),
		GeminiMaxOutputTokens: getenvInt("GEMINI_MAX_OUTPUT_TOKENS", 16384),

		JWTSecret:          getenv("JWT_SECRET", ""),
		MaxAttachmentBytes: getenvInt64("MAX_ATTACHMENT_BYTES", 4<<20),
		MaxAttachments:     getenvInt("MAX_ATTACHMENTS", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or out-of-range key at once.
func (c *Config) Validate() error {
	var errs []error
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Postgres_DSN != "" && (c.MinIO_AccessKey == "" || c.MinIO_SecretKey == "") {
		errs = append(errs, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required with POSTGRES_DSN"))
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		errs = append(errs, errors.New("CERT_FILE and KEY_FILE must be set together"))
	}
	if c.MaxAttachmentBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_ATTACHMENT_BYTES must be positive, got %d", c.MaxAttachmentBytes))
	}
	if c.GeminiTemperature < 0 || c.GeminiTemperature > 2 {
		errs = append(errs, fmt.Errorf("GEMINI_TEMPERATURE must be within [0, 2], got %g", c.GeminiTemperature))
	}
	return errors.Join(errs...)
}

// TLSEnabled reports whether the server should listen with TLS.
func (c *Config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// SlogLevel maps LOG_LEVEL onto a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
