// Package generation runs one request through prompt construction, the model call and
// response normalization.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cgtestdeepak-cmd/QA/pkg/cache"
	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/normalize"
	"github.com/cgtestdeepak-cmd/QA/pkg/prompt"
)

// maxLoggedRaw caps how much of an unrepairable response is written to the debug log.
const maxLoggedRaw = 4096

// Generator is the external model call. It returns the raw text of the response.
type Generator interface {
	Generate(ctx context.Context, p prompt.Prompt) (string, error)
	// Model names the model behind the generator; it scopes cache keys.
	Model() string
}

// Service generates validated test cases for a request.
type Service struct {
	generator Generator
	cache     cache.Cache // Optional
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewService creates a generation service. c may be nil to disable result caching.
func NewService(gen Generator, c cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{generator: gen, cache: c, cacheTTL: cacheTTL, logger: logger}
}

// Generate validates the request, calls the model once and normalizes its output.
// Every returned case has status Untested. Nothing is returned on failure.
func (s *Service) Generate(ctx context.Context, req models.GenerationRequest) ([]models.TestCase, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := prompt.Build(prompt.InputFromRequest(req))
	logger := s.logger.With(
		slog.String("model", s.generator.Model()),
		slog.String("schema", p.Schema.Version),
		slog.Int("attachments", len(req.Attachments)),
	)

	key := ""
	if s.cache != nil {
		key = cache.Key(s.generator.Model(), p)
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("Result cache lookup failed", slog.String("error", err.Error()))
		} else if ok {
			logger.Info("Serving test cases from result cache", slog.Int("cases", len(cached)))
			return markUntested(cached), nil
		}
	}

	start := time.Now()
	raw, err := s.generator.Generate(ctx, p)
	if err != nil {
		err = ClassifyError(err)
		logger.Error("Generation call failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("generation call: %w", err)
	}
	logger.Debug("Generation call returned", slog.Int("raw_bytes", len(raw)), slog.Duration("latency", time.Since(start)))

	cases, err := normalize.Response(raw)
	if err != nil {
		logger.Error("Failed to normalize model response", slog.String("error", err.Error()), slog.Int("raw_bytes", len(raw)))
		var repairErr *normalize.RepairError
		if errors.As(err, &repairErr) {
			logger.Debug("Unrepairable model response", slog.String("raw", truncateRaw(repairErr.Raw)))
		}
		return nil, err
	}
	cases = markUntested(cases)
	logger.Info("Generated test cases", slog.Int("cases", len(cases)), slog.Duration("latency", time.Since(start)))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cases, s.cacheTTL); err != nil {
			logger.Warn("Failed to store result in cache", slog.String("error", err.Error()))
		}
	}
	return cases, nil
}

func truncateRaw(raw string) string {
	if len(raw) <= maxLoggedRaw {
		return raw
	}
	return strings.ToValidUTF8(raw[:maxLoggedRaw], "") + "...[truncated]"
}

func markUntested(cases []models.TestCase) []models.TestCase {
	for i := range cases {
		cases[i].Status = models.StatusUntested
	}
	return cases
}
