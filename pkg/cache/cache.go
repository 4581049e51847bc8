// Package cache keeps normalized generation results keyed by the exact prompt that produced them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/prompt"
)

const keyPrefix = "tcgen:result:"

// Cache stores generation results. A miss is reported with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (cases []models.TestCase, ok bool, err error)
	Set(ctx context.Context, key string, cases []models.TestCase, ttl time.Duration) error
}

// Key derives a cache key from the model name, schema version and every prompt part.
// It relies on prompt.Build being deterministic.
func Key(model string, p prompt.Prompt) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(model)
	write(p.Schema.Version)
	for _, part := range p.Parts {
		if part.IsText() {
			write("text")
			write(part.Text)
			continue
		}
		write(part.MIMEType)
		sum := sha256.Sum256(part.Data)
		write(hex.EncodeToString(sum[:]))
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
