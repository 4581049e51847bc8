package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

// Ensure RedisCache implements Cache interface at compile time
var _ Cache = (*RedisCache)(nil)

// RedisCache implements Cache on a Redis server.
type RedisCache struct {
	rdb    *goredis.Client
	logger *slog.Logger
}

// NewRedisCache connects to addr and verifies the connection with a ping.
func NewRedisCache(addr string, logger *slog.Logger) (*RedisCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("Redis result cache connected", slog.String("addr", addr))
	return &RedisCache{rdb: rdb, logger: logger}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]models.TestCase, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var cases []models.TestCase
	if err := json.Unmarshal(data, &cases); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		c.logger.Warn("Discarding unreadable cache entry", slog.String("key", key), slog.String("error", err.Error()))
		return nil, false, nil
	}
	return cases, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, cases []models.TestCase, ttl time.Duration) error {
	data, err := json.Marshal(cases)
	if err != nil {
		return fmt.Errorf("failed to marshal cached cases: %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
