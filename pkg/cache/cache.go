// Package cache wraps Redis for short-lived counters such as rate limits.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const RateLimitWindow = time.Minute

type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

func New(addr, password string, db int, logger *zap.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to redis", zap.String("addr", addr))

	return &Cache{client: client, logger: logger}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, logger *zap.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// IncrementWithExpiry increments key and sets its TTL when it has none, so
// the window starts at the first hit.
func (c *Cache) IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("increment with expiry",
			zap.String("key", key),
			zap.Error(err),
		)
		return 0, fmt.Errorf("increment with expiry: %w", err)
	}
	return incr.Val(), nil
}

// RateLimitKey buckets hits per route and caller (actor id or client IP).
func RateLimitKey(route, caller string) string {
	return fmt.Sprintf("ratelimit:%s:%s", route, caller)
}

// Allow counts a hit and reports whether caller is still within limit for
// the current window.
func (c *Cache) Allow(ctx context.Context, route, caller string, limit int) (bool, error) {
	n, err := c.IncrementWithExpiry(ctx, RateLimitKey(route, caller), RateLimitWindow)
	if err != nil {
		return false, err
	}
	return n <= int64(limit), nil
}
