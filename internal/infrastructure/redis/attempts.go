package redisinfra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ragno-typhojem/libocculus/internal/config"
)

// Connect returns a client for cfg.RedisAddr, or nil when redis is not
// configured or unreachable.
func Connect(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable, counting login attempts in memory", "addr", cfg.RedisAddr, "err", err)
		_ = client.Close()
		return nil
	}
	return client
}

// AttemptCounter counts failed sign-ins per email across API instances.
type AttemptCounter struct {
	client *redis.Client
	window time.Duration
}

func NewAttemptCounter(client *redis.Client, window time.Duration) *AttemptCounter {
	return &AttemptCounter{client: client, window: window}
}

func attemptKey(key string) string { return "login_attempts:" + key }

func (c *AttemptCounter) Count(ctx context.Context, key string) (int, error) {
	n, err := c.client.Get(ctx, attemptKey(key)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read attempts: %w", err)
	}
	return n, nil
}

// Incr records a failure; the window starts at the first failure.
func (c *AttemptCounter) Incr(ctx context.Context, key string) (int, error) {
	k := attemptKey(key)
	n, err := c.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("incr attempts: %w", err)
	}
	if n == 1 {
		if err := c.client.Expire(ctx, k, c.window).Err(); err != nil {
			return int(n), fmt.Errorf("expire attempts: %w", err)
		}
	}
	return int(n), nil
}

func (c *AttemptCounter) Reset(ctx context.Context, key string) error {
	return c.client.Del(ctx, attemptKey(key)).Err()
}
