// Package redis wires the Redis client and the gateway's session-scoped
// capture-context store.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cassiomorais/cybersource-gateway/internal/config"
	"github.com/cassiomorais/cybersource-gateway/pkg/retry"
)

// NewClient creates a Redis client and verifies connectivity with a retried
// ping, so a slow-starting Redis container does not fail the boot.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := retry.Do(ctx, retry.Config{
		MaxAttempts:  uint(cfg.ConnectRetries),
		InitialDelay: cfg.ConnectRetryDelay,
		MaxDelay:     cfg.ConnectRetryDelay * 8,
		Multiplier:   2.0,
	}, func() error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}
