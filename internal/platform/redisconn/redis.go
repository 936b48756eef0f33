package redisconn

import (
	"context"
	"fmt"

	"github.com/MrEthical07/credvault/internal/platform/config"
	"github.com/redis/go-redis/v9"
)

// New connects to cfg.Redis and pings the server.
func New(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Redis.Addr, err)
	}
	return client, nil
}
