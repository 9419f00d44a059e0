package bootstrap

import (
	"context"
	"fmt"

	"github.com/YRUSONOZ/stable-ui/config"
	"github.com/redis/go-redis/v9"
)

// OpenRedis connects to Redis and verifies the connection with a ping.
func OpenRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}
