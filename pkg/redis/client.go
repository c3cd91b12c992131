package redis

import (
	"context"
	"errors"
	"fmt"

	"scannimart/pkg/config"

	"github.com/redis/go-redis/v9"
)

// New parses the configured URL, applies pool settings and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// SessionKey namespaces gate session ids.
func SessionKey(id string) string {
	return "scannimart:gate_session:" + id
}
