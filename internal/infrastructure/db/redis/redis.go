// Package redis holds the shared-state stores used when several instances
// serve the same deployment: the access-report debounce and the page rate
// limiter.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultKeyPrefix = "accessadmin"
)

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr      string
	Password  string
	DB        int
	Timeout   time.Duration
	KeyPrefix string
}

// Client wraps a go-redis client and namespaces every key it hands out.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// Connect dials Redis and validates connectivity with a ping bounded by
// cfg.Timeout.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	prefix := strings.TrimSuffix(cfg.KeyPrefix, ":")
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return &Client{rdb: rdb, prefix: prefix}, nil
}

// Ping reports whether the server answers. It satisfies ports.Pinger.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) key(parts ...string) string {
	return c.prefix + ":" + strings.Join(parts, ":")
}
