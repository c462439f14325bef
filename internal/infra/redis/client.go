package redis

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/acme/interview-callback/internal/config"
)

// Client wraps a go-redis client shared by the context cache and the submission limiter.
type Client struct {
	inner *redis.Client
}

// NewClient creates a new redis client from config and checks connectivity.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
	})

	ctx := context.Background()
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Address, err)
	}

	return &Client{inner: client}, nil
}

// Close closes the underlying client.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner exposes the raw redis client.
func (c *Client) Inner() *redis.Client {
	return c.inner
}
