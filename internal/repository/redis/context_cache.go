package redis

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

const (
	userNameKeyPrefix = "interview_user_name_"
	positionKeyPrefix = "interview_position_"
)

// ContextCache reads interview display values from Redis.
type ContextCache struct {
	client redis.Cmdable
}

// NewContextCache wraps a redis client.
func NewContextCache(client redis.Cmdable) *ContextCache {
	return &ContextCache{client: client}
}

// UserName returns the cached user name for an interview.
func (c *ContextCache) UserName(ctx context.Context, interviewID string) (string, bool, error) {
	return c.get(ctx, userNameKeyPrefix+interviewID)
}

// Position returns the cached position title for an interview.
func (c *ContextCache) Position(ctx context.Context, interviewID string) (string, bool, error) {
	return c.get(ctx, positionKeyPrefix+interviewID)
}

func (c *ContextCache) get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("context cache: get %s: %w", key, err)
	}
	return val, val != "", nil
}
