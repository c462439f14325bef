package concurrency

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const acquireScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])
local current = tonumber(redis.call('GET', key) or '0')
if current < limit then
  current = redis.call('INCR', key)
  if ttl > 0 then
    redis.call('PEXPIRE', key, ttl)
  end
  return 1
end
return 0
`

const releaseScript = `
local key = KEYS[1]
local current = tonumber(redis.call('GET', key) or '0')
if current <= 1 then
  redis.call('DEL', key)
  return 0
end
return redis.call('DECR', key)
`

// Limiter bounds in-flight call submissions per interview using Redis counters.
type Limiter struct {
	client  redis.Scripter
	limit   int
	ttl     time.Duration
	prefix  string
	acquire *redis.Script
	release *redis.Script
}

// NewLimiter constructs a submission limiter. A non-positive limit disables it.
func NewLimiter(client redis.Scripter, limit int, ttl time.Duration, prefix string) *Limiter {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if prefix == "" {
		prefix = "interview:callback"
	}
	return &Limiter{
		client:  client,
		limit:   limit,
		ttl:     ttl,
		prefix:  prefix,
		acquire: redis.NewScript(acquireScript),
		release: redis.NewScript(releaseScript),
	}
}

// Acquire attempts to reserve a submission slot for the interview.
func (l *Limiter) Acquire(ctx context.Context, interviewID string) (bool, error) {
	if interviewID == "" || l.limit <= 0 {
		return true, nil
	}

	res, err := l.acquire.Run(ctx, l.client, []string{l.Key(interviewID)}, l.limit, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("concurrency acquire: %w", err)
	}
	return res == 1, nil
}

// Release frees a previously acquired slot.
func (l *Limiter) Release(ctx context.Context, interviewID string) error {
	if interviewID == "" || l.limit <= 0 {
		return nil
	}
	if _, err := l.release.Run(ctx, l.client, []string{l.Key(interviewID)}).Int(); err != nil {
		return fmt.Errorf("concurrency release: %w", err)
	}
	return nil
}

// Key is the Redis counter for an interview.
func (l *Limiter) Key(interviewID string) string {
	return fmt.Sprintf("%s:%s:inflight", l.prefix, interviewID)
}
