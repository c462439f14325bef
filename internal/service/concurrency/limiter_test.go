package concurrency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterDisabledAlwaysAcquires(t *testing.T) {
	l := NewLimiter(nil, 0, time.Second, "")

	ok, err := l.Acquire(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(context.Background(), "abc123"))
}

func TestLimiterSkipsEmptyInterview(t *testing.T) {
	l := NewLimiter(nil, 1, time.Second, "")

	ok, err := l.Acquire(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiterKey(t *testing.T) {
	assert.Equal(t, "interview:callback:abc123:inflight", NewLimiter(nil, 1, 0, "").Key("abc123"))
	assert.Equal(t, "staging:abc123:inflight", NewLimiter(nil, 1, 0, "staging").Key("abc123"))
}
