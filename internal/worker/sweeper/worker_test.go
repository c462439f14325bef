package sweeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSweeper struct {
	mu    sync.Mutex
	calls []time.Duration
	hit   chan struct{}
}

func (s *recordingSweeper) Sweep(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	s.calls = append(s.calls, ttl)
	s.mu.Unlock()
	select {
	case s.hit <- struct{}{}:
	default:
	}
	return 1
}

func TestRunSweepsOnEveryTick(t *testing.T) {
	s := &recordingSweeper{hit: make(chan struct{}, 1)}
	w := NewWorker(s, 5*time.Millisecond, 30*time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-s.hit:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ticked")
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.calls)
	assert.Equal(t, 30*time.Minute, s.calls[0])
}

func TestNewWorkerDefaultsInterval(t *testing.T) {
	w := NewWorker(&recordingSweeper{}, 0, time.Minute, nil)
	assert.Equal(t, time.Minute, w.interval)
}
