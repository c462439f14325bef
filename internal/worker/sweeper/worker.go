package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/acme/interview-callback/internal/app"
	"github.com/acme/interview-callback/pkg/logger"
)

// Sweeper is the part of the session registry the worker drives.
type Sweeper interface {
	Sweep(now time.Time, ttl time.Duration) int
}

// Worker periodically tears down idle sessions.
type Worker struct {
	sessions Sweeper
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

// New constructs a sweeper from the container's session settings.
func New(container *app.Container) *Worker {
	cfg := container.Config.Session
	return NewWorker(container.Services().Sessions, cfg.SweepInterval, cfg.IdleTTL, container.Logger)
}

// NewWorker constructs a sweeper over any session store.
func NewWorker(sessions Sweeper, interval, ttl time.Duration, lg *logger.Logger) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	if lg == nil {
		lg = logger.Nop()
	}
	return &Worker{
		sessions: sessions,
		interval: interval,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   lg,
	}
}

// Run executes the sweep loop until cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *Worker) tick() {
	if n := w.sessions.Sweep(w.now(), w.ttl); n > 0 {
		w.logger.Info("sweeper: closed idle sessions", zap.Int("count", n), zap.Duration("idle_ttl", w.ttl))
	}
}
