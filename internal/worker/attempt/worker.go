package attempt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/interview-callback/internal/app"
	"github.com/acme/interview-callback/internal/queue"
	"github.com/acme/interview-callback/internal/repository"
	"github.com/acme/interview-callback/pkg/logger"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Worker consumes call-attempt events and appends them to the history store.
type Worker struct {
	newReader  func() messageReader
	newBackOff func() backoff.BackOff
	store      repository.AttemptStore
	logger     *logger.Logger
}

// retryBackOff never gives up on its own; only cancellation ends a retry loop.
func retryBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// New creates a new attempt worker.
func New(container *app.Container) *Worker {
	cfg := container.Config.Kafka
	return &Worker{
		newReader: func() messageReader {
			return container.Kafka.NewReader(cfg.AttemptTopic, cfg.ConsumerGroupID)
		},
		newBackOff: retryBackOff,
		store:      container.Repositories().Attempts,
		logger:     container.Logger,
	}
}

// Run processes attempt events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	reader := w.newReader()
	defer reader.Close()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("attempt worker: fetch", zap.Error(err))
			continue
		}

		// The reader has already moved past msg, so it is retried here
		// until it is stored; later offsets are not committed before it.
		if err := w.persist(ctx, msg); err != nil {
			return err
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			w.logger.Error("attempt worker: commit", zap.Error(err))
		}
	}
}

func (w *Worker) persist(ctx context.Context, msg kafka.Message) error {
	newBackOff := w.newBackOff
	if newBackOff == nil {
		newBackOff = retryBackOff
	}
	notify := func(err error, wait time.Duration) {
		w.logger.Warn("attempt worker: retrying append",
			zap.Error(err),
			zap.Int64("offset", msg.Offset),
			zap.Duration("wait", wait),
		)
	}
	return backoff.RetryNotify(func() error {
		return w.handle(ctx, msg)
	}, backoff.WithContext(newBackOff(), ctx), notify)
}

func (w *Worker) handle(ctx context.Context, msg kafka.Message) error {
	var event queue.AttemptMessage
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.logger.Error("attempt worker: unmarshal", zap.Error(err), zap.Int64("offset", msg.Offset))
		return nil
	}

	sctx, span := otel.Tracer("interview.attemptworker").Start(ctx, "attempt.persist", trace.WithAttributes(
		attribute.String("attempt.id", event.AttemptID.String()),
		attribute.String("interview.id", event.InterviewID),
		attribute.String("attempt.outcome", event.Outcome),
	))
	defer span.End()

	if err := w.store.AppendAttempt(sctx, event.Attempt()); err != nil {
		span.RecordError(err)
		w.logger.WithContext(sctx).Error("attempt worker: append attempt", zap.Error(err))
		return err
	}
	return nil
}
