package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/acme/interview-callback/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AttemptPublisher publishes call attempts, keyed by interview id.
type AttemptPublisher struct {
	writer messageWriter
}

// NewAttemptPublisher constructs an attempt publisher for the given topic.
func NewAttemptPublisher(k *Kafka, topic string) *AttemptPublisher {
	return &AttemptPublisher{writer: k.NewWriter(topic)}
}

// RecordAttempt emits an attempt message to Kafka.
func (p *AttemptPublisher) RecordAttempt(ctx context.Context, attempt domain.CallAttempt) error {
	ctx, span := otel.Tracer("interview.queue").Start(ctx, "attempts.publish", trace.WithAttributes(
		attribute.String("interview.id", attempt.InterviewID),
		attribute.String("attempt.outcome", string(attempt.Outcome)),
	))
	defer span.End()

	value, err := json.Marshal(NewAttemptMessage(attempt))
	if err != nil {
		return fmt.Errorf("attempt publisher: marshal message: %w", err)
	}
	record := kafka.Message{
		Key:   []byte(attempt.InterviewID),
		Value: value,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("attempt publisher: write message: %w", err)
	}
	return nil
}

// Close closes the publisher.
func (p *AttemptPublisher) Close() error {
	return p.writer.Close()
}
