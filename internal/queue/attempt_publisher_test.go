package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/interview-callback/internal/domain"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *captureWriter) Close() error { return nil }

func sampleAttempt() domain.CallAttempt {
	return domain.CallAttempt{
		ID:          uuid.New(),
		SessionID:   uuid.New(),
		InterviewID: "abc123",
		PhoneNumber: "+15551234567",
		Outcome:     domain.AttemptRejected,
		Error:       "Invalid number",
		Duration:    1500 * time.Millisecond,
		AttemptedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRecordAttemptKeysByInterview(t *testing.T) {
	w := &captureWriter{}
	p := &AttemptPublisher{writer: w}
	attempt := sampleAttempt()

	require.NoError(t, p.RecordAttempt(context.Background(), attempt))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("abc123"), w.msgs[0].Key)

	var msg AttemptMessage
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &msg))
	assert.Equal(t, attempt, msg.Attempt())
	assert.Equal(t, int64(1500), msg.DurationMs)
}

func TestRecordAttemptWriteError(t *testing.T) {
	p := &AttemptPublisher{writer: &captureWriter{err: errors.New("leader not available")}}
	err := p.RecordAttempt(context.Background(), sampleAttempt())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}
