package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/acme/interview-callback/internal/domain"
)

// AttemptMessage is the wire form of a finished call submission.
type AttemptMessage struct {
	AttemptID      uuid.UUID `json:"attempt_id"`
	SessionID      uuid.UUID `json:"session_id"`
	InterviewID    string    `json:"interview_id"`
	PhoneNumber    string    `json:"phone_number"`
	Outcome        string    `json:"outcome"`
	Error          string    `json:"error,omitempty"`
	ProviderCallID string    `json:"provider_call_id,omitempty"`
	DurationMs     int64     `json:"duration_ms"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

// NewAttemptMessage converts a domain attempt to its wire form.
func NewAttemptMessage(a domain.CallAttempt) AttemptMessage {
	return AttemptMessage{
		AttemptID:      a.ID,
		SessionID:      a.SessionID,
		InterviewID:    a.InterviewID,
		PhoneNumber:    a.PhoneNumber,
		Outcome:        string(a.Outcome),
		Error:          a.Error,
		ProviderCallID: a.ProviderCallID,
		DurationMs:     a.Duration.Milliseconds(),
		AttemptedAt:    a.AttemptedAt,
	}
}

// Attempt converts the message back to a domain attempt.
func (m AttemptMessage) Attempt() domain.CallAttempt {
	return domain.CallAttempt{
		ID:             m.AttemptID,
		SessionID:      m.SessionID,
		InterviewID:    m.InterviewID,
		PhoneNumber:    m.PhoneNumber,
		Outcome:        domain.AttemptOutcome(m.Outcome),
		Error:          m.Error,
		ProviderCallID: m.ProviderCallID,
		Duration:       time.Duration(m.DurationMs) * time.Millisecond,
		AttemptedAt:    m.AttemptedAt,
	}
}
