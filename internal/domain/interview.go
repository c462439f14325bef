package domain

import (
	"time"

	"github.com/google/uuid"
)

// Interview is the metadata record an interview id resolves to.
type Interview struct {
	ID        string
	Role      string
	Level     string
	Type      string
	UserID    string
	CreatedAt time.Time
}

// AttemptOutcome enumerates how a call submission ended.
type AttemptOutcome string

const (
	AttemptAccepted AttemptOutcome = "accepted"
	AttemptRejected AttemptOutcome = "rejected"
)

// CallAttempt captures one finished call submission for observability.
type CallAttempt struct {
	ID             uuid.UUID
	SessionID      uuid.UUID
	InterviewID    string
	PhoneNumber    string
	Outcome        AttemptOutcome
	Error          string
	ProviderCallID string
	Duration       time.Duration
	AttemptedAt    time.Time
}
