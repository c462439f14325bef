package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/acme/interview-callback/internal/domain"
)

// AttemptStore persists call attempts in Scylla, partitioned by interview.
type AttemptStore struct {
	session *gocql.Session
}

// NewAttemptStore creates a new attempt store.
func NewAttemptStore(session *gocql.Session) *AttemptStore {
	return &AttemptStore{session: session}
}

// AppendAttempt inserts one attempt. Re-delivered messages overwrite the same row.
func (s *AttemptStore) AppendAttempt(ctx context.Context, attempt domain.CallAttempt) error {
	durationMs := int64(attempt.Duration / time.Millisecond)
	if err := s.session.Query(`INSERT INTO call_attempts_by_interview (interview_id, attempted_at, attempt_id, session_id, phone_number, outcome, error, provider_call_id, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.InterviewID, attempt.AttemptedAt, attempt.ID.String(), attempt.SessionID.String(), attempt.PhoneNumber,
		string(attempt.Outcome), attempt.Error, attempt.ProviderCallID, durationMs,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("attempt store: insert: %w", err)
	}
	return nil
}

// ListAttempts lists attempts for an interview, newest first, with pagination.
func (s *AttemptStore) ListAttempts(ctx context.Context, interviewID string, limit int, pagingState []byte) ([]domain.CallAttempt, []byte, error) {
	if limit <= 0 {
		limit = 50
	}

	query := s.session.Query(`SELECT attempted_at, attempt_id, session_id, phone_number, outcome, error, provider_call_id, duration_ms
		FROM call_attempts_by_interview WHERE interview_id = ?`, interviewID).WithContext(ctx)
	query = query.PageSize(limit)
	if len(pagingState) > 0 {
		query = query.PageState(pagingState)
	}

	iter := query.Iter()
	attempts := make([]domain.CallAttempt, 0, limit)

	var (
		attemptedAt    time.Time
		attemptIDStr   string
		sessionIDStr   string
		phone          string
		outcome        string
		errMsg         string
		providerCallID string
		durationMs     int64
	)

	for iter.Scan(&attemptedAt, &attemptIDStr, &sessionIDStr, &phone, &outcome, &errMsg, &providerCallID, &durationMs) {
		attemptID, err := uuid.Parse(attemptIDStr)
		if err != nil {
			continue
		}
		sessionID, _ := uuid.Parse(sessionIDStr)

		attempts = append(attempts, domain.CallAttempt{
			ID:             attemptID,
			SessionID:      sessionID,
			InterviewID:    interviewID,
			PhoneNumber:    phone,
			Outcome:        domain.AttemptOutcome(outcome),
			Error:          errMsg,
			ProviderCallID: providerCallID,
			Duration:       time.Duration(durationMs) * time.Millisecond,
			AttemptedAt:    attemptedAt,
		})
	}

	// PageState must be read before Close.
	nextState := iter.PageState()
	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("attempt store: iter close: %w", err)
	}

	return attempts, nextState, nil
}
