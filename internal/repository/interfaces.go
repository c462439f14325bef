package repository

import (
	"context"

	"github.com/acme/interview-callback/internal/domain"
	apperrors "github.com/acme/interview-callback/pkg/errors"
)

var (
	// ErrNotFound indicates the entity was not located.
	ErrNotFound = apperrors.ErrNotFound
)

// InterviewRepository reads interview metadata.
type InterviewRepository interface {
	Get(ctx context.Context, id string) (*domain.Interview, error)
}

// ContextCache holds per-interview display values written by other services.
// Lookups report ok=false on a miss.
type ContextCache interface {
	UserName(ctx context.Context, interviewID string) (string, bool, error)
	Position(ctx context.Context, interviewID string) (string, bool, error)
}

// AttemptStore persists call-attempt history.
type AttemptStore interface {
	AppendAttempt(ctx context.Context, attempt domain.CallAttempt) error
	ListAttempts(ctx context.Context, interviewID string, limit int, pagingState []byte) ([]domain.CallAttempt, []byte, error)
}
