package attempt

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/acme/interview-callback/internal/domain"
	"github.com/acme/interview-callback/internal/repository"
	apperrors "github.com/acme/interview-callback/pkg/errors"
)

const maxPageSize = 200

// Service serves call-attempt history.
type Service struct {
	store repository.AttemptStore
}

// NewService builds the attempt history service.
func NewService(store repository.AttemptStore) *Service {
	return &Service{store: store}
}

// ListResult is one page of attempts.
type ListResult struct {
	Attempts  []domain.CallAttempt
	NextToken string
}

// ListByInterview lists attempts for an interview, newest first.
func (s *Service) ListByInterview(ctx context.Context, interviewID string, limit int, pageToken string) (*ListResult, error) {
	if strings.TrimSpace(interviewID) == "" {
		return nil, apperrors.Validationf("interview id is required")
	}
	if limit < 0 || limit > maxPageSize {
		return nil, apperrors.Validationf("limit must be between 0 and %d", maxPageSize)
	}

	state, err := DecodePagingState(pageToken)
	if err != nil {
		return nil, apperrors.Validationf("invalid page token")
	}

	attempts, next, err := s.store.ListAttempts(ctx, interviewID, limit, state)
	if err != nil {
		return nil, fmt.Errorf("attempt service: list: %w", err)
	}
	return &ListResult{Attempts: attempts, NextToken: EncodePagingState(next)}, nil
}

// Page tokens are the Scylla paging state, unpadded and URL safe so they
// can travel in a query string.
var pageTokenEncoding = base64.RawURLEncoding

// EncodePagingState turns the store's paging state into a page token.
// An exhausted listing yields an empty token.
func EncodePagingState(state []byte) string {
	if len(state) == 0 {
		return ""
	}
	return pageTokenEncoding.EncodeToString(state)
}

// DecodePagingState reverses EncodePagingState. An empty token starts from the first page.
func DecodePagingState(token string) ([]byte, error) {
	if token == "" {
		return nil, nil
	}
	state, err := pageTokenEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("page token: %w", err)
	}
	return state, nil
}
