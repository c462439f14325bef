package interview

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/acme/interview-callback/internal/domain"
	"github.com/acme/interview-callback/internal/repository"
	apperrors "github.com/acme/interview-callback/pkg/errors"
	"github.com/acme/interview-callback/pkg/logger"
)

// Resolver builds the read-only context a call request is opened with.
type Resolver struct {
	cache           repository.ContextCache
	interviews      repository.InterviewRepository
	userID          string
	defaultUserName string
	log             *logger.Logger
}

// NewResolver wires the cache and metadata lookups. Either may be nil.
func NewResolver(cache repository.ContextCache, interviews repository.InterviewRepository, userID, defaultUserName string, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		cache:           cache,
		interviews:      interviews,
		userID:          userID,
		defaultUserName: defaultUserName,
		log:             log,
	}
}

// Resolve never fails on lookup errors; they are logged and the value falls back.
func (r *Resolver) Resolve(ctx context.Context, interviewID string) (domain.InterviewContext, error) {
	if interviewID == "" {
		return domain.InterviewContext{}, apperrors.Validationf("interview id is required")
	}

	ic := domain.InterviewContext{
		InterviewID: interviewID,
		UserID:      r.userID,
		UserName:    r.userName(ctx, interviewID),
		Position:    r.Position(ctx, interviewID),
	}
	return ic, nil
}

func (r *Resolver) userName(ctx context.Context, interviewID string) string {
	if name, ok := r.lookupCache(ctx, interviewID, r.cacheUserName); ok {
		return name
	}
	return r.defaultUserName
}

// Position reads the cached position and falls back to the interview's role. Nothing is written back.
func (r *Resolver) Position(ctx context.Context, interviewID string) string {
	if pos, ok := r.lookupCache(ctx, interviewID, r.cachePosition); ok {
		return pos
	}
	return r.fetchRole(ctx, interviewID)
}

func (r *Resolver) cacheUserName(ctx context.Context, id string) (string, bool, error) {
	return r.cache.UserName(ctx, id)
}

func (r *Resolver) cachePosition(ctx context.Context, id string) (string, bool, error) {
	return r.cache.Position(ctx, id)
}

func (r *Resolver) lookupCache(ctx context.Context, interviewID string, get func(context.Context, string) (string, bool, error)) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	val, ok, err := get(ctx, interviewID)
	if err != nil {
		r.log.WithContext(ctx).Warn("interview context cache lookup failed", zap.String("interview_id", interviewID), zap.Error(err))
		return "", false
	}
	return val, ok
}

func (r *Resolver) fetchRole(ctx context.Context, interviewID string) string {
	if r.interviews == nil {
		return ""
	}
	iv, err := r.interviews.Get(ctx, interviewID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ""
	case err != nil:
		r.log.WithContext(ctx).Warn("interview metadata fetch failed", zap.String("interview_id", interviewID), zap.Error(err))
		return ""
	case iv == nil:
		return ""
	}
	return iv.Role
}
