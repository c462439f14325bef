package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/interview-callback/internal/domain"
	"github.com/acme/interview-callback/internal/service/callrequest"
	apperrors "github.com/acme/interview-callback/pkg/errors"
	"github.com/acme/interview-callback/pkg/logger"
)

var (
	// ErrSessionNotFound is returned for unknown or closed sessions.
	ErrSessionNotFound = fmt.Errorf("%w: session", apperrors.ErrNotFound)
	// ErrTooManySessions is returned when the open-session limit is reached.
	ErrTooManySessions = fmt.Errorf("%w: too many open sessions", apperrors.ErrQuotaExceeded)
)

// ContextResolver resolves the context a session is opened with.
type ContextResolver interface {
	Resolve(ctx context.Context, interviewID string) (domain.InterviewContext, error)
}

type entry struct {
	ctrl     *callrequest.Controller
	lastSeen time.Time
}

// Registry tracks the open page-view sessions of this process.
type Registry struct {
	resolver ContextResolver
	deps     callrequest.Dependencies
	maxOpen  int
	log      *logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

// NewRegistry builds a registry. A non-positive maxOpen means unlimited.
func NewRegistry(resolver ContextResolver, deps callrequest.Dependencies, maxOpen int, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	if deps.Logger == nil {
		deps.Logger = log
	}
	return &Registry{
		resolver: resolver,
		deps:     deps,
		maxOpen:  maxOpen,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[uuid.UUID]*entry),
	}
}

// Open resolves the interview context and starts a new controller.
func (r *Registry) Open(ctx context.Context, interviewID string) (*callrequest.Controller, error) {
	r.mu.Lock()
	full := r.maxOpen > 0 && len(r.sessions) >= r.maxOpen
	r.mu.Unlock()
	if full {
		return nil, ErrTooManySessions
	}

	ic, err := r.resolver.Resolve(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	ctrl := callrequest.NewController(uuid.New(), ic, r.deps)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxOpen > 0 && len(r.sessions) >= r.maxOpen {
		return nil, ErrTooManySessions
	}
	r.sessions[ctrl.SessionID()] = &entry{ctrl: ctrl, lastSeen: r.now()}

	r.log.WithContext(ctx).Info("session opened",
		zap.String("session_id", ctrl.SessionID().String()),
		zap.String("interview_id", interviewID))
	return ctrl, nil
}

// Get returns an open session and marks it as seen.
func (r *Registry) Get(id uuid.UUID) (*callrequest.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = r.now()
	return e.ctrl, nil
}

// Close tears a session down.
func (r *Registry) Close(id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	e.ctrl.Close()
	return nil
}

// Sweep closes sessions idle for longer than ttl and returns how many were closed.
func (r *Registry) Sweep(now time.Time, ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	var expired []*callrequest.Controller
	r.mu.Lock()
	for id, e := range r.sessions {
		if now.Sub(e.lastSeen) > ttl {
			expired = append(expired, e.ctrl)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, ctrl := range expired {
		ctrl.Close()
	}
	return len(expired)
}

// Len reports the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll tears every session down, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*entry)
	r.mu.Unlock()
	for _, e := range sessions {
		e.ctrl.Close()
	}
}
