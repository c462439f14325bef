package callrequest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/interview-callback/internal/domain"
	"github.com/acme/interview-callback/internal/telephony"
	"github.com/acme/interview-callback/pkg/logger"
)

// DefaultCallingNotice is how long the calling notice stays up after the provider accepts.
const DefaultCallingNotice = 5 * time.Second

// DefaultRecordTimeout bounds publishing one finished attempt.
const DefaultRecordTimeout = 2 * time.Second

// BusyMessage is shown when another submission for the same interview holds the guard.
const BusyMessage = "A call request is already in progress for this interview"

// Guard bounds concurrent submissions for one interview across replicas.
type Guard interface {
	Acquire(ctx context.Context, interviewID string) (bool, error)
	Release(ctx context.Context, interviewID string) error
}

// AttemptRecorder receives every finished submission.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt domain.CallAttempt) error
}

// Dependencies are shared by every controller of a process.
type Dependencies struct {
	Provider      telephony.Provider
	Assistant     *telephony.AssistantTemplate
	Guard         Guard
	Recorder      AttemptRecorder
	Clock         Clock
	Logger        *logger.Logger
	CallType      string
	CallingNotice time.Duration
	RecordTimeout time.Duration
}

// Controller owns the call-request state of one page view. All transitions are serialized.
type Controller struct {
	sessionID uuid.UUID
	deps      Dependencies

	mu       sync.Mutex
	state    domain.CallRequestState
	timer    Timer
	timerGen uint64
	closed   bool
}

// NewController creates a controller in the Idle phase.
func NewController(sessionID uuid.UUID, ic domain.InterviewContext, deps Dependencies) *Controller {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.CallingNotice <= 0 {
		deps.CallingNotice = DefaultCallingNotice
	}
	if deps.RecordTimeout <= 0 {
		deps.RecordTimeout = DefaultRecordTimeout
	}
	return &Controller{
		sessionID: sessionID,
		deps:      deps,
		state:     domain.NewCallRequestState(ic),
	}
}

// SessionID returns the id of the page view.
func (c *Controller) SessionID() uuid.UUID {
	return c.sessionID
}

// State returns a snapshot of the current state.
func (c *Controller) State() domain.CallRequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Select chooses the interview modality.
func (c *Controller) Select(m domain.Modality) (domain.CallRequestState, error) {
	return c.apply(Select(m))
}

// Back returns to the modality choice.
func (c *Controller) Back() (domain.CallRequestState, error) {
	return c.apply(Back())
}

func (c *Controller) apply(ev Event) (domain.CallRequestState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.state, ErrSessionClosed
	}
	next, err := Reduce(c.state, ev)
	if err != nil {
		return c.state, err
	}
	c.state = next
	return c.state, nil
}

// Submit requests a phone callback and waits for the provider's answer.
// Provider failures are not returned as errors; they move the state to Failed.
func (c *Controller) Submit(ctx context.Context, phone string) (domain.CallRequestState, error) {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.state, ErrSessionClosed
	}
	submitting, err := Reduce(c.state, Submit(phone))
	if err != nil {
		defer c.mu.Unlock()
		return c.state, err
	}
	c.state = submitting
	c.mu.Unlock()

	ctx, span := otel.Tracer("interview.callrequest").Start(ctx, "callrequest.submit", trace.WithAttributes(
		attribute.String("session.id", c.sessionID.String()),
		attribute.String("interview.id", submitting.Context.InterviewID),
	))
	defer span.End()

	started := c.deps.Clock.Now()
	result, callErr := c.place(ctx, submitting)

	attempt := domain.CallAttempt{
		ID:          uuid.New(),
		SessionID:   c.sessionID,
		InterviewID: submitting.Context.InterviewID,
		PhoneNumber: submitting.PhoneNumber,
		AttemptedAt: started,
		Duration:    c.deps.Clock.Now().Sub(started),
	}
	ev := ProviderAccepted()
	if callErr != nil {
		msg := telephony.UserMessage(callErr)
		ev = ProviderRejected(msg)
		attempt.Outcome = domain.AttemptRejected
		attempt.Error = msg
		span.RecordError(callErr)
		span.SetStatus(codes.Error, msg)
		c.deps.Logger.WithContext(ctx).Info("call request rejected",
			zap.String("session_id", c.sessionID.String()),
			zap.String("interview_id", attempt.InterviewID),
			zap.Error(callErr))
	} else {
		attempt.Outcome = domain.AttemptAccepted
		attempt.ProviderCallID = result.CallID
		c.deps.Logger.WithContext(ctx).Info("call request accepted",
			zap.String("session_id", c.sessionID.String()),
			zap.String("interview_id", attempt.InterviewID),
			zap.String("provider_call_id", result.CallID))
	}

	state, err := c.settle(ev)
	c.record(ctx, attempt)
	return state, err
}

func (c *Controller) settle(ev Event) (domain.CallRequestState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.state, ErrSessionClosed
	}
	next, err := Reduce(c.state, ev)
	if err != nil {
		return c.state, err
	}
	c.state = next
	if ev.Kind == EventProviderAccepted {
		c.armTimerLocked()
	}
	return c.state, nil
}

func (c *Controller) place(ctx context.Context, s domain.CallRequestState) (telephony.Result, error) {
	interviewID := s.Context.InterviewID
	if c.deps.Guard != nil {
		ok, err := c.deps.Guard.Acquire(ctx, interviewID)
		switch {
		case err != nil:
			c.deps.Logger.WithContext(ctx).Warn("submission guard unavailable", zap.String("interview_id", interviewID), zap.Error(err))
		case !ok:
			return telephony.Result{}, &telephony.ProviderError{Message: BusyMessage}
		default:
			defer func() {
				if err := c.deps.Guard.Release(context.Background(), interviewID); err != nil {
					c.deps.Logger.Warn("submission guard release", zap.String("interview_id", interviewID), zap.Error(err))
				}
			}()
		}
	}

	var assistant telephony.Assistant
	if c.deps.Assistant != nil {
		var err error
		assistant, err = c.deps.Assistant.Render(s.Context.UserName, s.Context.Position)
		if err != nil {
			return telephony.Result{}, &telephony.ProviderError{Message: telephony.FallbackErrorMessage, Err: err}
		}
	}

	return c.deps.Provider.InitiateCall(ctx, telephony.CallRequest{
		PhoneNumber: s.PhoneNumber,
		UserName:    s.Context.UserName,
		UserID:      s.Context.UserID,
		InterviewID: interviewID,
		Position:    s.Context.Position,
		Type:        c.deps.CallType,
		Assistant:   assistant,
	})
}

// record runs after the state has settled and is bounded by RecordTimeout,
// independent of the caller's cancellation.
func (c *Controller) record(ctx context.Context, attempt domain.CallAttempt) {
	if c.deps.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.deps.RecordTimeout)
	defer cancel()
	if err := c.deps.Recorder.RecordAttempt(ctx, attempt); err != nil {
		c.deps.Logger.WithContext(ctx).Warn("record call attempt", zap.String("attempt_id", attempt.ID.String()), zap.Error(err))
	}
}

func (c *Controller) armTimerLocked() {
	c.stopTimerLocked()
	gen := c.timerGen
	c.timer = c.deps.Clock.AfterFunc(c.deps.CallingNotice, func() { c.timerElapsed(gen) })
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
}

func (c *Controller) timerElapsed(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.timerGen {
		return
	}
	c.timer = nil
	next, err := Reduce(c.state, TimerElapsed())
	if err != nil {
		c.deps.Logger.Debug("calling notice timer ignored", zap.String("session_id", c.sessionID.String()), zap.Error(err))
		return
	}
	c.state = next
}

// Close tears the view down. A pending calling-notice timer is cancelled.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
}

// Closed reports whether Close was called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
