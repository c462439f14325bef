package callrequest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/interview-callback/internal/config"
	"github.com/acme/interview-callback/internal/domain"
	"github.com/acme/interview-callback/internal/telephony"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every timer, including stopped ones, the way a racing time.AfterFunc could.
func (c *fakeClock) fire(includeStopped bool) {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.timers = nil
	c.mu.Unlock()
	for _, t := range timers {
		if t.stopped && !includeStopped {
			continue
		}
		t.f()
	}
}

func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

type fakeProvider struct {
	mu      sync.Mutex
	calls   []telephony.CallRequest
	errs    []error
	result  telephony.Result
	started chan struct{}
	release chan struct{}
}

func (p *fakeProvider) InitiateCall(ctx context.Context, req telephony.CallRequest) (telephony.Result, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	var err error
	if len(p.errs) > 0 {
		err, p.errs = p.errs[0], p.errs[1:]
	}
	started, release := p.started, p.release
	p.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return telephony.Result{}, err
	}
	return p.result, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fakeRecorder struct {
	mu       sync.Mutex
	attempts []domain.CallAttempt
	err      error
	onRecord func(ctx context.Context)
}

func (r *fakeRecorder) RecordAttempt(ctx context.Context, attempt domain.CallAttempt) error {
	if r.onRecord != nil {
		r.onRecord(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return r.err
}

type fakeGuard struct {
	ok       bool
	err      error
	released []string
}

func (g *fakeGuard) Acquire(ctx context.Context, interviewID string) (bool, error) {
	return g.ok, g.err
}

func (g *fakeGuard) Release(ctx context.Context, interviewID string) error {
	g.released = append(g.released, interviewID)
	return nil
}

type harness struct {
	ctrl     *Controller
	clock    *fakeClock
	provider *fakeProvider
	recorder *fakeRecorder
}

func newHarness(t *testing.T, guard Guard) *harness {
	t.Helper()
	assistant, err := telephony.NewAssistantTemplate(config.AssistantConfig{
		Name:                 "Interview Assistant",
		FirstMessageTemplate: "Hello {{.UserName}}! I'm your AI interviewer for the {{.Position}} position. Are you ready to begin the interview?",
		VoiceProvider:        "azure",
		VoiceID:              "andrew",
		ModelProvider:        "anthropic",
		Model:                "claude-3-opus-20240229",
	})
	require.NoError(t, err)

	h := &harness{
		clock:    newFakeClock(),
		provider: &fakeProvider{result: telephony.Result{CallID: "call-1"}},
		recorder: &fakeRecorder{},
	}
	h.ctrl = NewController(uuid.New(), domain.InterviewContext{
		InterviewID: "abc123",
		UserID:      "demo-user",
		UserName:    "Demo User",
		Position:    "Backend Engineer",
	}, Dependencies{
		Provider:      h.provider,
		Assistant:     assistant,
		Guard:         guard,
		Recorder:      h.recorder,
		Clock:         h.clock,
		CallType:      "outboundPhoneCall",
		CallingNotice: 5 * time.Second,
	})
	return h
}

func (h *harness) toPhoneEntry(t *testing.T) {
	t.Helper()
	s, err := h.ctrl.Select(domain.ModalityPhoneCallback)
	require.NoError(t, err)
	require.Equal(t, domain.PhaseCollectingPhone, s.Phase)
}

func TestSubmitEmptyPhoneNeverCallsProvider(t *testing.T) {
	h := newHarness(t, nil)
	h.toPhoneEntry(t)

	for _, phone := range []string{"", "  "} {
		s, err := h.ctrl.Submit(context.Background(), phone)
		require.ErrorIs(t, err, ErrPhoneRequired)
		assert.Equal(t, domain.PhaseCollectingPhone, s.Phase)
	}
	assert.Equal(t, 0, h.provider.callCount())
	assert.Empty(t, h.recorder.attempts)
}

func TestSubmitNormalizesPhoneAndBuildsRequest(t *testing.T) {
	h := newHarness(t, nil)
	h.toPhoneEntry(t)

	s, err := h.ctrl.Submit(context.Background(), "15551234567")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseInProgress, s.Phase)

	require.Equal(t, 1, h.provider.callCount())
	req := h.provider.calls[0]
	assert.Equal(t, "+15551234567", req.PhoneNumber)
	assert.Equal(t, "Demo User", req.UserName)
	assert.Equal(t, "demo-user", req.UserID)
	assert.Equal(t, "abc123", req.InterviewID)
	assert.Equal(t, "Backend Engineer", req.Position)
	assert.Equal(t, "outboundPhoneCall", req.Type)
	assert.Equal(t, "Interview Assistant", req.Assistant.Name)
	assert.Equal(t, "Hello Demo User! I'm your AI interviewer for the Backend Engineer position. Are you ready to begin the interview?", req.Assistant.FirstMessage)

	require.Len(t, h.recorder.attempts, 1)
	attempt := h.recorder.attempts[0]
	assert.Equal(t, domain.AttemptAccepted, attempt.Outcome)
	assert.Equal(t, "call-1", attempt.ProviderCallID)
	assert.Equal(t, h.ctrl.SessionID(), attempt.SessionID)
}

func TestSuccessShowsCallingNoticeThenReturnsToPhoneEntry(t *testing.T) {
	h := newHarness(t, nil)
	h.toPhoneEntry(t)

	s, err := h.ctrl.Submit(context.Background(), "15551234567")
	require.NoError(t, err)
	assert.Equal(t, ViewCalling, Render(s).Name)

	timers := h.clock.pending()
	require.Len(t, timers, 1)
	assert.Equal(t, 5*time.Second, timers[0].d)

	// Nothing but the timer can leave InProgress.
	_, err = h.ctrl.Back()
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = h.ctrl.Submit(context.Background(), "15550000000")
	require.ErrorIs(t, err, ErrInvalidTransition)

	h.clock.fire(false)

	s = h.ctrl.State()
	assert.Equal(t, domain.PhaseCollectingPhone, s.Phase)
	assert.Empty(t, s.PhoneNumber)
	view := Render(s)
	assert.Equal(t, ViewCollectPhone, view.Name)
	assert.Empty(t, view.PhoneNumber)
	assert.Equal(t, 1, h.provider.callCount())
}

func TestProviderFailureThenRetry(t *testing.T) {
	h := newHarness(t, nil)
	h.provider.errs = []error{&telephony.ProviderError{Message: "Invalid number", StatusCode: 400}}
	h.toPhoneEntry(t)

	s, err := h.ctrl.Submit(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseFailed, s.Phase)
	assert.Equal(t, "Invalid number", s.ErrorMessage)
	assert.Empty(t, h.clock.pending())

	view := Render(s)
	assert.Equal(t, ViewCollectPhone, view.Name)
	assert.Equal(t, "Invalid number", view.Error)

	require.Len(t, h.recorder.attempts, 1)
	assert.Equal(t, domain.AttemptRejected, h.recorder.attempts[0].Outcome)
	assert.Equal(t, "Invalid number", h.recorder.attempts[0].Error)

	s, err = h.ctrl.Submit(context.Background(), "15551234567")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseInProgress, s.Phase)
	assert.Empty(t, s.ErrorMessage)
	assert.Equal(t, 2, h.provider.callCount())
}

func TestNetworkFailureUsesFallbackMessage(t *testing.T) {
	h := newHarness(t, nil)
	h.provider.errs = []error{errors.New("connection reset")}
	h.toPhoneEntry(t)

	s, err := h.ctrl.Submit(context.Background(), "15551234567")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseFailed, s.Phase)
	assert.Equal(t, telephony.FallbackErrorMessage, s.ErrorMessage)
}

func TestImmediateNeverTouchesPhoneOrNetwork(t *testing.T) {
	h := newHarness(t, nil)

	s, err := h.ctrl.Select(domain.ModalityImmediate)
	require.NoError(t, err)
	assert.True(t, s.HandedOff())
	assert.Empty(t, s.PhoneNumber)

	view := Render(s)
	assert.Equal(t, ViewAgentHandoff, view.Name)
	require.NotNil(t, view.Handoff)
	assert.Equal(t, domain.AgentHandoff{
		UserName:    "Demo User",
		UserID:      "demo-user",
		InterviewID: "abc123",
		Type:        "interview",
		Position:    "Backend Engineer",
	}, *view.Handoff)

	_, err = h.ctrl.Submit(context.Background(), "15551234567")
	require.ErrorIs(t, err, ErrHandedOff)
	assert.Equal(t, 0, h.provider.callCount())
}

func TestSecondSubmitWhileSubmittingIsRejected(t *testing.T) {
	h := newHarness(t, nil)
	h.provider.started = make(chan struct{}, 1)
	h.provider.release = make(chan struct{})
	h.toPhoneEntry(t)

	done := make(chan domain.CallRequestState, 1)
	go func() {
		s, err := h.ctrl.Submit(context.Background(), "15551234567")
		assert.NoError(t, err)
		done <- s
	}()

	<-h.provider.started
	assert.Equal(t, domain.PhaseSubmitting, h.ctrl.State().Phase)
	assert.Equal(t, ViewCalling, Render(h.ctrl.State()).Name)

	_, err := h.ctrl.Submit(context.Background(), "15550000000")
	require.ErrorIs(t, err, ErrSubmissionInFlight)

	close(h.provider.release)
	s := <-done
	assert.Equal(t, domain.PhaseInProgress, s.Phase)
	assert.Equal(t, "+15551234567", s.PhoneNumber)
	assert.Equal(t, 1, h.provider.callCount())
}

func TestCloseCancelsCallingNoticeTimer(t *testing.T) {
	h := newHarness(t, nil)
	h.toPhoneEntry(t)

	_, err := h.ctrl.Submit(context.Background(), "15551234567")
	require.NoError(t, err)
	timers := h.clock.pending()
	require.Len(t, timers, 1)

	h.ctrl.Close()
	assert.True(t, timers[0].stopped)
	assert.True(t, h.ctrl.Closed())

	// A callback that raced the cancellation must not touch disposed state.
	h.clock.fire(true)
	assert.Equal(t, domain.PhaseInProgress, h.ctrl.State().Phase)

	_, err = h.ctrl.Select(domain.ModalityPhoneCallback)
	require.ErrorIs(t, err, ErrSessionClosed)
	_, err = h.ctrl.Submit(context.Background(), "15551234567")
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestCloseDuringSubmissionDiscardsOutcome(t *testing.T) {
	h := newHarness(t, nil)
	h.provider.started = make(chan struct{}, 1)
	h.provider.release = make(chan struct{})
	h.toPhoneEntry(t)

	errc := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Submit(context.Background(), "15551234567")
		errc <- err
	}()

	<-h.provider.started
	h.ctrl.Close()
	close(h.provider.release)

	require.ErrorIs(t, <-errc, ErrSessionClosed)
	assert.Empty(t, h.clock.pending())
	assert.Len(t, h.recorder.attempts, 1)
}

func TestAttemptRecordedAfterStateSettles(t *testing.T) {
	h := newHarness(t, nil)
	h.toPhoneEntry(t)

	var (
		phaseAtRecord domain.Phase
		hasDeadline   bool
		ctxErr        error
	)
	h.recorder.onRecord = func(ctx context.Context) {
		phaseAtRecord = h.ctrl.State().Phase
		_, hasDeadline = ctx.Deadline()
		ctxErr = ctx.Err()
	}

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := h.ctrl.Submit(reqCtx, "15551234567")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseInProgress, s.Phase)
	assert.Equal(t, domain.PhaseInProgress, phaseAtRecord)
	assert.True(t, hasDeadline)
	assert.NoError(t, ctxErr, "request cancellation does not reach the recorder")
	assert.Len(t, h.clock.pending(), 1)
}

func TestGuardBusyFailsSubmission(t *testing.T) {
	guard := &fakeGuard{ok: false}
	h := newHarness(t, guard)
	h.toPhoneEntry(t)

	s, err := h.ctrl.Submit(context.Background(), "15551234567")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseFailed, s.Phase)
	assert.Equal(t, BusyMessage, s.ErrorMessage)
	assert.Equal(t, 0, h.provider.callCount())
	assert.Empty(t, guard.released)
}

func TestGuardReleasedAfterCall(t *testing.T) {
	guard := &fakeGuard{ok: true}
	h := newHarness(t, guard)
	h.toPhoneEntry(t)

	_, err := h.ctrl.Submit(context.Background(), "15551234567")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123"}, guard.released)
}

func TestGuardErrorFailsOpen(t *testing.T) {
	guard := &fakeGuard{err: errors.New("redis down")}
	h := newHarness(t, guard)
	h.toPhoneEntry(t)

	s, err := h.ctrl.Submit(context.Background(), "15551234567")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseInProgress, s.Phase)
	assert.Equal(t, 1, h.provider.callCount())
}

func TestRecorderErrorDoesNotChangeOutcome(t *testing.T) {
	h := newHarness(t, nil)
	h.recorder.err = errors.New("kafka unavailable")
	h.toPhoneEntry(t)

	s, err := h.ctrl.Submit(context.Background(), "15551234567")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseInProgress, s.Phase)
}

func TestBackFromPhoneEntry(t *testing.T) {
	h := newHarness(t, nil)
	h.toPhoneEntry(t)

	s, err := h.ctrl.Back()
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, s.Phase)
	assert.Equal(t, ViewChooseModality, Render(s).Name)
}
