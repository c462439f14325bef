package domain

// Modality enumerates how the interview is delivered.
type Modality string

const (
	ModalityUnselected    Modality = "unselected"
	ModalityImmediate     Modality = "immediate"
	ModalityPhoneCallback Modality = "call"
)

// Phase enumerates lifecycle stages of a call request.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseCollectingPhone Phase = "collecting_phone"
	PhaseSubmitting      Phase = "submitting"
	PhaseInProgress      Phase = "in_progress"
	PhaseFailed          Phase = "failed"
)

// InterviewContext is the read-only context a call request is opened with.
type InterviewContext struct {
	InterviewID string
	UserID      string
	UserName    string
	Position    string
}

// CallRequestState is the transient state of one page view.
type CallRequestState struct {
	Context      InterviewContext
	Modality     Modality
	Phase        Phase
	PhoneNumber  string
	ErrorMessage string
}

// NewCallRequestState returns the initial state for an interview context.
func NewCallRequestState(ic InterviewContext) CallRequestState {
	return CallRequestState{
		Context:  ic,
		Modality: ModalityUnselected,
		Phase:    PhaseIdle,
	}
}

// HandedOff reports whether the immediate interview was chosen and the machine was exited.
func (s CallRequestState) HandedOff() bool {
	return s.Modality == ModalityImmediate
}

// Calling reports whether the calling notice should be shown.
func (s CallRequestState) Calling() bool {
	return s.Phase == PhaseSubmitting || s.Phase == PhaseInProgress
}

// AgentHandoff describes what the external interview agent is started with.
type AgentHandoff struct {
	UserName    string `json:"userName"`
	UserID      string `json:"userId"`
	InterviewID string `json:"interviewId"`
	Type        string `json:"type"`
	Position    string `json:"position"`
}

// Handoff builds the agent descriptor for an immediate interview.
func (s CallRequestState) Handoff() AgentHandoff {
	return AgentHandoff{
		UserName:    s.Context.UserName,
		UserID:      s.Context.UserID,
		InterviewID: s.Context.InterviewID,
		Type:        "interview",
		Position:    s.Context.Position,
	}
}
