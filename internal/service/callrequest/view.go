package callrequest

import "github.com/acme/interview-callback/internal/domain"

// ViewName identifies which screen the page should show.
type ViewName string

const (
	ViewChooseModality ViewName = "choose_modality"
	ViewCollectPhone   ViewName = "collect_phone"
	ViewCalling        ViewName = "calling"
	ViewAgentHandoff   ViewName = "agent_handoff"
)

// View is the renderable projection of a state.
type View struct {
	Name        ViewName             `json:"view"`
	Phase       domain.Phase         `json:"phase"`
	Modality    domain.Modality      `json:"modality"`
	InterviewID string               `json:"interview_id"`
	UserName    string               `json:"user_name"`
	Position    string               `json:"position"`
	PhoneNumber string               `json:"phone_number,omitempty"`
	Error       string               `json:"error,omitempty"`
	SubmitLabel string               `json:"submit_label,omitempty"`
	Notice      *Notice              `json:"notice,omitempty"`
	Handoff     *domain.AgentHandoff `json:"handoff,omitempty"`
}

// Notice is the text of the calling screen.
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var callingNotice = Notice{
	Title:   "Calling you...",
	Message: "Please wait while we connect your call.",
}

// Render projects s onto one of the page's screens.
func Render(s domain.CallRequestState) View {
	v := View{
		Phase:       s.Phase,
		Modality:    s.Modality,
		InterviewID: s.Context.InterviewID,
		UserName:    s.Context.UserName,
		Position:    s.Context.Position,
	}

	switch {
	case s.HandedOff():
		v.Name = ViewAgentHandoff
		h := s.Handoff()
		v.Handoff = &h
	case s.Calling():
		v.Name = ViewCalling
		v.PhoneNumber = s.PhoneNumber
		v.SubmitLabel = "Calling..."
		n := callingNotice
		v.Notice = &n
	case s.Phase == domain.PhaseCollectingPhone || s.Phase == domain.PhaseFailed:
		v.Name = ViewCollectPhone
		v.PhoneNumber = s.PhoneNumber
		v.Error = s.ErrorMessage
		v.SubmitLabel = "Request Call"
	default:
		v.Name = ViewChooseModality
	}
	return v
}
