package callrequest

import (
	"fmt"
	"strings"

	"github.com/acme/interview-callback/internal/domain"
	"github.com/acme/interview-callback/internal/telephony"
	apperrors "github.com/acme/interview-callback/pkg/errors"
)

var (
	ErrPhoneRequired      = apperrors.Validationf("phone number is required")
	ErrUnknownModality    = apperrors.Validationf("unknown interview modality")
	ErrInvalidTransition  = apperrors.Conflictf("transition not allowed")
	ErrSubmissionInFlight = apperrors.Conflictf("a call request is already being submitted")
	ErrHandedOff          = apperrors.Conflictf("interview already handed off to the agent")
	ErrSessionClosed      = fmt.Errorf("%w: session closed", apperrors.ErrNotFound)
)

// EventKind enumerates the inputs of the state machine.
type EventKind int

const (
	EventSelect EventKind = iota
	EventBack
	EventSubmit
	EventProviderAccepted
	EventProviderRejected
	EventTimerElapsed
)

func (k EventKind) String() string {
	switch k {
	case EventSelect:
		return "select"
	case EventBack:
		return "back"
	case EventSubmit:
		return "submit"
	case EventProviderAccepted:
		return "provider_accepted"
	case EventProviderRejected:
		return "provider_rejected"
	case EventTimerElapsed:
		return "timer_elapsed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one input to Reduce. Only the fields relevant to Kind are read.
type Event struct {
	Kind     EventKind
	Modality domain.Modality
	Phone    string
	Message  string
}

func Select(m domain.Modality) Event { return Event{Kind: EventSelect, Modality: m} }

func Back() Event { return Event{Kind: EventBack} }

func Submit(phone string) Event { return Event{Kind: EventSubmit, Phone: phone} }

func ProviderAccepted() Event { return Event{Kind: EventProviderAccepted} }

func ProviderRejected(msg string) Event { return Event{Kind: EventProviderRejected, Message: msg} }

func TimerElapsed() Event { return Event{Kind: EventTimerElapsed} }

// NormalizePhone prefixes a "+" unless one is already present.
func NormalizePhone(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}

// Reduce applies ev to s. On error s is returned unchanged.
func Reduce(s domain.CallRequestState, ev Event) (domain.CallRequestState, error) {
	if s.HandedOff() {
		return s, ErrHandedOff
	}

	switch ev.Kind {
	case EventSelect:
		if s.Phase != domain.PhaseIdle {
			return s, invalid(s, ev)
		}
		switch ev.Modality {
		case domain.ModalityImmediate:
			s.Modality = domain.ModalityImmediate
		case domain.ModalityPhoneCallback:
			s.Modality = domain.ModalityPhoneCallback
			s.Phase = domain.PhaseCollectingPhone
		default:
			return s, fmt.Errorf("%w: %q", ErrUnknownModality, ev.Modality)
		}
		return s, nil

	case EventBack:
		if s.Phase != domain.PhaseCollectingPhone && s.Phase != domain.PhaseFailed {
			return s, invalid(s, ev)
		}
		s.Modality = domain.ModalityUnselected
		s.Phase = domain.PhaseIdle
		s.PhoneNumber = ""
		s.ErrorMessage = ""
		return s, nil

	case EventSubmit:
		switch s.Phase {
		case domain.PhaseCollectingPhone, domain.PhaseFailed:
		case domain.PhaseSubmitting:
			return s, ErrSubmissionInFlight
		default:
			return s, invalid(s, ev)
		}
		phone := strings.TrimSpace(ev.Phone)
		if phone == "" {
			return s, ErrPhoneRequired
		}
		s.Phase = domain.PhaseSubmitting
		s.PhoneNumber = NormalizePhone(phone)
		s.ErrorMessage = ""
		return s, nil

	case EventProviderAccepted:
		if s.Phase != domain.PhaseSubmitting {
			return s, invalid(s, ev)
		}
		s.Phase = domain.PhaseInProgress
		return s, nil

	case EventProviderRejected:
		if s.Phase != domain.PhaseSubmitting {
			return s, invalid(s, ev)
		}
		msg := strings.TrimSpace(ev.Message)
		if msg == "" {
			msg = telephony.FallbackErrorMessage
		}
		s.Phase = domain.PhaseFailed
		s.ErrorMessage = msg
		return s, nil

	case EventTimerElapsed:
		if s.Phase != domain.PhaseInProgress {
			return s, invalid(s, ev)
		}
		s.Phase = domain.PhaseCollectingPhone
		s.PhoneNumber = ""
		return s, nil
	}

	return s, invalid(s, ev)
}

func invalid(s domain.CallRequestState, ev Event) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev.Kind, s.Phase)
}
