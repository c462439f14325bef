package telephony

import (
	"context"
	"errors"
)

// FallbackErrorMessage is shown when the provider gives no usable reason.
const FallbackErrorMessage = "Failed to initiate call"

// Voice selects the speech voice of the assistant.
type Voice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

// Model selects the language model behind the assistant.
type Model struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Assistant describes the interviewer the provider should put on the line.
type Assistant struct {
	Name         string `json:"name"`
	FirstMessage string `json:"firstMessage"`
	Voice        Voice  `json:"voice"`
	Model        Model  `json:"model"`
}

// CallRequest is the body of a call initiation.
type CallRequest struct {
	PhoneNumber string    `json:"phoneNumber"`
	UserName    string    `json:"userName"`
	UserID      string    `json:"userId"`
	InterviewID string    `json:"interviewId"`
	Position    string    `json:"position"`
	Type        string    `json:"type"`
	Assistant   Assistant `json:"assistant"`
}

// Result captures what the provider reported for an accepted call.
type Result struct {
	CallID string
}

// Provider abstracts the outbound call service.
type Provider interface {
	InitiateCall(ctx context.Context, req CallRequest) (Result, error)
}

// ProviderError is a rejection or transport failure with a message fit for the user.
type ProviderError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return "telephony: " + e.Message + ": " + e.Err.Error()
	}
	return "telephony: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// UserMessage extracts the message to display for a failed submission.
func UserMessage(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Message != "" {
		return perr.Message
	}
	return FallbackErrorMessage
}
