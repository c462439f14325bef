package twilio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"

	"github.com/acme/interview-callback/internal/config"
	"github.com/acme/interview-callback/internal/telephony"
)

type callCreator interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
}

// Provider dials the candidate through Twilio and speaks the assistant greeting.
type Provider struct {
	calls    callCreator
	from     string
	sayVoice string
}

// NewProvider builds a Twilio-backed provider.
func NewProvider(cfg config.TwilioConfig) (*Provider, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("twilio: account_sid and auth_token are required")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("twilio: from_number is required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Provider{calls: client.Api, from: cfg.FromNumber, sayVoice: cfg.SayVoice}, nil
}

// InitiateCall creates the call with inline TwiML.
func (p *Provider) InitiateCall(ctx context.Context, req telephony.CallRequest) (telephony.Result, error) {
	if err := ctx.Err(); err != nil {
		return telephony.Result{}, &telephony.ProviderError{Message: telephony.FallbackErrorMessage, Err: err}
	}

	doc, err := twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: req.Assistant.FirstMessage, Voice: p.sayVoice},
	})
	if err != nil {
		return telephony.Result{}, fmt.Errorf("twilio: render twiml: %w", err)
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(req.PhoneNumber)
	params.SetFrom(p.from)
	params.SetTwiml(doc)

	call, err := p.calls.CreateCall(params)
	if err != nil {
		return telephony.Result{}, toProviderError(err)
	}

	var sid string
	if call != nil && call.Sid != nil {
		sid = *call.Sid
	}
	return telephony.Result{CallID: sid}, nil
}

func toProviderError(err error) error {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		msg := strings.TrimSpace(restErr.Message)
		if msg == "" {
			msg = telephony.FallbackErrorMessage
		}
		return &telephony.ProviderError{Message: msg, StatusCode: restErr.Status, Err: err}
	}
	return &telephony.ProviderError{Message: telephony.FallbackErrorMessage, Err: err}
}
