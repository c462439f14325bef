package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/acme/interview-callback/internal/config"
	"github.com/acme/interview-callback/internal/telephony"
)

// maxErrorBody bounds how much of a failure response is read.
const maxErrorBody = 64 << 10

// Client posts call requests to the outbound call service.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient builds a client for the configured endpoint.
func NewClient(cfg config.CallBridgeConfig, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("call bridge: endpoint is required")
	}
	if httpClient == nil {
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: cfg.Endpoint, apiKey: cfg.APIKey, http: httpClient}, nil
}

type successBody struct {
	ID     string `json:"id"`
	CallID string `json:"callId"`
}

type errorBody struct {
	Error string `json:"error"`
}

// InitiateCall sends one call request. Non-2xx answers become *telephony.ProviderError.
func (c *Client) InitiateCall(ctx context.Context, req telephony.CallRequest) (telephony.Result, error) {
	ctx, span := otel.Tracer("interview.callbridge").Start(ctx, "callbridge.initiate")
	defer span.End()
	span.SetAttributes(
		attribute.String("interview.id", req.InterviewID),
		attribute.String("call.type", req.Type),
	)

	payload, err := json.Marshal(req)
	if err != nil {
		return telephony.Result{}, fmt.Errorf("call bridge: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return telephony.Result{}, fmt.Errorf("call bridge: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return telephony.Result{}, &telephony.ProviderError{Message: telephony.FallbackErrorMessage, Err: err}
	}
	defer res.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		perr := &telephony.ProviderError{Message: telephony.FallbackErrorMessage, StatusCode: res.StatusCode}
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err == nil && strings.TrimSpace(eb.Error) != "" {
			perr.Message = eb.Error
		}
		span.SetStatus(codes.Error, perr.Message)
		return telephony.Result{}, perr
	}

	var sb successBody
	if len(body) > 0 {
		// Success bodies are informational; a body we cannot parse is still a success.
		_ = json.Unmarshal(body, &sb)
	}
	callID := sb.CallID
	if callID == "" {
		callID = sb.ID
	}
	return telephony.Result{CallID: callID}, nil
}
