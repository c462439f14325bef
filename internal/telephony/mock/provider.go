package mock

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acme/interview-callback/internal/config"
	"github.com/acme/interview-callback/internal/telephony"
)

// Provider simulates the outbound call service for local development.
type Provider struct {
	successRate float64
	maxLatency  time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewProvider constructs a mock provider.
func NewProvider(cfg config.CallBridgeConfig) *Provider {
	rate := cfg.MockSuccess
	if rate <= 0 || rate > 1 {
		rate = 0.8
	}
	return &Provider{
		successRate: rate,
		maxLatency:  time.Second,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// InitiateCall simulates a call initiation.
func (p *Provider) InitiateCall(ctx context.Context, req telephony.CallRequest) (telephony.Result, error) {
	if err := ctx.Err(); err != nil {
		return telephony.Result{}, &telephony.ProviderError{Message: telephony.FallbackErrorMessage, Err: err}
	}

	p.mu.Lock()
	latency := time.Duration(p.rng.Int63n(int64(p.maxLatency) + 1))
	roll := p.rng.Float64()
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return telephony.Result{}, &telephony.ProviderError{Message: telephony.FallbackErrorMessage, Err: ctx.Err()}
	case <-time.After(latency):
	}

	if len(req.PhoneNumber) < 8 {
		return telephony.Result{}, &telephony.ProviderError{Message: "Invalid number", StatusCode: 400}
	}
	if roll <= p.successRate {
		return telephony.Result{CallID: "mock-" + uuid.NewString()}, nil
	}
	return telephony.Result{}, &telephony.ProviderError{Message: "simulated failure", StatusCode: 502}
}
