// Package provider defines what the review pipeline needs from a model
// service: a health probe and a single non-streaming generation call.
//
// The only implementation is provider/ollama, built on go-resty/v2.
package provider

import (
	"context"

	"github.com/sanix-darker/localreview/internal/core"
)

// ---------------------------------------------------------------------------
// Request types
// ---------------------------------------------------------------------------

// GenerateRequest is one prompt sent to the model.
type GenerateRequest struct {
	// Prompt is the complete prompt text.
	Prompt string

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens bounds the reply length. Zero leaves the service default.
	MaxTokens int
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

// Health is the result of a probe. It is recomputed on every call.
type Health struct {
	Healthy bool
	// Error is a human-readable cause when Healthy is false.
	Error string
	// Code names the failure class when Healthy is false.
	Code core.ErrorCode
}

// Err converts an unhealthy result into a *core.Error, or nil when healthy.
func (h Health) Err() error {
	if h.Healthy {
		return nil
	}
	code := h.Code
	if code == "" {
		code = core.ErrCodeServiceUnavailable
	}
	return &core.Error{Code: code, Message: h.Error}
}

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// Generator issues a single generation request and returns the raw reply.
// Implementations must report a blown deadline as core.ErrTimeout.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Prober checks that the service is reachable and the model installed.
// Probe never returns an error: failures are captured in Health.
type Prober interface {
	Probe(ctx context.Context) Health
}

// Client is a full model service client.
type Client interface {
	Generator
	Prober
}
