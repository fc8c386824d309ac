// Package ollama implements provider.Client against an Ollama-compatible
// HTTP service (POST /api/generate, GET /api/tags).
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sanix-darker/localreview/internal/core"
	"github.com/sanix-darker/localreview/internal/logger"
	"github.com/sanix-darker/localreview/internal/provider"
)

const (
	// DefaultEndpoint is where a local Ollama listens by default.
	DefaultEndpoint = "http://localhost:11434"

	// DefaultProbeTimeout bounds the health probe when no timeout is set.
	DefaultProbeTimeout = 5 * time.Second
)

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

type apiError struct {
	Error string `json:"error"`
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Options configures a Client.
type Options struct {
	Endpoint string
	Model    string
	// Timeout is the hard wall-clock budget of one generation request. It
	// also bounds the probe; zero means no generation timeout and
	// DefaultProbeTimeout for the probe.
	Timeout time.Duration
}

// Client talks to one Ollama endpoint for one model. It issues one request
// at a time and never retries.
type Client struct {
	http     *resty.Client
	endpoint string
	model    string
	timeout  time.Duration
	log      *logger.Logger
}

var _ provider.Client = (*Client)(nil)

// BackendName is the name this package registers under.
const BackendName = "ollama"

func init() {
	provider.Register(BackendName, func(s provider.Settings) (provider.Client, error) {
		return New(Options{Endpoint: s.Endpoint, Model: s.Model, Timeout: s.Timeout}), nil
	})
}

// New builds a Client. An empty endpoint means DefaultEndpoint.
func New(opts Options) *Client {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	client := resty.New().
		SetBaseURL(endpoint).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:     client,
		endpoint: endpoint,
		model:    opts.Model,
		timeout:  opts.Timeout,
		log:      logger.Named("ollama"),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Endpoint returns the service base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Probe lists installed models and checks that the configured one is among
// them. Failures are reported in the returned Health, never as an error.
func (c *Client) Probe(ctx context.Context) provider.Health {
	timeout := c.timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.http.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return provider.Health{
			Error: fmt.Sprintf("cannot reach model service at %s: %v", c.endpoint, err),
			Code:  core.ErrCodeServiceUnavailable,
		}
	}
	if resp.IsError() {
		return provider.Health{
			Error: fmt.Sprintf("model service at %s answered %s", c.endpoint, resp.Status()),
			Code:  core.ErrCodeServiceUnavailable,
		}
	}

	var tags tagsResponse
	if err := json.Unmarshal(resp.Body(), &tags); err != nil {
		return provider.Health{
			Error: fmt.Sprintf("unexpected model list from %s: %v", c.endpoint, err),
			Code:  core.ErrCodeServiceUnavailable,
		}
	}

	installed := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		installed = append(installed, name)
	}
	if !ModelInstalled(c.model, installed) {
		return provider.Health{
			Error: fmt.Sprintf("model %q is not installed (available: %s)", c.model, listOrNone(installed)),
			Code:  core.ErrCodeModelNotInstalled,
		}
	}
	return provider.Health{Healthy: true}
}

// ModelInstalled reports whether any installed name starts with the base
// name of model, the part before any ':' tag separator.
func ModelInstalled(model string, installed []string) bool {
	base, _, _ := strings.Cut(strings.TrimSpace(model), ":")
	if base == "" {
		return false
	}
	for _, name := range installed {
		if strings.HasPrefix(name, base) {
			return true
		}
	}
	return false
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// Generate sends one non-streaming generation request. A request that
// outlives the configured timeout fails with core.ErrTimeout; cancellation
// of ctx is returned as ctx.Err().
func (c *Client) Generate(ctx context.Context, req provider.GenerateRequest) (string, error) {
	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body := generateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(reqCtx).
		SetBody(body).
		Post("/api/generate")
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			c.log.Debug().Dur("elapsed", elapsed).Msg("generation timed out")
			return "", &core.Error{
				Code:    core.ErrCodeTimeout,
				Message: fmt.Sprintf("model did not answer within %s", c.timeout),
			}
		}
		return "", &core.Error{
			Code:    core.ErrCodeServiceUnavailable,
			Message: fmt.Sprintf("cannot reach model service at %s", c.endpoint),
			Cause:   err,
		}
	}

	c.log.Debug().
		Int("status", resp.StatusCode()).
		Dur("elapsed", elapsed).
		Int("prompt_chars", len(req.Prompt)).
		Msg("generate")

	if resp.IsError() {
		return "", classifyHTTPError(resp.StatusCode(), resp.Body())
	}

	var out generateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", &core.Error{
			Code:    core.ErrCodeMalformedResponse,
			Message: "cannot decode generation response",
			Cause:   err,
		}
	}
	return out.Response, nil
}

func classifyHTTPError(status int, body []byte) error {
	var apiErr apiError
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	code := core.ErrCodeServiceUnavailable
	if status == http.StatusNotFound && strings.Contains(strings.ToLower(msg), "not found") {
		code = core.ErrCodeModelNotInstalled
	}
	return &core.Error{
		Code:    code,
		Message: fmt.Sprintf("model service returned %d: %s", status, msg),
	}
}
