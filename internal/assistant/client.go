// Package assistant drives the editor model behind the proofreading
// service: a retrying chat-completions client, per-language editor
// sessions, response parsing, and the two-pass proofread orchestration.
package assistant

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/quillworks/redline/core/errors"
	"github.com/quillworks/redline/internal/logging"
)

// Request is one completion request to the editor model.
type Request struct {
	System      string
	User        string
	Temperature float64 // 0 selects the model default
}

// Client produces one completion per request. Implementations must be
// safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// RetryConfig bounds the retry loop around transient failures.
type RetryConfig struct {
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// DefaultRetryConfig returns the standard retry envelope for editor calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// backoff computes the exponential backoff for an attempt, with +/-25%
// jitter so synchronized clients do not retry in lockstep.
func (rc RetryConfig) backoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= rc.BackoffMultiplier
	}
	d := time.Duration(float64(rc.BackoffBase) * multiplier)
	if d > rc.MaxBackoff {
		d = rc.MaxBackoff
	}
	jitter := float64(d) * 0.25 * (rand.Float64()*2 - 1)
	return d + time.Duration(jitter)
}

// Config configures the OpenAI-backed client.
type Config struct {
	APIKey  string
	BaseURL string // optional override for Azure or proxy deployments
	Model   string
	Retry   RetryConfig // zero value selects DefaultRetryConfig
}

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	model  string
	client openai.Client
	retry  RetryConfig
}

// NewOpenAIClient builds the production editor client.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewValidation("api_key", "editor API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.NewValidation("model", "editor model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	retry := cfg.Retry
	if retry == (RetryConfig{}) {
		retry = DefaultRetryConfig()
	}

	return &OpenAIClient{
		model:  cfg.Model,
		client: openai.NewClient(opts...),
		retry:  retry,
	}, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete runs one completion with bounded retry on transient failures.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		content, err := c.complete(ctx, req)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if IsFatal(err) {
			return "", err
		}
		if attempt < c.retry.MaxAttempts {
			backoff := c.retry.backoff(attempt)
			logging.AssistantEvent(ctx, "retry", c.model,
				"attempt", attempt, "backoff_ms", backoff.Milliseconds(), "error", err.Error())
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return "", lastErr
}

func (c *OpenAIClient) complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", NewTransient(fmt.Errorf("editor returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// classify sorts editor API failures into transient and fatal. Rate
// limits, timeouts, and server errors are worth retrying; everything else
// under 500 reflects the request itself.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode >= 500:
			return NewTransient(err)
		default:
			return NewFatal(err)
		}
	}
	return NewTransient(err)
}
