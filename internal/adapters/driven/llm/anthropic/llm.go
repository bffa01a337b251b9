// Package anthropic provides a generation service adapter backed by the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/tread-cli/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tread-cli/internal/logger"
)

// Ensure GenerationService implements the interface.
var _ driven.GenerationService = (*GenerationService)(nil)

// Default configuration values.
const (
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024
)

// Config holds configuration for the Anthropic generation service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL overrides the API base URL. Empty uses the Anthropic default.
	BaseURL string

	// Model is the chat model to use (default: claude-3-5-haiku-latest).
	Model string

	// Timeout is the per-request timeout (default: 120s).
	Timeout time.Duration

	// Retry controls transient-failure retries.
	Retry ratelimit.Policy

	// Limiter throttles outbound requests. Nil uses the default limiter.
	Limiter *ratelimit.Limiter
}

// GenerationService produces completions using the Anthropic API.
type GenerationService struct {
	client  anthropicsdk.Client
	model   string
	timeout time.Duration
	retry   ratelimit.Policy
	limiter *ratelimit.Limiter
}

// NewGenerationService creates a new Anthropic generation service.
func NewGenerationService(cfg Config) (*GenerationService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = ratelimit.DefaultPolicy
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// The SDK retries internally by default; the ratelimit package
		// owns retry behaviour here, so disable the SDK's.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &GenerationService{
		client:  anthropicsdk.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		retry:   cfg.Retry,
		limiter: cfg.Limiter,
	}, nil
}

// Generate produces a completion for the prompt, retrying transient
// failures before surfacing a service error.
func (s *GenerationService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	req := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(s.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
	}
	if opts.Temperature > 0 {
		req.Temperature = anthropicsdk.Float(opts.Temperature)
	}
	if len(opts.StopWords) > 0 {
		req.StopSequences = opts.StopWords
	}

	var answer string
	attempts, err := ratelimit.Do(ctx, s.retry, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		msg, err := s.client.Messages.New(reqCtx, req)
		if err != nil {
			return s.classifyError(err)
		}

		var b strings.Builder
		for _, block := range msg.Content {
			if text, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
				b.WriteString(text.Text)
			}
		}
		if b.Len() == 0 {
			return fmt.Errorf("anthropic: empty response")
		}
		answer = b.String()
		return nil
	})
	if err != nil {
		return "", &domain.ServiceError{Service: "generation", Attempts: attempts, Cause: err}
	}

	return answer, nil
}

// classifyError wraps API errors so the retry loop can tell transient
// failures (rate limits, overloads) from permanent ones.
func (s *GenerationService) classifyError(err error) error {
	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			s.limiter.RecordRateLimitError(0)
			logger.Debug("anthropic: rate limited, backing off")
			return ratelimit.Transient(err)
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return ratelimit.Transient(err)
		}
		return err
	}
	return err
}

// ModelName returns the name of the chat model being used.
func (s *GenerationService) ModelName() string {
	return s.model
}

// Ping validates the API key with a minimal one-token request.
func (s *GenerationService) Ping(ctx context.Context) error {
	_, err := s.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(s.model),
		MaxTokens: 1,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *GenerationService) Close() error {
	return nil
}
