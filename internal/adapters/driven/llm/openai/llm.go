// Package openai provides a generation service adapter backed by the
// OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/tread-cli/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tread-cli/internal/logger"
)

// Ensure GenerationService implements the interface.
var _ driven.GenerationService = (*GenerationService)(nil)

// Default configuration values.
const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI generation service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL. Empty uses the OpenAI default.
	// Can be set for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the per-request timeout (default: 120s).
	Timeout time.Duration

	// Retry controls transient-failure retries.
	Retry ratelimit.Policy

	// Limiter throttles outbound requests. Nil uses the default limiter.
	Limiter *ratelimit.Limiter
}

// GenerationService produces completions using the OpenAI API.
type GenerationService struct {
	client  *goopenai.Client
	model   string
	timeout time.Duration
	retry   ratelimit.Policy
	limiter *ratelimit.Limiter
}

// NewGenerationService creates a new OpenAI generation service.
func NewGenerationService(cfg Config) (*GenerationService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
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

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &GenerationService{
		client:  goopenai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		retry:   cfg.Retry,
		limiter: cfg.Limiter,
	}, nil
}

// Generate produces a completion for the prompt, retrying transient
// failures before surfacing a service error.
func (s *GenerationService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: s.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		req.Temperature = float32(opts.Temperature)
	}
	if len(opts.StopWords) > 0 {
		req.Stop = opts.StopWords
	}

	var answer string
	attempts, err := ratelimit.Do(ctx, s.retry, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		resp, err := s.client.CreateChatCompletion(reqCtx, req)
		if err != nil {
			return s.classifyError(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("openai: no response choices returned")
		}
		answer = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", &domain.ServiceError{Service: "generation", Attempts: attempts, Cause: err}
	}

	return answer, nil
}

// classifyError wraps API errors so the retry loop can tell transient
// failures (rate limits, server errors) from permanent ones.
func (s *GenerationService) classifyError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			s.limiter.RecordRateLimitError(0)
			logger.Debug("openai chat: rate limited, backing off")
			return ratelimit.Transient(err)
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
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

// Ping validates the API key by listing models. This is a lightweight
// check that does not run inference.
func (s *GenerationService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *GenerationService) Close() error {
	return nil
}
