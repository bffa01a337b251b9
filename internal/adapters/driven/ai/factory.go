// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/tread-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/tread-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/tread-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/tread-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/tread-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/tread-cli/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services bundles the provider adapters built from one Settings value.
type Services struct {
	Embedding  driven.EmbeddingService
	Generation driven.GenerationService
}

// Close releases all resources held by Services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.Generation != nil {
		s.Generation.Close()
	}
}

// CreateServices builds both provider adapters and validates connectivity.
// A missing API key or an unreachable provider is fatal.
func CreateServices(settings domain.Settings) (*Services, error) {
	embedding, err := CreateAndValidateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	generation, err := CreateAndValidateGenerationService(settings)
	if err != nil {
		embedding.Close()
		return nil, err
	}

	return &Services{Embedding: embedding, Generation: generation}, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and
// validates connectivity. Returns the service if successful, or an error
// with guidance.
func CreateAndValidateEmbeddingService(settings domain.Settings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("embedding provider %s unreachable: %w. Run 'tread config' to fix",
			settings.Embedding.Provider, err)
	}

	return svc, nil
}

// CreateAndValidateGenerationService creates a generation service and
// validates connectivity. Returns the service if successful, or an error
// with guidance.
func CreateAndValidateGenerationService(settings domain.Settings) (driven.GenerationService, error) {
	svc, err := CreateGenerationService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("generation provider %s unreachable: %w. Run 'tread config' to fix",
			settings.LLM.Provider, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based
// on settings.
func CreateEmbeddingService(settings domain.Settings) (driven.EmbeddingService, error) {
	cfg := settings.Embedding

	if cfg.Provider.RequiresAPIKey() && cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: embedding provider %s requires an API key",
			domain.ErrInvalidConfig, cfg.Provider)
	}

	switch cfg.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: settings.Retry.Timeout,
			Retry:   retryPolicy(settings),
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Timeout:   settings.Retry.Timeout,
			BatchSize: cfg.BatchSize,
			Retry:     retryPolicy(settings),
			Limiter:   newLimiter(settings),
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai",
			domain.ErrInvalidConfig)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s",
			domain.ErrInvalidConfig, cfg.Provider)
	}
}

// CreateGenerationService creates the appropriate generation service
// based on settings.
func CreateGenerationService(settings domain.Settings) (driven.GenerationService, error) {
	cfg := settings.LLM

	if cfg.Provider.RequiresAPIKey() && cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: generation provider %s requires an API key",
			domain.ErrInvalidConfig, cfg.Provider)
	}

	switch cfg.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewGenerationService(ollamallm.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: settings.Retry.Timeout,
			Retry:   retryPolicy(settings),
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewGenerationService(openaillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: settings.Retry.Timeout,
			Retry:   retryPolicy(settings),
			Limiter: newLimiter(settings),
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewGenerationService(anthropicllm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: settings.Retry.Timeout,
			Retry:   retryPolicy(settings),
			Limiter: newLimiter(settings),
		})

	default:
		return nil, fmt.Errorf("%w: unsupported generation provider: %s",
			domain.ErrInvalidConfig, cfg.Provider)
	}
}

func retryPolicy(settings domain.Settings) ratelimit.Policy {
	return ratelimit.Policy{
		MaxAttempts:    settings.Retry.MaxAttempts,
		InitialBackoff: settings.Retry.InitialBackoff,
	}
}

func newLimiter(settings domain.Settings) *ratelimit.Limiter {
	return ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerSecond: settings.Retry.RequestsPerSecond,
		BurstSize:         settings.Retry.Burst,
	})
}
