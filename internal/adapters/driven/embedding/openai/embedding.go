// Package openai provides an embedding service adapter backed by the
// OpenAI embeddings API.
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

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel     = "text-embedding-3-small"
	DefaultTimeout   = 60 * time.Second
	DefaultBatchSize = 64
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL. Empty uses the OpenAI default.
	// Can be set for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// BatchSize caps how many texts go into a single API call (default: 64).
	BatchSize int

	// Retry controls transient-failure retries.
	Retry ratelimit.Policy

	// Limiter throttles outbound requests. Nil uses the default limiter.
	Limiter *ratelimit.Limiter
}

// EmbeddingService generates embeddings using the OpenAI API.
type EmbeddingService struct {
	client     *goopenai.Client
	model      string
	dimensions int
	timeout    time.Duration
	batchSize  int
	retry      ratelimit.Policy
	limiter    *ratelimit.Limiter
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = ratelimit.DefaultPolicy
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig)
	}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		dimensions = 1536
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &EmbeddingService{
		client:     goopenai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: dimensions,
		timeout:    cfg.Timeout,
		batchSize:  cfg.BatchSize,
		retry:      cfg.Retry,
		limiter:    cfg.Limiter,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("openai: no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts. The call is
// all-or-nothing: a failed sub-batch fails the whole call and no
// partial result is returned.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))

		batch, err := s.embedBatchOnce(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}

	return embeddings, nil
}

// embedBatchOnce sends a single API request for one sub-batch, with
// rate limiting and transient-failure retries.
func (s *EmbeddingService) embedBatchOnce(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32

	attempts, err := ratelimit.Do(ctx, s.retry, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		resp, err := s.client.CreateEmbeddings(reqCtx, goopenai.EmbeddingRequest{
			Input: texts,
			Model: goopenai.EmbeddingModel(s.model),
		})
		if err != nil {
			return s.classifyError(err)
		}

		if len(resp.Data) != len(texts) {
			return fmt.Errorf("openai: got %d embeddings for %d inputs", len(resp.Data), len(texts))
		}

		// The API may return data out of order; reassemble by index.
		ordered := make([][]float32, len(texts))
		for _, data := range resp.Data {
			if data.Index < 0 || data.Index >= len(texts) {
				return fmt.Errorf("openai: embedding index %d out of range", data.Index)
			}
			vector := make([]float32, len(data.Embedding))
			copy(vector, data.Embedding)
			ordered[data.Index] = vector
		}
		result = ordered
		return nil
	})
	if err != nil {
		return nil, &domain.ServiceError{Service: "embedding", Attempts: attempts, Cause: err}
	}

	return result, nil
}

// classifyError wraps API errors so the retry loop can tell transient
// failures (rate limits, server errors) from permanent ones.
func (s *EmbeddingService) classifyError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			s.limiter.RecordRateLimitError(0)
			logger.Debug("openai embeddings: rate limited, backing off")
			return ratelimit.Transient(err)
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return ratelimit.Transient(err)
		}
		return err
	}
	// Network-level failures (timeouts, resets) surface as net errors
	// and are already recognized by the retry loop.
	return err
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models. This is a lightweight
// check that does not run inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
