package driven

import "context"

// GenerationService produces answer text from an assembled prompt.
//
// Implementations may include:
//   - OpenAI (gpt-4o-mini, gpt-4o)
//   - Anthropic (Claude)
//   - Ollama (local models)
type GenerationService interface {
	// Generate produces a completion for the prompt. Transient failures
	// (timeouts, rate limits) are retried with bounded exponential
	// backoff before surfacing a service error.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the chat model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
