package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API (generation only).
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// BatchSize bounds how many texts are sent per request.
	BatchSize int
}

// LLMSettings configures the generation provider.
type LLMSettings struct {
	Provider    AIProvider
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// ChunkSettings configures text segmentation.
type ChunkSettings struct {
	// MaxChars is the maximum segment length in characters.
	MaxChars int

	// OverlapChars is the overlap between consecutive segments.
	// Must be strictly less than MaxChars.
	OverlapChars int
}

// RetrievalSettings configures top-K retrieval.
type RetrievalSettings struct {
	// TopK is the number of distinct products to return per query.
	TopK int

	// OverfetchFactor multiplies TopK when searching the index so
	// per-product deduplication still yields K distinct products.
	OverfetchFactor int
}

// PromptSettings configures prompt assembly.
type PromptSettings struct {
	// TokenBudget is the estimated token allowance for retrieved context.
	TokenBudget int

	// MaxHistoryTurns bounds the conversation turns appended to a prompt.
	MaxHistoryTurns int

	// Language selects the answer prompt template (fr, en, it).
	Language string
}

// RetrySettings configures external call retry and throttling behaviour.
type RetrySettings struct {
	// MaxAttempts bounds retries per external call (first try included).
	MaxAttempts int

	// InitialBackoff is the first retry delay; it doubles per attempt.
	InitialBackoff time.Duration

	// Timeout is the per-request wall-clock timeout.
	Timeout time.Duration

	// RequestsPerSecond and Burst feed the client-side token bucket.
	RequestsPerSecond float64
	Burst             int
}

// Settings is the immutable application configuration, validated once at
// startup and threaded through constructors.
type Settings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunk     ChunkSettings
	Retrieval RetrievalSettings
	Prompt    PromptSettings
	Retry     RetrySettings

	// CatalogPath locates the delimited catalog file.
	CatalogPath string

	// DataDir holds the persisted index. Defaults to ~/.tread/data.
	DataDir string

	// SkipInvalidRows makes the catalog loader drop bad rows instead of
	// aborting the whole load.
	SkipInvalidRows bool

	// MaxSessionTurns bounds retained conversation history per session.
	MaxSessionTurns int
}

// DefaultSettings returns the baseline configuration. API keys and the
// catalog path still come from the environment or the config file.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOpenAI,
			Model:     "text-embedding-3-small",
			BatchSize: 64,
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   512,
		},
		Chunk: ChunkSettings{
			MaxChars:     1000,
			OverlapChars: 200,
		},
		Retrieval: RetrievalSettings{
			TopK:            4,
			OverfetchFactor: 3,
		},
		Prompt: PromptSettings{
			TokenBudget:     2048,
			MaxHistoryTurns: 6,
			Language:        "fr",
		},
		Retry: RetrySettings{
			MaxAttempts:       4,
			InitialBackoff:    500 * time.Millisecond,
			Timeout:           60 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		CatalogPath:     "catalog.csv",
		SkipInvalidRows: false,
		MaxSessionTurns: 50,
	}
}

// supportedLanguages are the answer prompt languages shipped with the app.
var supportedLanguages = map[string]bool{"fr": true, "en": true, "it": true}

// Validate checks the settings once at startup. All failures wrap
// ErrInvalidConfig; nothing downstream revalidates.
func (s *Settings) Validate() error {
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, s.Embedding.Provider)
	}
	if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		return fmt.Errorf("%w: embedding provider %s requires an API key", ErrInvalidConfig, s.Embedding.Provider)
	}
	if s.Embedding.Model == "" {
		return fmt.Errorf("%w: embedding model is required", ErrInvalidConfig)
	}
	if s.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding batch size must be positive", ErrInvalidConfig)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown chat provider %q", ErrInvalidConfig, s.LLM.Provider)
	}
	if s.LLM.Provider.RequiresAPIKey() && s.LLM.APIKey == "" {
		return fmt.Errorf("%w: chat provider %s requires an API key", ErrInvalidConfig, s.LLM.Provider)
	}
	if s.LLM.Model == "" {
		return fmt.Errorf("%w: chat model is required", ErrInvalidConfig)
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 2 {
		return fmt.Errorf("%w: temperature %v out of range [0, 2]", ErrInvalidConfig, s.LLM.Temperature)
	}
	if s.Chunk.MaxChars <= 0 {
		return fmt.Errorf("%w: chunk max chars must be positive", ErrInvalidConfig)
	}
	if s.Chunk.OverlapChars < 0 || s.Chunk.OverlapChars >= s.Chunk.MaxChars {
		return fmt.Errorf("%w: chunk overlap %d must be in [0, max chars)", ErrInvalidConfig, s.Chunk.OverlapChars)
	}
	if s.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidConfig)
	}
	if s.Retrieval.OverfetchFactor <= 0 {
		return fmt.Errorf("%w: overfetch factor must be positive", ErrInvalidConfig)
	}
	if s.Prompt.TokenBudget <= 0 {
		return fmt.Errorf("%w: token budget must be positive", ErrInvalidConfig)
	}
	if s.Prompt.MaxHistoryTurns < 0 {
		return fmt.Errorf("%w: max history turns must be non-negative", ErrInvalidConfig)
	}
	if !supportedLanguages[s.Prompt.Language] {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalidConfig, s.Prompt.Language)
	}
	if s.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("%w: retry attempts must be positive", ErrInvalidConfig)
	}
	if s.Retry.Timeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	}
	if s.CatalogPath == "" {
		return fmt.Errorf("%w: catalog path is required", ErrInvalidConfig)
	}
	if s.MaxSessionTurns <= 0 {
		return fmt.Errorf("%w: max session turns must be positive", ErrInvalidConfig)
	}
	return nil
}
