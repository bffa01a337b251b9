package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// Environment variables consulted for provider credentials. Keys are
// deliberately kept out of the config file.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

// SettingsStore is a TOML-backed implementation of driven.SettingsStore.
// Absent file keys keep their default values, so a partial config file
// is valid.
type SettingsStore struct {
	mu       sync.Mutex
	filePath string
}

// fileConfig mirrors domain.Settings in TOML-friendly form. Durations
// are strings ("500ms", "1m") parsed with time.ParseDuration.
type fileConfig struct {
	Catalog struct {
		Path        string `toml:"path"`
		SkipInvalid bool   `toml:"skip_invalid_rows"`
	} `toml:"catalog"`

	DataDir string `toml:"data_dir"`

	Embedding struct {
		Provider  string `toml:"provider"`
		Model     string `toml:"model"`
		BaseURL   string `toml:"base_url"`
		BatchSize int    `toml:"batch_size"`
	} `toml:"embedding"`

	LLM struct {
		Provider    string  `toml:"provider"`
		Model       string  `toml:"model"`
		BaseURL     string  `toml:"base_url"`
		Temperature float64 `toml:"temperature"`
		MaxTokens   int     `toml:"max_tokens"`
	} `toml:"llm"`

	Chunk struct {
		MaxChars     int `toml:"max_chars"`
		OverlapChars int `toml:"overlap_chars"`
	} `toml:"chunk"`

	Retrieval struct {
		TopK            int `toml:"top_k"`
		OverfetchFactor int `toml:"overfetch_factor"`
	} `toml:"retrieval"`

	Prompt struct {
		TokenBudget     int    `toml:"token_budget"`
		MaxHistoryTurns int    `toml:"max_history_turns"`
		Language        string `toml:"language"`
	} `toml:"prompt"`

	Retry struct {
		MaxAttempts       int     `toml:"max_attempts"`
		InitialBackoff    string  `toml:"initial_backoff"`
		Timeout           string  `toml:"timeout"`
		RequestsPerSecond float64 `toml:"requests_per_second"`
		Burst             int     `toml:"burst"`
	} `toml:"retry"`

	Session struct {
		MaxTurns int `toml:"max_turns"`
	} `toml:"session"`
}

// NewSettingsStore creates a TOML settings store. If configDir is empty,
// defaults to ~/.tread.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".tread")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &SettingsStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// Load reads the persisted configuration merged over defaults. A missing
// file yields plain defaults. API keys are taken from the environment.
func (s *SettingsStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := toFileConfig(domain.DefaultSettings())

	data, err := os.ReadFile(s.filePath)
	if err != nil && !os.IsNotExist(err) {
		return domain.Settings{}, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return domain.Settings{}, fmt.Errorf("%w: parsing %s: %w", domain.ErrInvalidConfig, s.filePath, err)
		}
	}

	settings, err := fromFileConfig(cfg)
	if err != nil {
		return domain.Settings{}, err
	}

	applyEnvKeys(&settings)
	return settings, nil
}

// Save persists the given configuration. API keys are not written.
func (s *SettingsStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(toFileConfig(settings))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return os.WriteFile(s.filePath, data, 0600)
}

// applyEnvKeys fills API keys from the environment for providers that
// need one.
func applyEnvKeys(settings *domain.Settings) {
	keyFor := func(provider domain.AIProvider) string {
		switch provider {
		case domain.AIProviderOpenAI:
			return os.Getenv(EnvOpenAIKey)
		case domain.AIProviderAnthropic:
			return os.Getenv(EnvAnthropicKey)
		default:
			return ""
		}
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = keyFor(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = keyFor(settings.LLM.Provider)
	}
}

func toFileConfig(settings domain.Settings) fileConfig {
	var cfg fileConfig

	cfg.Catalog.Path = settings.CatalogPath
	cfg.Catalog.SkipInvalid = settings.SkipInvalidRows
	cfg.DataDir = settings.DataDir

	cfg.Embedding.Provider = settings.Embedding.Provider.String()
	cfg.Embedding.Model = settings.Embedding.Model
	cfg.Embedding.BaseURL = settings.Embedding.BaseURL
	cfg.Embedding.BatchSize = settings.Embedding.BatchSize

	cfg.LLM.Provider = settings.LLM.Provider.String()
	cfg.LLM.Model = settings.LLM.Model
	cfg.LLM.BaseURL = settings.LLM.BaseURL
	cfg.LLM.Temperature = settings.LLM.Temperature
	cfg.LLM.MaxTokens = settings.LLM.MaxTokens

	cfg.Chunk.MaxChars = settings.Chunk.MaxChars
	cfg.Chunk.OverlapChars = settings.Chunk.OverlapChars

	cfg.Retrieval.TopK = settings.Retrieval.TopK
	cfg.Retrieval.OverfetchFactor = settings.Retrieval.OverfetchFactor

	cfg.Prompt.TokenBudget = settings.Prompt.TokenBudget
	cfg.Prompt.MaxHistoryTurns = settings.Prompt.MaxHistoryTurns
	cfg.Prompt.Language = settings.Prompt.Language

	cfg.Retry.MaxAttempts = settings.Retry.MaxAttempts
	cfg.Retry.InitialBackoff = settings.Retry.InitialBackoff.String()
	cfg.Retry.Timeout = settings.Retry.Timeout.String()
	cfg.Retry.RequestsPerSecond = settings.Retry.RequestsPerSecond
	cfg.Retry.Burst = settings.Retry.Burst

	cfg.Session.MaxTurns = settings.MaxSessionTurns

	return cfg
}

func fromFileConfig(cfg fileConfig) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	settings.CatalogPath = cfg.Catalog.Path
	settings.SkipInvalidRows = cfg.Catalog.SkipInvalid
	settings.DataDir = cfg.DataDir

	settings.Embedding.Provider = domain.AIProvider(cfg.Embedding.Provider)
	settings.Embedding.Model = cfg.Embedding.Model
	settings.Embedding.BaseURL = cfg.Embedding.BaseURL
	settings.Embedding.BatchSize = cfg.Embedding.BatchSize

	settings.LLM.Provider = domain.AIProvider(cfg.LLM.Provider)
	settings.LLM.Model = cfg.LLM.Model
	settings.LLM.BaseURL = cfg.LLM.BaseURL
	settings.LLM.Temperature = cfg.LLM.Temperature
	settings.LLM.MaxTokens = cfg.LLM.MaxTokens

	settings.Chunk.MaxChars = cfg.Chunk.MaxChars
	settings.Chunk.OverlapChars = cfg.Chunk.OverlapChars

	settings.Retrieval.TopK = cfg.Retrieval.TopK
	settings.Retrieval.OverfetchFactor = cfg.Retrieval.OverfetchFactor

	settings.Prompt.TokenBudget = cfg.Prompt.TokenBudget
	settings.Prompt.MaxHistoryTurns = cfg.Prompt.MaxHistoryTurns
	settings.Prompt.Language = cfg.Prompt.Language

	settings.Retry.MaxAttempts = cfg.Retry.MaxAttempts
	settings.Retry.RequestsPerSecond = cfg.Retry.RequestsPerSecond
	settings.Retry.Burst = cfg.Retry.Burst

	var err error
	if settings.Retry.InitialBackoff, err = parseDuration(cfg.Retry.InitialBackoff); err != nil {
		return domain.Settings{}, fmt.Errorf("%w: retry.initial_backoff: %w", domain.ErrInvalidConfig, err)
	}
	if settings.Retry.Timeout, err = parseDuration(cfg.Retry.Timeout); err != nil {
		return domain.Settings{}, fmt.Errorf("%w: retry.timeout: %w", domain.ErrInvalidConfig, err)
	}

	settings.MaxSessionTurns = cfg.Session.MaxTurns

	return settings, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	return time.ParseDuration(value)
}
