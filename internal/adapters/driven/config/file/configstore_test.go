package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

func newTestStore(t *testing.T) (*SettingsStore, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := NewSettingsStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestSettingsStore_LoadWithoutFile(t *testing.T) {
	store, _ := newTestStore(t)

	settings, err := store.Load()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Embedding.Model, settings.Embedding.Model)
	assert.Equal(t, defaults.Retrieval.TopK, settings.Retrieval.TopK)
	assert.Equal(t, defaults.Retry.InitialBackoff, settings.Retry.InitialBackoff)
	assert.Equal(t, defaults.Prompt.Language, settings.Prompt.Language)
}

func TestSettingsStore_PartialFileMergesOverDefaults(t *testing.T) {
	store, dir := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[llm]
provider = "anthropic"
model = "claude-3-5-haiku-latest"

[retrieval]
top_k = 7

[retry]
initial_backoff = "250ms"
`), 0600))

	settings, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", settings.LLM.Model)
	assert.Equal(t, 7, settings.Retrieval.TopK)
	assert.Equal(t, 250*time.Millisecond, settings.Retry.InitialBackoff)

	// Untouched sections keep defaults.
	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Embedding.Model, settings.Embedding.Model)
	assert.Equal(t, defaults.Chunk.MaxChars, settings.Chunk.MaxChars)
}

func TestSettingsStore_AppliesEnvKeys(t *testing.T) {
	store, _ := newTestStore(t)

	t.Setenv(EnvOpenAIKey, "sk-test-openai")
	t.Setenv(EnvAnthropicKey, "sk-test-anthropic")

	settings, err := store.Load()
	require.NoError(t, err)

	// Defaults use openai for both services.
	assert.Equal(t, "sk-test-openai", settings.Embedding.APIKey)
	assert.Equal(t, "sk-test-openai", settings.LLM.APIKey)
}

func TestSettingsStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	settings := domain.DefaultSettings()
	settings.CatalogPath = "/data/tires.csv"
	settings.SkipInvalidRows = true
	settings.LLM.Temperature = 0.7
	settings.Prompt.Language = "it"
	settings.Retry.Timeout = 30 * time.Second

	require.NoError(t, store.Save(settings))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/tires.csv", loaded.CatalogPath)
	assert.True(t, loaded.SkipInvalidRows)
	assert.Equal(t, 0.7, loaded.LLM.Temperature)
	assert.Equal(t, "it", loaded.Prompt.Language)
	assert.Equal(t, 30*time.Second, loaded.Retry.Timeout)
}

func TestSettingsStore_SaveOmitsAPIKeys(t *testing.T) {
	store, _ := newTestStore(t)

	settings := domain.DefaultSettings()
	settings.Embedding.APIKey = "sk-secret"
	settings.LLM.APIKey = "sk-secret"
	require.NoError(t, store.Save(settings))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret")
}

func TestSettingsStore_InvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed toml",
			content: "[llm\nprovider=",
		},
		{
			name:    "bad duration",
			content: "[retry]\ninitial_backoff = \"soon\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, dir := newTestStore(t)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(tt.content), 0600))

			_, err := store.Load()
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}
