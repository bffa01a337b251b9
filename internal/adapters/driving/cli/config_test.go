package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCmd_ShowsSettings(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.Settings.CatalogPath = "products.csv"
	services.Settings.Embedding.APIKey = "sk-test-1234abcd"

	out, err := executeCommand("config")

	require.NoError(t, err)
	assert.Contains(t, out, "products.csv")
	assert.Contains(t, out, "OpenAI (cloud)")
	assert.Contains(t, out, "gpt-4o-mini")
	assert.Contains(t, out, "Top K: 4")
}

func TestConfigCmd_MasksAPIKeys(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.Settings.Embedding.APIKey = "sk-test-1234abcd"
	services.Settings.LLM.APIKey = "sk-test-1234abcd"

	out, err := executeCommand("config")

	require.NoError(t, err)
	assert.NotContains(t, out, "sk-test-1234abcd")
	assert.Contains(t, out, "****abcd")
}

func TestConfigCmd_MissingKeyShown(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("config")

	require.NoError(t, err)
	assert.Contains(t, out, "(not set)")
}

func TestConfigInitCmd_SavesSettings(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	store := &mockSettingsStore{}
	services.SettingsStore = store
	services.Settings.CatalogPath = "products.csv"

	out, err := executeCommand("config", "init")

	require.NoError(t, err)
	assert.Contains(t, out, "written")
	require.NotNil(t, store.saved)
	assert.Equal(t, "products.csv", store.saved.CatalogPath)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "(not set)", maskAPIKey(""))
	assert.Equal(t, "****", maskAPIKey("abc"))
	assert.Equal(t, "****abcd", maskAPIKey("sk-test-1234abcd"))
}
