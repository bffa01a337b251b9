package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
)

func newTestPromptStore(t *testing.T) (*PromptStore, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestPromptStore_LoadsDefaultsPerLanguage(t *testing.T) {
	store, _ := newTestPromptStore(t)

	tests := []struct {
		language string
		marker   string
	}{
		{"fr", "CONTEXTE:"},
		{"en", "CONTEXT:"},
		{"it", "CONTESTO:"},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			prompt, err := store.Load(driven.PromptAnswer, tt.language)
			require.NoError(t, err)
			assert.Contains(t, prompt, tt.marker)
			assert.Equal(t, 3, strings.Count(prompt, "%s"))
		})
	}
}

func TestPromptStore_UnknownLanguageFallsBackToFrench(t *testing.T) {
	store, _ := newTestPromptStore(t)

	prompt, err := store.Load(driven.PromptAnswer, "de")
	require.NoError(t, err)
	assert.Contains(t, prompt, "CONTEXTE:")
}

func TestPromptStore_FirstLoadCreatesFiles(t *testing.T) {
	store, dir := newTestPromptStore(t)

	_, err := store.Load(driven.PromptAnswer, "fr")
	require.NoError(t, err)

	for _, name := range []string{"answer_fr.txt", "answer_en.txt", "answer_it.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestPromptStore_CustomFileOverridesDefault(t *testing.T) {
	store, dir := newTestPromptStore(t)

	require.NoError(t, os.MkdirAll(dir, 0700))
	custom := "Custom template: %s %s %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer_en.txt"), []byte(custom), 0600))

	prompt, err := store.Load(driven.PromptAnswer, "en")
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_ReloadPicksUpEdits(t *testing.T) {
	store, dir := newTestPromptStore(t)

	// Prime the cache with the default file content.
	first, err := store.Load(driven.PromptAnswer, "fr")
	require.NoError(t, err)

	edited := "Edited: %s %s %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer_fr.txt"), []byte(edited), 0600))

	// Cached value survives until Reload.
	cached, err := store.Load(driven.PromptAnswer, "fr")
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()

	fresh, err := store.Load(driven.PromptAnswer, "fr")
	require.NoError(t, err)
	assert.Equal(t, edited, fresh)
}
