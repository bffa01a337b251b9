package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

func TestConfigValidator_RejectsBeforePinging(t *testing.T) {
	v := NewConfigValidator()

	t.Run("embedding without key", func(t *testing.T) {
		err := v.ValidateEmbedding(embeddingSettings(domain.AIProviderOpenAI, ""))
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("generation with unknown provider", func(t *testing.T) {
		err := v.ValidateGeneration(llmSettings("mystery", "test-key"))
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}
