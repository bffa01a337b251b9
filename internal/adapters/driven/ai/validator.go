package ai

import (
	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding validates the embedding configuration by building
// the adapter and pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(settings domain.Settings) error {
	svc, err := CreateAndValidateEmbeddingService(settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateGeneration validates the generation configuration by building
// the adapter and pinging the provider.
func (v *ConfigValidator) ValidateGeneration(settings domain.Settings) error {
	svc, err := CreateAndValidateGenerationService(settings)
	if err != nil {
		return err
	}
	return svc.Close()
}
