package driven

import "github.com/custodia-labs/tread-cli/internal/core/domain"

// AIConfigValidator checks that provider settings are usable before
// committing to a rebuild or a chat session.
type AIConfigValidator interface {
	// ValidateEmbedding validates the embedding configuration, typically
	// by constructing the adapter and pinging the provider.
	ValidateEmbedding(settings domain.Settings) error

	// ValidateGeneration validates the generation configuration.
	ValidateGeneration(settings domain.Settings) error
}
