package driven

import "github.com/custodia-labs/tread-cli/internal/core/domain"

// SettingsStore loads and persists the application configuration.
// Loading merges the persisted file over built-in defaults; the result
// is validated once by the caller and treated as immutable afterwards.
type SettingsStore interface {
	// Load reads the persisted configuration merged over defaults.
	Load() (domain.Settings, error)

	// Save persists the given configuration.
	Save(settings domain.Settings) error
}
