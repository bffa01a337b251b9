// Package cli wires the cobra commands that drive the core services.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driving"
	core "github.com/custodia-labs/tread-cli/internal/core/services"
	"github.com/custodia-labs/tread-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// verbose enables debug logging on stderr.
var verbose bool

// Services aggregates everything the commands drive. It is injected
// once from main before Execute.
type Services struct {
	// Assistant answers catalog questions.
	Assistant driving.AssistantService

	// Indexer loads and rebuilds the catalog index.
	Indexer driving.IndexerService

	// Status reports index health.
	Status driving.StatusService

	// Sessions owns bounded conversation history for chat sessions.
	Sessions *core.SessionManager

	// Validator pings AI providers before commands that need them.
	Validator driven.AIConfigValidator

	// SettingsStore persists the configuration file.
	SettingsStore driven.SettingsStore

	// Settings is the validated configuration for this run.
	Settings domain.Settings
}

// services holds the injected service aggregate.
var services *Services

// SetServices injects the core services used by all commands.
func SetServices(s *Services) {
	services = s
}

// errNotConfigured is returned when a command runs without injection.
var errNotConfigured = errors.New("services not configured")

// requireCore ensures the index and assistant services were wired.
// They are absent when the configuration could not produce an AI
// provider, for example a missing API key.
func requireCore() error {
	if services == nil {
		return errNotConfigured
	}
	if services.Indexer == nil {
		return errors.New("configuration incomplete, run 'tread config' to review it")
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "tread",
	Short: "Catalog assistant for Michelin tires",
	Long: `tread answers natural-language questions about a tire catalog.

It chunks and embeds the catalog into a local vector index, retrieves
the most relevant products for each question, and generates grounded
answers that cite the catalog entries they came from.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
