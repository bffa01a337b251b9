// Command tread is a catalog assistant for Michelin tires. It indexes a
// product catalog into a local vector store and answers questions
// grounded in the indexed entries.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/tread-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/tread-cli/internal/adapters/driven/catalog"
	configfile "github.com/custodia-labs/tread-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tread-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/tread-cli/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/tread-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/tread-cli/internal/chunker"
	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tread-cli/internal/core/services"
	"github.com/custodia-labs/tread-cli/internal/logger"
)

func main() {
	// API keys may live in a .env file; a missing file is fine.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settingsStore, err := configfile.NewSettingsStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settings, err := settingsStore.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	wired := &cli.Services{
		Validator:     ai.NewConfigValidator(),
		SettingsStore: settingsStore,
		Settings:      settings,
	}

	// Missing API keys must not block 'tread config'; commands that
	// need a provider validate it first and report the config error.
	if err := wireCore(wired, settings); err != nil {
		if !errors.Is(err, domain.ErrInvalidConfig) {
			return err
		}
		logger.Debug("AI services not wired: %v", err)
	}

	cli.SetServices(wired)
	return cli.Execute()
}

// wireCore builds the adapters and core services behind the commands.
func wireCore(wired *cli.Services, settings domain.Settings) error {
	embedder, err := ai.CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	generator, err := ai.CreateGenerationService(settings)
	if err != nil {
		return err
	}

	source, err := catalog.NewCSVSource(catalog.Config{
		Path:        settings.CatalogPath,
		SkipInvalid: settings.SkipInvalidRows,
	})
	if err != nil {
		return err
	}

	splitter, err := chunker.New(
		chunker.WithMaxChars(settings.Chunk.MaxChars),
		chunker.WithOverlap(settings.Chunk.OverlapChars),
	)
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("opening index store: %w", err)
	}

	prompts, err := configfile.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}

	buildIndex := func(entries []domain.IndexEntry, meta domain.IndexMetadata) (driven.VectorIndex, error) {
		return vectorindex.New(entries, meta)
	}

	handle := services.NewIndexHandle()
	indexer := services.NewIndexerService(source, embedder, store, splitter, buildIndex, handle)
	retriever := services.NewRetrieverService(embedder, handle, settings.Retrieval)
	assembler := services.NewPromptAssembler(prompts, settings.Prompt)
	assistant := services.NewAssistantService(retriever, assembler, generator, settings.LLM)
	status := services.NewStatusService(handle, settings.CatalogPath)

	wired.Assistant = assistant
	wired.Indexer = indexer
	wired.Status = status
	wired.Sessions = services.NewSessionManager(settings.MaxSessionTurns)
	return nil
}
