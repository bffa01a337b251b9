package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the current configuration",
	Long: `Shows the configuration the commands run with: catalog location,
AI providers, retrieval and prompt settings.

API keys are read from the OPENAI_API_KEY and ANTHROPIC_API_KEY
environment variables (a .env file next to the binary works too) and
are never written to the config file.`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to the config file",
	Long: `Writes the active configuration to the config file so it can be
edited. Values absent from the file keep their defaults.`,
	RunE: runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if services == nil {
		return errNotConfigured
	}
	s := services.Settings

	cmd.Println("Current Configuration")
	cmd.Println("=====================")
	cmd.Println()

	cmd.Println("[Catalog]")
	cmd.Printf("  Path: %s\n", s.CatalogPath)
	cmd.Printf("  Skip invalid rows: %t\n", s.SkipInvalidRows)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", s.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", s.Embedding.Model)
	if s.Embedding.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", s.Embedding.BaseURL)
	}
	if s.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskAPIKey(s.Embedding.APIKey))
	}
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", s.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", s.LLM.Model)
	if s.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", s.LLM.BaseURL)
	}
	if s.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskAPIKey(s.LLM.APIKey))
	}
	cmd.Printf("  Temperature: %.2f\n", s.LLM.Temperature)
	cmd.Printf("  Max tokens: %d\n", s.LLM.MaxTokens)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", s.Retrieval.TopK)
	cmd.Printf("  Chunk size: %d chars (overlap %d)\n", s.Chunk.MaxChars, s.Chunk.OverlapChars)
	cmd.Println()

	cmd.Println("[Prompt]")
	cmd.Printf("  Language: %s\n", s.Prompt.Language)
	cmd.Printf("  Token budget: %d\n", s.Prompt.TokenBudget)
	cmd.Printf("  History turns: %d\n", s.Prompt.MaxHistoryTurns)

	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if services == nil {
		return errNotConfigured
	}

	if err := services.SettingsStore.Save(services.Settings); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	cmd.Println("Configuration written.")
	return nil
}

// maskAPIKey hides all but the last four characters of a key.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
