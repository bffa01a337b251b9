package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tread-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Launches the interactive terminal interface for a multi-turn
conversation about the catalog. Follow-up questions see the earlier
exchanges of the session.

Controls:
  enter    - Ask the typed question
  ctrl+l   - New conversation
  ctrl+o   - Toggle citations
  ctrl+r   - Rebuild the index
  ctrl+c   - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := requireCore(); err != nil {
		return err
	}

	// Panic recovery so terminal state and a stack trace survive crashes.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := services.Validator.ValidateEmbedding(services.Settings); err != nil {
		return err
	}
	if err := services.Validator.ValidateGeneration(services.Settings); err != nil {
		return err
	}

	// A missing index is fine here, the TUI offers rebuild via ctrl+r.
	if err := services.Indexer.EnsureLoaded(cmd.Context()); err != nil &&
		!errors.Is(err, domain.ErrIndexNotLoaded) {
		return fmt.Errorf("loading index: %w", err)
	}

	app, err := tui.NewApp(tui.NewPorts(services.Assistant, services.Indexer, services.Status, services.Sessions))
	if err != nil {
		return fmt.Errorf("failed to create chat interface: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("chat interface error: %w", err)
	}
	return nil
}
