package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index health",
	Long: `Reports whether an index is loaded, which embedding model built it,
how many segments it holds, and whether the catalog file changed since.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := requireCore(); err != nil {
		return err
	}

	err := services.Indexer.EnsureLoaded(cmd.Context())
	switch {
	case errors.Is(err, domain.ErrIndexNotLoaded):
		cmd.Println("Index: not built")
		cmd.Printf("Catalog: %s\n", services.Settings.CatalogPath)
		cmd.Println()
		cmd.Println("Run 'tread rebuild' to build the index.")
		return nil
	case err != nil:
		var mismatch *domain.IndexModelMismatchError
		if errors.As(err, &mismatch) {
			cmd.Printf("Index: built with %s, but %s is configured\n",
				mismatch.IndexModel, mismatch.ConfiguredModel)
			cmd.Println()
			cmd.Println("Run 'tread rebuild' to re-index with the configured model.")
			return nil
		}
		return fmt.Errorf("loading index: %w", err)
	}

	status := services.Status.Status(cmd.Context())

	cmd.Println("Index: loaded")
	cmd.Printf("  Model:      %s\n", status.Metadata.EmbeddingModel)
	cmd.Printf("  Dimensions: %d\n", status.Metadata.Dimensions)
	cmd.Printf("  Segments:   %d\n", status.Metadata.SegmentCount)
	cmd.Printf("  Built:      %s\n", status.Metadata.BuiltAt.Local().Format("2006-01-02 15:04:05"))
	cmd.Printf("Catalog: %s\n", services.Settings.CatalogPath)

	if status.CatalogStale {
		cmd.Println()
		cmd.Println("Warning: the catalog changed after the index was built.")
		cmd.Println("Run 'tread rebuild' to pick up the changes.")
	}
	return nil
}
