package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the catalog index",
	Long: `Loads the catalog file, splits every product into text segments,
embeds them and replaces the persisted index atomically. The previous
index keeps serving answers until the new one is fully built.`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	if err := requireCore(); err != nil {
		return err
	}

	if err := services.Validator.ValidateEmbedding(services.Settings); err != nil {
		return err
	}

	cmd.Printf("Rebuilding index from %s...\n", services.Settings.CatalogPath)

	meta, err := services.Indexer.Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("Indexed %d segments (%s, %d dimensions)\n",
		meta.SegmentCount, meta.EmbeddingModel, meta.Dimensions)
	return nil
}
