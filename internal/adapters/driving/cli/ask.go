package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question about the catalog",
	Long: `Answers a single question grounded in the catalog index and exits.
The answer cites the catalog products it was grounded on.

For a conversation with follow-up questions, use 'tread chat'.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireCore(); err != nil {
		return err
	}

	if err := services.Validator.ValidateEmbedding(services.Settings); err != nil {
		return err
	}
	if err := services.Validator.ValidateGeneration(services.Settings); err != nil {
		return err
	}

	if err := services.Indexer.EnsureLoaded(cmd.Context()); err != nil {
		if errors.Is(err, domain.ErrIndexNotLoaded) {
			return errors.New("no index found, run 'tread rebuild' first")
		}
		return fmt.Errorf("loading index: %w", err)
	}

	bundle, err := services.Assistant.Answer(cmd.Context(), args[0], nil)
	if err != nil {
		return fmt.Errorf("answering failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, bundle)
	}
	return outputAnswerText(cmd, bundle)
}

// answerJSON is the stable JSON shape of a one-shot answer.
type answerJSON struct {
	Answer    string         `json:"answer"`
	Citations []citationJSON `json:"citations"`
}

type citationJSON struct {
	SegmentID   string `json:"segment_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
}

func outputAnswerJSON(cmd *cobra.Command, bundle *domain.AnswerBundle) error {
	out := answerJSON{
		Answer:    bundle.Answer,
		Citations: make([]citationJSON, 0, len(bundle.CitedSegments)),
	}
	for _, segment := range bundle.CitedSegments {
		out.Citations = append(out.Citations, citationJSON{
			SegmentID:   segment.ID,
			ProductID:   segment.ProductID,
			ProductName: segment.ProductName,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, bundle *domain.AnswerBundle) error {
	cmd.Println(bundle.Answer)

	if len(bundle.CitedSegments) == 0 {
		return nil
	}

	cmd.Println()
	cmd.Println("Sources:")
	seen := make(map[string]bool, len(bundle.CitedSegments))
	for _, segment := range bundle.CitedSegments {
		if seen[segment.ProductID] {
			continue
		}
		seen[segment.ProductID] = true
		cmd.Printf("  - %s (%s)\n", segment.ProductName, segment.ProductID)
	}
	return nil
}
