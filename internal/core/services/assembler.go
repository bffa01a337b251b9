package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tread-cli/internal/logger"
)

// charsPerToken is the rough estimate used for prompt budgeting. The
// budget guards against oversized prompts, it does not need tokenizer
// precision.
const charsPerToken = 4

// PromptAssembler merges retrieved segments and conversation history
// into a single grounded prompt under a token budget. Context segments
// take priority over history; the user's question is always present.
type PromptAssembler struct {
	prompts driven.PromptStore
	cfg     domain.PromptSettings
}

// NewPromptAssembler creates a new prompt assembler.
func NewPromptAssembler(prompts driven.PromptStore, cfg domain.PromptSettings) *PromptAssembler {
	return &PromptAssembler{
		prompts: prompts,
		cfg:     cfg,
	}
}

// Assemble renders the answer template with packed context, trimmed
// history and the question. It returns the prompt and the segments that
// were actually included, in prompt order, for citation.
func (a *PromptAssembler) Assemble(
	query string,
	retrieval domain.RetrievalResult,
	history []domain.ConversationTurn,
) (string, []domain.TextSegment, error) {
	template, err := a.prompts.Load(driven.PromptAnswer, a.cfg.Language)
	if err != nil {
		return "", nil, fmt.Errorf("loading answer template: %w", err)
	}

	// The question and template overhead are spent first; context and
	// history share what remains, context first.
	budget := a.cfg.TokenBudget - estimateTokens(template) - estimateTokens(query)

	contextBlock, included, budget := a.packContext(retrieval, budget)
	historyBlock, budget := a.packHistory(history, budget)

	prompt := fmt.Sprintf(template, contextBlock, historyBlock, query)

	logger.Debug("Assembled prompt: %d segments, ~%d tokens budget left",
		len(included), budget)
	return prompt, included, nil
}

// packContext adds segments in descending score order until the budget
// would be exceeded. Each segment is tagged with its product id and
// name so answers can cite provenance.
func (a *PromptAssembler) packContext(
	retrieval domain.RetrievalResult, budget int,
) (string, []domain.TextSegment, int) {
	var blocks []string
	var included []domain.TextSegment

	for _, scored := range retrieval {
		block := fmt.Sprintf("[produit: %s | id: %s]\n%s",
			scored.Segment.ProductName, scored.Segment.ProductID, scored.Segment.Text)

		cost := estimateTokens(block)
		if cost > budget {
			break
		}
		budget -= cost
		blocks = append(blocks, block)
		included = append(included, scored.Segment)
	}

	if len(blocks) == 0 {
		return "-", nil, budget
	}
	return strings.Join(blocks, "\n\n"), included, budget
}

// packHistory adds turns most-recent-first up to the configured maximum,
// stopping once the remaining budget is spent. History is trimmed
// before context, so it only sees what context left over.
func (a *PromptAssembler) packHistory(
	history []domain.ConversationTurn, budget int,
) (string, int) {
	var lines []string

	for i := len(history) - 1; i >= 0 && len(lines) < a.cfg.MaxHistoryTurns; i-- {
		turn := history[i]
		line := fmt.Sprintf("%s: %s", roleLabel(turn.Role), turn.Text)

		cost := estimateTokens(line)
		if cost > budget {
			break
		}
		budget -= cost
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return "-", budget
	}
	return strings.Join(lines, "\n"), budget
}

func roleLabel(role domain.Role) string {
	if role == domain.RoleAssistant {
		return "Assistant"
	}
	return "Utilisateur"
}

// estimateTokens approximates the token count of a text.
func estimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + charsPerToken - 1) / charsPerToken
}
