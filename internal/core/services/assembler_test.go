package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

func segmentResult(productID, productName, text string, score float64) domain.ScoredSegment {
	return domain.ScoredSegment{
		Segment: domain.TextSegment{
			ID:          productID + "#000",
			ProductID:   productID,
			ProductName: productName,
			Text:        text,
		},
		Score: score,
	}
}

func testRetrieval() domain.RetrievalResult {
	return domain.RetrievalResult{
		segmentResult("crossclimate-2", "Michelin CrossClimate 2", "All-season tire with snow grip", 0.92),
		segmentResult("pilot-sport-5", "Michelin Pilot Sport 5", "Summer sport tire", 0.55),
	}
}

func newAssembler(budget, maxHistory int) *PromptAssembler {
	return NewPromptAssembler(fakePromptStore{}, domain.PromptSettings{
		TokenBudget:     budget,
		MaxHistoryTurns: maxHistory,
		Language:        "fr",
	})
}

func TestAssemble_TagsSegmentsWithProvenance(t *testing.T) {
	assembler := newAssembler(2048, 6)

	prompt, cited, err := assembler.Assemble("quel pneu pour l'hiver ?", testRetrieval(), nil)
	require.NoError(t, err)

	assert.Contains(t, prompt, "[produit: Michelin CrossClimate 2 | id: crossclimate-2]")
	assert.Contains(t, prompt, "[produit: Michelin Pilot Sport 5 | id: pilot-sport-5]")
	assert.Contains(t, prompt, "All-season tire with snow grip")
	assert.Contains(t, prompt, "QUESTION: quel pneu pour l'hiver ?")

	require.Len(t, cited, 2)
	assert.Equal(t, "crossclimate-2", cited[0].ProductID)
	assert.Equal(t, "pilot-sport-5", cited[1].ProductID)
}

func TestAssemble_QuestionAlwaysPresent(t *testing.T) {
	// Budget too small for any context or history; the question still
	// makes it into the prompt.
	assembler := newAssembler(1, 6)

	history := []domain.ConversationTurn{
		{Role: domain.RoleUser, Text: "bonjour"},
	}

	prompt, cited, err := assembler.Assemble("quel pneu pour l'hiver ?", testRetrieval(), history)
	require.NoError(t, err)

	assert.Contains(t, prompt, "QUESTION: quel pneu pour l'hiver ?")
	assert.Empty(t, cited)
	assert.NotContains(t, prompt, "CrossClimate")
	assert.NotContains(t, prompt, "bonjour")
}

func TestAssemble_BudgetStopsPackingInScoreOrder(t *testing.T) {
	// Room for roughly one tagged segment: the higher-scoring one wins.
	template, _ := fakePromptStore{}.Load("answer", "fr")
	budget := estimateTokens(template) + estimateTokens("q") +
		estimateTokens("[produit: Michelin CrossClimate 2 | id: crossclimate-2]\nAll-season tire with snow grip") + 2

	assembler := newAssembler(budget, 6)

	prompt, cited, err := assembler.Assemble("q", testRetrieval(), nil)
	require.NoError(t, err)

	require.Len(t, cited, 1)
	assert.Equal(t, "crossclimate-2", cited[0].ProductID)
	assert.NotContains(t, prompt, "Pilot Sport")
}

func TestAssemble_ContextTakesPriorityOverHistory(t *testing.T) {
	// Same tight budget as above: context fits, history is trimmed out.
	template, _ := fakePromptStore{}.Load("answer", "fr")
	budget := estimateTokens(template) + estimateTokens("q") +
		estimateTokens("[produit: Michelin CrossClimate 2 | id: crossclimate-2]\nAll-season tire with snow grip") + 2

	assembler := newAssembler(budget, 6)
	history := []domain.ConversationTurn{
		{Role: domain.RoleUser, Text: "je cherche des pneus pour ma clio"},
	}

	prompt, cited, err := assembler.Assemble("q", testRetrieval(), history)
	require.NoError(t, err)

	require.Len(t, cited, 1)
	assert.NotContains(t, prompt, "clio")
}

func TestAssemble_HistoryMostRecentFirstAndCapped(t *testing.T) {
	assembler := newAssembler(4096, 2)

	history := []domain.ConversationTurn{
		{Role: domain.RoleUser, Text: "first question"},
		{Role: domain.RoleAssistant, Text: "first answer"},
		{Role: domain.RoleUser, Text: "second question"},
	}

	prompt, _, err := assembler.Assemble("q", nil, history)
	require.NoError(t, err)

	assert.NotContains(t, prompt, "first question")
	assert.Contains(t, prompt, "Utilisateur: second question")
	assert.Contains(t, prompt, "Assistant: first answer")

	// Most recent turn comes first in the history block.
	assert.Less(t,
		strings.Index(prompt, "second question"),
		strings.Index(prompt, "first answer"))
}

func TestAssemble_EmptyRetrievalAndHistoryUsePlaceholders(t *testing.T) {
	assembler := newAssembler(2048, 6)

	prompt, cited, err := assembler.Assemble("q", nil, nil)
	require.NoError(t, err)

	assert.Empty(t, cited)
	assert.Contains(t, prompt, "CONTEXT:\n-")
	assert.Contains(t, prompt, "HISTORY:\n-")
}
