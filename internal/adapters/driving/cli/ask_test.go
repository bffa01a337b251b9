package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

func winterBundle() *domain.AnswerBundle {
	return &domain.AnswerBundle{
		Answer: "The CrossClimate 2 handles snowy roads well.",
		CitedSegments: []domain.TextSegment{
			{ID: "crossclimate-2#000", ProductID: "crossclimate-2", ProductName: "Michelin CrossClimate 2"},
			{ID: "crossclimate-2#001", ProductID: "crossclimate-2", ProductName: "Michelin CrossClimate 2"},
		},
	}
}

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("ask")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_PrintsAnswerWithSources(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.Assistant = &mockAssistant{bundle: winterBundle()}

	out, err := executeCommand("ask", "best tire for snowy winter roads")

	require.NoError(t, err)
	assert.Contains(t, out, "handles snowy roads well")
	assert.Contains(t, out, "Sources:")
	// Two cited segments of the same product collapse into one source line.
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("crossclimate-2")))
}

func TestAskCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.Assistant = &mockAssistant{bundle: winterBundle()}

	out, err := executeCommand("ask", "--json", "best tire for snowy winter roads")
	require.NoError(t, err)

	var got answerJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "The CrossClimate 2 handles snowy roads well.", got.Answer)
	require.Len(t, got.Citations, 2)
	assert.Equal(t, "crossclimate-2", got.Citations[0].ProductID)
}

func TestAskCmd_NoIndexSuggestsRebuild(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.Indexer = &mockIndexer{ensureErr: domain.ErrIndexNotLoaded}

	_, err := executeCommand("ask", "question")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "tread rebuild")
}

func TestAskCmd_ValidatorFailureStopsEarly(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.Validator = &mockValidator{
		generationErr: errors.New("chat provider unreachable"),
	}

	_, err := executeCommand("ask", "question")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat provider unreachable")
}

func TestAskCmd_GenerationFailureSurfaces(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.Assistant = &mockAssistant{err: &domain.ServiceError{
		Service: "generation", Attempts: 3, Cause: errors.New("upstream down"),
	}}

	_, err := executeCommand("ask", "question")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationService)
}
