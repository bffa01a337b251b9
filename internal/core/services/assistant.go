package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tread-cli/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.AssistantService = (*AssistantService)(nil)

// AssistantService orchestrates the query path: retrieve, assemble,
// generate. Each call is independent, so concurrent sessions can answer
// in parallel.
type AssistantService struct {
	retriever *RetrieverService
	assembler *PromptAssembler
	generator driven.GenerationService
	llm       domain.LLMSettings
}

// NewAssistantService creates a new assistant service.
func NewAssistantService(
	retriever *RetrieverService,
	assembler *PromptAssembler,
	generator driven.GenerationService,
	llm domain.LLMSettings,
) *AssistantService {
	return &AssistantService{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		llm:       llm,
	}
}

// Answer retrieves relevant segments for the query, assembles a
// grounded prompt with the session history, and generates an answer.
// CitedSegments holds exactly the segments that went into the prompt,
// in prompt order.
func (s *AssistantService) Answer(
	ctx context.Context, query string, history []domain.ConversationTurn,
) (*domain.AnswerBundle, error) {
	retrieval, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	prompt, cited, err := s.assembler.Assemble(query, retrieval, history)
	if err != nil {
		return nil, err
	}

	answer, err := s.generator.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.llm.MaxTokens,
		Temperature: s.llm.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	logger.Debug("Answered with %d cited segments", len(cited))
	return &domain.AnswerBundle{
		Answer:        answer,
		CitedSegments: cited,
	}, nil
}
