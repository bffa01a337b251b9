package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driving"
)

// MockAssistantService returns a canned answer and records calls.
type MockAssistantService struct {
	mu        sync.Mutex
	Bundle    *domain.AnswerBundle
	Err       error
	Questions []string
	Histories [][]domain.ConversationTurn
}

var _ driving.AssistantService = (*MockAssistantService)(nil)

func (m *MockAssistantService) Answer(
	ctx context.Context, query string, history []domain.ConversationTurn,
) (*domain.AnswerBundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Questions = append(m.Questions, query)
	m.Histories = append(m.Histories, history)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bundle != nil {
		return m.Bundle, nil
	}
	return &domain.AnswerBundle{Answer: "mock answer"}, nil
}

// MockIndexerService records lifecycle calls.
type MockIndexerService struct {
	mu           sync.Mutex
	Meta         domain.IndexMetadata
	RebuildErr   error
	EnsureErr    error
	RebuildCalls int
	EnsureCalls  int
}

var _ driving.IndexerService = (*MockIndexerService)(nil)

func (m *MockIndexerService) Rebuild(ctx context.Context) (domain.IndexMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RebuildCalls++
	return m.Meta, m.RebuildErr
}

func (m *MockIndexerService) EnsureLoaded(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnsureCalls++
	return m.EnsureErr
}

// MockStatusService serves a fixed status.
type MockStatusService struct {
	IndexStatus domain.IndexStatus
}

var _ driving.StatusService = (*MockStatusService)(nil)

func (m *MockStatusService) Status(ctx context.Context) domain.IndexStatus {
	return m.IndexStatus
}
