package cli

import (
	"context"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driving"
	core "github.com/custodia-labs/tread-cli/internal/core/services"
)

type mockAssistant struct {
	bundle *domain.AnswerBundle
	err    error
}

var _ driving.AssistantService = (*mockAssistant)(nil)

func (m *mockAssistant) Answer(
	ctx context.Context, query string, history []domain.ConversationTurn,
) (*domain.AnswerBundle, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.bundle != nil {
		return m.bundle, nil
	}
	return &domain.AnswerBundle{Answer: "mock answer"}, nil
}

type mockIndexer struct {
	meta         domain.IndexMetadata
	rebuildErr   error
	ensureErr    error
	rebuildCalls int
}

var _ driving.IndexerService = (*mockIndexer)(nil)

func (m *mockIndexer) Rebuild(ctx context.Context) (domain.IndexMetadata, error) {
	m.rebuildCalls++
	return m.meta, m.rebuildErr
}

func (m *mockIndexer) EnsureLoaded(ctx context.Context) error {
	return m.ensureErr
}

type mockStatus struct {
	status domain.IndexStatus
}

var _ driving.StatusService = (*mockStatus)(nil)

func (m *mockStatus) Status(ctx context.Context) domain.IndexStatus {
	return m.status
}

type mockValidator struct {
	embeddingErr  error
	generationErr error
}

var _ driven.AIConfigValidator = (*mockValidator)(nil)

func (m *mockValidator) ValidateEmbedding(settings domain.Settings) error {
	return m.embeddingErr
}

func (m *mockValidator) ValidateGeneration(settings domain.Settings) error {
	return m.generationErr
}

type mockSettingsStore struct {
	saved   *domain.Settings
	saveErr error
}

var _ driven.SettingsStore = (*mockSettingsStore)(nil)

func (m *mockSettingsStore) Load() (domain.Settings, error) {
	return domain.DefaultSettings(), nil
}

func (m *mockSettingsStore) Save(settings domain.Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = &settings
	return nil
}

// setupTestServices injects mock services and returns a cleanup func.
func setupTestServices() func() {
	SetServices(&Services{
		Assistant:     &mockAssistant{},
		Indexer:       &mockIndexer{},
		Status:        &mockStatus{},
		Sessions:      core.NewSessionManager(domain.DefaultSettings().MaxSessionTurns),
		Validator:     &mockValidator{},
		SettingsStore: &mockSettingsStore{},
		Settings:      domain.DefaultSettings(),
	})
	return func() { SetServices(nil) }
}
