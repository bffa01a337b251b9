package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
)

// fakeEmbedder produces deterministic 3-dimensional embeddings from
// keyword counts, so similarity behaves predictably in tests: texts
// about winter conditions land near each other, away from summer texts.
type fakeEmbedder struct {
	mu         sync.Mutex
	embedCalls int
	batchCalls int
	failWith   error
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

var (
	winterWords = []string{"winter", "snow", "snowy", "all-season", "cold", "ice"}
	summerWords = []string{"summer", "sport", "dry", "track", "heat"}
)

func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	vector := []float32{0, 0, 1} // constant third axis keeps vectors non-zero
	for _, w := range winterWords {
		vector[0] += float32(strings.Count(lower, w))
	}
	for _, w := range summerWords {
		vector[1] += float32(strings.Count(lower, w))
	}
	return vector
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	failWith := f.failWith
	f.mu.Unlock()

	if failWith != nil {
		return nil, failWith
	}
	return keywordVector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchCalls++
	failWith := f.failWith
	f.mu.Unlock()

	if failWith != nil {
		return nil, failWith
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = keywordVector(text)
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }
func (f *fakeEmbedder) ModelName() string { return "fake-embed-v1" }
func (f *fakeEmbedder) Ping(ctx context.Context) error { return nil }
func (f *fakeEmbedder) Close() error { return nil }

// fakeGenerator returns a canned answer and records the prompt it saw.
type fakeGenerator struct {
	mu       sync.Mutex
	answer   string
	failWith error
	prompts  []string
}

var _ driven.GenerationService = (*fakeGenerator)(nil)

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return "", f.failWith
	}
	f.prompts = append(f.prompts, prompt)
	if f.answer == "" {
		return "canned answer", nil
	}
	return f.answer, nil
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeGenerator) ModelName() string { return "fake-chat-v1" }
func (f *fakeGenerator) Ping(ctx context.Context) error { return nil }
func (f *fakeGenerator) Close() error { return nil }

// fakeCatalogSource serves a fixed catalog.
type fakeCatalogSource struct {
	catalog  *domain.Catalog
	failWith error
}

var _ driven.CatalogSource = (*fakeCatalogSource)(nil)

func (f *fakeCatalogSource) Load(ctx context.Context) (*domain.Catalog, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.catalog, nil
}

func (f *fakeCatalogSource) Path() string { return "fake-catalog.csv" }

// fakeIndexStore keeps the persisted index in memory.
type fakeIndexStore struct {
	mu         sync.Mutex
	entries    []domain.IndexEntry
	meta       domain.IndexMetadata
	persisted  bool
	replaceErr error
	replaceCnt int
}

var _ driven.IndexStore = (*fakeIndexStore)(nil)

func (f *fakeIndexStore) Replace(ctx context.Context, entries []domain.IndexEntry, meta domain.IndexMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.replaceCnt++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.entries = append([]domain.IndexEntry(nil), entries...)
	f.meta = meta
	f.persisted = true
	return nil
}

func (f *fakeIndexStore) Load(ctx context.Context) ([]domain.IndexEntry, domain.IndexMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.persisted {
		return nil, domain.IndexMetadata{}, domain.ErrIndexNotLoaded
	}
	return append([]domain.IndexEntry(nil), f.entries...), f.meta, nil
}

func (f *fakeIndexStore) Close() error { return nil }

// fakePromptStore serves one minimal template for every language.
type fakePromptStore struct{}

var _ driven.PromptStore = (*fakePromptStore)(nil)

func (fakePromptStore) Load(name, language string) (string, error) {
	return "CONTEXT:\n%s\n\nHISTORY:\n%s\n\nQUESTION: %s", nil
}
