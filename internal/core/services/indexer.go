package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/tread-cli/internal/chunker"
	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tread-cli/internal/logger"
)

// Ensure IndexerService implements the interface.
var _ driving.IndexerService = (*IndexerService)(nil)

// IndexBuilder constructs a searchable index from entries. Injected so
// the core never depends on a concrete index implementation.
type IndexBuilder func(entries []domain.IndexEntry, meta domain.IndexMetadata) (driven.VectorIndex, error)

// IndexerService owns the index lifecycle: rebuilds from the catalog and
// loads from the persisted store. Rebuilds are serialized; the shared
// handle is only swapped after the new index is fully built and
// persisted.
type IndexerService struct {
	catalog  driven.CatalogSource
	embedder driven.EmbeddingService
	store    driven.IndexStore
	splitter *chunker.Splitter
	build    IndexBuilder
	handle   *IndexHandle
	model    string

	mu sync.Mutex // serializes Rebuild and the loading half of EnsureLoaded
}

// NewIndexerService creates a new indexer service.
func NewIndexerService(
	catalog driven.CatalogSource,
	embedder driven.EmbeddingService,
	store driven.IndexStore,
	splitter *chunker.Splitter,
	build IndexBuilder,
	handle *IndexHandle,
) *IndexerService {
	return &IndexerService{
		catalog:  catalog,
		embedder: embedder,
		store:    store,
		splitter: splitter,
		build:    build,
		handle:   handle,
		model:    embedder.ModelName(),
	}
}

// Rebuild loads the catalog, chunks and embeds every product, persists
// the new index and swaps it into the shared handle. On any failure the
// previous index, in memory and on disk, remains intact.
func (s *IndexerService) Rebuild(ctx context.Context) (domain.IndexMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Index Rebuild")
	logger.Debug("Catalog: %s", s.catalog.Path())
	defer logger.Elapsed("rebuild", time.Now())

	catalog, err := s.catalog.Load(ctx)
	if err != nil {
		return domain.IndexMetadata{}, fmt.Errorf("loading catalog: %w", err)
	}
	logger.Debug("Loaded %d products", catalog.Len())

	var segments []domain.TextSegment
	for i, product := range catalog.Products {
		segments = append(segments, s.splitter.Chunk(product, i)...)
	}
	logger.Debug("Chunked into %d segments", len(segments))

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return domain.IndexMetadata{}, fmt.Errorf("embedding segments: %w", err)
	}
	if len(vectors) != len(segments) {
		return domain.IndexMetadata{}, fmt.Errorf("embedding returned %d vectors for %d segments",
			len(vectors), len(segments))
	}

	dims := s.embedder.Dimensions()
	entries := make([]domain.IndexEntry, len(segments))
	for i := range segments {
		if len(vectors[i]) != dims {
			return domain.IndexMetadata{}, &domain.DimensionMismatchError{Want: dims, Got: len(vectors[i])}
		}
		entries[i] = domain.IndexEntry{Segment: segments[i], Vector: vectors[i]}
	}

	meta := domain.IndexMetadata{
		EmbeddingModel: s.model,
		Dimensions:     dims,
		SegmentCount:   len(entries),
		BuiltAt:        time.Now().UTC(),
	}

	index, err := s.build(entries, meta)
	if err != nil {
		return domain.IndexMetadata{}, fmt.Errorf("building index: %w", err)
	}

	if err := s.store.Replace(ctx, entries, meta); err != nil {
		return domain.IndexMetadata{}, fmt.Errorf("persisting index: %w", err)
	}

	// Swap only after the build is fully persisted.
	s.handle.Store(index)

	logger.Info("Index rebuilt: %d segments, model %s", len(entries), s.model)
	return index.Metadata(), nil
}

// EnsureLoaded loads the persisted index into the shared handle if none
// is loaded yet. Refuses to load an index built with a different
// embedding model than the configured one.
func (s *IndexerService) EnsureLoaded(ctx context.Context) error {
	if s.handle.Load() != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have loaded while we waited for the lock.
	if s.handle.Load() != nil {
		return nil
	}

	entries, meta, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	if meta.EmbeddingModel != s.model {
		return &domain.IndexModelMismatchError{
			IndexModel:      meta.EmbeddingModel,
			ConfiguredModel: s.model,
		}
	}

	index, err := s.build(entries, meta)
	if err != nil {
		return fmt.Errorf("building index from store: %w", err)
	}

	s.handle.Store(index)
	logger.Debug("Loaded persisted index: %d segments, model %s", len(entries), meta.EmbeddingModel)
	return nil
}
