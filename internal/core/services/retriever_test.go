package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

func retrieverFixture(t *testing.T, cfg domain.RetrievalSettings) (*RetrieverService, *indexerFixture) {
	t.Helper()

	f := newIndexerFixture(t)
	_, err := f.indexer.Rebuild(context.Background())
	require.NoError(t, err)

	return NewRetrieverService(f.embedder, f.handle, cfg), f
}

func TestRetrieve_RanksWinterTireForWinterQuery(t *testing.T) {
	retriever, _ := retrieverFixture(t, domain.RetrievalSettings{TopK: 2, OverfetchFactor: 3})

	result, err := retriever.Retrieve(context.Background(), "best tire for snowy winter roads")
	require.NoError(t, err)
	require.NotEmpty(t, result)

	assert.Equal(t, "crossclimate-2", result[0].Segment.ProductID)
	for i := 1; i < len(result); i++ {
		assert.LessOrEqual(t, result[i].Score, result[i-1].Score)
	}
}

func TestRetrieve_DeduplicatesByProduct(t *testing.T) {
	// A tiny chunk window forces several segments per product.
	f := newIndexerFixture(t)
	splitter, err := chunkerWithWindow(40, 10)
	require.NoError(t, err)
	f.indexer = NewIndexerService(f.catalog, f.embedder, f.store, splitter, buildIndex, f.handle)
	_, err = f.indexer.Rebuild(context.Background())
	require.NoError(t, err)
	require.Greater(t, f.handle.Load().Len(), tireCatalog().Len())

	retriever := NewRetrieverService(f.embedder, f.handle, domain.RetrievalSettings{TopK: 3, OverfetchFactor: 3})

	result, err := retriever.Retrieve(context.Background(), "tire for winter and summer")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, scored := range result {
		assert.False(t, seen[scored.Segment.ProductID], "product %s appears twice", scored.Segment.ProductID)
		seen[scored.Segment.ProductID] = true
	}
}

func TestRetrieve_GracefulShortfall(t *testing.T) {
	// Catalog has 3 distinct products; asking for 10 returns all 3.
	retriever, _ := retrieverFixture(t, domain.RetrievalSettings{TopK: 10, OverfetchFactor: 3})

	result, err := retriever.Retrieve(context.Background(), "any tire at all")
	require.NoError(t, err)
	assert.Len(t, result, 3)
}

func TestRetrieve_InvalidQueries(t *testing.T) {
	retriever, _ := retrieverFixture(t, domain.RetrievalSettings{TopK: 2, OverfetchFactor: 3})

	t.Run("empty", func(t *testing.T) {
		_, err := retriever.Retrieve(context.Background(), "   ")
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("oversized", func(t *testing.T) {
		_, err := retriever.Retrieve(context.Background(), strings.Repeat("pneu ", 1000))
		assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	})
}

func TestRetrieve_IndexNotLoaded(t *testing.T) {
	retriever := NewRetrieverService(&fakeEmbedder{}, NewIndexHandle(), domain.RetrievalSettings{TopK: 2, OverfetchFactor: 3})

	_, err := retriever.Retrieve(context.Background(), "winter tire")
	assert.ErrorIs(t, err, domain.ErrIndexNotLoaded)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	f := newIndexerFixture(t)
	f.catalog.catalog = domain.NewCatalog(nil)
	_, err := f.indexer.Rebuild(context.Background())
	require.NoError(t, err)

	retriever := NewRetrieverService(f.embedder, f.handle, domain.RetrievalSettings{TopK: 2, OverfetchFactor: 3})

	result, err := retriever.Retrieve(context.Background(), "winter tire")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRetrieve_EmbeddingFailureSurfaces(t *testing.T) {
	retriever, f := retrieverFixture(t, domain.RetrievalSettings{TopK: 2, OverfetchFactor: 3})
	f.embedder.failWith = &domain.ServiceError{Service: "embedding", Attempts: 4, Cause: context.DeadlineExceeded}

	_, err := retriever.Retrieve(context.Background(), "winter tire")
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}
