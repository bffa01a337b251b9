package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tread-cli/internal/logger"
)

// maxQueryRunes bounds query length; anything longer is rejected as an
// input error rather than sent to the embedding service.
const maxQueryRunes = 2000

// minOverfetchMargin is added to k when the overfetch multiplier alone
// would leave too little room for per-product deduplication.
const minOverfetchMargin = 4

// RetrieverService turns a query into the top-K most relevant segments,
// deduplicated so no two results share a product.
type RetrieverService struct {
	embedder        driven.EmbeddingService
	handle          *IndexHandle
	topK            int
	overfetchFactor int
}

// NewRetrieverService creates a new retriever service.
func NewRetrieverService(
	embedder driven.EmbeddingService,
	handle *IndexHandle,
	cfg domain.RetrievalSettings,
) *RetrieverService {
	return &RetrieverService{
		embedder:        embedder,
		handle:          handle,
		topK:            cfg.TopK,
		overfetchFactor: cfg.OverfetchFactor,
	}
}

// Retrieve embeds the query, over-fetches from the index and
// deduplicates by product, keeping each product's best segment. Fewer
// than K distinct products in the catalog is not an error; an empty
// index yields an empty result.
func (s *RetrieverService) Retrieve(ctx context.Context, query string) (domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidQuery)
	}
	if utf8.RuneCountInString(query) > maxQueryRunes {
		return nil, fmt.Errorf("%w: query exceeds %d characters", domain.ErrInvalidQuery, maxQueryRunes)
	}

	index := s.handle.Load()
	if index == nil {
		return nil, domain.ErrIndexNotLoaded
	}
	if index.Len() == 0 {
		return domain.RetrievalResult{}, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Over-fetch so deduplication can still fill K distinct products.
	fetch := s.topK * s.overfetchFactor
	if fetch < s.topK+minOverfetchMargin {
		fetch = s.topK + minOverfetchMargin
	}

	candidates, err := index.Search(vector, fetch)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, s.topK)
	result := make(domain.RetrievalResult, 0, s.topK)
	for _, candidate := range candidates {
		if seen[candidate.Segment.ProductID] {
			continue
		}
		seen[candidate.Segment.ProductID] = true
		result = append(result, candidate)
		if len(result) == s.topK {
			break
		}
	}

	logger.Debug("Retrieved %d/%d distinct products for query (%d candidates)",
		len(result), s.topK, len(candidates))
	return result, nil
}
