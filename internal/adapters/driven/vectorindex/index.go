// Package vectorindex provides an in-memory exact cosine-similarity index.
//
// Search is exhaustive: every stored vector is scored against the query.
// Catalog indexes are small (thousands of segments), so exact scoring is
// both simpler and more predictable than an approximate structure.
package vectorindex

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index holds embedded segments and answers top-K cosine queries.
// It is immutable after construction and safe for concurrent use.
type Index struct {
	entries []domain.IndexEntry
	norms   []float64
	meta    domain.IndexMetadata
}

// New builds an index over the given entries. Every vector must match
// the dimension recorded in the metadata.
func New(entries []domain.IndexEntry, meta domain.IndexMetadata) (*Index, error) {
	if meta.Dimensions <= 0 {
		return nil, fmt.Errorf("index metadata: dimensions must be positive, got %d", meta.Dimensions)
	}

	norms := make([]float64, len(entries))
	for i, entry := range entries {
		if len(entry.Vector) != meta.Dimensions {
			return nil, &domain.DimensionMismatchError{
				Want: meta.Dimensions,
				Got:  len(entry.Vector),
			}
		}
		norms[i] = norm(entry.Vector)
	}

	meta.SegmentCount = len(entries)

	return &Index{
		entries: entries,
		norms:   norms,
		meta:    meta,
	}, nil
}

// Search returns the k segments most similar to the query vector,
// ordered by descending cosine similarity. Ties break toward the
// segment appearing earlier in the catalog. Searching an empty index
// returns an empty result.
func (idx *Index) Search(query []float32, k int) ([]domain.ScoredSegment, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidQuery, k)
	}
	if len(query) != idx.meta.Dimensions {
		return nil, &domain.DimensionMismatchError{
			Want: idx.meta.Dimensions,
			Got:  len(query),
		}
	}
	if len(idx.entries) == 0 {
		return []domain.ScoredSegment{}, nil
	}

	queryNorm := norm(query)

	scored := make([]domain.ScoredSegment, len(idx.entries))
	for i, entry := range idx.entries {
		scored[i] = domain.ScoredSegment{
			Segment: entry.Segment,
			Score:   cosine(query, queryNorm, entry.Vector, idx.norms[i]),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Segment.CatalogOrder != scored[j].Segment.CatalogOrder {
			return scored[i].Segment.CatalogOrder < scored[j].Segment.CatalogOrder
		}
		return scored[i].Segment.Sequence < scored[j].Segment.Sequence
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Metadata returns the build metadata recorded with the index.
func (idx *Index) Metadata() domain.IndexMetadata {
	return idx.meta
}

// Len returns the number of indexed segments.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// cosine computes cosine similarity given precomputed norms. Vectors
// with zero magnitude score 0 rather than dividing by zero.
func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
