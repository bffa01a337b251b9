package driven

import (
	"context"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

// VectorIndex provides similarity search over an immutable set of index
// entries. A built index is read-only and safe for concurrent searches;
// rebuilds produce a new index that the owner swaps in atomically.
type VectorIndex interface {
	// Search returns the k entries most similar to the query vector,
	// highest score first. Ties are broken by the segment's original
	// catalog order so results are deterministic. Returns a
	// DimensionMismatchError if the query dimensionality differs from
	// the index's.
	Search(query []float32, k int) ([]domain.ScoredSegment, error)

	// Metadata describes the build this index came from.
	Metadata() domain.IndexMetadata

	// Len returns the number of indexed segments.
	Len() int
}

// IndexStore persists index entries and metadata so an index can be
// reloaded without the original catalog or any re-embedding.
type IndexStore interface {
	// Replace atomically swaps the persisted index for the given
	// entries. On failure the previously persisted index is left
	// intact.
	Replace(ctx context.Context, entries []domain.IndexEntry, meta domain.IndexMetadata) error

	// Load reads back all persisted entries and metadata. Returns
	// domain.ErrIndexNotLoaded when nothing has been persisted yet.
	Load(ctx context.Context) ([]domain.IndexEntry, domain.IndexMetadata, error)

	// Close releases resources.
	Close() error
}
