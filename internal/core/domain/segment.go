package domain

import "time"

// TextSegment is a bounded chunk of one product's concatenated text fields.
// Segments are the unit of embedding and retrieval.
type TextSegment struct {
	// ID is the unique segment identifier.
	ID string

	// ProductID links to the source ProductRecord.
	ProductID string

	// ProductName is denormalised from the source record so retrieved
	// context stays self-describing without the catalog file present.
	ProductName string

	// Sequence is the ordinal position within the product's segments.
	Sequence int

	// Text is the segment content, including field-name labels.
	Text string

	// CharStart and CharEnd are the rune offsets of this segment within
	// the product's concatenated text ([CharStart, CharEnd)).
	CharStart int
	CharEnd   int

	// CatalogOrder is the position of the source product in the catalog,
	// used as a deterministic tie-break in similarity ranking.
	CatalogOrder int
}

// IndexEntry pairs a segment with its embedding vector. Entries are owned
// by the vector index and persisted together so the index can be reloaded
// without recomputing embeddings.
type IndexEntry struct {
	Segment TextSegment
	Vector  []float32
}

// ScoredSegment is a retrieval hit: a segment with its similarity score.
// Higher scores are more similar.
type ScoredSegment struct {
	Segment TextSegment
	Score   float64
}

// RetrievalResult is an ordered sequence of hits, highest score first,
// deduplicated so no two hits share a ProductID.
type RetrievalResult []ScoredSegment

// IndexMetadata describes a built index. It is persisted alongside the
// entries and checked on load.
type IndexMetadata struct {
	// EmbeddingModel identifies the model that produced every vector in
	// the index. Vectors from different models are never mixed.
	EmbeddingModel string

	// Dimensions is the vector dimensionality shared by all entries.
	Dimensions int

	// SegmentCount is the number of persisted entries.
	SegmentCount int

	// BuiltAt is the UTC build timestamp.
	BuiltAt time.Time
}

// IndexStatus is the health-check view of the index, consumed by the
// status command and the TUI status bar.
type IndexStatus struct {
	// Loaded reports whether an index is currently available for search.
	Loaded bool

	// Metadata is the zero value when Loaded is false.
	Metadata IndexMetadata

	// CatalogStale reports that the catalog file changed after the
	// index was built, so answers may be based on outdated entries.
	CatalogStale bool
}
