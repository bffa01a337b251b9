// Package chunker provides fixed-size overlapping text segmentation.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

// DefaultMaxChars is the default number of characters per segment.
const DefaultMaxChars = 1000

// DefaultOverlapChars is the default number of overlapping characters.
const DefaultOverlapChars = 200

// Splitter splits product records into overlapping text segments sized
// for the embedding model. Splitting is deterministic: the same record
// and parameters always yield identical segments, which keeps rebuilt
// indexes reproducible.
type Splitter struct {
	maxChars     int
	overlapChars int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithMaxChars sets the segment size in characters.
func WithMaxChars(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.maxChars = size
		}
	}
}

// WithOverlap sets the overlap between segments in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlapChars = overlap
		}
	}
}

// New creates a splitter. The overlap must be strictly smaller than the
// segment size; anything else is a configuration error.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		maxChars:     DefaultMaxChars,
		overlapChars: DefaultOverlapChars,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.overlapChars >= s.maxChars {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than max chars %d",
			domain.ErrInvalidConfig, s.overlapChars, s.maxChars)
	}

	return s, nil
}

// Concatenate joins a record's textual fields with field-name labels so
// retrieved context stays self-describing.
func Concatenate(record domain.ProductRecord) string {
	var b strings.Builder
	b.WriteString("Name: ")
	b.WriteString(record.Name)
	b.WriteString("\nDescription: ")
	b.WriteString(record.Description)
	b.WriteString("\nCategory: ")
	b.WriteString(record.Category)
	b.WriteString("\nPrice: ")
	b.WriteString(record.Price.StringFixed(2))
	b.WriteString(" EUR\nLink: ")
	b.WriteString(record.Link)
	return b.String()
}

// Chunk splits one record's concatenated text into segments. A window of
// maxChars slides across the text advancing by maxChars-overlapChars per
// step; the remainder becomes a final shorter segment rather than being
// padded. Text shorter than maxChars yields exactly one segment.
// Offsets are rune positions within the concatenated text.
func (s *Splitter) Chunk(record domain.ProductRecord, catalogOrder int) []domain.TextSegment {
	runes := []rune(Concatenate(record))
	total := len(runes)
	if total == 0 {
		return nil
	}

	step := s.maxChars - s.overlapChars
	segments := make([]domain.TextSegment, 0, total/step+1)

	for start, seq := 0, 0; ; start, seq = start+step, seq+1 {
		end := start + s.maxChars
		if end > total {
			end = total
		}

		segments = append(segments, domain.TextSegment{
			ID:           segmentID(record.ID, seq),
			ProductID:    record.ID,
			ProductName:  record.Name,
			Sequence:     seq,
			Text:         string(runes[start:end]),
			CharStart:    start,
			CharEnd:      end,
			CatalogOrder: catalogOrder,
		})

		if end == total {
			return segments
		}
	}
}

// segmentID derives a stable identifier so re-chunking the same catalog
// produces the same IDs.
func segmentID(productID string, seq int) string {
	return fmt.Sprintf("%s#%03d", productID, seq)
}
