package services

import (
	"sync/atomic"

	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
)

// IndexHandle is the shared, atomically swappable reference to the
// current vector index. Readers always see either the previous complete
// index or the new one, never a partial build.
type IndexHandle struct {
	current atomic.Pointer[indexBox]
}

// indexBox wraps the interface value so the atomic pointer has a
// concrete type to point at.
type indexBox struct {
	index driven.VectorIndex
}

// NewIndexHandle creates an empty handle.
func NewIndexHandle() *IndexHandle {
	return &IndexHandle{}
}

// Load returns the current index, or nil if none has been swapped in.
func (h *IndexHandle) Load() driven.VectorIndex {
	box := h.current.Load()
	if box == nil {
		return nil
	}
	return box.index
}

// Store swaps in a new index. The old index remains valid for readers
// that already hold it.
func (h *IndexHandle) Store(index driven.VectorIndex) {
	h.current.Store(&indexBox{index: index})
}
