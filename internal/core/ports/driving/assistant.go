package driving

import (
	"context"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

// AssistantService answers natural-language product questions grounded in
// the catalog index.
type AssistantService interface {
	// Answer retrieves relevant segments for the query, assembles a
	// grounded prompt with the session history, and generates an answer
	// with provenance. An empty index yields an answer with no
	// citations, not an error.
	Answer(ctx context.Context, query string, history []domain.ConversationTurn) (*domain.AnswerBundle, error)
}

// IndexerService owns the index lifecycle.
type IndexerService interface {
	// Rebuild loads the catalog, re-chunks and re-embeds it, persists
	// the new index and swaps it in atomically. Repeated calls with the
	// same catalog produce an equivalent index. On failure the previous
	// index, in memory and on disk, remains intact.
	Rebuild(ctx context.Context) (domain.IndexMetadata, error)

	// EnsureLoaded loads the persisted index into memory if none is
	// loaded yet. Returns domain.ErrIndexNotLoaded when nothing has
	// been persisted, and domain.ErrIndexModelMismatch when the
	// persisted index was built with a different embedding model.
	EnsureLoaded(ctx context.Context) error
}

// StatusService reports index health for the status command.
type StatusService interface {
	Status(ctx context.Context) domain.IndexStatus
}
