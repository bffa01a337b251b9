package driven

import (
	"context"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

// CatalogSource reads the product catalog from its external form into
// validated records.
type CatalogSource interface {
	// Load reads and validates the whole catalog. Output order matches
	// input row order. Structural problems return a
	// domain.ErrCatalogFormat error; bad rows return a
	// domain.CatalogRowError (or are skipped when the loader is
	// configured to do so); repeated IDs return a
	// domain.CatalogDuplicateIDError.
	Load(ctx context.Context) (*domain.Catalog, error)

	// Path returns the location the catalog is read from.
	Path() string
}
