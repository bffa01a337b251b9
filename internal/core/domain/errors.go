package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrCatalogFormat indicates the catalog file is structurally invalid
	// (missing required columns, unreadable header).
	ErrCatalogFormat = errors.New("catalog format invalid")

	// ErrCatalogRow indicates a single catalog row failed validation.
	ErrCatalogRow = errors.New("catalog row invalid")

	// ErrCatalogDuplicateID indicates two rows share a product ID.
	ErrCatalogDuplicateID = errors.New("duplicate product id")

	// ErrEmbeddingService indicates the embedding service failed after
	// exhausting the retry budget.
	ErrEmbeddingService = errors.New("embedding service unavailable")

	// ErrGenerationService indicates the chat-completion service failed
	// after exhausting the retry budget.
	ErrGenerationService = errors.New("generation service unavailable")

	// ErrDimensionMismatch indicates a query vector's dimensionality
	// differs from the index's.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexModelMismatch indicates a persisted index was built with a
	// different embedding model than the session is configured for.
	// Mixing models would corrupt similarity scores, so this is always
	// fatal for the affected operation.
	ErrIndexModelMismatch = errors.New("index embedding model mismatch")

	// ErrIndexNotLoaded indicates no index has been built or loaded yet.
	ErrIndexNotLoaded = errors.New("index not loaded")

	// ErrInvalidQuery indicates an empty or oversized query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidConfig indicates the configuration failed validation at
	// startup. Configuration errors are fatal rather than degraded.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// CatalogRowError reports a validation failure on one catalog row.
type CatalogRowError struct {
	// Row is the 1-based data row number in the source file.
	Row int

	// Field is the offending column, when known.
	Field string

	// Reason describes the failure.
	Reason string
}

func (e *CatalogRowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: field %q: %s", e.Row, e.Field, e.Reason)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Unwrap allows errors.Is(err, ErrCatalogRow).
func (e *CatalogRowError) Unwrap() error {
	return ErrCatalogRow
}

// CatalogDuplicateIDError reports a repeated product ID.
type CatalogDuplicateIDError struct {
	Row      int
	ID       string
	FirstRow int
}

func (e *CatalogDuplicateIDError) Error() string {
	return fmt.Sprintf("row %d: product id %q already seen at row %d", e.Row, e.ID, e.FirstRow)
}

// Unwrap allows errors.Is(err, ErrCatalogDuplicateID).
func (e *CatalogDuplicateIDError) Unwrap() error {
	return ErrCatalogDuplicateID
}

// DimensionMismatchError reports incompatible vector dimensionalities.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: index has %d, got %d", e.Want, e.Got)
}

// Unwrap allows errors.Is(err, ErrDimensionMismatch).
func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}

// IndexModelMismatchError reports a persisted index whose embedding model
// differs from the configured one.
type IndexModelMismatchError struct {
	IndexModel      string
	ConfiguredModel string
}

func (e *IndexModelMismatchError) Error() string {
	return fmt.Sprintf("index built with embedding model %q but session configured for %q; rebuild required",
		e.IndexModel, e.ConfiguredModel)
}

// Unwrap allows errors.Is(err, ErrIndexModelMismatch).
func (e *IndexModelMismatchError) Unwrap() error {
	return ErrIndexModelMismatch
}

// ServiceError reports an external service call that failed after
// exhausting its retry budget.
type ServiceError struct {
	// Service is "embedding" or "generation".
	Service string

	// Attempts is the number of attempts made.
	Attempts int

	// Cause is the last underlying failure.
	Cause error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service failed after %d attempts: %v", e.Service, e.Attempts, e.Cause)
}

// Unwrap maps the service name onto its sentinel so callers can use
// errors.Is with ErrEmbeddingService or ErrGenerationService.
func (e *ServiceError) Unwrap() []error {
	sentinel := ErrGenerationService
	if e.Service == "embedding" {
		sentinel = ErrEmbeddingService
	}
	if e.Cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Cause}
}
