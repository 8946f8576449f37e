package domain

import "errors"

// Sentinel errors shared between layers. The HTTP transport maps these to
// status codes; the searchbench CLI prints them and keeps going.
var (
	// ErrEmptyQuery signals a query that is blank after normalization.
	ErrEmptyQuery = errors.New("empty query")
	// ErrNoSourcesSelected signals an explicitly empty source filter.
	ErrNoSourcesSelected = errors.New("no sources selected")
	// ErrVectorDimMismatch signals an embedding of unexpected dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStoreUnavailable signals a failed call to the procurement store.
	ErrStoreUnavailable = errors.New("procurement store unavailable")
)
