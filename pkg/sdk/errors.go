package procsearch

import "github.com/holzlar/procurement-search-app/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyQuery             = domain.ErrEmptyQuery
	ErrNoSourcesSelected      = domain.ErrNoSourcesSelected
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrStoreUnavailable       = domain.ErrStoreUnavailable
)
