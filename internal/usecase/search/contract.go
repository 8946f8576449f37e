package search

import (
	"context"

	"github.com/holzlar/procurement-search-app/internal/domain"
	dom "github.com/holzlar/procurement-search-app/internal/domain/procurement"
)

// Repository is the storage contract for the similarity search.
type Repository interface {
	SearchSimilar(
		ctx context.Context, embedding []float32,
		threshold float64, matchCount int, sources []string, candidateCount int,
	) ([]dom.Record, error)

	DistinctSources(ctx context.Context) ([]string, error)
}

// Embedder vectorizes normalized query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
