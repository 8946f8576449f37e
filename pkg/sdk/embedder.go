package procsearch

import "context"

// Embedder converts query text to a vector embedding. Implementations must
// return unit-length vectors matching the dimensionality of the store index.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
