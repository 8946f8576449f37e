package domain

import (
	"context"
	"math"
)

// Embedder is the shared text vectorization contract between layers.
// Implementations must return vectors of a fixed dimension, unit-normalized.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain. TotalTokens is zero on cache hits.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// NormalizeVector scales v to unit length in place and reports whether that
// was possible. A zero (or numerically zero) vector is left untouched and
// reported false.
func NormalizeVector(v []float32) bool {
	n := Norm(v)
	if n < 1e-12 {
		return false
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
	return true
}
