package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holzlar/procurement-search-app/internal/db"
	"github.com/holzlar/procurement-search-app/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	var setCalled bool
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		setCalled = true
		setTTL = ttl
		return nil
	}

	result, err := ce.Embed(ctx, "бензин аи 92")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !setCalled {
		t.Fatal("expected cache put on miss")
	}
	if setTTL != time.Hour {
		t.Fatalf("expected TTL=1h on cache put, got %v", setTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3},
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	cached := vectorToBytes([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(ctx, "бензин аи 92")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Fatalf("inner embedder must not run on a hit, ran %d times", inner.calls)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	if _, err := ce.Embed(ctx, "электрод"); err == nil {
		t.Fatal("expected inner error to propagate")
	}
}

func TestEmbed_StoreErrorFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.7},
		TotalTokens: 2,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection refused")}
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return &db.Error{Op: db.OpSet, Err: errors.New("connection refused")}
	}

	// A broken cache degrades to pass-through, never to a failed search.
	result, err := ce.Embed(ctx, "автобус")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 0.7 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
}

func TestEmbed_CorruptCacheEntryIgnored(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.9, 0.1},
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil // not a multiple of 4
	}

	result, err := ce.Embed(ctx, "картридж")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 0.9 {
		t.Fatalf("expected inner vector, got %v", result.Embedding)
	}
	if inner.calls != 1 {
		t.Fatalf("expected one inner call, got %d", inner.calls)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75}
	out, err := bytesToVector(vectorToBytes(in))
	if err != nil {
		t.Fatalf("bytesToVector: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("round trip mismatch at %d: %v != %v", i, in[i], out[i])
		}
	}
}

func TestCacheKey_StablePerText(t *testing.T) {
	ce, _ := newTestCachedEmbedder(t, &mockEmbedder{})
	if ce.cacheKey("бензин") != ce.cacheKey("бензин") {
		t.Fatal("cache key must be deterministic")
	}
	if ce.cacheKey("бензин") == ce.cacheKey("дизель") {
		t.Fatal("distinct texts must map to distinct keys")
	}
}
