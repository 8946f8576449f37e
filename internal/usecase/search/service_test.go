package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/holzlar/procurement-search-app/internal/domain"
	"github.com/holzlar/procurement-search-app/internal/domain/procurement"
	"github.com/holzlar/procurement-search-app/internal/domain/search/request"
)

// --- Mocks ---

type mockRepo struct {
	records []procurement.Record
	err     error
	sources []string
	srcErr  error

	lastThreshold  float64
	lastMatchCount int
	lastSources    []string
	lastCandidates int
	called         bool
}

func (m *mockRepo) SearchSimilar(
	_ context.Context, _ []float32,
	threshold float64, matchCount int, sources []string, candidateCount int,
) ([]procurement.Record, error) {
	m.called = true
	m.lastThreshold = threshold
	m.lastMatchCount = matchCount
	m.lastSources = sources
	m.lastCandidates = candidateCount
	return m.records, m.err
}

func (m *mockRepo) DistinctSources(_ context.Context) ([]string, error) {
	return m.sources, m.srcErr
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, m.err
}

func newTestService(repo *mockRepo, emb *mockEmbedder) *Service {
	if emb.vec == nil {
		emb.vec = []float32{0.6, 0.8}
	}
	return New(repo, emb, zap.NewNop())
}

func mustRequest(t *testing.T, raw string, threshold float64, matchCount, candidates int, sources []string) *request.Request {
	t.Helper()
	req, err := request.New(raw, threshold, matchCount, candidates, sources)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func rec(score float64, source string) procurement.Record {
	return procurement.Record{SimilarityScore: score, Source: source}
}

// --- Tests ---

func TestSearch_PassesParametersThrough(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{}
	svc := newTestService(repo, emb)

	req := mustRequest(t, "бензин аи 92", 0.5, 5, 2000, []string{"Mitwork"})

	if _, err := svc.Search(context.Background(), req); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !emb.called {
		t.Fatal("embedder was not called")
	}
	if repo.lastThreshold != 0.5 || repo.lastMatchCount != 5 || repo.lastCandidates != 2000 {
		t.Fatalf("parameters not passed through: %+v", repo)
	}
	if len(repo.lastSources) != 1 || repo.lastSources[0] != "Mitwork" {
		t.Fatalf("sources not passed through: %v", repo.lastSources)
	}
}

func TestSearch_EmbedderErrorPropagates(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	svc := newTestService(repo, emb)

	req := mustRequest(t, "бензин", 0.5, 5, 1000, nil)

	_, err := svc.Search(context.Background(), req)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("err = %v, want ErrEmbeddingProviderError", err)
	}
	if repo.called {
		t.Fatal("store must not be called when embedding fails")
	}
}

func TestSearch_StoreErrorDistinguishableFromEmpty(t *testing.T) {
	repo := &mockRepo{err: domain.ErrStoreUnavailable}
	svc := newTestService(repo, &mockEmbedder{})

	req := mustRequest(t, "бензин", 0.5, 5, 1000, nil)

	_, err := svc.Search(context.Background(), req)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}

	repo.err = nil
	repo.records = nil
	records, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search on empty corpus: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestSearch_RespectsMatchCount(t *testing.T) {
	repo := &mockRepo{records: []procurement.Record{
		rec(0.9, "A"), rec(0.8, "A"), rec(0.7, "A"), rec(0.6, "A"),
	}}
	svc := newTestService(repo, &mockEmbedder{})

	req := mustRequest(t, "бензин", 0.5, 2, 1000, nil)

	records, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
}

func TestSearch_RespectsThreshold(t *testing.T) {
	repo := &mockRepo{records: []procurement.Record{
		rec(0.9, "A"), rec(0.49, "A"), rec(0.7, "A"),
	}}
	svc := newTestService(repo, &mockEmbedder{})

	req := mustRequest(t, "бензин", 0.5, 10, 1000, nil)

	records, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range records {
		if r.SimilarityScore < 0.5 {
			t.Fatalf("record below threshold leaked: %v", r.SimilarityScore)
		}
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
}

func TestSearch_RespectsSourceFilter(t *testing.T) {
	repo := &mockRepo{records: []procurement.Record{
		rec(0.9, "A"), rec(0.8, "C"), rec(0.7, "B"),
	}}
	svc := newTestService(repo, &mockEmbedder{})

	req := mustRequest(t, "бензин", 0.5, 10, 1000, []string{"A", "B"})

	records, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range records {
		if r.Source != "A" && r.Source != "B" {
			t.Fatalf("record outside source filter leaked: %q", r.Source)
		}
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
}

func TestSearch_SortedDescending(t *testing.T) {
	repo := &mockRepo{records: []procurement.Record{
		rec(0.7, "A"), rec(0.9, "A"), rec(0.8, "A"),
	}}
	svc := newTestService(repo, &mockEmbedder{})

	req := mustRequest(t, "бензин аи 92", 0.5, 5, 1000, nil)

	records, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i := 1; i < len(records); i++ {
		if records[i].SimilarityScore > records[i-1].SimilarityScore {
			t.Fatalf("records not sorted descending: %v then %v",
				records[i-1].SimilarityScore, records[i].SimilarityScore)
		}
	}
}

func TestSources(t *testing.T) {
	repo := &mockRepo{sources: []string{"Eurasia", "Mitwork"}}
	svc := newTestService(repo, &mockEmbedder{})

	sources, err := svc.Sources(context.Background())
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %v", sources)
	}
}

func TestSources_Error(t *testing.T) {
	repo := &mockRepo{srcErr: domain.ErrStoreUnavailable}
	svc := newTestService(repo, &mockEmbedder{})

	if _, err := svc.Sources(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}
