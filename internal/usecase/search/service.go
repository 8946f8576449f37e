// Package search runs the query pipeline: normalized text in, ranked
// procurement records out.
package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/holzlar/procurement-search-app/internal/domain/procurement"
	"github.com/holzlar/procurement-search-app/internal/domain/search/request"
	"github.com/holzlar/procurement-search-app/internal/metrics"
)

// Service handles similarity search over the procurement corpus.
type Service struct {
	repo   Repository
	embed  Embedder
	logger *zap.Logger
}

// New creates a search service.
func New(repo Repository, embed Embedder, logger *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, logger: logger}
}

// Search embeds the (already normalized) query and delegates retrieval to
// the store. The store applies the threshold, the source filter, the
// per-lot dedup and the ordering itself; the post-pass below re-applies
// the caller-visible invariants so a misbehaving store function cannot
// leak low-scoring, overflowing, or out-of-filter rows to the caller.
//
// An error return means the pipeline failed (provider or store); an empty
// slice with a nil error means the query genuinely matched nothing.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]procurement.Record, error) {
	embResult, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	records, err := s.repo.SearchSimilar(
		ctx, embResult.Embedding,
		req.Threshold(), req.MatchCount(), req.Sources(), req.CandidateCount(),
	)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search similar: %w", err)
	}

	records = enforceInvariants(records, req)

	if len(records) == 0 {
		metrics.SearchRequestsTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	}
	metrics.SearchResultCount.Observe(float64(len(records)))

	s.logger.Debug("search completed",
		zap.String("query", req.Query()),
		zap.Int("results", len(records)),
		zap.Float64("threshold", req.Threshold()),
		zap.Int("candidates", req.CandidateCount()),
	)

	return records, nil
}

// Sources returns the known source labels for populating filter choices.
func (s *Service) Sources(ctx context.Context) ([]string, error) {
	labels, err := s.repo.DistinctSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return labels, nil
}

func enforceInvariants(records []procurement.Record, req *request.Request) []procurement.Record {
	var allowed map[string]struct{}
	if req.Sources() != nil {
		allowed = make(map[string]struct{}, len(req.Sources()))
		for _, s := range req.Sources() {
			allowed[s] = struct{}{}
		}
	}

	filtered := records[:0]
	for _, r := range records {
		if r.SimilarityScore < req.Threshold() {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[r.Source]; !ok {
				continue
			}
		}
		filtered = append(filtered, r)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].SimilarityScore > filtered[j].SimilarityScore
	})

	if len(filtered) > req.MatchCount() {
		filtered = filtered[:req.MatchCount()]
	}
	return filtered
}
