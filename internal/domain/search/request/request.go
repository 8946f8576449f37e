// Package request defines the validated search parameter object.
package request

import (
	"fmt"

	"github.com/holzlar/procurement-search-app/internal/domain"
)

// Search parameter limits and defaults.
const (
	MaxQueryLength = 4096

	DefaultMatchCount = 10
	MaxMatchCount     = 100

	// DefaultCandidateCount is the approximate-search pool size before the
	// store's exact re-ranking. Small pools lose recall once the source
	// filter rejects most candidates; large pools cost latency.
	DefaultCandidateCount = 10000
	MaxCandidateCount     = 100000

	DefaultThreshold = 0.3
)

// Request is a validated similarity search query. The raw query is already
// normalized by the constructor; callers downstream never re-clean it.
type Request struct {
	query          string
	threshold      float64
	matchCount     int
	candidateCount int
	sources        []string
}

// New normalizes the query text and validates the search parameters.
//
// A nil sources slice means "no source restriction"; a non-nil empty slice
// is a user error (a filter that excludes everything) and is rejected, as
// is a query that is blank after normalization. Neither reaches the
// embedding model or the network. The candidate pool is raised to the
// match count when smaller, so the re-ranking step stays meaningful.
func New(rawQuery string, threshold float64, matchCount, candidateCount int, sources []string) (Request, error) {
	if len(rawQuery) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}

	query := domain.NormalizeQuery(rawQuery)
	if query == "" {
		return Request{}, domain.ErrEmptyQuery
	}

	if sources != nil && len(sources) == 0 {
		return Request{}, domain.ErrNoSourcesSelected
	}

	if threshold < 0 || threshold > 1 {
		return Request{}, fmt.Errorf("threshold must be between 0 and 1, got %v", threshold)
	}
	if matchCount <= 0 {
		matchCount = DefaultMatchCount
	}
	if matchCount > MaxMatchCount {
		matchCount = MaxMatchCount
	}
	if candidateCount <= 0 {
		candidateCount = DefaultCandidateCount
	}
	if candidateCount > MaxCandidateCount {
		candidateCount = MaxCandidateCount
	}
	if candidateCount < matchCount {
		candidateCount = matchCount
	}

	return Request{
		query:          query,
		threshold:      threshold,
		matchCount:     matchCount,
		candidateCount: candidateCount,
		sources:        sources,
	}, nil
}

// Query returns the normalized query text.
func (r *Request) Query() string { return r.query }

// Threshold returns the minimum similarity score for a match.
func (r *Request) Threshold() float64 { return r.threshold }

// MatchCount returns the result cap.
func (r *Request) MatchCount() int { return r.matchCount }

// CandidateCount returns the approximate-search pool size.
func (r *Request) CandidateCount() int { return r.candidateCount }

// Sources returns the allowed source labels, nil meaning no restriction.
func (r *Request) Sources() []string { return r.sources }
