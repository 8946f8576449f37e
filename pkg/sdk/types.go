package procsearch

import (
	"time"

	"github.com/holzlar/procurement-search-app/internal/domain/procurement"
)

// SearchParams controls one search call. Zero-valued fields fall back to
// the client defaults. A nil Threshold uses the client default; pointing
// at 0 accepts every candidate. A nil Sources slice means all sources; an
// empty non-nil slice is rejected with ErrNoSourcesSelected.
type SearchParams struct {
	Query          string
	Threshold      *float64
	MatchCount     int
	CandidateCount int
	Sources        []string
}

// Threshold is a convenience for setting SearchParams.Threshold inline.
func Threshold(v float64) *float64 { return &v }

// Result is one procurement lot matched by the search. Numeric fields use
// NaN for absent values and PublishDate uses the zero time; label fields
// use the empty string.
type Result struct {
	SimilarityScore float64
	BestChunkText   string
	Source          string
	PublishDate     time.Time
	Customer        string
	Quantity        float64
	UnitPrice       float64
	Unit            string
	TotalPrice      float64
	Winner          string
	Participants    []string // winner first, then remaining slots in order
	Description     string
}

func resultFromRecord(r *procurement.Record) Result {
	return Result{
		SimilarityScore: r.SimilarityScore,
		BestChunkText:   r.BestChunkText,
		Source:          r.Source,
		PublishDate:     r.PublishDate,
		Customer:        r.Customer,
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice,
		Unit:            r.Unit,
		TotalPrice:      r.TotalPrice,
		Winner:          r.Winner,
		Participants:    procurement.OrderParticipants(*r),
		Description:     r.Description,
	}
}
