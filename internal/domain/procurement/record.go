// Package procurement holds the read-only lot entity returned by the
// external store, plus the participant-ordering rule used for display.
package procurement

import "time"

// ParticipantSlots is the number of participant columns a lot row carries.
const ParticipantSlots = 10

// Record is one procurement lot as returned by the similarity search.
// It is owned by the external store; this service only reads and reshapes
// it. Label fields ("" means absent) are normalized at the scan boundary,
// so domain code never sees the upstream sentinel spellings.
type Record struct {
	SimilarityScore float64
	BestChunkText   string
	Source          string // originating trading platform (ЭТП)
	PublishDate     time.Time
	Customer        string
	Quantity        float64
	UnitPrice       float64
	Unit            string
	TotalPrice      float64
	Winner          string
	Participants    [ParticipantSlots]string
	Description     string
}

// CleanLabel collapses the upstream absence sentinels to the single domain
// representation: the empty string. The source data conflates NULL, "-" and
// the stringified NaN from earlier cleaning stages.
func CleanLabel(s string) string {
	switch s {
	case "", "-", "NaN":
		return ""
	}
	return s
}

// OrderParticipants builds the display list of tender participants:
// the winner first when present, then slots 1..10 in slot order, skipping
// absent entries and entries equal to the winner. Duplicates among the
// slots themselves are kept; only the winner is deduplicated.
func OrderParticipants(r Record) []string {
	out := make([]string, 0, ParticipantSlots+1)
	if r.Winner != "" {
		out = append(out, r.Winner)
	}
	for _, p := range r.Participants {
		if p == "" || p == r.Winner {
			continue
		}
		out = append(out, p)
	}
	return out
}
