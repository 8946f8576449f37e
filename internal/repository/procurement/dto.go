package procurement

import (
	"database/sql"
	"math"
	"time"

	dom "github.com/holzlar/procurement-search-app/internal/domain/procurement"
)

// lotRow mirrors one row of the search function's result set. Everything
// except the score is nullable upstream.
type lotRow struct {
	SimilarityScore   float64         `db:"similarity_score"`
	BestChunkText     sql.NullString  `db:"best_chunk_text"`
	ETP               sql.NullString  `db:"etp"`
	PublishDate       sql.NullTime    `db:"publish_date"`
	Customer          sql.NullString  `db:"customer"`
	Quantity          sql.NullFloat64 `db:"quantity"`
	PricePerUnit      sql.NullFloat64 `db:"price_per_unit"`
	UnitOfMeasurement sql.NullString  `db:"unit_of_measurement"`
	Price             sql.NullFloat64 `db:"price"`
	Winner            sql.NullString  `db:"winner"`
	Participant1      sql.NullString  `db:"participant_1"`
	Participant2      sql.NullString  `db:"participant_2"`
	Participant3      sql.NullString  `db:"participant_3"`
	Participant4      sql.NullString  `db:"participant_4"`
	Participant5      sql.NullString  `db:"participant_5"`
	Participant6      sql.NullString  `db:"participant_6"`
	Participant7      sql.NullString  `db:"participant_7"`
	Participant8      sql.NullString  `db:"participant_8"`
	Participant9      sql.NullString  `db:"participant_9"`
	Participant10     sql.NullString  `db:"participant_10"`
	Description       sql.NullString  `db:"description"`
}

// selectColumns is the column list in lotRow field order.
const selectColumns = "similarity_score, best_chunk_text, etp, publish_date, customer, " +
	"quantity, price_per_unit, unit_of_measurement, price, winner, " +
	"participant_1, participant_2, participant_3, participant_4, participant_5, " +
	"participant_6, participant_7, participant_8, participant_9, participant_10, " +
	"description"

// toRecord converts a scanned row into the domain record, collapsing the
// upstream absence sentinels exactly once, here at the boundary: labels
// become "", numerics become NaN, dates become the zero time.
func (r *lotRow) toRecord() dom.Record {
	rec := dom.Record{
		SimilarityScore: r.SimilarityScore,
		BestChunkText:   cleanString(r.BestChunkText),
		Source:          cleanString(r.ETP),
		PublishDate:     cleanTime(r.PublishDate),
		Customer:        cleanString(r.Customer),
		Quantity:        cleanFloat(r.Quantity),
		UnitPrice:       cleanFloat(r.PricePerUnit),
		Unit:            cleanString(r.UnitOfMeasurement),
		TotalPrice:      cleanFloat(r.Price),
		Winner:          cleanString(r.Winner),
		Description:     cleanString(r.Description),
	}

	slots := [dom.ParticipantSlots]sql.NullString{
		r.Participant1, r.Participant2, r.Participant3, r.Participant4, r.Participant5,
		r.Participant6, r.Participant7, r.Participant8, r.Participant9, r.Participant10,
	}
	for i, s := range slots {
		rec.Participants[i] = cleanString(s)
	}

	return rec
}

func cleanString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return dom.CleanLabel(s.String)
}

func cleanFloat(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}

func cleanTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
