package procurement

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })

	repo, err := New(sqlx.NewDb(mockDB, "sqlmock"), Config{
		SearchFunction:  "search_procurements_v2",
		SourcesFunction: "get_distinct_etps_final",
		DataTable:       "procurement_data_final",
		QueryTimeout:    5 * time.Second,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return repo, mock
}

var lotColumns = []string{
	"similarity_score", "best_chunk_text", "etp", "publish_date", "customer",
	"quantity", "price_per_unit", "unit_of_measurement", "price", "winner",
	"participant_1", "participant_2", "participant_3", "participant_4", "participant_5",
	"participant_6", "participant_7", "participant_8", "participant_9", "participant_10",
	"description",
}

// addLotRow appends a result row with sensible defaults: the variadic
// participants fill slots 1..n, remaining slots stay NULL.
func addLotRow(rows *sqlmock.Rows, score float64, source, winner string, participants ...string) {
	vals := make([]driver.Value, 0, len(lotColumns))
	vals = append(vals,
		score,
		"фрагмент описания",
		source,
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		"ТОО Заказчик",
		10.0,
		1500.0,
		"шт",
		15000.0,
		winner,
	)
	for i := 0; i < 10; i++ {
		if i < len(participants) {
			vals = append(vals, participants[i])
		} else {
			vals = append(vals, nil)
		}
	}
	vals = append(vals, "полное описание лота")
	rows.AddRow(vals...)
}
