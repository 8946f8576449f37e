package procurement

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/holzlar/procurement-search-app/internal/domain"
)

const searchQueryPattern = `SELECT (.+) FROM search_procurements_v2\(\$1::vector, \$2, \$3, \$4, \$5\)`

func TestSearchSimilar_ParameterContract(t *testing.T) {
	repo, mock := newTestRepo(t)

	rows := sqlmock.NewRows(lotColumns)
	addLotRow(rows, 0.91, "Mitwork", "ТОО Альфа", "ТОО Альфа", "ТОО Бета")

	mock.ExpectQuery(searchQueryPattern).
		WithArgs("[0.5,-0.25,1]", 0.5, 5, `{"Mitwork","Eurasia"}`, 1000).
		WillReturnRows(rows)

	recs, err := repo.SearchSimilar(
		context.Background(), []float32{0.5, -0.25, 1},
		0.5, 5, []string{"Mitwork", "Eurasia"}, 1000,
	)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].SimilarityScore != 0.91 {
		t.Fatalf("score = %v, want 0.91", recs[0].SimilarityScore)
	}
	if recs[0].Source != "Mitwork" {
		t.Fatalf("source = %q, want Mitwork", recs[0].Source)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSearchSimilar_NilSourcesMeansNull(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(searchQueryPattern).
		WithArgs("[1]", 0.3, 10, nil, 10000).
		WillReturnRows(sqlmock.NewRows(lotColumns))

	recs, err := repo.SearchSimilar(context.Background(), []float32{1}, 0.3, 10, nil, 10000)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSearchSimilar_CandidateCountReachesWire(t *testing.T) {
	repo, mock := newTestRepo(t)

	// The recall/latency knob must pass through unchanged, whatever the
	// call site chose. Larger pools can only widen what the store sees.
	for _, candidates := range []int{100, 20000} {
		mock.ExpectQuery(searchQueryPattern).
			WithArgs("[1]", 0.5, 5, nil, candidates).
			WillReturnRows(sqlmock.NewRows(lotColumns))

		if _, err := repo.SearchSimilar(context.Background(), []float32{1}, 0.5, 5, nil, candidates); err != nil {
			t.Fatalf("SearchSimilar(candidates=%d): %v", candidates, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSearchSimilar_SentinelNormalization(t *testing.T) {
	repo, mock := newTestRepo(t)

	rows := sqlmock.NewRows(lotColumns)
	addLotRow(rows, 0.8, "-", "NaN", "-", "ТОО Гамма")

	mock.ExpectQuery(searchQueryPattern).
		WithArgs("[1]", 0.5, 5, nil, 1000).
		WillReturnRows(rows)

	recs, err := repo.SearchSimilar(context.Background(), []float32{1}, 0.5, 5, nil, 1000)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	rec := recs[0]
	if rec.Source != "" {
		t.Fatalf("sentinel source not cleaned: %q", rec.Source)
	}
	if rec.Winner != "" {
		t.Fatalf("sentinel winner not cleaned: %q", rec.Winner)
	}
	if rec.Participants[0] != "" || rec.Participants[1] != "ТОО Гамма" {
		t.Fatalf("participants not cleaned: %v", rec.Participants)
	}
}

func TestSearchSimilar_NullNumericsBecomeNaN(t *testing.T) {
	repo, mock := newTestRepo(t)

	rows := sqlmock.NewRows(lotColumns).AddRow(
		0.7, nil, "Mitwork", nil, nil,
		nil, nil, nil, nil, nil,
		nil, nil, nil, nil, nil,
		nil, nil, nil, nil, nil,
		nil,
	)

	mock.ExpectQuery(searchQueryPattern).
		WithArgs("[1]", 0.5, 5, nil, 1000).
		WillReturnRows(rows)

	recs, err := repo.SearchSimilar(context.Background(), []float32{1}, 0.5, 5, nil, 1000)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	rec := recs[0]
	if !math.IsNaN(rec.TotalPrice) || !math.IsNaN(rec.Quantity) || !math.IsNaN(rec.UnitPrice) {
		t.Fatalf("NULL numerics should scan as NaN: %+v", rec)
	}
	if !rec.PublishDate.IsZero() {
		t.Fatalf("NULL date should scan as zero time: %v", rec.PublishDate)
	}
}

func TestSearchSimilar_StoreErrorSurfaced(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(searchQueryPattern).
		WillReturnError(errors.New("connection refused"))

	_, err := repo.SearchSimilar(context.Background(), []float32{1}, 0.5, 5, nil, 1000)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestDistinctSources_ViaFunction(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT etp FROM get_distinct_etps_final\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"etp"}).
			AddRow("Eurasia").AddRow("Goszakup").AddRow("Mitwork"))

	sources, err := repo.DistinctSources(context.Background())
	if err != nil {
		t.Fatalf("DistinctSources: %v", err)
	}
	if len(sources) != 3 || sources[0] != "Eurasia" {
		t.Fatalf("unexpected sources: %v", sources)
	}
}

func TestDistinctSources_FallbackScan(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT etp FROM get_distinct_etps_final\(\)`).
		WillReturnError(errors.New(`function get_distinct_etps_final() does not exist`))
	mock.ExpectQuery(`SELECT DISTINCT etp FROM procurement_data_final WHERE etp IS NOT NULL ORDER BY etp`).
		WillReturnRows(sqlmock.NewRows([]string{"etp"}).AddRow("Eurasia").AddRow("Mitwork"))

	sources, err := repo.DistinctSources(context.Background())
	if err != nil {
		t.Fatalf("DistinctSources: %v", err)
	}
	if len(sources) != 2 || sources[1] != "Mitwork" {
		t.Fatalf("unexpected sources: %v", sources)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDistinctSources_BothPathsFail(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT etp FROM get_distinct_etps_final\(\)`).
		WillReturnError(errors.New("boom"))
	mock.ExpectQuery(`SELECT DISTINCT etp FROM procurement_data_final`).
		WillReturnError(errors.New("boom"))

	_, err := repo.DistinctSources(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestNew_RejectsBadIdentifiers(t *testing.T) {
	_, err := New(nil, Config{
		SearchFunction:  "search; DROP TABLE lots",
		SourcesFunction: "get_distinct_etps_final",
		DataTable:       "procurement_data_final",
	}, nil)
	if err == nil {
		t.Fatal("expected error for malformed function name")
	}
}

func TestVectorLiteral(t *testing.T) {
	got := VectorLiteral([]float32{0.5, -1, 0.25})
	want := "[0.5,-1,0.25]"
	if got != want {
		t.Fatalf("VectorLiteral = %q, want %q", got, want)
	}
	if VectorLiteral(nil) != "[]" {
		t.Fatalf("VectorLiteral(nil) = %q, want []", VectorLiteral(nil))
	}
}
