// Package procurement is the client for the external vector store: a
// Postgres database holding the lot corpus, its chunk embeddings, and the
// ranking function. The index, the dedup-to-best-chunk-per-lot policy, and
// the ordering all live server-side; this package speaks the function's
// parameter contract and reshapes its rows.
package procurement

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/holzlar/procurement-search-app/internal/domain"
	dom "github.com/holzlar/procurement-search-app/internal/domain/procurement"
	"github.com/holzlar/procurement-search-app/internal/metrics"
)

// Config holds the store object names and the per-call timeout.
// The names are config so staging can point at a different function
// revision; they are validated as identifiers, never interpolated raw.
type Config struct {
	SearchFunction  string
	SourcesFunction string
	DataTable       string
	QueryTimeout    time.Duration
}

// Repo calls the remote search and source-list functions.
type Repo struct {
	db     *sqlx.DB
	cfg    Config
	logger *zap.Logger
}

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// New creates the store client. Object names must be plain (optionally
// schema-qualified) SQL identifiers.
func New(db *sqlx.DB, cfg Config, logger *zap.Logger) (*Repo, error) {
	for _, name := range []string{cfg.SearchFunction, cfg.SourcesFunction, cfg.DataTable} {
		if !identRe.MatchString(name) {
			return nil, fmt.Errorf("invalid store object name %q", name)
		}
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 30 * time.Second
	}
	return &Repo{db: db, cfg: cfg, logger: logger}, nil
}

// SearchSimilar runs the two-phase retrieval remotely: the function scans
// up to candidateCount approximate neighbors over chunk embeddings, then
// filters by source set and threshold, keeps the best chunk per lot,
// orders by descending similarity, and truncates to matchCount.
//
// sources == nil disables the source filter (NULL parameter). Parameter
// order and types match the function signature exactly: embedding,
// threshold, match count, source filter, initial candidate count.
//
// A failed call returns a non-nil error wrapping ErrStoreUnavailable so
// callers can tell an outage from a legitimately empty result.
func (r *Repo) SearchSimilar(
	ctx context.Context, embedding []float32,
	threshold float64, matchCount int, sources []string, candidateCount int,
) ([]dom.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s FROM %s($1::vector, $2, $3, $4, $5)",
		selectColumns, r.cfg.SearchFunction,
	)

	var sourcesParam interface{}
	if sources != nil {
		sourcesParam = pq.Array(sources)
	}

	start := time.Now()
	var rows []lotRow
	err := r.db.SelectContext(ctx, &rows, query,
		VectorLiteral(embedding), threshold, matchCount, sourcesParam, candidateCount,
	)
	metrics.SearchStoreDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("call %s: %v: %w", r.cfg.SearchFunction, err, domain.ErrStoreUnavailable)
	}

	records := make([]dom.Record, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toRecord())
	}
	return records, nil
}

// DistinctSources returns the known source labels (ЭТП), sorted. It tries
// the dedicated function first and falls back to a distinct scan of the
// data table when the function is missing or broken.
func (r *Repo) DistinctSources(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	var labels []string
	query := fmt.Sprintf("SELECT etp FROM %s()", r.cfg.SourcesFunction)
	err := r.db.SelectContext(ctx, &labels, query)
	if err == nil {
		return cleanLabels(labels), nil
	}

	r.logger.Warn("Source-list function failed, falling back to table scan",
		zap.String("function", r.cfg.SourcesFunction),
		zap.Error(err),
	)

	fallback := fmt.Sprintf(
		"SELECT DISTINCT etp FROM %s WHERE etp IS NOT NULL ORDER BY etp",
		r.cfg.DataTable,
	)
	labels = labels[:0]
	if err := r.db.SelectContext(ctx, &labels, fallback); err != nil {
		return nil, fmt.Errorf("scan %s for sources: %v: %w", r.cfg.DataTable, err, domain.ErrStoreUnavailable)
	}
	return cleanLabels(labels), nil
}

// Ping checks store connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping procurement store: %w", err)
	}
	return nil
}

func cleanLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = dom.CleanLabel(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// VectorLiteral renders an embedding as a pgvector text literal:
// "[v1,v2,...]". Float32 round-trip formatting keeps the value the model
// produced.
func VectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
