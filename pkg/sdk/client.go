package procsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	dbValkey "github.com/holzlar/procurement-search-app/internal/db/valkey"
	"github.com/holzlar/procurement-search-app/internal/domain"
	"github.com/holzlar/procurement-search-app/internal/domain/search/request"
	"github.com/holzlar/procurement-search-app/internal/metrics"
	"github.com/holzlar/procurement-search-app/internal/repository/embcache"
	procrepo "github.com/holzlar/procurement-search-app/internal/repository/procurement"
	openaiEmb "github.com/holzlar/procurement-search-app/internal/transport/openai"
	healthuc "github.com/holzlar/procurement-search-app/internal/usecase/health"
	searchuc "github.com/holzlar/procurement-search-app/internal/usecase/search"
)

const (
	defaultMaxOpenConns = 4
	defaultQueryTimeout = 30 * time.Second
	defaultCacheTTL     = 7 * 24 * time.Hour

	defaultSearchFunction  = "search_procurements_v2"
	defaultSourcesFunction = "get_distinct_etps_final"
	defaultDataTable       = "procurement_data_final"
)

// Internal interfaces, swappable in tests.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) ([]Result, error)
	Sources(ctx context.Context) ([]string, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the procurement search SDK entry point.
type Client struct {
	db       *sqlx.DB
	cache    interface{ Close() }
	search   searchUseCase
	health   healthUseCase
	defaults searchDefaults
	obs      *observer
}

type searchDefaults struct {
	threshold      float64
	matchCount     int
	candidateCount int
}

// New creates a Client and connects to the procurement store.
// The provided context bounds the initial connection check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := newClientConfig(opts...)

	if cfg.dsn == "" {
		return nil, errors.New("procsearch: store connection string required (use WithPostgres)")
	}
	if cfg.embedder == nil && cfg.embedding.BaseURL == "" {
		return nil, errors.New("procsearch: embedder required (use WithOpenAIEmbedding or WithEmbedder)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sqlx.ConnectContext(ctx, "postgres", cfg.dsn)
	if err != nil {
		return nil, fmt.Errorf("procsearch: connect to store: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.maxOpenConns)

	client, err := wireClient(sqlDB, cfg, obs)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return client, nil
}

func newClientConfig(opts ...Option) *clientConfig {
	cfg := &clientConfig{
		maxOpenConns:    defaultMaxOpenConns,
		queryTimeout:    defaultQueryTimeout,
		cacheTTL:        defaultCacheTTL,
		searchFunction:  defaultSearchFunction,
		sourcesFunction: defaultSourcesFunction,
		dataTable:       defaultDataTable,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.defaultThreshold == 0 {
		cfg.defaultThreshold = request.DefaultThreshold
	}
	if cfg.defaultMatchCount == 0 {
		cfg.defaultMatchCount = request.DefaultMatchCount
	}
	if cfg.defaultCandidateCount == 0 {
		cfg.defaultCandidateCount = request.DefaultCandidateCount
	}
	return cfg
}

func wireClient(sqlDB *sqlx.DB, cfg *clientConfig, obs *observer) (*Client, error) {
	// Internal services log through zap; SDK-level observability uses the
	// caller's slog via the observer.
	internalLog := zap.NewNop()

	repo, err := procrepo.New(sqlDB, procrepo.Config{
		SearchFunction:  cfg.searchFunction,
		SourcesFunction: cfg.sourcesFunction,
		DataTable:       cfg.dataTable,
		QueryTimeout:    cfg.queryTimeout,
	}, internalLog)
	if err != nil {
		return nil, fmt.Errorf("procsearch: create repository: %w", err)
	}

	embedder, cache, err := buildEmbedder(cfg, internalLog)
	if err != nil {
		return nil, err
	}

	searchSvc := searchuc.New(repo, embedder, internalLog)

	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
	}
	var checker healthuc.EmbeddingChecker
	if hc, ok := embedder.(domain.HealthChecker); ok {
		checker = hc
	}
	healthSvc := healthuc.New(repo, cachePinger, checker)

	var cacheCloser interface{ Close() }
	if cache != nil {
		cacheCloser = cache
	}

	return &Client{
		db:     sqlDB,
		cache:  cacheCloser,
		search: &recordAdapter{svc: searchSvc},
		health: healthSvc,
		defaults: searchDefaults{
			threshold:      cfg.defaultThreshold,
			matchCount:     cfg.defaultMatchCount,
			candidateCount: cfg.defaultCandidateCount,
		},
		obs: obs,
	}, nil
}

func buildEmbedder(cfg *clientConfig, logger *zap.Logger) (domain.Embedder, *dbValkey.Store, error) {
	var embedder domain.Embedder
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	} else {
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.embedding.APIKey,
			BaseURL:    cfg.embedding.BaseURL,
			Model:      cfg.embedding.Model,
			Dimensions: cfg.embedding.Dimensions,
			Logger:     logger,
		})
	}

	if cfg.cacheAddr == "" {
		return embedder, nil, nil
	}

	cache, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    []string{cfg.cacheAddr},
		Password: cfg.cachePassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("procsearch: create cache store: %w", err)
	}
	ttl := cfg.cacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return embcache.New(embedder, cache, ttl, metrics.EmbeddingCacheTotal, logger), cache, nil
}

// Close releases the store and cache connections.
func (c *Client) Close() {
	if c.db != nil {
		_ = c.db.Close()
	}
	if c.cache != nil {
		c.cache.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs the full pipeline for one query: normalization, embedding,
// retrieval and result shaping. An empty result slice with a nil error
// means the query genuinely matched nothing.
func (c *Client) Search(ctx context.Context, params SearchParams) (results []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	threshold := c.defaults.threshold
	if params.Threshold != nil {
		threshold = *params.Threshold
	}
	matchCount := params.MatchCount
	if matchCount == 0 {
		matchCount = c.defaults.matchCount
	}
	candidateCount := params.CandidateCount
	if candidateCount == 0 {
		candidateCount = c.defaults.candidateCount
	}

	req, err := request.New(params.Query, threshold, matchCount, candidateCount, params.Sources)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	results, err = c.search.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}

// Sources returns the distinct source labels present in the store.
func (c *Client) Sources(ctx context.Context) (sources []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sources", start, err) }()

	sources, err = c.search.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	return sources, nil
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok" or "degraded"
	Checks map[string]string // component → "ok"/"error"
}

// Health checks the health of all configured components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// recordAdapter converts internal records to public results.
type recordAdapter struct {
	svc *searchuc.Service
}

func (a *recordAdapter) Search(ctx context.Context, req *request.Request) ([]Result, error) {
	records, err := a.svc.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	results := make([]Result, len(records))
	for i := range records {
		results[i] = resultFromRecord(&records[i])
	}
	return results, nil
}

func (a *recordAdapter) Sources(ctx context.Context) ([]string, error) {
	return a.svc.Sources(ctx)
}
