package procsearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// EmbeddingConfig holds the OpenAI-compatible embedding provider settings.
// The model must match the one the store index was built with.
type EmbeddingConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

type clientConfig struct {
	dsn          string
	maxOpenConns int
	queryTimeout time.Duration

	searchFunction  string
	sourcesFunction string
	dataTable       string

	embedder  Embedder
	embedding EmbeddingConfig

	cacheAddr     string
	cachePassword string
	cacheTTL      time.Duration

	defaultThreshold      float64
	defaultMatchCount     int
	defaultCandidateCount int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres sets the procurement store connection string.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dsn = dsn
	})
}

// WithMaxOpenConns bounds the store connection pool. Default: 4.
func WithMaxOpenConns(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxOpenConns = n
	})
}

// WithQueryTimeout bounds a single store call. Default: 30s.
func WithQueryTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryTimeout = d
	})
}

// WithStoreFunctions overrides the store-side search and sources function
// names and the fallback data table. Empty strings keep the defaults.
func WithStoreFunctions(search, sources, dataTable string) Option {
	return optionFunc(func(c *clientConfig) {
		if search != "" {
			c.searchFunction = search
		}
		if sources != "" {
			c.sourcesFunction = sources
		}
		if dataTable != "" {
			c.dataTable = dataTable
		}
	})
}

// WithOpenAIEmbedding configures the built-in OpenAI-compatible embedding
// provider.
func WithOpenAIEmbedding(cfg EmbeddingConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedding = cfg
	})
}

// WithEmbedder sets a custom embedding provider, replacing the built-in one.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithEmbeddingCache caches query embeddings in a Valkey/Redis instance.
// ttl <= 0 uses the default of 7 days.
func WithEmbeddingCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddr = addr
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithSearchDefaults sets the parameters used when a SearchParams field is
// left zero. Zero values keep the built-in defaults (0.3, 10, 10000).
func WithSearchDefaults(threshold float64, matchCount, candidateCount int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultThreshold = threshold
		c.defaultMatchCount = matchCount
		c.defaultCandidateCount = candidateCount
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
