package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/holzlar/procurement-search-app/internal/config"
	"github.com/holzlar/procurement-search-app/internal/db"
	dbValkey "github.com/holzlar/procurement-search-app/internal/db/valkey"
	"github.com/holzlar/procurement-search-app/internal/domain"
	logpkg "github.com/holzlar/procurement-search-app/internal/logger"
	"github.com/holzlar/procurement-search-app/internal/metrics"
	"github.com/holzlar/procurement-search-app/internal/repository/embcache"
	procrepo "github.com/holzlar/procurement-search-app/internal/repository/procurement"
	chiTransport "github.com/holzlar/procurement-search-app/internal/transport/chi"
	openaiEmb "github.com/holzlar/procurement-search-app/internal/transport/openai"
	embeddinguc "github.com/holzlar/procurement-search-app/internal/usecase/embedding"
	healthuc "github.com/holzlar/procurement-search-app/internal/usecase/health"
	searchuc "github.com/holzlar/procurement-search-app/internal/usecase/search"
	"github.com/holzlar/procurement-search-app/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting procurement search API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("model", cfg.Embedding.Model),
	)

	// Connect to the procurement store
	sqlDB, err := sqlx.Connect("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to procurement store", zap.Error(err))
	}
	defer func() { _ = sqlDB.Close() }()
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	logger.Info("Connected to procurement store")

	// Optional embedding cache store
	ctx := context.Background()
	var cacheStore db.Store
	if len(cfg.Cache.Addrs) > 0 {
		cacheStore, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := cacheStore.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache")
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// Embedder handle — built once, shared by the pipeline and health checks
	embedder := embeddinguc.NewLazy(
		buildEmbedder(cfg, cacheStore, logger), logger,
	)
	if err := embedder.Warm(ctx); err != nil {
		logger.Fatal("Embedder warm-up failed", zap.Error(err))
	}
	logger.Info("Embedder ready",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories
	repo, err := procrepo.New(sqlDB, procrepo.Config{
		SearchFunction:  cfg.Database.SearchFunction,
		SourcesFunction: cfg.Database.SourcesFunction,
		DataTable:       cfg.Database.DataTable,
		QueryTimeout:    time.Duration(cfg.Database.QueryTimeoutSec) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create procurement repository", zap.Error(err))
	}

	// Use case services
	searchSvc := searchuc.New(repo, embedder, logger)

	var cachePinger healthuc.CachePinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(repo, cachePinger, embedder)

	// Chi server
	server := chiTransport.NewServer(searchSvc, healthSvc, chiTransport.SearchDefaults{
		Threshold:      cfg.Search.DefaultThreshold,
		MatchCount:     cfg.Search.DefaultMatchCount,
		CandidateCount: cfg.Search.DefaultCandidateCount,
	})

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the embedder chain: OpenAI-compatible provider,
// wrapped in the KV cache when one is configured.
func buildEmbedder(cfg config.Config, cacheStore db.Store, logger *zap.Logger) embeddinguc.BuildFunc {
	return func(ctx context.Context) (domain.Embedder, error) {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})

		// A failing provider should fail startup, not the first query.
		if err := base.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("embedding provider check: %w", err)
		}

		var embedder domain.Embedder = base
		if cacheStore != nil {
			ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
			embedder = embcache.New(base, cacheStore, ttl, metrics.EmbeddingCacheTotal, logger)
		}
		return embedder, nil
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
