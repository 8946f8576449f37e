// Package embedding manages the process-wide embedder handle. The model
// behind the provider endpoint is expensive to load, so the handle is
// built exactly once per process and shared; a failed init is latched and
// every later call fails fast with the same error.
package embedding

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/holzlar/procurement-search-app/internal/domain"
)

// BuildFunc constructs the embedder chain (provider, cache decorators).
type BuildFunc func(ctx context.Context) (domain.Embedder, error)

// Lazy is an init-once embedder handle, safe for concurrent first use.
type Lazy struct {
	once     sync.Once
	build    BuildFunc
	logger   *zap.Logger
	embedder domain.Embedder
	err      error
}

// NewLazy creates the handle without touching the provider.
func NewLazy(build BuildFunc, logger *zap.Logger) *Lazy {
	return &Lazy{build: build, logger: logger}
}

// Warm forces initialization now. Called at startup so a misconfigured or
// unreachable model fails the process before it accepts traffic.
func (l *Lazy) Warm(ctx context.Context) error {
	l.init(ctx)
	return l.err
}

// Embed implements domain.Embedder.
func (l *Lazy) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	l.init(ctx)
	if l.err != nil {
		return domain.EmbeddingResult{}, l.err
	}
	return l.embedder.Embed(ctx, text)
}

// HealthCheck probes the underlying provider when it supports checks.
func (l *Lazy) HealthCheck(ctx context.Context) error {
	l.init(ctx)
	if l.err != nil {
		return l.err
	}
	if hc, ok := l.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedder health: %w", err)
		}
	}
	return nil
}

func (l *Lazy) init(ctx context.Context) {
	l.once.Do(func() {
		emb, err := l.build(ctx)
		if err != nil {
			l.err = fmt.Errorf("initialize embedder: %w", err)
			l.logger.Error("Embedder initialization failed", zap.Error(l.err))
			return
		}
		l.embedder = emb
		l.logger.Info("Embedder initialized")
	})
}
