// Package chi exposes the search service over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/holzlar/procurement-search-app/internal/domain"
	"github.com/holzlar/procurement-search-app/internal/domain/display"
	"github.com/holzlar/procurement-search-app/internal/domain/procurement"
	"github.com/holzlar/procurement-search-app/internal/domain/search/request"
	logpkg "github.com/holzlar/procurement-search-app/internal/logger"
	healthuc "github.com/holzlar/procurement-search-app/internal/usecase/health"
	searchuc "github.com/holzlar/procurement-search-app/internal/usecase/search"
)

// previewRunes bounds the best-chunk preview in responses.
const previewRunes = 1500

type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeValidationFailed errorCode = "validation_failed"
	codeEmbeddingError   errorCode = "embedding_provider_error"
	codeStoreUnavailable errorCode = "store_unavailable"
	codeInternalError    errorCode = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// SearchDefaults fill request parameters the client leaves unset.
type SearchDefaults struct {
	Threshold      float64
	MatchCount     int
	CandidateCount int
}

// Server routes HTTP requests to the search pipeline.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	defaults      SearchDefaults
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. Handlers log through the
// request-scoped logger placed in the context by the server middleware.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	defaults SearchDefaults,
) *Server {
	s := &Server{
		search:   search,
		health:   health,
		defaults: defaults,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNoSourcesSelected, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, codeEmbeddingError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingError),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusBadGateway, codeStoreUnavailable),
	}
	return s
}

// Routes mounts the API onto r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.SearchProcurements)
	r.Get("/v1/sources", s.ListSources)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type searchRequest struct {
	Query          string   `json:"query"`
	Threshold      *float64 `json:"threshold,omitempty"`
	MatchCount     *int     `json:"match_count,omitempty"`
	CandidateCount *int     `json:"candidate_count,omitempty"`
	Sources        []string `json:"sources,omitempty"`
}

type searchResultItem struct {
	SimilarityScore float64  `json:"similarity_score"`
	SimilarityLevel string   `json:"similarity_level"`
	BestChunkText   string   `json:"best_chunk_text"`
	Source          string   `json:"source,omitempty"`
	PublishDate     string   `json:"publish_date"`
	Customer        string   `json:"customer,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty"`
	Unit            string   `json:"unit,omitempty"`
	UnitPrice       string   `json:"unit_price"`
	TotalPrice      string   `json:"total_price"`
	Winner          string   `json:"winner,omitempty"`
	Participants    []string `json:"participants"`
	Description     string   `json:"description,omitempty"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
}

type sourcesResponse struct {
	Sources []string `json:"sources"`
}

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchProcurements handles POST /v1/search.
func (s *Server) SearchProcurements(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	threshold := s.defaults.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	matchCount := s.defaults.MatchCount
	if req.MatchCount != nil {
		matchCount = *req.MatchCount
	}
	candidateCount := s.defaults.CandidateCount
	if req.CandidateCount != nil {
		candidateCount = *req.CandidateCount
	}

	searchReq, err := request.New(req.Query, threshold, matchCount, candidateCount, req.Sources)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	records, err := s.search.Search(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]searchResultItem, len(records))
	for i := range records {
		items[i] = resultItemFromRecord(&records[i])
	}

	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

// ListSources handles GET /v1/sources.
func (s *Server) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.search.Sources(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, sourcesResponse{Sources: sources})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func resultItemFromRecord(rec *procurement.Record) searchResultItem {
	item := searchResultItem{
		SimilarityScore: rec.SimilarityScore,
		SimilarityLevel: display.SimilarityLevel(rec.SimilarityScore),
		BestChunkText:   display.Truncate(rec.BestChunkText, previewRunes),
		Source:          rec.Source,
		PublishDate:     display.Date(rec.PublishDate),
		Customer:        rec.Customer,
		Unit:            rec.Unit,
		UnitPrice:       display.Currency(rec.UnitPrice),
		TotalPrice:      display.Currency(rec.TotalPrice),
		Winner:          rec.Winner,
		Participants:    procurement.OrderParticipants(*rec),
		Description:     rec.Description,
	}
	if !math.IsNaN(rec.Quantity) {
		q := rec.Quantity
		item.Quantity = &q
	}
	return item
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrNoSourcesSelected,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
