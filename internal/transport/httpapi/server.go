// Package httpapi is the thin HTTP surface of the engine: query, export,
// ingest, similarity, and health endpoints over chi.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/domain"
	"github.com/laborlens/laborlens/internal/usecase/aggregate"
	healthuc "github.com/laborlens/laborlens/internal/usecase/health"
	"github.com/laborlens/laborlens/internal/usecase/ingest"
	"github.com/laborlens/laborlens/internal/usecase/retrieve"
	similarityuc "github.com/laborlens/laborlens/internal/usecase/similarity"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecase services to HTTP handlers.
type Server struct {
	ingest        *ingest.Service
	retriever     *retrieve.Service
	similarity    *similarityuc.Service
	dataset       ingest.DatasetProvider
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server.
func NewServer(
	ing *ingest.Service,
	retriever *retrieve.Service,
	similarity *similarityuc.Service,
	dataset ingest.DatasetProvider,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:     ing,
		retriever:  retriever,
		similarity: similarity,
		dataset:    dataset,
		health:     health,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNoActiveGeneration, http.StatusServiceUnavailable, "no_active_generation"),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, "retrieval_unavailable"),
		sentinelHandler(domain.ErrUnknownAggregation, http.StatusBadRequest, "unknown_aggregation"),
		sentinelHandler(domain.ErrEmptyDataset, http.StatusBadRequest, "empty_dataset"),
		sentinelHandler(domain.ErrInvalidCategory, http.StatusBadRequest, "invalid_category"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
	}
	return s
}

// Routes mounts every endpoint on a router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/query", s.handleQuery)
	r.Post("/v1/export", s.handleExport)
	r.Post("/v1/ingest", s.handleIngest)
	r.Post("/v1/similarity", s.handleSimilarity)
	r.Get("/v1/occupations/similar", s.handleSimilarOccupations)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNoActiveGeneration,
		domain.ErrRetrievalUnavailable,
		domain.ErrUnknownAggregation,
		domain.ErrEmptyDataset,
		domain.ErrInvalidCategory,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// resolveGeneration serves the active generation, noting a stale request in a
// response header instead of failing it.
func (s *Server) resolveGeneration(w http.ResponseWriter, requested uint64) (*ingest.Generation, error) {
	gen, err := s.ingest.Resolve(requested)
	if err != nil {
		var stale *domain.StaleGenerationError
		if errors.As(err, &stale) {
			w.Header().Set("X-Stale-Generation", "true")
			return gen, nil
		}
		return nil, err
	}
	return gen, nil
}

var _ retrieve.AggregationIndex = (*aggregate.Index)(nil)
