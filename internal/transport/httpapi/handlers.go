package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/domain"
	domagg "github.com/laborlens/laborlens/internal/domain/aggregate"
	"github.com/laborlens/laborlens/internal/domain/evidence"
	"github.com/laborlens/laborlens/internal/domain/intent"
	"github.com/laborlens/laborlens/internal/metrics"
	"github.com/laborlens/laborlens/internal/usecase/aggregate"
	healthuc "github.com/laborlens/laborlens/internal/usecase/health"
)

type queryRequest struct {
	Query      string `json:"query"`
	Generation uint64 `json:"generation,omitempty"`
}

type queryResponse struct {
	Generation  uint64          `json:"generation"`
	Tag         string          `json:"tag"`
	Handler     string          `json:"handler,omitempty"`
	Params      paramsDTO       `json:"params"`
	Items       []itemDTO       `json:"items"`
	Aggregation *aggregationDTO `json:"aggregation,omitempty"`
}

type paramsDTO struct {
	Keyword     string `json:"keyword,omitempty"`
	Verb        string `json:"verb,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
	GroupBy     string `json:"group_by,omitempty"`
	WantsExport bool   `json:"wants_export,omitempty"`
}

type itemDTO struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Score      float64  `json:"score"`
	SimScore   float64  `json:"sim_score"`
	StatScore  float64  `json:"stat_score"`
	Content    string   `json:"content"`
	Provenance []string `json:"provenance"`
}

type aggregationDTO struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    []rowDTO   `json:"rows"`
	Flat    [][]string `json:"flat"`
}

type rowDTO struct {
	Key      string  `json:"key"`
	Value    float64 `json:"value"`
	Defined  bool    `json:"defined"`
	Op       string  `json:"op"`
	Operands int     `json:"operands"`
	Excluded int     `json:"excluded"`
}

// handleQuery classifies and retrieves in one call: POST /v1/query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
		return
	}

	gen, err := s.resolveGeneration(w, req.Generation)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	in := gen.Classifier().Classify(req.Query)
	metrics.QueriesTotal.WithLabelValues(string(in.Tag()), string(in.Handler())).Inc()

	bundle, err := s.retriever.Retrieve(r.Context(), gen.Snapshot(), in, req.Query)
	if err != nil {
		metrics.RetrievalFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Generation:  gen.Seq,
		Tag:         string(in.Tag()),
		Handler:     string(in.Handler()),
		Params:      paramsToDTO(in.Params()),
		Items:       itemsToDTO(bundle.Items()),
		Aggregation: aggregationToDTO(bundle.Aggregation()),
	})
}

func failureReason(err error) string {
	if errors.Is(err, domain.ErrRetrievalUnavailable) {
		return "unavailable"
	}
	if errors.Is(err, domain.ErrUnknownAggregation) {
		return "unknown_aggregation"
	}
	return "other"
}

type exportRequest struct {
	Name       string `json:"name"`
	GroupBy    string `json:"group_by,omitempty"`
	Key        string `json:"key,omitempty"`
	TopN       int    `json:"top_n,omitempty"`
	Descending bool   `json:"descending,omitempty"`
	Generation uint64 `json:"generation,omitempty"`
}

// handleExport serializes an aggregation table as CSV: POST /v1/export.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "name is required")
		return
	}

	gen, err := s.resolveGeneration(w, req.Generation)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	table, err := gen.Index.Query(req.Name, aggregate.Params{
		GroupBy:    req.GroupBy,
		Key:        req.Key,
		TopN:       req.TopN,
		Descending: req.Descending,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+req.Name+`.csv"`)
	if err := table.WriteCSV(w); err != nil {
		s.logger.Error("csv export failed", zap.Error(err))
	}
}

// handleIngest rebuilds the generation from the dataset source: POST /v1/ingest.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	records, err := s.dataset.Load(r.Context())
	if err != nil {
		s.logger.Error("dataset load failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "dataset_error", "failed to load dataset")
		return
	}

	start := time.Now()
	gen, err := s.ingest.Build(r.Context(), records)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	metrics.ActiveGeneration.Set(float64(gen.Seq))
	metrics.GenerationBuildDuration.Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, map[string]any{
		"generation": gen.Seq,
		"records":    len(gen.Records),
	})
}

type similarityRequest struct {
	IndustryA  string `json:"industry_a"`
	IndustryB  string `json:"industry_b"`
	Category   string `json:"category"`
	Generation uint64 `json:"generation,omitempty"`
}

// handleSimilarity compares two industries: POST /v1/similarity.
func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	cat := domain.Category(req.Category)
	if !cat.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_category", "category must be task, activity, or occupation")
		return
	}
	if req.IndustryA == "" || req.IndustryB == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "industry_a and industry_b are required")
		return
	}

	gen, err := s.resolveGeneration(w, req.Generation)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"generation":         gen.Seq,
		"similarity":         s.similarity.CrossGroupSimilarity(gen.Records, req.IndustryA, req.IndustryB, cat),
		"common_items":       s.similarity.CommonItems(gen.Records, req.IndustryA, req.IndustryB, cat),
		"occupation_overlap": s.similarity.OccupationOverlap(gen.Records, req.IndustryA, req.IndustryB),
	})
}

// handleSimilarOccupations lists occupations sharing a cluster with the given
// one: GET /v1/occupations/similar?occupation=...&limit=N.
func (s *Server) handleSimilarOccupations(w http.ResponseWriter, r *http.Request) {
	occupation := r.URL.Query().Get("occupation")
	if occupation == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "occupation is required")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	gen, err := s.resolveGeneration(w, 0)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	similar := s.similarity.SimilarOccupations(
		gen.Records, gen.Assignments[domain.CategoryOccupation], occupation, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"generation": gen.Seq,
		"occupation": occupation,
		"similar":    similar,
	})
}

// handleHealth reports readiness: GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func paramsToDTO(p intent.Params) paramsDTO {
	return paramsDTO{
		Keyword:     p.Keyword,
		Verb:        string(p.Verb),
		Limit:       p.Limit,
		Industry:    p.Industry,
		Occupation:  p.Occupation,
		GroupBy:     p.GroupBy,
		WantsExport: p.WantsExport,
	}
}

func itemsToDTO(items []evidence.Item) []itemDTO {
	out := make([]itemDTO, len(items))
	for i := range items {
		it := &items[i]
		prov := make([]string, len(it.Provenance()))
		for j, p := range it.Provenance() {
			prov[j] = string(p)
		}
		out[i] = itemDTO{
			ID:         it.ID(),
			Kind:       string(it.Kind()),
			Score:      it.Score(),
			SimScore:   it.SimScore(),
			StatScore:  it.StatScore(),
			Content:    it.Content(),
			Provenance: prov,
		}
	}
	return out
}

func aggregationToDTO(t *domagg.Table) *aggregationDTO {
	if t == nil {
		return nil
	}
	rows := make([]rowDTO, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = rowDTO{
			Key:      r.Key,
			Value:    r.Stat.Value,
			Defined:  r.Stat.Defined,
			Op:       r.Stat.Op,
			Operands: r.Stat.Operands,
			Excluded: r.Stat.Excluded,
		}
	}
	return &aggregationDTO{
		Name:    t.Name,
		Columns: []string{t.KeyColumn, t.ValueColumn},
		Rows:    rows,
		Flat:    t.Flat(),
	}
}
