// Package retrieve dispatches a classified query to vector search, the
// aggregation index, or both, and fuses the results into one ranked,
// deduplicated evidence bundle.
package retrieve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/domain"
	domagg "github.com/laborlens/laborlens/internal/domain/aggregate"
	"github.com/laborlens/laborlens/internal/domain/evidence"
	"github.com/laborlens/laborlens/internal/domain/intent"
	"github.com/laborlens/laborlens/internal/usecase/aggregate"
)

// Config holds the retrieval knobs. Zero fields fall back to defaults.
type Config struct {
	TopK           int           // nearest neighbors requested per search
	MaxTopK        int           // hard ceiling on requested neighbors
	EvidenceCap    int           // max evidence items per bundle
	SemanticWeight float64       // fusion weight of normalized similarity
	StatWeight     float64       // fusion weight of normalized stat relevance
	SearchTimeout  time.Duration // bound on the single external search call
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.TopK <= 0 {
		c.TopK = 10
	}
	if c.MaxTopK <= 0 {
		c.MaxTopK = 50
	}
	if c.TopK > c.MaxTopK {
		c.TopK = c.MaxTopK
	}
	if c.EvidenceCap <= 0 {
		c.EvidenceCap = 20
	}
	if c.SemanticWeight <= 0 && c.StatWeight <= 0 {
		c.SemanticWeight = 0.5
		c.StatWeight = 0.5
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 5 * time.Second
	}
}

// Service is the hybrid retriever.
type Service struct {
	cfg      Config
	searcher VectorSearcher
	logger   *zap.Logger
}

// New creates a retriever. searcher may be nil when the vector-search
// capability is not configured.
func New(cfg Config, searcher VectorSearcher, logger *zap.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{cfg: cfg, searcher: searcher, logger: logger}
}

// Retrieve produces the evidence bundle for one classified query against one
// generation snapshot. The result is deterministic for a fixed snapshot and
// intent: composite score descending, ties broken by id ascending.
func (s *Service) Retrieve(
	ctx context.Context, snap Snapshot, in intent.Intent, queryText string,
) (evidence.Bundle, error) {
	var items []evidence.Item
	var payload *domagg.Table

	if in.NeedsComputational() {
		table, err := s.lookupAggregation(snap, in)
		if err != nil {
			return evidence.Bundle{}, err
		}
		payload = &table
		items = append(items, statisticItems(table)...)
	}

	if in.NeedsSemantic() {
		hits, err := s.search(ctx, snap, in, queryText)
		if err != nil {
			return evidence.Bundle{}, err
		}
		items = append(items, s.fuseDocuments(snap, in, hits, payload)...)
	}

	bundle := evidence.NewBundle(items, payload, s.cfg.EvidenceCap)
	s.logger.Debug("evidence bundle assembled",
		zap.Uint64("generation", snap.Seq),
		zap.String("tag", string(in.Tag())),
		zap.Int("items", bundle.Len()))
	return bundle, nil
}

// search performs the single bounded external call. Timeout and transport
// failures surface as retrieval unavailability; retries belong to the caller.
func (s *Service) search(ctx context.Context, snap Snapshot, in intent.Intent, queryText string) ([]Hit, error) {
	if s.searcher == nil {
		return nil, domain.ErrRetrievalUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SearchTimeout)
	defer cancel()

	topK := in.Params().Limit
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	if topK > s.cfg.MaxTopK {
		topK = s.cfg.MaxTopK
	}

	hits, err := s.searcher.Search(ctx, queryText, topK, SearchFilter{
		Industry: in.Params().Industry,
		Cluster:  matchClusterLabel(snap, queryText),
	})
	if err != nil {
		s.logger.Warn("vector search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrRetrievalUnavailable, err)
	}
	return hits, nil
}

// matchClusterLabel narrows the vector search to one task cluster when every
// derived term of its label occurs in the query text. The most specific
// matching label wins; equal term counts tie-break lexically.
func matchClusterLabel(snap Snapshot, queryText string) string {
	a := snap.Assignments[domain.CategoryTask]
	if a == nil {
		return ""
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(domain.NormalizeTitle(queryText)) {
		if w = strings.Trim(w, "?.,!;:\"'"); w != "" {
			words[w] = struct{}{}
		}
	}

	best, bestTerms := "", 0
	for _, label := range a.Labels {
		terms := labelTerms(label)
		if len(terms) == 0 || len(terms) < bestTerms {
			continue
		}
		covered := true
		for _, term := range terms {
			if _, ok := words[term]; !ok {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}
		if len(terms) > bestTerms || label < best {
			best, bestTerms = label, len(terms)
		}
	}
	return best
}

// labelTerms splits a derived cluster label of the form "task: a, b" into its
// term list.
func labelTerms(label string) []string {
	_, rest, ok := strings.Cut(label, ": ")
	if !ok {
		return nil
	}
	return strings.Split(rest, ", ")
}

// lookupAggregation resolves the intent to a precomputed table. Handlers map
// to fixed computed-metric tables; generic intents map by aggregation verb.
func (s *Service) lookupAggregation(snap Snapshot, in intent.Intent) (domagg.Table, error) {
	p := in.Params()

	var name string
	switch in.Handler() {
	case intent.HandlerDigitalDocument:
		name = aggregate.TableDigitalDocument
	case intent.HandlerAgentSavings:
		name = aggregate.TableTimeSavings
	default:
		switch p.Verb {
		case intent.VerbSum:
			name = aggregate.TableEmploymentSum
		case intent.VerbMean:
			name = aggregate.TableWageMean
		case intent.VerbTopN:
			name = aggregate.TableEmploymentSum
		default:
			name = aggregate.TableRecordCount
		}
	}

	// An extracted entity narrows the lookup to its own group. Occupation is
	// the finer dimension, so it wins when both were extracted.
	params := aggregate.Params{GroupBy: p.GroupBy}
	switch {
	case p.Occupation != "" && (p.GroupBy == "" || p.GroupBy == aggregate.GroupByOccupation):
		params.GroupBy = aggregate.GroupByOccupation
		params.Key = p.Occupation
	case p.Industry != "" && (p.GroupBy == "" || p.GroupBy == aggregate.GroupByIndustry):
		params.GroupBy = aggregate.GroupByIndustry
		params.Key = p.Industry
	}
	if p.Verb == intent.VerbTopN {
		params.TopN = p.Limit
		params.Descending = true
	}

	return snap.Index.Query(name, params)
}

// statisticItems converts defined table rows into statistic evidence with the
// statistical component normalized by the table's largest magnitude.
func statisticItems(t domagg.Table) []evidence.Item {
	maxAbs := 0.0
	for _, row := range t.Rows {
		if !row.Stat.Defined {
			continue
		}
		if v := abs(row.Stat.Value); v > maxAbs {
			maxAbs = v
		}
	}

	items := make([]evidence.Item, 0, len(t.Rows))
	for _, row := range t.Rows {
		if !row.Stat.Defined {
			continue
		}
		score := 0.0
		if maxAbs > 0 {
			score = abs(row.Stat.Value) / maxAbs
		}
		id := fmt.Sprintf("stat:%s:%s", t.Name, row.Key)
		content := fmt.Sprintf("%s(%s=%s) = %s [operands=%d excluded=%d]",
			row.Stat.Op, t.KeyColumn, row.Key,
			domagg.FormatValue(row.Stat.Value), row.Stat.Operands, row.Stat.Excluded)
		items = append(items, evidence.NewStatistic(id, score, content))
	}
	return items
}

// fuseDocuments scores semantic hits with the composite weighting: normalized
// similarity plus normalized employment as the statistical relevance signal.
// A record that also belongs to the computational result keeps both
// provenance tags.
func (s *Service) fuseDocuments(
	snap Snapshot, in intent.Intent, hits []Hit, payload *domagg.Table,
) []evidence.Item {
	if len(hits) == 0 {
		return nil
	}

	maxSim, maxEmp := 0.0, int64(0)
	for _, h := range hits {
		if h.Score > maxSim {
			maxSim = h.Score
		}
		if r, ok := snap.ByID[h.RecordID]; ok && r.Employment > maxEmp {
			maxEmp = r.Employment
		}
	}

	compGroups := make(map[string]struct{})
	if payload != nil {
		for _, row := range payload.Rows {
			compGroups[row.Key] = struct{}{}
		}
	}

	wSim, wStat := s.cfg.SemanticWeight, s.cfg.StatWeight
	items := make([]evidence.Item, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.RecordID]; dup {
			continue
		}
		seen[h.RecordID] = struct{}{}

		sim := 0.0
		if maxSim > 0 {
			sim = h.Score / maxSim
		}
		stat := 0.0
		inCompGroup := false
		if r, ok := snap.ByID[h.RecordID]; ok {
			if maxEmp > 0 {
				stat = float64(r.Employment) / float64(maxEmp)
			}
			if payload != nil {
				key := r.Industry
				if payload.KeyColumn == aggregate.GroupByOccupation {
					key = r.Occupation
				}
				_, inCompGroup = compGroups[key]
			}
		}

		prov := []evidence.Provenance{evidence.FromSemantic}
		if in.NeedsComputational() && inCompGroup {
			prov = append(prov, evidence.FromComputational)
		}
		composite := wSim*sim + wStat*stat
		item := evidence.NewDocument(h.RecordID, h.Score, h.Content)
		items = append(items, item.WithScores(composite, sim, stat, prov))
	}
	return items
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
