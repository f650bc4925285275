// Package ingest runs the exclusive write transaction of one dataset
// generation: clustering per category, aggregation build, bulk vector
// indexing, then an atomic swap of the active generation. Readers always see
// a complete generation or none.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/domain"
	"github.com/laborlens/laborlens/internal/usecase/aggregate"
	"github.com/laborlens/laborlens/internal/usecase/cluster"
	"github.com/laborlens/laborlens/internal/usecase/retrieve"
	"github.com/laborlens/laborlens/internal/usecase/router"
)

// Generation is one complete, immutable build of clustering and aggregation
// state for a dataset snapshot.
type Generation struct {
	Seq         uint64
	Records     []domain.Record
	Assignments map[domain.Category]*domain.ClusterAssignment
	Index       *aggregate.Index
	Vocabulary  router.Vocabulary
	BuiltAt     time.Time

	byID       map[string]*domain.Record
	classifier *router.Router
}

// Classifier returns the query router bound to this generation's vocabulary.
func (g *Generation) Classifier() *router.Router { return g.classifier }

// Snapshot returns the generation's read-only query state.
func (g *Generation) Snapshot() retrieve.Snapshot {
	return retrieve.Snapshot{
		Seq:         g.Seq,
		Records:     g.Records,
		ByID:        g.byID,
		Index:       g.Index,
		Assignments: g.Assignments,
	}
}

// Record resolves a record by id.
func (g *Generation) Record(id string) (*domain.Record, bool) {
	r, ok := g.byID[id]
	return r, ok
}

// Service owns the generation lifecycle.
type Service struct {
	clusterer *cluster.Service
	builder   *aggregate.Builder
	indexer   VectorIndexer
	logger    *zap.Logger

	buildMu sync.Mutex // one ingestion run at a time
	seq     atomic.Uint64
	active  atomic.Pointer[Generation]
}

// New creates the ingestion service. indexer may be nil when no vector-search
// capability is configured.
func New(clusterer *cluster.Service, builder *aggregate.Builder, indexer VectorIndexer, logger *zap.Logger) *Service {
	return &Service{clusterer: clusterer, builder: builder, indexer: indexer, logger: logger}
}

// Build constructs a new generation off to the side and swaps it in once
// complete. An ingestion run completes or fails as a whole; a failure leaves
// the previously active generation untouched.
func (s *Service) Build(ctx context.Context, records []domain.Record) (*Generation, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	if len(records) == 0 {
		return nil, domain.ErrEmptyDataset
	}
	start := time.Now()
	seq := s.seq.Load() + 1

	assignments := make(map[domain.Category]*domain.ClusterAssignment, 3)
	for _, cat := range domain.Categories() {
		a, err := s.clusterer.Cluster(ctx, records, cat)
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", cat, err)
		}
		assignments[cat] = &a
	}

	idx, err := s.builder.Build(records, assignments)
	if err != nil {
		return nil, fmt.Errorf("build aggregations: %w", err)
	}

	gen := &Generation{
		Seq:         seq,
		Records:     records,
		Assignments: assignments,
		Index:       idx,
		Vocabulary:  buildVocabulary(records),
		BuiltAt:     time.Now(),
		byID:        indexByID(records),
	}
	gen.classifier = router.New(gen.Vocabulary)

	if s.indexer != nil {
		if err := s.indexer.Index(ctx, seq, indexDocs(gen)); err != nil {
			return nil, fmt.Errorf("index vectors: %w", err)
		}
	}

	s.active.Store(gen)
	s.seq.Store(seq)
	s.logger.Info("generation activated",
		zap.Uint64("generation", seq),
		zap.Int("records", len(records)),
		zap.Duration("build", time.Since(start)))
	return gen, nil
}

// Active returns the current generation, or ErrNoActiveGeneration before the
// first successful build.
func (s *Service) Active() (*Generation, error) {
	gen := s.active.Load()
	if gen == nil {
		return nil, domain.ErrNoActiveGeneration
	}
	return gen, nil
}

// Resolve serves the generation for a requested sequence number. A request
// for a retired generation is served from the active one; the race is logged
// and reported to the caller through the returned error value alongside the
// usable generation.
func (s *Service) Resolve(requested uint64) (*Generation, error) {
	gen := s.active.Load()
	if gen == nil {
		return nil, domain.ErrNoActiveGeneration
	}
	if requested != 0 && requested != gen.Seq {
		s.logger.Warn("stale generation requested, serving active",
			zap.Uint64("requested", requested),
			zap.Uint64("active", gen.Seq))
		return gen, &domain.StaleGenerationError{Requested: requested, Active: gen.Seq}
	}
	return gen, nil
}

// buildVocabulary collects the distinct industry and occupation names,
// sorted, for router matching.
func buildVocabulary(records []domain.Record) router.Vocabulary {
	industries := make(map[string]struct{})
	occupations := make(map[string]struct{})
	for i := range records {
		if records[i].Industry != "" {
			industries[records[i].Industry] = struct{}{}
		}
		if records[i].Occupation != "" {
			occupations[records[i].Occupation] = struct{}{}
		}
	}
	return router.Vocabulary{
		Industries:  sortedKeys(industries),
		Occupations: sortedKeys(occupations),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexByID(records []domain.Record) map[string]*domain.Record {
	byID := make(map[string]*domain.Record, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}
	return byID
}

// indexDocs prepares every record for bulk vector indexing: occupation,
// description, and task text, keyed by record with cluster labels attached.
func indexDocs(gen *Generation) []Doc {
	docs := make([]Doc, 0, len(gen.Records))
	for i := range gen.Records {
		r := &gen.Records[i]
		parts := []string{r.Occupation, r.Description}
		parts = append(parts, r.Tasks...)

		clusters := make(map[domain.Category]string, len(gen.Assignments))
		for cat, a := range gen.Assignments {
			if id, ok := a.ClusterOf(r.ID); ok {
				clusters[cat] = a.Label(id)
			}
		}
		docs = append(docs, Doc{
			RecordID: r.ID,
			Text:     strings.TrimSpace(strings.Join(parts, " ")),
			Industry: r.Industry,
			Clusters: clusters,
		})
	}
	return docs
}
