// Package cluster groups semantically similar tasks, activities, and
// occupation titles into labeled clusters and attaches cluster ids to every
// record of a dataset generation.
package cluster

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/analytics/vectorize"
	"github.com/laborlens/laborlens/internal/domain"
)

// Config holds the clustering knobs. Zero fields fall back to defaults.
type Config struct {
	TaskClusters       int
	ActivityClusters   int
	OccupationClusters int
	SampleThreshold    int // distinct items above which fitting samples
	SampleSize         int
	MaxFeatures        int
	ComponentCap       int // PCA when TF-IDF dimensionality exceeds this
	MiniBatchThreshold int // fit documents above which mini-batch k-means runs
	MiniBatchSize      int
	MaxIter            int
	Seed               int64
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.TaskClusters <= 0 {
		c.TaskClusters = 15
	}
	if c.ActivityClusters <= 0 {
		c.ActivityClusters = 10
	}
	if c.OccupationClusters <= 0 {
		c.OccupationClusters = 20
	}
	if c.SampleThreshold <= 0 {
		c.SampleThreshold = 100_000
	}
	if c.SampleSize <= 0 {
		c.SampleSize = 10_000
	}
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = 500
	}
	if c.ComponentCap <= 0 {
		c.ComponentCap = 100
	}
	if c.MiniBatchThreshold <= 0 {
		c.MiniBatchThreshold = 10_000
	}
	if c.MiniBatchSize <= 0 {
		c.MiniBatchSize = 1000
	}
	if c.MaxIter <= 0 {
		c.MaxIter = 100
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// Clusters returns the configured cluster count for a category.
func (c *Config) Clusters(cat domain.Category) int {
	switch cat {
	case domain.CategoryTask:
		return c.TaskClusters
	case domain.CategoryActivity:
		return c.ActivityClusters
	case domain.CategoryOccupation:
		return c.OccupationClusters
	}
	return 0
}

// Service is the clustering engine.
type Service struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a clustering service.
func New(cfg Config, logger *zap.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{cfg: cfg, logger: logger}
}

// Cluster assigns every record a cluster id for the given category. The fit
// is deterministic for a fixed seed and input ordering; records outside the
// fitting sample are assigned to the nearest fitted centroid, never refit.
// Degenerate inputs (fewer distinct items than k, or an empty corpus) clamp
// k and flag the assignment instead of failing.
func (s *Service) Cluster(
	ctx context.Context, records []domain.Record, category domain.Category,
) (domain.ClusterAssignment, error) {
	if !category.Valid() {
		return domain.ClusterAssignment{}, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, category)
	}
	if err := ctx.Err(); err != nil {
		return domain.ClusterAssignment{}, err
	}

	texts, distinct := extractTexts(records, category)
	k := s.cfg.Clusters(category)

	if len(distinct) == 0 {
		s.logger.Warn("empty text corpus, using fallback cluster",
			zap.String("category", string(category)))
		return fallbackAssignment(records, category), nil
	}

	degenerate := false
	if len(distinct) < k {
		s.logger.Warn("fewer distinct items than clusters, clamping k",
			zap.String("category", string(category)),
			zap.Int("distinct", len(distinct)),
			zap.Int("k", k))
		k = len(distinct)
		degenerate = true
	}

	fitDocs := distinct
	if len(distinct) > s.cfg.SampleThreshold {
		fitDocs = sampleDocs(distinct, s.cfg.SampleSize, s.cfg.Seed)
		s.logger.Info("sampling corpus for clustering fit",
			zap.String("category", string(category)),
			zap.Int("distinct", len(distinct)),
			zap.Int("sample", len(fitDocs)))
	}

	tfidf := vectorize.NewTFIDF(s.cfg.MaxFeatures)
	if err := tfidf.Fit(fitDocs); err != nil {
		// Corpus of pure stopwords behaves like an empty one.
		s.logger.Warn("vectorization produced no features, using fallback cluster",
			zap.String("category", string(category)), zap.Error(err))
		return fallbackAssignment(records, category), nil
	}

	fitVecs := tfidf.TransformAll(fitDocs)
	var proj *vectorize.Projection
	if tfidf.Dimension() > s.cfg.ComponentCap && len(fitDocs) > s.cfg.ComponentCap {
		var err error
		proj, err = vectorize.FitPCA(fitVecs, s.cfg.ComponentCap)
		if err != nil {
			return domain.ClusterAssignment{}, fmt.Errorf("reduce dimensionality: %w", err)
		}
		fitVecs = proj.ProjectAll(fitVecs)
	}

	if k > len(fitDocs) {
		k = len(fitDocs)
		degenerate = true
	}
	km := vectorize.KMeans{K: k, MaxIter: s.cfg.MaxIter, Seed: s.cfg.Seed}
	if len(fitDocs) > s.cfg.MiniBatchThreshold {
		km.BatchSize = s.cfg.MiniBatchSize
	}
	model, err := km.Fit(fitVecs)
	if err != nil {
		return domain.ClusterAssignment{}, fmt.Errorf("cluster %s: %w", category, err)
	}

	// Assign every distinct item through the same transform pipeline.
	clusterOfText := make(map[string]int, len(distinct))
	for _, text := range distinct {
		vec := tfidf.Transform(text)
		if proj != nil {
			vec = proj.Project(vec)
		}
		clusterOfText[text] = model.Assign(vec)
	}

	byRecord := make(map[string]int, len(records))
	for _, r := range records {
		text := texts[r.ID]
		if text == "" {
			byRecord[r.ID] = 0
			continue
		}
		byRecord[r.ID] = clusterOfText[text]
	}

	labels := deriveLabels(category, k, distinct, clusterOfText, tfidf)

	s.logger.Info("clustering complete",
		zap.String("category", string(category)),
		zap.Int("k", k),
		zap.Int("distinct", len(distinct)),
		zap.Bool("degenerate", degenerate))

	return domain.ClusterAssignment{
		Category:   category,
		K:          k,
		Labels:     labels,
		ByRecord:   byRecord,
		Degenerate: degenerate,
	}, nil
}

// extractTexts returns the per-record category text and the distinct texts
// in first-appearance order.
func extractTexts(records []domain.Record, category domain.Category) (map[string]string, []string) {
	texts := make(map[string]string, len(records))
	seen := make(map[string]struct{})
	var distinct []string
	for _, r := range records {
		text := r.CategoryText(category)
		texts[r.ID] = text
		if text == "" {
			continue
		}
		if _, ok := seen[text]; !ok {
			seen[text] = struct{}{}
			distinct = append(distinct, text)
		}
	}
	return texts, distinct
}

// fallbackAssignment puts every record into a single degenerate cluster.
func fallbackAssignment(records []domain.Record, category domain.Category) domain.ClusterAssignment {
	byRecord := make(map[string]int, len(records))
	for _, r := range records {
		byRecord[r.ID] = 0
	}
	return domain.ClusterAssignment{
		Category:   category,
		K:          1,
		Labels:     []string{fmt.Sprintf("%s: unclustered", category)},
		ByRecord:   byRecord,
		Degenerate: true,
	}
}

// sampleDocs draws a fixed-size sample with a deterministic seed.
func sampleDocs(docs []string, size int, seed int64) []string {
	if len(docs) <= size {
		return docs
	}
	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(len(docs))[:size]
	out := make([]string, size)
	for i, j := range idx {
		out[i] = docs[j]
	}
	return out
}
