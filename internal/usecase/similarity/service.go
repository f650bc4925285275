// Package similarity compares text content across industries: aggregate
// cross-group similarity, shared items above a threshold, exact occupation
// overlap, and cluster-based similar-occupation lookup. It reuses the same
// vectorization primitives as the clustering engine.
package similarity

import (
	"sort"

	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/analytics/vectorize"
	"github.com/laborlens/laborlens/internal/domain"
)

// Config holds the analyzer knobs. Zero fields fall back to defaults.
type Config struct {
	Threshold   float64 // cosine similarity above which items count as common
	MaxFeatures int
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Threshold <= 0 {
		c.Threshold = 0.7
	}
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = 500
	}
}

// Service is the similarity analyzer. Its methods are pure reads over the
// records they are given.
type Service struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a similarity analyzer.
func New(cfg Config, logger *zap.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{cfg: cfg, logger: logger}
}

// CrossGroupSimilarity scores how similar two industries are in a category's
// text space. Each group's items collapse into one aggregate document; the
// score is the cosine of the two TF-IDF vectors, clamped to [0,1]. Either
// group being empty yields 0.
func (s *Service) CrossGroupSimilarity(
	records []domain.Record, groupA, groupB string, category domain.Category,
) float64 {
	docA := joinItems(groupItems(records, groupA, category))
	docB := joinItems(groupItems(records, groupB, category))
	if docA == "" || docB == "" {
		return 0
	}

	tfidf := vectorize.NewTFIDF(s.cfg.MaxFeatures)
	if err := tfidf.Fit([]string{docA, docB}); err != nil {
		return 0
	}
	sim := vectorize.Cosine(tfidf.Transform(docA), tfidf.Transform(docB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// CommonItems returns group A items whose best cosine similarity against any
// group B item meets the threshold, normalized and sorted. Exact normalized
// matches count regardless of vector weight.
func (s *Service) CommonItems(
	records []domain.Record, groupA, groupB string, category domain.Category,
) []string {
	itemsA := groupItems(records, groupA, category)
	itemsB := groupItems(records, groupB, category)
	if len(itemsA) == 0 || len(itemsB) == 0 {
		return nil
	}

	normB := make(map[string]struct{}, len(itemsB))
	for _, it := range itemsB {
		normB[domain.NormalizeTitle(it)] = struct{}{}
	}

	corpus := make([]string, 0, len(itemsA)+len(itemsB))
	corpus = append(corpus, itemsA...)
	corpus = append(corpus, itemsB...)
	tfidf := vectorize.NewTFIDF(s.cfg.MaxFeatures)
	fitted := tfidf.Fit(corpus) == nil

	var vecsB [][]float64
	if fitted {
		vecsB = tfidf.TransformAll(itemsB)
	}

	seen := make(map[string]struct{})
	var common []string
	for _, it := range itemsA {
		norm := domain.NormalizeTitle(it)
		if _, ok := seen[norm]; ok {
			continue
		}
		if _, exact := normB[norm]; exact {
			seen[norm] = struct{}{}
			common = append(common, norm)
			continue
		}
		if !fitted {
			continue
		}
		vec := tfidf.Transform(it)
		for _, other := range vecsB {
			if vectorize.Cosine(vec, other) >= s.cfg.Threshold {
				seen[norm] = struct{}{}
				common = append(common, norm)
				break
			}
		}
	}
	sort.Strings(common)
	return common
}

// OccupationOverlap returns the normalized occupation titles present in both
// industries, sorted.
func (s *Service) OccupationOverlap(records []domain.Record, industryA, industryB string) []string {
	inA := make(map[string]struct{})
	for i := range records {
		if records[i].Industry == industryA {
			inA[domain.NormalizeTitle(records[i].Occupation)] = struct{}{}
		}
	}
	seen := make(map[string]struct{})
	var overlap []string
	for i := range records {
		if records[i].Industry != industryB {
			continue
		}
		norm := domain.NormalizeTitle(records[i].Occupation)
		if _, ok := inA[norm]; !ok {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		overlap = append(overlap, norm)
	}
	sort.Strings(overlap)
	return overlap
}

// SimilarOccupations returns occupation titles sharing a cluster with the
// given occupation, per the occupation-category assignment. The query title
// itself is excluded. Results are normalized, deduplicated, and sorted; limit
// <= 0 means no limit.
func (s *Service) SimilarOccupations(
	records []domain.Record, a *domain.ClusterAssignment, occupation string, limit int,
) []string {
	if a == nil || a.Category != domain.CategoryOccupation {
		return nil
	}
	target := domain.NormalizeTitle(occupation)

	cluster := -1
	for i := range records {
		if domain.NormalizeTitle(records[i].Occupation) != target {
			continue
		}
		if id, ok := a.ClusterOf(records[i].ID); ok {
			cluster = id
			break
		}
	}
	if cluster < 0 {
		return nil
	}

	seen := map[string]struct{}{target: {}}
	var similar []string
	for i := range records {
		id, ok := a.ClusterOf(records[i].ID)
		if !ok || id != cluster {
			continue
		}
		norm := domain.NormalizeTitle(records[i].Occupation)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		similar = append(similar, norm)
	}
	sort.Strings(similar)
	if limit > 0 && len(similar) > limit {
		similar = similar[:limit]
	}
	return similar
}

// ClusterStats summarizes one category's assignment: per-cluster sizes and
// the largest and smallest non-empty clusters.
type ClusterStats struct {
	Category   domain.Category
	K          int
	Sizes      []int
	Labels     []string
	Largest    int // cluster id, -1 when no members
	Smallest   int
	Degenerate bool
}

// Stats computes summary statistics for a cluster assignment.
func (s *Service) Stats(a *domain.ClusterAssignment) ClusterStats {
	st := ClusterStats{
		Category:   a.Category,
		K:          a.K,
		Sizes:      a.Sizes(),
		Labels:     a.Labels,
		Largest:    -1,
		Smallest:   -1,
		Degenerate: a.Degenerate,
	}
	for id, n := range st.Sizes {
		if n == 0 {
			continue
		}
		if st.Largest < 0 || n > st.Sizes[st.Largest] {
			st.Largest = id
		}
		if st.Smallest < 0 || n < st.Sizes[st.Smallest] {
			st.Smallest = id
		}
	}
	return st
}

// groupItems collects the distinct category items of one industry in
// first-appearance order.
func groupItems(records []domain.Record, industry string, category domain.Category) []string {
	seen := make(map[string]struct{})
	var items []string
	for i := range records {
		r := &records[i]
		if r.Industry != industry {
			continue
		}
		for _, it := range categoryItems(r, category) {
			if it == "" {
				continue
			}
			if _, ok := seen[it]; ok {
				continue
			}
			seen[it] = struct{}{}
			items = append(items, it)
		}
	}
	return items
}

func categoryItems(r *domain.Record, category domain.Category) []string {
	switch category {
	case domain.CategoryTask:
		return r.Tasks
	case domain.CategoryActivity:
		return r.Activities
	case domain.CategoryOccupation:
		return []string{r.Occupation}
	}
	return nil
}

func joinItems(items []string) string {
	if len(items) == 0 {
		return ""
	}
	out := items[0]
	for _, it := range items[1:] {
		out += " " + it
	}
	return out
}
