package retrieve

import (
	"context"

	"github.com/laborlens/laborlens/internal/domain"
	domagg "github.com/laborlens/laborlens/internal/domain/aggregate"
	"github.com/laborlens/laborlens/internal/usecase/aggregate"
)

// SearchFilter narrows a vector search by record metadata.
type SearchFilter struct {
	Industry string
	Cluster  string // cluster label
}

// Hit is one nearest-neighbor result from the vector-search capability.
type Hit struct {
	RecordID string
	Score    float64
	Content  string
}

// VectorSearcher is the external vector-search capability. A nil searcher
// means the capability is unavailable; computational queries still succeed.
type VectorSearcher interface {
	Search(ctx context.Context, queryText string, topK int, filter SearchFilter) ([]Hit, error)
}

// AggregationIndex is the precomputed statistics surface of one generation.
type AggregationIndex interface {
	Query(name string, p aggregate.Params) (domagg.Table, error)
}

// Snapshot is the read-only query state of one dataset generation. It is
// passed explicitly per call; the retriever holds no generation state.
type Snapshot struct {
	Seq         uint64
	Records     []domain.Record
	ByID        map[string]*domain.Record
	Index       AggregationIndex
	Assignments map[domain.Category]*domain.ClusterAssignment
}
