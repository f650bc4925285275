package ingest

import (
	"context"

	"github.com/laborlens/laborlens/internal/domain"
)

// Doc is one record prepared for bulk vector indexing.
type Doc struct {
	RecordID string
	Text     string
	Industry string
	Clusters map[domain.Category]string // cluster label per category
}

// VectorIndexer is the ingestion-time side of the vector-search capability.
// A nil indexer skips indexing; computational queries are unaffected.
type VectorIndexer interface {
	Index(ctx context.Context, generation uint64, docs []Doc) error
}

// DatasetProvider supplies the normalized dataset. The engine never parses
// raw CSV.
type DatasetProvider interface {
	Load(ctx context.Context) ([]domain.Record, error)
}
