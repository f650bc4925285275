// Package vecsearch is the vector-search capability backed by a Redis-protocol
// search engine (Redis Stack or Valkey with RediSearch): FT.CREATE at startup,
// bulk HSET plus embedding at ingestion, FT.SEARCH KNN at query time.
package vecsearch

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/domain"
	"github.com/laborlens/laborlens/internal/usecase/ingest"
	"github.com/laborlens/laborlens/internal/usecase/retrieve"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config holds the store settings.
type Config struct {
	KeyPrefix       string // default "laborlens:"
	Dimensions      int
	HNSWM           int
	HNSWEFConstruct int
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "laborlens:"
	}
	if c.HNSWM <= 0 {
		c.HNSWM = 32
	}
	if c.HNSWEFConstruct <= 0 {
		c.HNSWEFConstruct = 400
	}
}

// Store implements retrieve.VectorSearcher and ingest.VectorIndexer.
type Store struct {
	client   rueidis.Client
	embedder Embedder
	cfg      Config
	logger   *zap.Logger

	generation atomic.Uint64 // last fully indexed generation
}

// New creates the store. EnsureIndex must run before the first Index call.
func New(cfg Config, client rueidis.Client, embedder Embedder, logger *zap.Logger) *Store {
	cfg.ApplyDefaults()
	return &Store{client: client, embedder: embedder, cfg: cfg, logger: logger}
}

func (s *Store) indexName() string { return s.cfg.KeyPrefix + "records:idx" }
func (s *Store) docPrefix() string { return s.cfg.KeyPrefix + "records:" }

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// EnsureIndex creates the search index if it does not exist.
func (s *Store) EnsureIndex(ctx context.Context) error {
	args := []string{
		s.indexName(), "ON", "HASH", "PREFIX", "1", s.docPrefix(),
		"SCHEMA",
		"__content", "TEXT",
		"industry", "TAG",
		"generation", "TAG",
		"cluster_task", "TAG",
		"cluster_activity", "TAG",
		"cluster_occupation", "TAG",
		"__vector", "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.cfg.Dimensions),
		"DISTANCE_METRIC", "COSINE",
		"M", strconv.Itoa(s.cfg.HNSWM),
		"EF_CONSTRUCTION", strconv.Itoa(s.cfg.HNSWEFConstruct),
	}
	cmd := s.client.B().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		if strings.Contains(err.Error(), "Index already exists") {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Index embeds and writes every document of a generation, then marks the
// generation as searchable. Searches keep serving the previous generation
// until the bulk write completes.
func (s *Store) Index(ctx context.Context, generation uint64, docs []ingest.Doc) error {
	gen := strconv.FormatUint(generation, 10)
	for i := range docs {
		d := &docs[i]
		vec, err := s.embedder.Embed(ctx, d.Text)
		if err != nil {
			return fmt.Errorf("embed %s: %w", d.RecordID, err)
		}
		cmd := s.client.B().Hset().
			Key(s.docPrefix() + gen + ":" + d.RecordID).
			FieldValue().
			FieldValue("__content", d.Text).
			FieldValue("__vector", vectorToBytes(vec)).
			FieldValue("industry", d.Industry).
			FieldValue("generation", gen).
			FieldValue("cluster_task", d.Clusters[domain.CategoryTask]).
			FieldValue("cluster_activity", d.Clusters[domain.CategoryActivity]).
			FieldValue("cluster_occupation", d.Clusters[domain.CategoryOccupation]).
			Build()
		if err := s.client.Do(ctx, cmd).Error(); err != nil {
			return fmt.Errorf("write %s: %w", d.RecordID, err)
		}
	}
	s.generation.Store(generation)
	s.logger.Info("vector index populated",
		zap.Uint64("generation", generation),
		zap.Int("documents", len(docs)))
	return nil
}

// Search embeds the query and runs a KNN search against the active
// generation's documents.
func (s *Store) Search(
	ctx context.Context, queryText string, topK int, filter retrieve.SearchFilter,
) ([]retrieve.Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}
	gen := s.generation.Load()
	if gen == 0 {
		return nil, fmt.Errorf("no indexed generation")
	}

	vec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	filterStr := buildFilter(gen, filter)
	queryStr := fmt.Sprintf("(%s)=>[KNN %d @__vector $BLOB]", filterStr, topK)

	args := []string{
		s.indexName(), queryStr,
		"RETURN", "2", "__content", "__vector_score",
		"PARAMS", "2", "BLOB", vectorToBytes(vec),
		"DIALECT", "2",
	}
	cmd := s.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	return s.parseHits(raw, gen)
}

func buildFilter(gen uint64, filter retrieve.SearchFilter) string {
	parts := []string{fmt.Sprintf("@generation:{%d}", gen)}
	if filter.Industry != "" {
		parts = append(parts, fmt.Sprintf("@industry:{%s}", tagEscaper.Replace(filter.Industry)))
	}
	if filter.Cluster != "" {
		parts = append(parts, fmt.Sprintf("@cluster_task:{%s}", tagEscaper.Replace(filter.Cluster)))
	}
	return strings.Join(parts, " ")
}

// parseHits walks the 2-stride FT.SEARCH reply: [total, key1, fields1, ...].
// Cosine distance converts to similarity clamped to [0,1].
func (s *Store) parseHits(raw []rueidis.RedisMessage, gen uint64) ([]retrieve.Hit, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	prefix := s.docPrefix() + strconv.FormatUint(gen, 10) + ":"
	hits := make([]retrieve.Hit, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		hit := retrieve.Hit{RecordID: strings.TrimPrefix(key, prefix)}
		for j := 0; j+1 < len(fields); j += 2 {
			name, err := fields[j].ToString()
			if err != nil {
				continue
			}
			value, err := fields[j+1].ToString()
			if err != nil {
				continue
			}
			switch name {
			case "__content":
				hit.Content = value
			case "__vector_score":
				if d, err := strconv.ParseFloat(value, 64); err == nil {
					hit.Score = max(0, 1.0-d)
				}
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
