// Package evidence holds the ranked context bundle handed to response
// synthesis: retrieved document references, computed statistics, and the raw
// aggregation payload so downstream consumers can cite exact numbers.
package evidence

import (
	"sort"

	"github.com/laborlens/laborlens/internal/domain/aggregate"
)

// Kind distinguishes evidence item types.
type Kind string

const (
	KindDocument  Kind = "document"
	KindStatistic Kind = "statistic"
)

// Provenance records which retrieval path produced an item. A deduplicated
// item keeps every provenance that contributed it.
type Provenance string

const (
	FromSemantic      Provenance = "semantic"
	FromComputational Provenance = "computational"
)

// Item is a single ranked piece of evidence.
type Item struct {
	id         string
	kind       Kind
	score      float64 // composite score used for ranking
	simScore   float64 // normalized similarity component
	statScore  float64 // normalized statistical-relevance component
	content    string
	provenance []Provenance
}

// NewDocument creates a document-reference item.
func NewDocument(id string, score float64, content string) Item {
	return Item{
		id: id, kind: KindDocument, score: score, simScore: score,
		content: content, provenance: []Provenance{FromSemantic},
	}
}

// NewStatistic creates a computed-statistic item.
func NewStatistic(id string, score float64, content string) Item {
	return Item{
		id: id, kind: KindStatistic, score: score, statScore: score,
		content: content, provenance: []Provenance{FromComputational},
	}
}

// ID returns the record reference or statistic id.
func (it *Item) ID() string { return it.id }

// Kind returns the item kind.
func (it *Item) Kind() Kind { return it.kind }

// Score returns the composite ranking score.
func (it *Item) Score() float64 { return it.score }

// SimScore returns the normalized similarity component.
func (it *Item) SimScore() float64 { return it.simScore }

// StatScore returns the normalized statistical component.
func (it *Item) StatScore() float64 { return it.statScore }

// Content returns the item text.
func (it *Item) Content() string { return it.content }

// Provenance returns every retrieval path that produced the item.
func (it *Item) Provenance() []Provenance { return it.provenance }

// WithScores rebuilds the item with fused scores and merged provenance.
func (it Item) WithScores(composite, sim, stat float64, prov []Provenance) Item {
	it.score = composite
	it.simScore = sim
	it.statScore = stat
	it.provenance = prov
	return it
}

// Bundle is the ranked, capped evidence sequence plus the raw aggregation
// payload. Bundles are consumed immediately by synthesis and discarded.
type Bundle struct {
	items       []Item
	aggregation *aggregate.Table
}

// NewBundle sorts items by composite score descending (ties broken by id
// ascending for reproducibility), truncates to cap, and attaches the raw
// aggregation payload. cap <= 0 means uncapped.
func NewBundle(items []Item, aggregation *aggregate.Table, cap int) Bundle {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].score != sorted[j].score {
			return sorted[i].score > sorted[j].score
		}
		return sorted[i].id < sorted[j].id
	})
	if cap > 0 && len(sorted) > cap {
		sorted = sorted[:cap]
	}
	return Bundle{items: sorted, aggregation: aggregation}
}

// Items returns the ranked evidence items.
func (b *Bundle) Items() []Item { return b.items }

// Aggregation returns the raw aggregation payload, nil when none applies.
func (b *Bundle) Aggregation() *aggregate.Table { return b.aggregation }

// Len returns the number of evidence items.
func (b *Bundle) Len() int { return len(b.items) }
