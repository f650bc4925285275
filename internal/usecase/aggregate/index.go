package aggregate

import (
	"fmt"

	"github.com/laborlens/laborlens/internal/domain"
	domagg "github.com/laborlens/laborlens/internal/domain/aggregate"
)

// Params narrows an aggregation query: grouping dimension, single-key
// filter, top-N truncation, and sort direction.
type Params struct {
	GroupBy    string // defaults to "industry" when the table has it
	Key        string // exact group filter, "" = all groups
	TopN       int    // 0 = all rows
	Descending bool
}

// Index serves precomputed tables. It is immutable after Build; queries are
// slice/lookup operations over groups, never rescans of raw records.
type Index struct {
	tables map[string]map[string]domagg.Table // name -> groupBy -> table
}

func (idx *Index) put(name, groupBy string, t domagg.Table) {
	byGroup, ok := idx.tables[name]
	if !ok {
		byGroup = make(map[string]domagg.Table)
		idx.tables[name] = byGroup
	}
	byGroup[groupBy] = t
}

func (idx *Index) size() int {
	n := 0
	for _, byGroup := range idx.tables {
		n += len(byGroup)
	}
	return n
}

// Names returns the available table names.
func (idx *Index) Names() []string {
	names := make([]string, 0, len(idx.tables))
	for name := range idx.tables {
		names = append(names, name)
	}
	return names
}

// Query resolves a table by name and applies the filter parameters.
func (idx *Index) Query(name string, p Params) (domagg.Table, error) {
	byGroup, ok := idx.tables[name]
	if !ok {
		return domagg.Table{}, fmt.Errorf("%w: %q", domain.ErrUnknownAggregation, name)
	}

	groupBy := p.GroupBy
	if groupBy == "" {
		if _, ok := byGroup[GroupByIndustry]; ok {
			groupBy = GroupByIndustry
		} else {
			for g := range byGroup {
				groupBy = g
				break
			}
		}
	}
	t, ok := byGroup[groupBy]
	if !ok {
		return domagg.Table{}, fmt.Errorf("%w: %q has no grouping %q", domain.ErrUnknownAggregation, name, groupBy)
	}

	if p.Key != "" {
		st, found := t.Lookup(p.Key)
		out := t
		out.Rows = nil
		if found {
			out.Rows = []domagg.Row{{Key: p.Key, Stat: st}}
		}
		return out, nil
	}

	out := t.Sorted(p.Descending)
	if p.TopN > 0 {
		out = out.Head(p.TopN)
	}
	return out, nil
}

// Value resolves a single statistic: the named table filtered to one key.
func (idx *Index) Value(name, groupBy, key string) (domagg.Stat, error) {
	t, err := idx.Query(name, Params{GroupBy: groupBy, Key: key})
	if err != nil {
		return domagg.Stat{}, err
	}
	if len(t.Rows) == 0 {
		return domagg.Stat{}, fmt.Errorf("%w: %s has no group %q", domain.ErrUnknownAggregation, name, key)
	}
	return t.Rows[0].Stat, nil
}
