// Package aggregate precomputes grouped statistics over a dataset
// generation and serves them at query time as O(groups) lookups. Every
// reported aggregate is reproducible by recomputing directly from the
// normalized records.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/analytics/taskpattern"
	"github.com/laborlens/laborlens/internal/domain"
	domagg "github.com/laborlens/laborlens/internal/domain/aggregate"
)

// Table names served by the index.
const (
	TableRecordCount     = "record_count"
	TableEmploymentSum   = "employment_sum"
	TableWageMean        = "wage_mean"
	TableWageMedian      = "wage_median"
	TableHoursSum        = "hours_sum"
	TableHoursMean       = "hours_mean"
	TableTaskFrequency   = "task_frequency"
	TableActivityFreq    = "activity_frequency"
	TableTimeSavings     = "time_savings"
	TableDigitalDocument = "digital_document_employment"
)

// Grouping dimensions.
const (
	GroupByIndustry   = "industry"
	GroupByOccupation = "occupation"
	GroupByCluster    = "cluster"
	GroupByItem       = "item" // task/activity frequency tables
)

// Config holds aggregation knobs.
type Config struct {
	// HourlyValueRate is the per-hour dollar value used by the time-savings
	// derived metric.
	HourlyValueRate float64
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HourlyValueRate <= 0 {
		c.HourlyValueRate = 50
	}
}

// Builder precomputes the aggregation tables of one generation.
type Builder struct {
	cfg    Config
	logger *zap.Logger
}

// NewBuilder creates an aggregation builder.
func NewBuilder(cfg Config, logger *zap.Logger) *Builder {
	cfg.ApplyDefaults()
	return &Builder{cfg: cfg, logger: logger}
}

// Build computes every table for the given records and cluster assignments.
// The result is immutable and safe for concurrent readers.
func (b *Builder) Build(
	records []domain.Record,
	assignments map[domain.Category]*domain.ClusterAssignment,
) (*Index, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyDataset
	}

	idx := &Index{tables: make(map[string]map[string]domagg.Table)}

	for _, groupBy := range []string{GroupByIndustry, GroupByOccupation} {
		key := groupKeyFunc(groupBy)
		idx.put(TableRecordCount, groupBy, buildCount(records, groupBy, key))
		idx.put(TableEmploymentSum, groupBy, buildEmploymentSum(records, groupBy, key))
		idx.put(TableWageMean, groupBy, buildOptionalStat(records, groupBy, key, TableWageMean, "wage",
			func(r *domain.Record) domain.Optional { return r.HourlyWage }, meanStat))
		idx.put(TableWageMedian, groupBy, buildOptionalStat(records, groupBy, key, TableWageMedian, "wage",
			func(r *domain.Record) domain.Optional { return r.HourlyWage }, medianStat))
		idx.put(TableHoursSum, groupBy, buildOptionalStat(records, groupBy, key, TableHoursSum, "hours",
			func(r *domain.Record) domain.Optional { return r.HoursPerTask }, sumStat))
		idx.put(TableHoursMean, groupBy, buildOptionalStat(records, groupBy, key, TableHoursMean, "hours",
			func(r *domain.Record) domain.Optional { return r.HoursPerTask }, meanStat))
		idx.put(TableTimeSavings, groupBy, b.buildTimeSavings(records, groupBy, key))
		idx.put(TableDigitalDocument, groupBy, buildDigitalDocument(records, groupBy, key))
	}

	idx.put(TableTaskFrequency, GroupByItem, buildItemFrequency(
		TableTaskFrequency, "task", records, func(r *domain.Record) []string { return r.Tasks }))
	idx.put(TableActivityFreq, GroupByItem, buildItemFrequency(
		TableActivityFreq, "activity", records, func(r *domain.Record) []string { return r.Activities }))

	for cat, a := range assignments {
		if a == nil {
			continue
		}
		idx.put(TableRecordCount, clusterGroup(cat), buildClusterCount(records, cat, a))
	}

	b.logger.Info("aggregation tables built",
		zap.Int("records", len(records)),
		zap.Int("tables", idx.size()))
	return idx, nil
}

func clusterGroup(cat domain.Category) string {
	return fmt.Sprintf("%s:%s", GroupByCluster, cat)
}

func groupKeyFunc(groupBy string) func(*domain.Record) string {
	if groupBy == GroupByOccupation {
		return func(r *domain.Record) string { return r.Occupation }
	}
	return func(r *domain.Record) string { return r.Industry }
}

func buildCount(records []domain.Record, groupBy string, key func(*domain.Record) string) domagg.Table {
	counts := make(map[string]int)
	for i := range records {
		counts[key(&records[i])]++
	}
	rows := make([]domagg.Row, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, domagg.Row{Key: k, Stat: domagg.Count(n)})
	}
	return finishTable(TableRecordCount, groupBy, "count", rows)
}

func buildEmploymentSum(records []domain.Record, groupBy string, key func(*domain.Record) string) domagg.Table {
	sums := make(map[string][]float64)
	for i := range records {
		r := &records[i]
		sums[key(r)] = append(sums[key(r)], float64(r.Employment))
	}
	rows := make([]domagg.Row, 0, len(sums))
	for k, vals := range sums {
		rows = append(rows, domagg.Row{Key: k, Stat: domagg.Sum(vals)})
	}
	return finishTable(TableEmploymentSum, groupBy, "employment", rows)
}

// buildOptionalStat aggregates an optional numeric field. Absent values are
// excluded from the operand set and counted in the statistic's provenance,
// never coerced to zero.
func buildOptionalStat(
	records []domain.Record, groupBy string, key func(*domain.Record) string,
	name, valueColumn string,
	field func(*domain.Record) domain.Optional,
	agg func(values []float64, excluded int) domagg.Stat,
) domagg.Table {
	present := make(map[string][]float64)
	excluded := make(map[string]int)
	for i := range records {
		r := &records[i]
		k := key(r)
		if v, ok := field(r).Get(); ok {
			present[k] = append(present[k], v)
		} else {
			excluded[k]++
			if _, seen := present[k]; !seen {
				present[k] = nil // keep groups whose values are all absent
			}
		}
	}
	rows := make([]domagg.Row, 0, len(present))
	for k, vals := range present {
		rows = append(rows, domagg.Row{Key: k, Stat: agg(vals, excluded[k])})
	}
	return finishTable(name, groupBy, valueColumn, rows)
}

func sumStat(values []float64, excluded int) domagg.Stat {
	st := domagg.Sum(values)
	st.Excluded = excluded
	return st
}

func meanStat(values []float64, excluded int) domagg.Stat {
	return domagg.Mean(values, excluded)
}

func medianStat(values []float64, excluded int) domagg.Stat {
	if len(values) == 0 {
		return domagg.Stat{Op: "median", Excluded: excluded}
	}
	med, err := stats.Median(values)
	if err != nil {
		return domagg.Stat{Op: "median", Excluded: excluded}
	}
	return domagg.Stat{
		Value: med, Defined: true, Op: "median",
		Operands: len(values), Excluded: excluded,
	}
}

// buildTimeSavings estimates the dollar value of automatable task hours per
// group: present hours-per-task sums times the configured hourly value rate.
func (b *Builder) buildTimeSavings(
	records []domain.Record, groupBy string, key func(*domain.Record) string,
) domagg.Table {
	hours := make(map[string][]float64)
	excluded := make(map[string]int)
	for i := range records {
		r := &records[i]
		k := key(r)
		if v, ok := r.HoursPerTask.Get(); ok {
			hours[k] = append(hours[k], v)
		} else {
			excluded[k]++
			if _, seen := hours[k]; !seen {
				hours[k] = nil
			}
		}
	}
	rows := make([]domagg.Row, 0, len(hours))
	for k, vals := range hours {
		st := domagg.Sum(vals)
		st.Op = "time_savings"
		st.Value *= b.cfg.HourlyValueRate
		st.Excluded = excluded[k]
		if st.Operands == 0 {
			st.Defined = false
			st.Value = 0
		}
		rows = append(rows, domagg.Row{Key: k, Stat: st})
	}
	return finishTable(TableTimeSavings, groupBy, "savings", rows)
}

// buildDigitalDocument sums employment over records whose tasks describe
// digital document work.
func buildDigitalDocument(
	records []domain.Record, groupBy string, key func(*domain.Record) string,
) domagg.Table {
	sums := make(map[string][]float64)
	for i := range records {
		r := &records[i]
		matched := false
		for _, task := range r.Tasks {
			if taskpattern.MatchesDocumentWork(task) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		sums[key(r)] = append(sums[key(r)], float64(r.Employment))
	}
	rows := make([]domagg.Row, 0, len(sums))
	for k, vals := range sums {
		rows = append(rows, domagg.Row{Key: k, Stat: domagg.Sum(vals)})
	}
	return finishTable(TableDigitalDocument, groupBy, "employment", rows)
}

func buildItemFrequency(
	name, keyColumn string, records []domain.Record, items func(*domain.Record) []string,
) domagg.Table {
	counts := make(map[string]int)
	for i := range records {
		for _, it := range items(&records[i]) {
			counts[it]++
		}
	}
	rows := make([]domagg.Row, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, domagg.Row{Key: k, Stat: domagg.Count(n)})
	}
	t := finishTable(name, GroupByItem, "count", rows)
	t.KeyColumn = keyColumn
	return t
}

func buildClusterCount(
	records []domain.Record, cat domain.Category, a *domain.ClusterAssignment,
) domagg.Table {
	counts := make(map[string]int)
	for i := range records {
		if id, ok := a.ClusterOf(records[i].ID); ok {
			counts[a.Label(id)]++
		}
	}
	rows := make([]domagg.Row, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, domagg.Row{Key: k, Stat: domagg.Count(n)})
	}
	t := finishTable(TableRecordCount, clusterGroup(cat), "count", rows)
	t.KeyColumn = "cluster"
	return t
}

// finishTable orders rows by key for deterministic serialization.
func finishTable(name, groupBy, valueColumn string, rows []domagg.Row) domagg.Table {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return domagg.Table{
		Name:        name,
		KeyColumn:   groupBy,
		ValueColumn: valueColumn,
		Rows:        rows,
	}
}
