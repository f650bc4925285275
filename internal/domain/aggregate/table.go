// Package aggregate holds the precomputed statistic tables served at query
// time and their flat-row serialization for tabular export.
package aggregate

import "sort"

// Stat is one computed statistic with its arithmetic provenance: the
// operation, how many operands entered it, and how many absent values were
// excluded from the denominator. Defined is false when the statistic is
// numerically undefined (zero denominator, no present operands); the value
// is then 0 by definition, never a crash.
type Stat struct {
	Value    float64
	Defined  bool
	Op       string
	Operands int
	Excluded int
}

// Sum computes a sum over present values.
func Sum(values []float64) Stat {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return Stat{Value: total, Defined: true, Op: "sum", Operands: len(values)}
}

// Mean computes a mean over present values; excluded counts absent operands.
// An empty operand set yields an undefined Stat, not a division by zero.
func Mean(values []float64, excluded int) Stat {
	if len(values) == 0 {
		return Stat{Op: "mean", Excluded: excluded}
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return Stat{
		Value:    total / float64(len(values)),
		Defined:  true,
		Op:       "mean",
		Operands: len(values),
		Excluded: excluded,
	}
}

// Count computes a count statistic.
func Count(n int) Stat {
	return Stat{Value: float64(n), Defined: true, Op: "count", Operands: n}
}

// SafeDivide divides num by den, returning an undefined Stat on a zero
// denominator.
func SafeDivide(num, den float64) Stat {
	if den == 0 {
		return Stat{Op: "divide"}
	}
	return Stat{Value: num / den, Defined: true, Op: "divide", Operands: 2}
}

// Row is one (group key, statistic) pair of a table.
type Row struct {
	Key  string
	Stat Stat
}

// Table is a named mapping from a grouping key to a statistic, materialized
// as ordered rows. KeyColumn and ValueColumn are the stable column names
// used for flat serialization.
type Table struct {
	Name        string
	KeyColumn   string
	ValueColumn string
	Rows        []Row
}

// Lookup returns the statistic for a group key.
func (t *Table) Lookup(key string) (Stat, bool) {
	for _, r := range t.Rows {
		if r.Key == key {
			return r.Stat, true
		}
	}
	return Stat{}, false
}

// Sorted returns a copy of the table ordered by value; descending when desc
// is true. Equal values tie-break by key ascending for reproducible output.
func (t *Table) Sorted(desc bool) Table {
	out := *t
	out.Rows = make([]Row, len(t.Rows))
	copy(out.Rows, t.Rows)
	sort.SliceStable(out.Rows, func(i, j int) bool {
		vi, vj := out.Rows[i].Stat.Value, out.Rows[j].Stat.Value
		if vi != vj {
			if desc {
				return vi > vj
			}
			return vi < vj
		}
		return out.Rows[i].Key < out.Rows[j].Key
	})
	return out
}

// Head returns a copy truncated to the first n rows; n <= 0 returns the
// table unchanged.
func (t *Table) Head(n int) Table {
	out := *t
	if n > 0 && len(t.Rows) > n {
		out.Rows = make([]Row, n)
		copy(out.Rows, t.Rows[:n])
		return out
	}
	out.Rows = make([]Row, len(t.Rows))
	copy(out.Rows, t.Rows)
	return out
}

// Total sums the defined row values.
func (t *Table) Total() float64 {
	total := 0.0
	for _, r := range t.Rows {
		if r.Stat.Defined {
			total += r.Stat.Value
		}
	}
	return total
}
