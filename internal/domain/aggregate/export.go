package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Flat serializes the table to row-oriented form: a header of the stable
// column names followed by one row per group. Numeric formatting is exact
// (shortest representation that round-trips); undefined statistics
// serialize as an empty cell, not as zero.
func (t *Table) Flat() [][]string {
	rows := make([][]string, 0, len(t.Rows)+1)
	rows = append(rows, []string{t.KeyColumn, t.ValueColumn})
	for _, r := range t.Rows {
		cell := ""
		if r.Stat.Defined {
			cell = FormatValue(r.Stat.Value)
		}
		rows = append(rows, []string{r.Key, cell})
	}
	return rows
}

// WriteCSV writes the flat form of the table as CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Flat()); err != nil {
		return fmt.Errorf("write csv for table %s: %w", t.Name, err)
	}
	return nil
}

// FormatValue renders a statistic value without lossy rounding.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
