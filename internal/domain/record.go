package domain

import "strings"

// Record is one (occupation, industry) row of the normalized labor-market
// dataset. Multi-value fields arrive split on the dataset delimiter; NewRecord
// dedupes them per record while preserving order.
type Record struct {
	ID           string
	Industry     string
	Occupation   string
	Description  string
	Tasks        []string
	Activities   []string
	Employment   int64
	HourlyWage   Optional
	HoursPerTask Optional
}

// NewRecord normalizes a record: trims text fields and dedupes tasks and
// activities. Employment below zero is clamped to zero.
func NewRecord(r Record) Record {
	r.Industry = strings.TrimSpace(r.Industry)
	r.Occupation = strings.TrimSpace(r.Occupation)
	r.Description = strings.TrimSpace(r.Description)
	r.Tasks = dedupe(r.Tasks)
	r.Activities = dedupe(r.Activities)
	if r.Employment < 0 {
		r.Employment = 0
	}
	return r
}

// CategoryText returns the record's text for a clustering category,
// concatenating multi-value fields with a single space.
func (r *Record) CategoryText(c Category) string {
	switch c {
	case CategoryTask:
		return strings.Join(r.Tasks, " ")
	case CategoryActivity:
		return strings.Join(r.Activities, " ")
	case CategoryOccupation:
		return r.Occupation
	}
	return ""
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// NormalizeTitle case-folds and whitespace-collapses a title for exact
// cross-group matching.
func NormalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
