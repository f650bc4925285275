package domain

// Category is a clustering dimension of the dataset.
type Category string

const (
	CategoryTask       Category = "task"
	CategoryActivity   Category = "activity"
	CategoryOccupation Category = "occupation"
)

// Categories lists all clustering categories in build order.
func Categories() []Category {
	return []Category{CategoryTask, CategoryActivity, CategoryOccupation}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryTask, CategoryActivity, CategoryOccupation:
		return true
	}
	return false
}

// ClusterAssignment maps record IDs to cluster ids for one category.
// K is the effective cluster count after clamping; Labels is indexed by
// cluster id and derived from centroid top terms, never hand-authored.
type ClusterAssignment struct {
	Category   Category
	K          int
	Labels     []string
	ByRecord   map[string]int
	Degenerate bool
}

// ClusterOf returns the record's cluster id for this category.
func (a *ClusterAssignment) ClusterOf(recordID string) (int, bool) {
	id, ok := a.ByRecord[recordID]
	return id, ok
}

// Label returns the derived label for a cluster id, or "" if out of range.
func (a *ClusterAssignment) Label(id int) string {
	if id < 0 || id >= len(a.Labels) {
		return ""
	}
	return a.Labels[id]
}

// Sizes returns the member count per cluster id.
func (a *ClusterAssignment) Sizes() []int {
	sizes := make([]int, a.K)
	for _, id := range a.ByRecord {
		if id >= 0 && id < a.K {
			sizes[id]++
		}
	}
	return sizes
}
