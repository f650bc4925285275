package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/domain"
)

func similarityRecords() []domain.Record {
	return []domain.Record{
		{
			ID: "1", Industry: "Health Care", Occupation: "Registered Nurse",
			Tasks: []string{"Prepare Payroll Records", "Record patient vitals"},
		},
		{
			ID: "2", Industry: "Health Care", Occupation: "Medical Secretary",
			Tasks: []string{"Schedule appointments"},
		},
		{
			ID: "3", Industry: "Finance", Occupation: "Payroll Clerk",
			Tasks: []string{"prepare payroll records", "Reconcile ledgers"},
		},
		{
			ID: "4", Industry: "Finance", Occupation: "Medical Secretary",
			Tasks: []string{"Schedule appointments"},
		},
		{
			ID: "5", Industry: "Mining", Occupation: "Driller",
			Tasks: []string{"Operate drilling rigs"},
		},
	}
}

func TestCrossGroupSimilarity_IdenticalGroups(t *testing.T) {
	svc := New(Config{}, zap.NewNop())
	sim := svc.CrossGroupSimilarity(similarityRecords(), "Health Care", "Health Care", domain.CategoryTask)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCrossGroupSimilarity_DisjointGroups(t *testing.T) {
	svc := New(Config{}, zap.NewNop())
	sim := svc.CrossGroupSimilarity(similarityRecords(), "Health Care", "Mining", domain.CategoryTask)
	assert.InDelta(t, 0.0, sim, 1e-9, "no shared vocabulary")
}

func TestCrossGroupSimilarity_EmptyGroup(t *testing.T) {
	svc := New(Config{}, zap.NewNop())
	sim := svc.CrossGroupSimilarity(similarityRecords(), "Health Care", "Aerospace", domain.CategoryTask)
	assert.Zero(t, sim)
}

func TestCommonItems_ExactNormalizedMatch(t *testing.T) {
	svc := New(Config{Threshold: 1.1}, zap.NewNop()) // vector path disabled

	common := svc.CommonItems(similarityRecords(), "Health Care", "Finance", domain.CategoryTask)
	assert.Equal(t, []string{"prepare payroll records", "schedule appointments"}, common,
		"case differences must not defeat exact matching")
}

func TestCommonItems_VectorMatch(t *testing.T) {
	records := []domain.Record{
		{ID: "1", Industry: "A", Tasks: []string{"manage payroll records"}},
		{ID: "2", Industry: "B", Tasks: []string{"payroll records review"}},
	}
	svc := New(Config{Threshold: 0.01}, zap.NewNop())

	common := svc.CommonItems(records, "A", "B", domain.CategoryTask)
	assert.Equal(t, []string{"manage payroll records"}, common,
		"overlapping vocabulary must clear a permissive threshold")
}

func TestCommonItems_EmptyGroups(t *testing.T) {
	svc := New(Config{}, zap.NewNop())
	assert.Nil(t, svc.CommonItems(similarityRecords(), "Health Care", "Aerospace", domain.CategoryTask))
}

func TestOccupationOverlap(t *testing.T) {
	svc := New(Config{}, zap.NewNop())

	overlap := svc.OccupationOverlap(similarityRecords(), "Health Care", "Finance")
	assert.Equal(t, []string{"medical secretary"}, overlap)

	assert.Empty(t, svc.OccupationOverlap(similarityRecords(), "Health Care", "Mining"))
}

func TestSimilarOccupations(t *testing.T) {
	svc := New(Config{}, zap.NewNop())
	records := similarityRecords()
	a := &domain.ClusterAssignment{
		Category: domain.CategoryOccupation, K: 2,
		Labels:   []string{"clerical", "field work"},
		ByRecord: map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 1},
	}

	similar := svc.SimilarOccupations(records, a, "Registered Nurse", 0)
	assert.Equal(t, []string{"medical secretary", "payroll clerk"}, similar,
		"the query occupation itself is excluded and results are deduplicated")

	limited := svc.SimilarOccupations(records, a, "Registered Nurse", 1)
	assert.Equal(t, []string{"medical secretary"}, limited)

	assert.Nil(t, svc.SimilarOccupations(records, a, "Astronaut", 0), "unknown occupation")
	assert.Nil(t, svc.SimilarOccupations(records, nil, "Welder", 0))

	wrongCat := &domain.ClusterAssignment{Category: domain.CategoryTask}
	assert.Nil(t, svc.SimilarOccupations(records, wrongCat, "Welder", 0))
}

func TestStats(t *testing.T) {
	svc := New(Config{}, zap.NewNop())
	a := &domain.ClusterAssignment{
		Category: domain.CategoryTask, K: 3,
		Labels:   []string{"x", "y", "z"},
		ByRecord: map[string]int{"1": 0, "2": 0, "3": 0, "4": 2},
	}

	st := svc.Stats(a)
	assert.Equal(t, []int{3, 0, 1}, st.Sizes)
	assert.Equal(t, 0, st.Largest)
	assert.Equal(t, 2, st.Smallest, "empty clusters never win smallest")
}
