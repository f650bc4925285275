package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/domain"
)

func wage(v float64) domain.Optional { return domain.Present(v) }

func testRecords() []domain.Record {
	return []domain.Record{
		{
			ID: "1", Industry: "Health Care", Occupation: "Registered Nurse",
			Employment: 1200, HourlyWage: wage(40),
			Tasks: []string{"Record patient vitals", "Prepare discharge reports"},
		},
		{
			ID: "2", Industry: "Health Care", Occupation: "Medical Secretary",
			Employment: 300, HourlyWage: wage(20), HoursPerTask: domain.Present(2),
			Tasks:      []string{"Prepare discharge reports", "Schedule appointments"},
			Activities: []string{"Interacting with computers"},
		},
		{
			ID: "3", Industry: "Manufacturing", Occupation: "Welder",
			Employment: 500,
			Tasks:      []string{"Inspect welded seams"},
		},
		{
			ID: "4", Industry: "Manufacturing", Occupation: "Drafter",
			Employment: 150, HourlyWage: wage(30), HoursPerTask: domain.Present(4),
			Tasks: []string{"Create technical drawings"},
		},
	}
}

func buildIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewBuilder(Config{}, zap.NewNop()).Build(testRecords(), nil)
	require.NoError(t, err)
	return idx
}

func TestBuild_EmptyDataset(t *testing.T) {
	_, err := NewBuilder(Config{}, zap.NewNop()).Build(nil, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyDataset)
}

func TestBuild_EmploymentSumMatchesRecords(t *testing.T) {
	idx := buildIndex(t)

	// The served aggregate must equal a direct recomputation from the records.
	want := map[string]float64{}
	for _, r := range testRecords() {
		want[r.Industry] += float64(r.Employment)
	}

	table, err := idx.Query(TableEmploymentSum, Params{GroupBy: GroupByIndustry})
	require.NoError(t, err)
	require.Len(t, table.Rows, len(want))
	for _, row := range table.Rows {
		assert.True(t, row.Stat.Defined)
		assert.Equal(t, want[row.Key], row.Stat.Value, row.Key)
	}
}

func TestBuild_AbsentWagesExcludedNotZeroed(t *testing.T) {
	idx := buildIndex(t)

	st, err := idx.Value(TableWageMean, GroupByIndustry, "Manufacturing")
	require.NoError(t, err)
	require.True(t, st.Defined)
	assert.Equal(t, 30.0, st.Value, "the welder's missing wage must not drag the mean toward zero")
	assert.Equal(t, 1, st.Operands)
	assert.Equal(t, 1, st.Excluded)
}

func TestBuild_AllAbsentGroupStaysUndefined(t *testing.T) {
	records := []domain.Record{
		{ID: "1", Industry: "Mining", Occupation: "Driller", Employment: 10},
	}
	idx, err := NewBuilder(Config{}, zap.NewNop()).Build(records, nil)
	require.NoError(t, err)

	st, err := idx.Value(TableWageMean, GroupByIndustry, "Mining")
	require.NoError(t, err)
	assert.False(t, st.Defined, "group with no wage values is kept but undefined")
	assert.Equal(t, 1, st.Excluded)
}

func TestBuild_WageMedian(t *testing.T) {
	records := []domain.Record{
		{ID: "1", Industry: "X", Employment: 1, HourlyWage: wage(10)},
		{ID: "2", Industry: "X", Employment: 1, HourlyWage: wage(20)},
		{ID: "3", Industry: "X", Employment: 1, HourlyWage: wage(90)},
	}
	idx, err := NewBuilder(Config{}, zap.NewNop()).Build(records, nil)
	require.NoError(t, err)

	st, err := idx.Value(TableWageMedian, GroupByIndustry, "X")
	require.NoError(t, err)
	assert.Equal(t, 20.0, st.Value)
	assert.Equal(t, "median", st.Op)
}

func TestBuild_TimeSavings(t *testing.T) {
	idx := buildIndex(t)

	st, err := idx.Value(TableTimeSavings, GroupByIndustry, "Health Care")
	require.NoError(t, err)
	require.True(t, st.Defined)
	// 2 hours at the default 50/hour rate.
	assert.Equal(t, 100.0, st.Value)
	assert.Equal(t, "time_savings", st.Op)
}

func TestBuild_DigitalDocumentEmployment(t *testing.T) {
	idx := buildIndex(t)

	table, err := idx.Query(TableDigitalDocument, Params{GroupBy: GroupByIndustry})
	require.NoError(t, err)

	flat := table.Flat()
	require.NotEmpty(t, flat)
	assert.Equal(t, []string{"industry", "employment"}, flat[0])

	// Nurses and secretaries prepare reports; drafters create drawings.
	// The welder's tasks never match.
	hc, err := idx.Value(TableDigitalDocument, GroupByIndustry, "Health Care")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, hc.Value)

	mf, err := idx.Value(TableDigitalDocument, GroupByIndustry, "Manufacturing")
	require.NoError(t, err)
	assert.Equal(t, 150.0, mf.Value)
}

func TestBuild_TaskFrequencyCountsDuplicates(t *testing.T) {
	idx := buildIndex(t)

	st, err := idx.Value(TableTaskFrequency, GroupByItem, "Prepare discharge reports")
	require.NoError(t, err)
	assert.Equal(t, 2.0, st.Value, "a task shared by two records counts twice")
}

func TestBuild_ClusterGrouping(t *testing.T) {
	records := testRecords()
	a := &domain.ClusterAssignment{
		Category: domain.CategoryTask, K: 2,
		Labels:   []string{"clinical records", "fabrication"},
		ByRecord: map[string]int{"1": 0, "2": 0, "3": 1, "4": 1},
	}
	idx, err := NewBuilder(Config{}, zap.NewNop()).Build(records,
		map[domain.Category]*domain.ClusterAssignment{domain.CategoryTask: a})
	require.NoError(t, err)

	table, err := idx.Query(TableRecordCount, Params{GroupBy: "cluster:task"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	st, found := table.Lookup("clinical records")
	require.True(t, found)
	assert.Equal(t, 2.0, st.Value)
}

func TestQuery_UnknownAggregation(t *testing.T) {
	idx := buildIndex(t)

	_, err := idx.Query("no_such_table", Params{})
	assert.ErrorIs(t, err, domain.ErrUnknownAggregation)

	_, err = idx.Query(TableRecordCount, Params{GroupBy: "cluster:task"})
	assert.ErrorIs(t, err, domain.ErrUnknownAggregation, "unbuilt grouping is unknown too")
}

func TestQuery_TopNDescending(t *testing.T) {
	idx := buildIndex(t)

	table, err := idx.Query(TableEmploymentSum, Params{TopN: 1, Descending: true})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Health Care", table.Rows[0].Key)
	assert.Equal(t, 1500.0, table.Rows[0].Stat.Value)
}

func TestQuery_KeyFilter(t *testing.T) {
	idx := buildIndex(t)

	table, err := idx.Query(TableRecordCount, Params{Key: "Health Care"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, 2.0, table.Rows[0].Stat.Value)

	table, err = idx.Query(TableRecordCount, Params{Key: "Aerospace"})
	require.NoError(t, err)
	assert.Empty(t, table.Rows, "missing key yields an empty table, not an error")
}

func TestQuery_DefaultsToIndustryGrouping(t *testing.T) {
	idx := buildIndex(t)

	table, err := idx.Query(TableRecordCount, Params{})
	require.NoError(t, err)
	assert.Equal(t, GroupByIndustry, table.KeyColumn)
}
