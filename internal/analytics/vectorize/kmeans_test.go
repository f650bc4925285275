package vectorize

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKMeans_SeparatesObviousClusters(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0, 0.1}, {0.1, 0},
		{10, 10}, {10, 10.1}, {10.1, 10},
	}
	km := KMeans{K: 2, MaxIter: 50, Seed: 42}
	model, err := km.Fit(points)
	require.NoError(t, err)

	assign := model.AssignAll(points)
	assert.Equal(t, assign[0], assign[1])
	assert.Equal(t, assign[0], assign[2])
	assert.Equal(t, assign[3], assign[4])
	assert.Equal(t, assign[3], assign[5])
	assert.NotEqual(t, assign[0], assign[3])
}

func TestKMeans_Deterministic(t *testing.T) {
	points := [][]float64{
		{1, 2}, {2, 1}, {8, 9}, {9, 8}, {5, 5}, {4, 6}, {1, 1}, {9, 9},
	}
	a, err := (&KMeans{K: 3, MaxIter: 100, Seed: 42}).Fit(points)
	require.NoError(t, err)
	b, err := (&KMeans{K: 3, MaxIter: 100, Seed: 42}).Fit(points)
	require.NoError(t, err)

	if !reflect.DeepEqual(a.Centroids, b.Centroids) {
		t.Fatal("same seed and input must yield bit-identical centroids")
	}
	if !reflect.DeepEqual(a.AssignAll(points), b.AssignAll(points)) {
		t.Fatal("same seed and input must yield identical assignments")
	}
}

func TestKMeans_AssignmentsInRange(t *testing.T) {
	points := make([][]float64, 20)
	for i := range points {
		points[i] = []float64{float64(i), float64(i % 5)}
	}
	km := KMeans{K: 4, MaxIter: 100, Seed: 42}
	model, err := km.Fit(points)
	require.NoError(t, err)

	for _, a := range model.AssignAll(points) {
		assert.GreaterOrEqual(t, a, 0)
		assert.Less(t, a, 4)
	}
}

func TestKMeans_Errors(t *testing.T) {
	_, err := (&KMeans{K: 0, Seed: 42}).Fit([][]float64{{1}})
	assert.Error(t, err)

	_, err = (&KMeans{K: 5, Seed: 42}).Fit([][]float64{{1}, {2}})
	assert.Error(t, err, "more clusters than points")
}

func TestKMeans_MiniBatch(t *testing.T) {
	points := make([][]float64, 200)
	for i := range points {
		base := 0.0
		if i >= 100 {
			base = 50
		}
		points[i] = []float64{base + float64(i%10)*0.01, base}
	}
	km := KMeans{K: 2, MaxIter: 20, Seed: 42, BatchSize: 32}
	model, err := km.Fit(points)
	require.NoError(t, err)

	assign := model.AssignAll(points)
	assert.NotEqual(t, assign[0], assign[150], "the two blobs land in different clusters")
	for i := 1; i < 100; i++ {
		assert.Equal(t, assign[0], assign[i])
	}
	for i := 101; i < 200; i++ {
		assert.Equal(t, assign[100], assign[i])
	}
}

func TestKMeans_DuplicatePoints(t *testing.T) {
	// All points coincide: k-means++ falls back to round-robin seeding and
	// the fit must still terminate.
	points := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	km := KMeans{K: 2, MaxIter: 10, Seed: 42}
	model, err := km.Fit(points)
	require.NoError(t, err)
	assert.Len(t, model.Centroids, 2)
}

func TestPCA_ProjectsToComponentSpace(t *testing.T) {
	rows := [][]float64{
		{1, 0, 0, 0},
		{2, 0.1, 0, 0},
		{3, 0, 0.1, 0},
		{4, 0.1, 0.1, 0},
		{5, 0, 0, 0.1},
	}
	proj, err := FitPCA(rows, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, proj.Components())

	out := proj.Project(rows[0])
	assert.Len(t, out, 2)

	all := proj.ProjectAll(rows)
	assert.Len(t, all, 5)
	for _, v := range all {
		assert.Len(t, v, 2)
	}
}

func TestPCA_InvalidComponentCount(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}
	_, err := FitPCA(rows, 2)
	assert.Error(t, err, "components must be below the input dimension")
	_, err = FitPCA(nil, 1)
	assert.Error(t, err)
}
