package vectorize

import (
	"fmt"
	"math"
	"math/rand"
)

// KMeans is a seeded Lloyd's k-means with an optional mini-batch mode for
// large samples. A fixed Seed and fixed input ordering yield bit-identical
// fits.
type KMeans struct {
	K         int
	MaxIter   int
	Seed      int64
	BatchSize int // > 0 and < len(points): mini-batch updates
}

// Model holds fitted centroids. Assign is a pure transform and never refits.
type Model struct {
	Centroids [][]float64
}

// Fit clusters the points. K must not exceed the number of points; callers
// clamp beforehand.
func (km *KMeans) Fit(points [][]float64) (*Model, error) {
	if km.K <= 0 {
		return nil, fmt.Errorf("kmeans: k must be positive, got %d", km.K)
	}
	if len(points) < km.K {
		return nil, fmt.Errorf("kmeans: %d points for k=%d", len(points), km.K)
	}
	maxIter := km.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}
	rng := rand.New(rand.NewSource(km.Seed))
	centroids := initPlusPlus(points, km.K, rng)

	if km.BatchSize > 0 && len(points) > km.BatchSize {
		km.fitMiniBatch(points, centroids, maxIter, rng)
	} else {
		fitLloyd(points, centroids, maxIter)
	}
	return &Model{Centroids: centroids}, nil
}

// Assign returns the index of the nearest centroid, lowest index on ties.
func (m *Model) Assign(p []float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range m.Centroids {
		if d := sqDist(p, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// AssignAll assigns a batch of points.
func (m *Model) AssignAll(points [][]float64) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = m.Assign(p)
	}
	return out
}

// initPlusPlus seeds centroids k-means++ style with the given rng.
func initPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneVec(points[rng.Intn(len(points))]))

	dists := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				if sd := sqDist(p, c); sd < d {
					d = sd
				}
			}
			dists[i] = d
			total += d
		}
		var next int
		if total == 0 {
			// All remaining points coincide with a centroid; pick round-robin.
			next = len(centroids) % len(points)
		} else {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range dists {
				acc += d
				if acc >= target {
					next = i
					break
				}
			}
		}
		centroids = append(centroids, cloneVec(points[next]))
	}
	return centroids
}

func fitLloyd(points, centroids [][]float64, maxIter int) {
	model := Model{Centroids: centroids}
	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			if a := model.Assign(p); a != assign[i] {
				assign[i] = a
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		recompute(points, centroids, assign)
		reseedEmpty(points, centroids, assign)
	}
}

// fitMiniBatch applies Sculley-style mini-batch updates with per-centroid
// learning rates, then leaves the centroids for a final full assignment by
// the caller.
func (km *KMeans) fitMiniBatch(points, centroids [][]float64, maxIter int, rng *rand.Rand) {
	counts := make([]float64, len(centroids))
	model := Model{Centroids: centroids}
	for iter := 0; iter < maxIter; iter++ {
		for b := 0; b < km.BatchSize; b++ {
			p := points[rng.Intn(len(points))]
			c := model.Assign(p)
			counts[c]++
			eta := 1 / counts[c]
			for j := range centroids[c] {
				centroids[c][j] = (1-eta)*centroids[c][j] + eta*p[j]
			}
		}
	}
}

func recompute(points, centroids [][]float64, assign []int) {
	dim := len(centroids[0])
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	for i, p := range points {
		c := assign[i]
		counts[c]++
		for j, x := range p {
			sums[c][j] += x
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for j := range centroids[c] {
			centroids[c][j] = sums[c][j] / float64(counts[c])
		}
	}
}

// reseedEmpty moves each empty centroid onto the point farthest from its
// assigned centroid, scanning in input order so the fix is deterministic.
func reseedEmpty(points, centroids [][]float64, assign []int) {
	counts := make([]int, len(centroids))
	for _, a := range assign {
		counts[a]++
	}
	for c := range centroids {
		if counts[c] > 0 {
			continue
		}
		farthest, farDist := -1, -1.0
		for i, p := range points {
			if counts[assign[i]] <= 1 {
				continue
			}
			if d := sqDist(p, centroids[assign[i]]); d > farDist {
				farthest, farDist = i, d
			}
		}
		if farthest < 0 {
			continue
		}
		counts[assign[farthest]]--
		copy(centroids[c], points[farthest])
		assign[farthest] = c
		counts[c]++
	}
}

func sqDist(a, b []float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
