package vectorize

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Projection is a fitted principal-component projection. Fitting happens on
// the clustering sample; Project is a pure transform applied to any vector
// in the original space.
type Projection struct {
	mean       []float64
	components *mat.Dense // d x k
	k          int
}

// FitPCA fits a k-component projection on the given row vectors via SVD of
// the mean-centered matrix.
func FitPCA(rows [][]float64, k int) (*Projection, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit pca: no rows")
	}
	d := len(rows[0])
	if k <= 0 || k >= d {
		return nil, fmt.Errorf("fit pca: components %d out of range for dimension %d", k, d)
	}

	mean := make([]float64, d)
	for _, row := range rows {
		for j, x := range row {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= float64(len(rows))
	}

	centered := mat.NewDense(len(rows), d, nil)
	for i, row := range rows {
		for j, x := range row {
			centered.Set(i, j, x-mean[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return nil, fmt.Errorf("fit pca: svd did not converge")
	}
	var v mat.Dense
	svd.VTo(&v)
	if c := v.RawMatrix().Cols; c < k {
		k = c
	}

	components := mat.NewDense(d, k, nil)
	for i := 0; i < d; i++ {
		for j := 0; j < k; j++ {
			components.Set(i, j, v.At(i, j))
		}
	}
	return &Projection{mean: mean, components: components, k: k}, nil
}

// Components returns the projection's output dimensionality.
func (p *Projection) Components() int { return p.k }

// Project maps a vector from the original space into the component space.
func (p *Projection) Project(vec []float64) []float64 {
	centered := make([]float64, len(vec))
	for j, x := range vec {
		centered[j] = x - p.mean[j]
	}
	out := make([]float64, p.k)
	in := mat.NewVecDense(len(centered), centered)
	res := mat.NewVecDense(p.k, out)
	res.MulVec(p.components.T(), in)
	return out
}

// ProjectAll maps a batch of vectors into the component space.
func (p *Projection) ProjectAll(vecs [][]float64) [][]float64 {
	out := make([][]float64, len(vecs))
	for i, v := range vecs {
		out[i] = p.Project(v)
	}
	return out
}
