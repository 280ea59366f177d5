package pca

import (
	"fmt"
	"math"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/drakos74/mnist-pipeline/internal/ml"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Params configures the principal component analysis.
type Params struct {
	// Components is the number of dimensions to keep.
	Components int `json:"components"`
	// Whiten rescales every component to unit variance.
	Whiten bool `json:"whiten"`
}

// Model is a fitted projection onto the leading principal components.
type Model struct {
	means   []float64
	vectors *mat.Dense
	vars    []float64
	scale   []float64
}

// Fit computes the principal components of the dataset features.
func (p Params) Fit(ds *dataset.Dataset) (*Model, error) {
	n, d := ds.Len(), ds.Dim()
	k := p.Components
	if k <= 0 {
		return nil, fmt.Errorf("invalid number of components %d: %w", k, ml.FitErr)
	}
	if k > d {
		return nil, fmt.Errorf("cannot keep %d components of %d features: %w", k, d, ml.FitErr)
	}
	if k > n || n < 2 {
		return nil, fmt.Errorf("cannot keep %d components from %d samples: %w", k, n, ml.FitErr)
	}

	x := ds.Features()
	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, fmt.Errorf("could not decompose %dx%d features: %w", n, d, ml.FitErr)
	}

	var vectors mat.Dense
	pc.VectorsTo(&vectors)
	vars := pc.VarsTo(nil)

	means := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		means[j] = stat.Mean(col, nil)
	}

	model := &Model{
		means:   means,
		vectors: mat.DenseCopyOf(vectors.Slice(0, d, 0, k)),
		vars:    append([]float64(nil), vars[:k]...),
	}
	if p.Whiten {
		model.scale = make([]float64, k)
		for i, v := range model.vars {
			if v > 0 {
				model.scale[i] = 1 / math.Sqrt(v)
			} else {
				model.scale[i] = 1
			}
		}
	}
	return model, nil
}

// Transform projects the dataset onto the fitted components, keeping the labels.
func (m *Model) Transform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	d, k := m.vectors.Dims()
	if ds.Dim() != d {
		return nil, fmt.Errorf("model fitted on %d features cannot transform %d: %w", d, ds.Dim(), ml.FitErr)
	}
	if ds.Len() == 0 {
		return dataset.Empty(k), nil
	}

	centered := mat.DenseCopyOf(ds.Features())
	n, _ := centered.Dims()
	for i := 0; i < n; i++ {
		row := centered.RawRowView(i)
		for j := range row {
			row[j] -= m.means[j]
		}
	}

	var projected mat.Dense
	projected.Mul(centered, m.vectors)
	if m.scale != nil {
		for i := 0; i < n; i++ {
			row := projected.RawRowView(i)
			for j := range row {
				row[j] *= m.scale[j]
			}
		}
	}
	return ds.WithFeatures(&projected)
}

// Variances returns the variance explained by every kept component, in decreasing order.
func (m *Model) Variances() []float64 {
	return append([]float64(nil), m.vars...)
}

// Components returns the number of output dimensions.
func (m *Model) Components() int {
	_, k := m.vectors.Dims()
	return k
}
