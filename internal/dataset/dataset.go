package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	// ShapeErr is returned when features and labels cannot be put together into a dataset.
	ShapeErr = errors.New("shape mismatch")
)

// Dataset is an ordered set of feature vectors with one label per sample.
// It is never modified after construction, transforms produce a new Dataset.
type Dataset struct {
	x   *mat.Dense
	y   []uint8
	dim int
}

// New creates a new dataset from the given feature matrix and labels.
// The labels are copied, the matrix is kept as is and should not be mutated by the caller.
func New(x *mat.Dense, y []uint8) (*Dataset, error) {
	if x == nil {
		return nil, fmt.Errorf("no features for %d labels: %w", len(y), ShapeErr)
	}
	r, c := x.Dims()
	if r != len(y) {
		return nil, fmt.Errorf("features have %d rows but got %d labels: %w", r, len(y), ShapeErr)
	}
	labels := make([]uint8, len(y))
	copy(labels, y)
	return &Dataset{
		x:   x,
		y:   labels,
		dim: c,
	}, nil
}

// Empty creates a dataset with no samples and the given feature dimension.
func Empty(dim int) *Dataset {
	return &Dataset{
		y:   make([]uint8, 0),
		dim: dim,
	}
}

// FromRows creates a dataset out of plain feature rows.
func FromRows(rows [][]float64, y []uint8) (*Dataset, error) {
	if len(rows) == 0 {
		if len(y) != 0 {
			return nil, fmt.Errorf("no features for %d labels: %w", len(y), ShapeErr)
		}
		return Empty(0), nil
	}
	dim := len(rows[0])
	data := make([]float64, 0, len(rows)*dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("row %d has %d features instead of %d: %w", i, len(row), dim, ShapeErr)
		}
		data = append(data, row...)
	}
	if dim == 0 {
		return nil, fmt.Errorf("zero length feature vectors: %w", ShapeErr)
	}
	return New(mat.NewDense(len(rows), dim, data), y)
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.y)
}

// Dim returns the length of every feature vector.
func (d *Dataset) Dim() int {
	return d.dim
}

// Features returns the feature matrix, nil for an empty dataset.
func (d *Dataset) Features() *mat.Dense {
	return d.x
}

// Labels returns a copy of the labels.
func (d *Dataset) Labels() []uint8 {
	labels := make([]uint8, len(d.y))
	copy(labels, d.y)
	return labels
}

// Label returns the label of the i-th sample.
func (d *Dataset) Label(i int) uint8 {
	return d.y[i]
}

// Row returns a copy of the i-th feature vector.
func (d *Dataset) Row(i int) []float64 {
	return mat.Row(nil, i, d.x)
}

// Classes returns the distinct labels in ascending order.
func (d *Dataset) Classes() []uint8 {
	seen := make(map[uint8]struct{})
	for _, l := range d.y {
		seen[l] = struct{}{}
	}
	classes := make([]uint8, 0, len(seen))
	for l := range seen {
		classes = append(classes, l)
	}
	sort.Slice(classes, func(i, j int) bool {
		return classes[i] < classes[j]
	})
	return classes
}

// WithFeatures returns a new dataset with the given features and the labels of this one.
func (d *Dataset) WithFeatures(x *mat.Dense) (*Dataset, error) {
	return New(x, d.y)
}

// Select returns a new dataset with the samples at the given indices, in that order.
func (d *Dataset) Select(indices []int) *Dataset {
	if len(indices) == 0 {
		return Empty(d.dim)
	}
	x := mat.NewDense(len(indices), d.dim, nil)
	y := make([]uint8, len(indices))
	for i, idx := range indices {
		x.SetRow(i, d.x.RawRowView(idx))
		y[i] = d.y[idx]
	}
	return &Dataset{
		x:   x,
		y:   y,
		dim: d.dim,
	}
}

// Shuffle returns a new dataset with the samples permuted by the given seed.
func (d *Dataset) Shuffle(seed int64) *Dataset {
	return d.Select(rand.New(rand.NewSource(seed)).Perm(d.Len()))
}

// Split is a dataset partitioned into a training and a validation part.
type Split struct {
	Train      *Dataset
	Validation *Dataset
}

// Split partitions the dataset in order, the first floor(ratio*n) samples are used for training.
func (d *Dataset) Split(ratio float64) (Split, error) {
	if ratio <= 0 || ratio > 1 {
		return Split{}, fmt.Errorf("invalid split ratio %v", ratio)
	}
	n := int(ratio * float64(d.Len()))
	train := make([]int, 0, n)
	validation := make([]int, 0, d.Len()-n)
	for i := 0; i < d.Len(); i++ {
		if i < n {
			train = append(train, i)
		} else {
			validation = append(validation, i)
		}
	}
	return Split{
		Train:      d.Select(train),
		Validation: d.Select(validation),
	}, nil
}
