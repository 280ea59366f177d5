package ml

import (
	"errors"
	"fmt"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
)

var (
	// FitErr is returned when a model cannot be fitted to the given data.
	FitErr = errors.New("could not fit model")
	// ConvergenceErr is returned when an iterative fit breaks down numerically.
	// It also matches FitErr.
	ConvergenceErr = fmt.Errorf("could not converge: %w", FitErr)
)

// Transformer maps a dataset into a new feature space, keeping the labels.
type Transformer interface {
	Transform(ds *dataset.Dataset) (*dataset.Dataset, error)
}

// Classifier predicts the label of a single feature vector.
type Classifier interface {
	Predict(x []float64) uint8
}

// PredictAll runs the classifier over every sample of the dataset.
func PredictAll(c Classifier, ds *dataset.Dataset) []uint8 {
	predictions := make([]uint8, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		predictions[i] = c.Predict(ds.Row(i))
	}
	return predictions
}

// ArgMax returns the index of the largest score.
// Ties go to the lowest index.
func ArgMax(scores []float64) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}
