package forest

import (
	"fmt"
	"math/rand"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/drakos74/mnist-pipeline/internal/ml"
	randomforest "github.com/malaschitz/randomForest"
	"github.com/rs/zerolog/log"
)

// Params configures the random forest.
type Params struct {
	Trees int `json:"trees"`
	// Seed fixes the global random source before training.
	Seed *int64 `json:"seed,omitempty"`
}

// DefaultParams returns the forest size used for the mnist comparison.
func DefaultParams() Params {
	return Params{
		Trees: 100,
	}
}

// Forest is a fitted random forest classifier.
type Forest struct {
	forest *randomforest.Forest
}

// Fit trains the forest on the dataset.
func Fit(ds *dataset.Dataset, p Params) (*Forest, error) {
	if p.Trees <= 0 {
		return nil, fmt.Errorf("invalid number of trees %d: %w", p.Trees, ml.FitErr)
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("empty training set: %w", ml.FitErr)
	}
	if classes := ds.Classes(); len(classes) < 2 {
		return nil, fmt.Errorf("need at least two classes, got %v: %w", classes, ml.FitErr)
	}

	xData := make([][]float64, ds.Len())
	yData := make([]int, ds.Len())
	for i := range xData {
		xData[i] = ds.Row(i)
		yData[i] = int(ds.Label(i))
	}

	if p.Seed != nil {
		rand.Seed(*p.Seed)
	}
	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: xData, Class: yData}
	forest.Train(p.Trees)

	log.Debug().
		Int("trees", p.Trees).
		Int("samples", ds.Len()).
		Int("features", ds.Dim()).
		Floats64("importance", forest.FeatureImportance).
		Msg("trained random forest")
	return &Forest{forest: forest}, nil
}

// Votes returns the share of trees voting for every class, indexed by label.
func (f *Forest) Votes(x []float64) []float64 {
	return f.forest.Vote(x)
}

// Predict returns the label with the most votes, the lowest label on ties.
func (f *Forest) Predict(x []float64) uint8 {
	return uint8(ml.ArgMax(f.Votes(x)))
}

// FeatureImportance returns the importance of every input feature.
func (f *Forest) FeatureImportance() []float64 {
	return f.forest.FeatureImportance
}
