package forest

import (
	"math/rand"
	"testing"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/drakos74/mnist-pipeline/internal/ml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blobs(t *testing.T, perClass int, seed int64) *dataset.Dataset {
	rnd := rand.New(rand.NewSource(seed))
	centers := [][]float64{{0, 0, 0}, {5, 5, 0}, {0, 5, 5}}
	rows := make([][]float64, 0)
	labels := make([]uint8, 0)
	for i := 0; i < perClass; i++ {
		for c, center := range centers {
			row := make([]float64, len(center))
			for d := range row {
				row[d] = center[d] + rnd.NormFloat64()*0.3
			}
			rows = append(rows, row)
			labels = append(labels, uint8(c))
		}
	}
	ds, err := dataset.FromRows(rows, labels)
	require.NoError(t, err)
	return ds
}

func TestFit(t *testing.T) {
	train := blobs(t, 30, 1)
	test := blobs(t, 10, 2)

	p := DefaultParams()
	seed := int64(44111342)
	p.Seed = &seed
	f, err := Fit(train, p)
	require.NoError(t, err)

	correct := 0
	for i, l := range ml.PredictAll(f, test) {
		if l == test.Label(i) {
			correct++
		}
	}
	acc := float64(correct) / float64(test.Len())
	assert.True(t, acc > 0.9, "accuracy %v", acc)
	assert.Equal(t, 3, len(f.Votes(test.Row(0))))
	assert.Len(t, f.FeatureImportance(), train.Dim())
}

func TestFit_Errors(t *testing.T) {
	ds := blobs(t, 5, 3)

	_, err := Fit(ds, Params{Trees: 0})
	assert.ErrorIs(t, err, ml.FitErr)

	_, err = Fit(dataset.Empty(3), DefaultParams())
	assert.ErrorIs(t, err, ml.FitErr)

	single, err := dataset.FromRows([][]float64{{1}, {2}}, []uint8{4, 4})
	require.NoError(t, err)
	_, err = Fit(single, DefaultParams())
	assert.ErrorIs(t, err, ml.FitErr)
}
