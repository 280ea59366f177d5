package pca

import (
	"math"
	"math/rand"
	"testing"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/drakos74/mnist-pipeline/internal/ml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestPCA_SingleComponent(t *testing.T) {
	ds, err := dataset.FromRows([][]float64{
		{1, 2},
		{2, 1},
		{3, 4},
		{4, 3},
	}, []uint8{0, 1, 0, 1})
	require.NoError(t, err)

	model, err := Params{Components: 1}.Fit(ds)
	require.NoError(t, err)

	reduced, err := model.Transform(ds)
	require.NoError(t, err)

	assert.Equal(t, 4, reduced.Len())
	assert.Equal(t, 1, reduced.Dim())
	assert.Equal(t, []uint8{0, 1, 0, 1}, reduced.Labels())

	// the main axis is the diagonal, so the projections are spread along it
	vv := mat.Col(nil, 0, reduced.Features())
	assert.InDelta(t, 0, stat.Mean(vv, nil), 1e-9)
	assert.InDelta(t, math.Abs(vv[0]), math.Abs(vv[3]), 1e-9)
	assert.InDelta(t, math.Abs(vv[1]), math.Abs(vv[2]), 1e-9)
}

func randomDataset(n, d int, seed int64) *dataset.Dataset {
	rnd := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n)
	labels := make([]uint8, n)
	for i := range rows {
		rows[i] = make([]float64, d)
		for j := range rows[i] {
			// decreasing spread per feature
			rows[i][j] = rnd.NormFloat64() * float64(d-j)
		}
		labels[i] = uint8(rnd.Intn(10))
	}
	ds, _ := dataset.FromRows(rows, labels)
	return ds
}

func TestPCA_Shape(t *testing.T) {
	type test struct {
		n, d, k int
	}

	tests := map[string]test{
		"mnist-like": {n: 100, d: 64, k: 50},
		"all":        {n: 20, d: 5, k: 5},
		"wide":       {n: 10, d: 30, k: 10},
		"one":        {n: 10, d: 3, k: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ds := randomDataset(tt.n, tt.d, 1)
			model, err := Params{Components: tt.k}.Fit(ds)
			require.NoError(t, err)
			assert.Equal(t, tt.k, model.Components())

			reduced, err := model.Transform(ds)
			require.NoError(t, err)
			assert.Equal(t, tt.n, reduced.Len())
			assert.Equal(t, tt.k, reduced.Dim())
			assert.Equal(t, ds.Labels(), reduced.Labels())

			vars := model.Variances()
			for i := 1; i < len(vars); i++ {
				assert.True(t, vars[i-1] >= vars[i]-1e-9)
			}
		})
	}
}

func TestPCA_Whiten(t *testing.T) {
	ds := randomDataset(200, 6, 2)

	model, err := Params{Components: 3, Whiten: true}.Fit(ds)
	require.NoError(t, err)
	reduced, err := model.Transform(ds)
	require.NoError(t, err)

	for j := 0; j < 3; j++ {
		assert.InDelta(t, 1, stat.Variance(mat.Col(nil, j, reduced.Features()), nil), 1e-6)
	}

	plain, err := Params{Components: 3}.Fit(ds)
	require.NoError(t, err)
	unwhitened, err := plain.Transform(ds)
	require.NoError(t, err)
	for j, v := range plain.Variances() {
		assert.InDelta(t, v, stat.Variance(mat.Col(nil, j, unwhitened.Features()), nil), 1e-6)
	}
}

func TestPCA_FitErr(t *testing.T) {
	ds := randomDataset(5, 4, 3)

	_, err := Params{Components: 5}.Fit(ds)
	assert.ErrorIs(t, err, ml.FitErr)

	_, err = Params{Components: 0}.Fit(ds)
	assert.ErrorIs(t, err, ml.FitErr)

	wide := randomDataset(3, 10, 3)
	_, err = Params{Components: 4}.Fit(wide)
	assert.ErrorIs(t, err, ml.FitErr)
}

func TestPCA_TransformDimensionMismatch(t *testing.T) {
	model, err := Params{Components: 2}.Fit(randomDataset(10, 4, 4))
	require.NoError(t, err)

	_, err = model.Transform(randomDataset(10, 3, 4))
	assert.ErrorIs(t, err, ml.FitErr)

	empty, err := model.Transform(dataset.Empty(4))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 2, empty.Dim())
}
