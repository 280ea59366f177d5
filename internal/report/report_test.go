package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/drakos74/mnist-pipeline/internal/ml/eval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportEmbedding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "mnist.dat")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("previous content that is longer than the export\n"), 0644))

	ds, err := dataset.FromRows([][]float64{{1.5, -2}, {0, 0.25}}, []uint8{3, 7})
	require.NoError(t, err)

	require.NoError(t, ExportEmbedding(path, ds))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.5 -2 3\n0 0.25 7\n", string(b))
}

func TestExportEmbedding_ExtraColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "mnist.dat")

	ds, err := dataset.FromRows([][]float64{{1, 2, 3}}, []uint8{9})
	require.NoError(t, err)

	require.NoError(t, ExportEmbedding(path, ds))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1 2 9\n", string(b))
}

func TestExportEmbedding_SingleColumn(t *testing.T) {
	ds, err := dataset.FromRows([][]float64{{1}}, []uint8{1})
	require.NoError(t, err)

	err = ExportEmbedding(filepath.Join(t.TempDir(), "mnist.dat"), ds)
	assert.ErrorIs(t, err, dataset.ShapeErr)
}

func TestPlotter_Launch(t *testing.T) {
	type test struct {
		plotter Plotter
		err     error
	}

	tests := map[string]test{
		"missing-executable": {
			plotter: Plotter{Command: "surely-not-an-installed-plot-tool"},
			err:     LaunchErr,
		},
		"no-command": {
			plotter: Plotter{},
			err:     LaunchErr,
		},
		"failing-tool": {
			// the exit status of a started tool is not reported
			plotter: Plotter{Command: "sh", Args: []string{"-c", "exit 3"}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.plotter.Launch()
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultPlotter(t *testing.T) {
	p := DefaultPlotter()
	assert.Equal(t, "gnuplot -p data/mnist_plot.plt", p.String())
}

func TestClassification(t *testing.T) {
	cm, err := eval.Confusion([]uint8{0, 1, 1}, []uint8{0, 1, 0}, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Classification(&buf, "svm", cm))
	assert.Contains(t, buf.String(), "accuracy: 0.6667")
	assert.Contains(t, buf.String(), "mcc: 0.5000")
}
