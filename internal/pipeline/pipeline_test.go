package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/drakos74/mnist-pipeline/internal/metrics"
	"github.com/drakos74/mnist-pipeline/internal/ml"
	"github.com/drakos74/mnist-pipeline/internal/ml/eval"
	"github.com/drakos74/mnist-pipeline/internal/mnist"
	"github.com/drakos74/mnist-pipeline/internal/storage"
	"github.com/drakos74/mnist-pipeline/internal/storage/file/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const side = 4

// patterns lights up one image row per class, with some noise on all pixels.
func patterns(n int, seed int64) ([]byte, []byte) {
	rnd := rand.New(rand.NewSource(seed))
	images := make([]byte, n*side*side)
	labels := make([]byte, n)
	for i := 0; i < n; i++ {
		c := i % side
		labels[i] = byte(c)
		for p := 0; p < side*side; p++ {
			v := rnd.Intn(30)
			if p/side == c {
				v += 200
			}
			images[i*side*side+p] = byte(v)
		}
	}
	return images, labels
}

func syntheticSource(calls *int) mnist.Source {
	return mnist.SourceFunc(func(ctx context.Context, req mnist.Request) (*mnist.Buffers, error) {
		*calls++
		trainImages, trainLabels := patterns(req.Train, 1)
		testImages, testLabels := patterns(req.Test, 2)
		return &mnist.Buffers{
			TrainImages: trainImages,
			TrainLabels: trainLabels,
			TestImages:  testImages,
			TestLabels:  testLabels,
			Rows:        side,
			Cols:        side,
		}, nil
	})
}

type launcher struct {
	calls int
	err   error
}

func (l *launcher) Launch() error {
	l.calls++
	return l.err
}

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.Data = dataset.LoadConfig{Train: 60, Test: 20, Rows: side, Cols: side}
	cfg.PCA.Components = 4
	cfg.TSNE.Perplexity = 5
	cfg.TSNE.MaxIter = 300
	cfg.TSNE = cfg.TSNE.WithSeed(42)
	cfg.SVM.Bandwidth = 1
	cfg.Forest.Trees = 20
	cfg.Output = filepath.Join(t.TempDir(), "data", "mnist.dat")
	return cfg
}

func testRunner(calls *int) (*Runner, *launcher, *json.LocalStorage, *bytes.Buffer) {
	l := &launcher{}
	store := json.NewLocalStorage()
	out := new(bytes.Buffer)
	return &Runner{
		Source:   syntheticSource(calls),
		Metrics:  metrics.NewPrometheusMetrics(),
		Store:    store,
		Launcher: l,
		Out:      out,
	}, l, store, out
}

func TestRunner_Embed(t *testing.T) {
	var calls int
	r, l, _, _ := testRunner(&calls)
	cfg := testConfig(t)

	embedding, err := r.Embed(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, l.calls)
	assert.Equal(t, 60, embedding.Len())
	assert.Equal(t, 2, embedding.Dim())

	b, err := ioutil.ReadFile(cfg.Output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	require.Len(t, lines, 60)
	for i, line := range lines {
		fields := strings.Fields(line)
		require.Len(t, fields, 3)
		assert.Equal(t, fmt.Sprintf("%d", i%side), fields[2])
	}
}

func TestRunner_EmbedFailures(t *testing.T) {
	type test struct {
		configure func(cfg *Config)
		launchErr error
		err       error
	}

	launchErr := fmt.Errorf("no plot")

	tests := map[string]test{
		"too-many-components": {
			configure: func(cfg *Config) {
				cfg.PCA.Components = side*side + 1
			},
			err: ml.FitErr,
		},
		"perplexity-too-large": {
			configure: func(cfg *Config) {
				cfg.TSNE.Perplexity = 30
			},
			err: ml.ConvergenceErr,
		},
		"invalid-sizes": {
			configure: func(cfg *Config) {
				cfg.Data.Train = 0
			},
			err: dataset.ShapeErr,
		},
		"launch": {
			configure: func(cfg *Config) {},
			launchErr: launchErr,
			err:       launchErr,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var calls int
			r, l, _, _ := testRunner(&calls)
			l.err = tt.launchErr
			cfg := testConfig(t)
			tt.configure(&cfg)

			_, err := r.Embed(context.Background(), cfg)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRunner_Classify(t *testing.T) {
	type test struct {
		model  string
		reduce bool
	}

	tests := map[string]test{
		"svm":         {model: SVM},
		"svm-reduced": {model: SVM, reduce: true},
		"forest":      {model: Forest},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var calls int
			r, _, store, out := testRunner(&calls)
			cfg := testConfig(t)
			cfg.Reduce = tt.reduce

			result, err := r.Classify(context.Background(), cfg, tt.model)
			require.NoError(t, err)

			assert.Equal(t, tt.model, result.Model)
			assert.Equal(t, 54, result.Train)
			assert.Equal(t, 6, result.Samples)
			assert.InDelta(t, float64(result.Confusion.Trace())/float64(result.Confusion.Total()), result.Accuracy, 1e-9)
			assert.True(t, result.Accuracy > 0.8, "accuracy %v", result.Accuracy)
			assert.Contains(t, out.String(), "accuracy:")

			var stored eval.Result
			found := false
			for _, k := range store.Keys() {
				if k.Set == tt.model && k.Label == result.RunID {
					require.NoError(t, store.Load(k, &stored))
					found = true
				}
			}
			require.True(t, found)
			assert.Equal(t, result.Accuracy, stored.Accuracy)
		})
	}
}

func TestRunner_ClassifyUnknown(t *testing.T) {
	var calls int
	r, _, _, _ := testRunner(&calls)
	_, err := r.Classify(context.Background(), testConfig(t), "knn")
	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestRunner_ClassifyVoidStore(t *testing.T) {
	var calls int
	r, _, _, _ := testRunner(&calls)
	r.Store = storage.NewVoidStorage()
	cfg := testConfig(t)
	cfg.Shuffle = new(int64)

	result, err := r.Classify(context.Background(), cfg, SVM)
	require.NoError(t, err)
	assert.Equal(t, 6, result.Samples)
}

func TestNewRunner(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage = t.TempDir()
	cfg.Corpus.Cache = true

	r := NewRunner(cfg)
	assert.IsType(t, &mnist.Cached{}, r.Source)
	assert.NotNil(t, r.Metrics)
	assert.Equal(t, cfg.Plot, r.Launcher)
}
