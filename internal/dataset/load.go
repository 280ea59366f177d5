package dataset

import (
	"context"
	"fmt"

	"github.com/drakos74/mnist-pipeline/internal/mnist"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// MaxPixel is the native pixel depth of the corpus images.
const MaxPixel = 255.0

// LoadConfig defines the size and the image shape of the samples to load.
type LoadConfig struct {
	Train int `json:"trn_size"`
	Test  int `json:"tst_size"`
	Rows  int `json:"rows"`
	Cols  int `json:"cols"`
}

// Load retrieves the corpus from the source and returns the normalised training and test datasets.
// Every call goes to the source, caching is left to the source implementation.
func Load(ctx context.Context, source mnist.Source, cfg LoadConfig) (train *Dataset, test *Dataset, err error) {
	if cfg.Train <= 0 || cfg.Test < 0 {
		return nil, nil, fmt.Errorf("invalid sample sizes train=%d test=%d: %w", cfg.Train, cfg.Test, ShapeErr)
	}
	if cfg.Rows <= 0 || cfg.Cols <= 0 {
		return nil, nil, fmt.Errorf("invalid image size %dx%d: %w", cfg.Rows, cfg.Cols, ShapeErr)
	}

	buffers, err := source.Fetch(ctx, mnist.Request{
		Train: cfg.Train,
		Test:  cfg.Test,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not fetch corpus: %w", err)
	}

	train, err = FromBuffer(buffers.TrainImages, buffers.TrainLabels, cfg.Train, cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, nil, fmt.Errorf("could not prepare training set: %w", err)
	}
	test = Empty(cfg.Rows * cfg.Cols)
	if cfg.Test > 0 {
		test, err = FromBuffer(buffers.TestImages, buffers.TestLabels, cfg.Test, cfg.Rows, cfg.Cols)
		if err != nil {
			return nil, nil, fmt.Errorf("could not prepare test set: %w", err)
		}
	}

	log.Debug().
		Int("train", train.Len()).
		Int("test", test.Len()).
		Int("features", train.Dim()).
		Msg("dataset loaded")
	return train, test, nil
}

// FromBuffer reshapes the flat pixel buffer into n samples of rows*cols features scaled to [0,1].
func FromBuffer(pixels []byte, labels []byte, n, rows, cols int) (*Dataset, error) {
	dim := rows * cols
	if len(pixels) != n*dim {
		return nil, fmt.Errorf("cannot reshape %d pixels into %d samples of %dx%d: %w", len(pixels), n, rows, cols, ShapeErr)
	}
	if len(labels) != n {
		return nil, fmt.Errorf("cannot reshape %d labels into %d samples: %w", len(labels), n, ShapeErr)
	}
	for i, l := range labels {
		if int(l) >= mnist.Digits {
			return nil, fmt.Errorf("label %d of sample %d is not a digit: %w", l, i, ShapeErr)
		}
	}
	if n == 0 {
		return Empty(dim), nil
	}
	data := make([]float64, len(pixels))
	for i, p := range pixels {
		data[i] = float64(p) / MaxPixel
	}
	return New(mat.NewDense(n, dim, data), labels)
}
