package mnist

import (
	"context"
	"errors"
)

const (
	// Rows is the height of every mnist image.
	Rows = 28
	// Cols is the width of every mnist image.
	Cols = 28
	// Digits is the number of distinct labels.
	Digits = 10
)

var (
	DownloadErr = errors.New("could not download corpus")
	FormatErr   = errors.New("invalid idx format")
)

// Request describes how many samples to retrieve from the corpus.
type Request struct {
	Train int `json:"train"`
	Test  int `json:"test"`
	// OneHot switches the label buffers from one byte per sample to ten.
	OneHot bool `json:"one_hot"`
}

// Buffers holds the flat pixel and label buffers of a corpus.
// Images are row-major with one byte per pixel.
type Buffers struct {
	TrainImages []byte `json:"train_images"`
	TrainLabels []byte `json:"train_labels"`
	TestImages  []byte `json:"test_images"`
	TestLabels  []byte `json:"test_labels"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
}

// Source retrieves the corpus buffers sized to the requested sample counts.
type Source interface {
	Fetch(ctx context.Context, req Request) (*Buffers, error)
}

// SourceFunc adapts a plain function to a Source.
type SourceFunc func(ctx context.Context, req Request) (*Buffers, error)

func (f SourceFunc) Fetch(ctx context.Context, req Request) (*Buffers, error) {
	return f(ctx, req)
}

func oneHot(labels []byte) []byte {
	encoded := make([]byte, len(labels)*Digits)
	for i, l := range labels {
		if int(l) < Digits {
			encoded[i*Digits+int(l)] = 1
		}
	}
	return encoded
}
