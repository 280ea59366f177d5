package tsne

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/drakos74/mnist-pipeline/internal/ml"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	initialMomentum = 0.5
	finalMomentum   = 0.8
	exaggeration    = 12.0
	// switchIter is the iteration at which the early exaggeration stops and the final momentum kicks in.
	switchIter = 250
	minGain    = 0.01
	logEvery   = 50
)

// Params configures the Barnes-Hut t-SNE embedding.
type Params struct {
	// EmbeddingSize is the number of output dimensions.
	EmbeddingSize int `json:"embedding_size"`
	// Perplexity is the effective number of neighbours of every sample.
	// It needs to stay well below the number of samples, 3*perplexity neighbours are taken into account.
	Perplexity float64 `json:"perplexity"`
	// ApproxThreshold trades accuracy for speed, 0 computes the exact repulsive forces.
	ApproxThreshold float64 `json:"approx_threshold"`
	// MaxIter is the number of gradient descent iterations.
	MaxIter      int     `json:"max_iter"`
	LearningRate float64 `json:"learning_rate"`
	// Seed makes the random initialisation reproducible, nil seeds from the clock.
	Seed *int64 `json:"seed,omitempty"`
}

// DefaultParams returns the parameters for a 2-D embedding of mnist.
func DefaultParams() Params {
	return Params{
		EmbeddingSize:   2,
		Perplexity:      50,
		ApproxThreshold: 0.5,
		MaxIter:         1000,
		LearningRate:    200,
	}
}

// WithSeed returns a copy of the parameters with a fixed random seed.
func (p Params) WithSeed(seed int64) Params {
	p.Seed = &seed
	return p
}

func (p Params) validate(ds *dataset.Dataset) error {
	n := ds.Len()
	if n < 2 {
		return fmt.Errorf("cannot embed %d samples: %w", n, ml.ConvergenceErr)
	}
	if p.EmbeddingSize < 1 || p.EmbeddingSize > ds.Dim() {
		return fmt.Errorf("cannot embed %d features into %d dimensions: %w", ds.Dim(), p.EmbeddingSize, ml.ConvergenceErr)
	}
	if p.Perplexity <= 0 || 3*p.Perplexity > float64(n-1) {
		return fmt.Errorf("perplexity %v is not valid for %d samples: %w", p.Perplexity, n, ml.ConvergenceErr)
	}
	if p.ApproxThreshold < 0 {
		return fmt.Errorf("negative approximation threshold %v: %w", p.ApproxThreshold, ml.ConvergenceErr)
	}
	if p.MaxIter < 1 {
		return fmt.Errorf("invalid number of iterations %d: %w", p.MaxIter, ml.ConvergenceErr)
	}
	if p.LearningRate <= 0 {
		return fmt.Errorf("invalid learning rate %v: %w", p.LearningRate, ml.ConvergenceErr)
	}
	return nil
}

// Transform embeds the dataset, keeping the labels.
func (p Params) Transform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	return p.TransformContext(context.Background(), ds)
}

// TransformContext embeds the dataset, stopping between iterations if the context is done.
func (p Params) TransformContext(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	if err := p.validate(ds); err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if p.Seed != nil {
		seed = *p.Seed
	}

	n := ds.Len()
	k := int(3 * p.Perplexity)
	if k < 1 {
		k = 1
	}
	log.Debug().
		Int("samples", n).
		Int("neighbours", k).
		Float64("perplexity", p.Perplexity).
		Msg("computing input affinities")
	s := &state{
		dim:   p.EmbeddingSize,
		theta: p.ApproxThreshold,
		p:     inputAffinities(ds.Features(), p.Perplexity, k),
	}
	s.init(n, rand.New(rand.NewSource(seed)))

	momentum := initialMomentum
	factor := exaggeration
	start := time.Now()
	for iter := 0; iter < p.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("interrupted at iteration %d: %w", iter, err)
		}
		if iter == switchIter {
			momentum = finalMomentum
			factor = 1
		}

		sumQ := s.gradient(factor)
		if (iter+1)%logEvery == 0 || iter == p.MaxIter-1 {
			log.Debug().
				Int("iter", iter+1).
				Float64("error", s.divergence(sumQ)).
				Dur("elapsed", time.Since(start)).
				Msg("t-sne")
		}
		if err := s.update(momentum, p.LearningRate); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iter, err)
		}
	}

	embedding := mat.NewDense(n, s.dim, s.y)
	return ds.WithFeatures(embedding)
}

// state holds the embedding and the optimizer buffers, all laid out flat as n x dim.
type state struct {
	dim   int
	theta float64
	p     *affinities
	y     []float64
	grad  []float64
	step  []float64
	gains []float64
}

func (s *state) init(n int, rnd *rand.Rand) {
	size := n * s.dim
	s.y = make([]float64, size)
	for i := range s.y {
		s.y[i] = rnd.NormFloat64() * 1e-4
	}
	s.grad = make([]float64, size)
	s.step = make([]float64, size)
	s.gains = make([]float64, size)
	for i := range s.gains {
		s.gains[i] = 1
	}
}

// gradient computes the Barnes-Hut gradient of the divergence into s.grad,
// with the attractive part scaled by the given exaggeration factor.
// It returns the normalisation term of the output similarities.
func (s *state) gradient(factor float64) float64 {
	n := len(s.y) / s.dim
	root := buildTree(s.y, s.dim)

	for i := range s.grad {
		s.grad[i] = 0
	}

	diff := make([]float64, s.dim)
	// attractive forces over the sparse input affinities
	for i := 0; i < n; i++ {
		yi := s.y[i*s.dim : (i+1)*s.dim]
		gi := s.grad[i*s.dim : (i+1)*s.dim]
		columns, values := s.p.row(i)
		for m, j := range columns {
			yj := s.y[j*s.dim : (j+1)*s.dim]
			dist := 0.0
			for d := range diff {
				diff[d] = yi[d] - yj[d]
				dist += diff[d] * diff[d]
			}
			mult := factor * values[m] / (1 + dist)
			floats.AddScaled(gi, mult, diff)
		}
	}

	// repulsive forces through the tree
	neg := make([]float64, len(s.y))
	sumQ := 0.0
	for i := 0; i < n; i++ {
		sumQ += root.repulsion(i, s.y[i*s.dim:(i+1)*s.dim], s.theta, neg[i*s.dim:(i+1)*s.dim], diff)
	}
	if sumQ > 0 {
		floats.AddScaled(s.grad, -1/sumQ, neg)
	}
	return sumQ
}

// update applies one momentum step with adaptive gains and re-centers the embedding.
func (s *state) update(momentum, eta float64) error {
	for i, g := range s.grad {
		if sign(g) != sign(s.step[i]) {
			s.gains[i] += 0.2
		} else {
			s.gains[i] *= 0.8
		}
		if s.gains[i] < minGain {
			s.gains[i] = minGain
		}
		s.step[i] = momentum*s.step[i] - eta*s.gains[i]*g
		s.y[i] += s.step[i]
		if math.IsNaN(s.y[i]) || math.IsInf(s.y[i], 0) {
			return fmt.Errorf("embedding diverged: %w", ml.ConvergenceErr)
		}
	}

	n := len(s.y) / s.dim
	mean := make([]float64, s.dim)
	for i := 0; i < n; i++ {
		floats.Add(mean, s.y[i*s.dim:(i+1)*s.dim])
	}
	floats.Scale(-1/float64(n), mean)
	for i := 0; i < n; i++ {
		floats.Add(s.y[i*s.dim:(i+1)*s.dim], mean)
	}
	return nil
}

// divergence is the Kullback-Leibler divergence between the input and the output similarities.
func (s *state) divergence(sumQ float64) float64 {
	if sumQ <= 0 {
		return math.NaN()
	}
	n := len(s.y) / s.dim
	kl := 0.0
	for i := 0; i < n; i++ {
		yi := s.y[i*s.dim : (i+1)*s.dim]
		columns, values := s.p.row(i)
		for m, j := range columns {
			dist := floats.Distance(yi, s.y[j*s.dim:(j+1)*s.dim], 2)
			q := 1 / (1 + dist*dist) / sumQ
			kl += values[m] * math.Log((values[m]+math.SmallestNonzeroFloat32)/(q+math.SmallestNonzeroFloat32))
		}
	}
	return kl
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
