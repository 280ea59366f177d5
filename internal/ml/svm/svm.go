package svm

import (
	"fmt"
	"time"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/drakos74/mnist-pipeline/internal/ml"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// Params configures the support vector machines.
type Params struct {
	// Bandwidth of the gaussian kernel.
	Bandwidth float64 `json:"bandwidth"`
	// C is the soft margin penalty.
	C float64 `json:"c"`
	// Tolerance is the optimality gap at which the optimisation stops.
	Tolerance float64 `json:"tolerance"`
	// MaxIter caps the optimisation steps of every binary problem, 0 picks a limit based on the sample count.
	MaxIter int `json:"max_iter"`
	// Kernel overrides the gaussian kernel.
	Kernel Kernel `json:"-"`
}

// DefaultParams returns the gaussian kernel parameters used for mnist.
func DefaultParams() Params {
	return Params{
		Bandwidth: 30,
		C:         1,
		Tolerance: 1e-3,
	}
}

func (p Params) kernel() (Kernel, error) {
	if p.Kernel != nil {
		return p.Kernel, nil
	}
	if p.Bandwidth <= 0 {
		return nil, fmt.Errorf("invalid kernel bandwidth %v: %w", p.Bandwidth, ml.FitErr)
	}
	return Gaussian{Bandwidth: p.Bandwidth}, nil
}

// Discriminant scores how confidently a feature vector belongs to a class.
type Discriminant interface {
	Decision(x []float64) float64
}

// Binary is a fitted two class support vector machine.
// Positive decision values stand for the positive class.
type Binary struct {
	kernel  Kernel
	support *mat.Dense
	coef    []float64
	rho     float64
}

// Decision returns the signed distance-like score of x.
func (b *Binary) Decision(x []float64) float64 {
	score := -b.rho
	for i, c := range b.coef {
		score += c * b.kernel.Eval(b.support.RawRowView(i), x)
	}
	return score
}

// Support returns the number of support vectors.
func (b *Binary) Support() int {
	return len(b.coef)
}

// FitBinary fits a machine separating the samples labelled positive from all the others.
func FitBinary(ds *dataset.Dataset, positive uint8, p Params) (*Binary, error) {
	kernel, err := p.kernel()
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("empty training set: %w", ml.FitErr)
	}
	return fitBinary(newGram(ds.Features(), kernel), ds, positive, p)
}

func fitBinary(k *gram, ds *dataset.Dataset, positive uint8, p Params) (*Binary, error) {
	if p.C <= 0 {
		return nil, fmt.Errorf("invalid penalty %v: %w", p.C, ml.FitErr)
	}
	y := make([]float64, ds.Len())
	pos := 0
	for i := range y {
		if ds.Label(i) == positive {
			y[i] = 1
			pos++
		} else {
			y[i] = -1
		}
	}
	if pos == 0 || pos == len(y) {
		return nil, fmt.Errorf("class %d has %d positive and %d negative samples: %w", positive, pos, len(y)-pos, ml.FitErr)
	}

	eps := p.Tolerance
	if eps <= 0 {
		eps = 1e-3
	}
	sol := solve(k, y, p.C, eps, p.MaxIter)

	support := make([]int, 0)
	for i, a := range sol.alpha {
		if a > 0 {
			support = append(support, i)
		}
	}
	b := &Binary{
		kernel: k.kernel,
		coef:   make([]float64, len(support)),
		rho:    sol.rho,
	}
	if len(support) > 0 {
		b.support = mat.NewDense(len(support), ds.Dim(), nil)
		for m, i := range support {
			b.support.SetRow(m, ds.Features().RawRowView(i))
			b.coef[m] = sol.alpha[i] * y[i]
		}
	}

	log.Debug().
		Uint8("class", positive).
		Int("positive", pos).
		Int("support", len(support)).
		Int("iterations", sol.iter).
		Float64("rho", sol.rho).
		Msg("fitted binary svm")
	return b, nil
}

// OneVsAll composes one discriminant per class into a multi-class classifier.
type OneVsAll struct {
	classes       []uint8
	discriminants []Discriminant
}

// NewOneVsAll creates a multi-class classifier out of the given discriminants.
// The classes must be in ascending order, ties between discriminants go to the lowest class.
func NewOneVsAll(classes []uint8, discriminants []Discriminant) (*OneVsAll, error) {
	if len(classes) == 0 || len(classes) != len(discriminants) {
		return nil, fmt.Errorf("got %d classes for %d discriminants: %w", len(classes), len(discriminants), ml.FitErr)
	}
	for i := 1; i < len(classes); i++ {
		if classes[i] <= classes[i-1] {
			return nil, fmt.Errorf("classes are not in ascending order %v: %w", classes, ml.FitErr)
		}
	}
	return &OneVsAll{
		classes:       append([]uint8(nil), classes...),
		discriminants: append([]Discriminant(nil), discriminants...),
	}, nil
}

// Fit fits one binary machine per distinct label of the training set against all the other labels.
func Fit(ds *dataset.Dataset, p Params) (*OneVsAll, error) {
	kernel, err := p.kernel()
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("empty training set: %w", ml.FitErr)
	}
	classes := ds.Classes()
	if len(classes) < 2 {
		return nil, fmt.Errorf("need at least two classes to fit one-vs-all, got %v: %w", classes, ml.FitErr)
	}

	k := newGram(ds.Features(), kernel)
	discriminants := make([]Discriminant, len(classes))
	for i, c := range classes {
		start := time.Now()
		b, err := fitBinary(k, ds, c, p)
		if err != nil {
			return nil, err
		}
		discriminants[i] = b
		log.Info().
			Uint8("class", c).
			Int("support", b.Support()).
			Int("kernel-rows", k.cached()).
			Dur("duration", time.Since(start)).
			Msg("class fitted")
	}
	return NewOneVsAll(classes, discriminants)
}

// Scores returns the decision value of every class discriminant, in the order of Classes.
func (m *OneVsAll) Scores(x []float64) []float64 {
	scores := make([]float64, len(m.discriminants))
	for i, d := range m.discriminants {
		scores[i] = d.Decision(x)
	}
	return scores
}

// Predict returns the class with the highest decision value, the lowest class on ties.
func (m *OneVsAll) Predict(x []float64) uint8 {
	return m.classes[ml.ArgMax(m.Scores(x))]
}

// Classes returns the labels the model can predict.
func (m *OneVsAll) Classes() []uint8 {
	return append([]uint8(nil), m.classes...)
}
