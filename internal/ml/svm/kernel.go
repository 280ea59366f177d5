package svm

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Kernel is a similarity function between two feature vectors.
type Kernel interface {
	Eval(a, b []float64) float64
}

// Gaussian is the radial basis kernel exp(-|a-b|^2 / bandwidth).
type Gaussian struct {
	Bandwidth float64
}

func (g Gaussian) Eval(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return math.Exp(-d * d / g.Bandwidth)
}

// Linear is the plain dot product kernel.
type Linear struct{}

func (Linear) Eval(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// gram lazily computes and keeps the kernel matrix rows of a training set.
// The rows do not depend on the labels, so one gram is shared by all the binary problems.
type gram struct {
	x      *mat.Dense
	kernel Kernel
	rows   [][]float64
	diag   []float64
}

func newGram(x *mat.Dense, kernel Kernel) *gram {
	n, _ := x.Dims()
	diag := make([]float64, n)
	for i := range diag {
		xi := x.RawRowView(i)
		diag[i] = kernel.Eval(xi, xi)
	}
	return &gram{
		x:      x,
		kernel: kernel,
		rows:   make([][]float64, n),
		diag:   diag,
	}
}

func (g *gram) size() int {
	return len(g.diag)
}

func (g *gram) row(i int) []float64 {
	if g.rows[i] == nil {
		row := make([]float64, g.size())
		xi := g.x.RawRowView(i)
		for j := range row {
			row[j] = g.kernel.Eval(xi, g.x.RawRowView(j))
		}
		g.rows[i] = row
	}
	return g.rows[i]
}

// cached returns the number of computed rows.
func (g *gram) cached() int {
	c := 0
	for _, r := range g.rows {
		if r != nil {
			c++
		}
	}
	return c
}
