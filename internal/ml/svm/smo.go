package svm

import (
	"math"

	"github.com/rs/zerolog/log"
)

const tau = 1e-12

// solution is the outcome of the dual optimisation for one binary problem.
type solution struct {
	alpha []float64
	rho   float64
	iter  int
}

// solve runs sequential minimal optimisation on the dual of the soft margin problem
//
//	min 1/2 a'Qa - e'a  s.t.  0 <= a <= c, y'a = 0,  Q_ij = y_i y_j K_ij
//
// choosing the working pair with second order information.
// y holds +1 or -1 for every sample of the gram matrix.
func solve(k *gram, y []float64, c, eps float64, maxIter int) solution {
	n := len(y)
	alpha := make([]float64, n)
	grad := make([]float64, n)
	for t := range grad {
		grad[t] = -1
	}
	if maxIter <= 0 {
		maxIter = 100 * n
		if maxIter < 10000000 {
			maxIter = 10000000
		}
	}

	iter := 0
	for ; iter < maxIter; iter++ {
		i, j, ok := selectPair(k, y, alpha, grad, c, eps)
		if !ok {
			break
		}

		ki := k.row(i)
		kj := k.row(j)
		quad := k.diag[i] + k.diag[j] - 2*ki[j]
		if quad <= 0 {
			quad = tau
		}

		ai, aj := alpha[i], alpha[j]
		if y[i] != y[j] {
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else {
				if alpha[i] < 0 {
					alpha[i] = 0
					alpha[j] = -diff
				}
			}
			if diff > 0 {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = c - diff
				}
			} else {
				if alpha[j] > c {
					alpha[j] = c
					alpha[i] = c + diff
				}
			}
		} else {
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > c {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = sum - c
				}
			} else {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = sum
				}
			}
			if sum > c {
				if alpha[j] > c {
					alpha[j] = c
					alpha[i] = sum - c
				}
			} else {
				if alpha[i] < 0 {
					alpha[i] = 0
					alpha[j] = sum
				}
			}
		}

		di := alpha[i] - ai
		dj := alpha[j] - aj
		for t := range grad {
			grad[t] += y[t] * (y[i]*ki[t]*di + y[j]*kj[t]*dj)
		}
	}
	if iter == maxIter {
		log.Warn().Int("iterations", iter).Msg("reached max number of iterations")
	}

	return solution{
		alpha: alpha,
		rho:   offset(y, alpha, grad, c),
		iter:  iter,
	}
}

// selectPair returns the maximal violating sample i and the partner j that decreases the objective the most.
// ok is false once the optimality gap is below eps.
func selectPair(k *gram, y, alpha, grad []float64, c, eps float64) (int, int, bool) {
	gmax := math.Inf(-1)
	i := -1
	for t := range y {
		if y[t] > 0 {
			if alpha[t] < c && -grad[t] >= gmax {
				gmax = -grad[t]
				i = t
			}
		} else {
			if alpha[t] > 0 && grad[t] >= gmax {
				gmax = grad[t]
				i = t
			}
		}
	}
	if i < 0 {
		return -1, -1, false
	}

	ki := k.row(i)
	gmax2 := math.Inf(-1)
	objMin := math.Inf(1)
	j := -1
	for t := range y {
		var gradDiff float64
		if y[t] > 0 {
			if alpha[t] <= 0 {
				continue
			}
			if grad[t] >= gmax2 {
				gmax2 = grad[t]
			}
			gradDiff = gmax + grad[t]
		} else {
			if alpha[t] >= c {
				continue
			}
			if -grad[t] >= gmax2 {
				gmax2 = -grad[t]
			}
			gradDiff = gmax - grad[t]
		}
		if gradDiff <= 0 {
			continue
		}
		quad := k.diag[i] + k.diag[t] - 2*ki[t]
		if quad <= 0 {
			quad = tau
		}
		obj := -gradDiff * gradDiff / quad
		if obj <= objMin {
			objMin = obj
			j = t
		}
	}

	if gmax+gmax2 < eps || j < 0 {
		return -1, -1, false
	}
	return i, j, true
}

// offset computes the bias of the decision function, averaging over the free support vectors.
func offset(y, alpha, grad []float64, c float64) float64 {
	ub := math.Inf(1)
	lb := math.Inf(-1)
	free := 0
	sum := 0.0
	for t := range y {
		yg := y[t] * grad[t]
		switch {
		case alpha[t] >= c:
			if y[t] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case alpha[t] <= 0:
			if y[t] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			free++
			sum += yg
		}
	}
	if free > 0 {
		return sum / float64(free)
	}
	return (ub + lb) / 2
}
