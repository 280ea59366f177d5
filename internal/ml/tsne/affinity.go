package tsne

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	entropyTolerance = 1e-5
	maxSearchSteps   = 200
)

// affinities is a sparse symmetric matrix of input similarities in compressed row form.
type affinities struct {
	offsets []int
	columns []int
	values  []float64
}

func (a *affinities) row(i int) ([]int, []float64) {
	return a.columns[a.offsets[i]:a.offsets[i+1]], a.values[a.offsets[i]:a.offsets[i+1]]
}

type neighbour struct {
	index int
	dist  float64
}

type edge struct {
	index int
	p     float64
}

// inputAffinities computes the symmetric input similarities over the k nearest neighbours of every sample,
// with each conditional distribution calibrated to the given perplexity.
func inputAffinities(x *mat.Dense, perplexity float64, k int) *affinities {
	n, _ := x.Dims()

	conditional := make([][]edge, n)
	candidates := make([]neighbour, 0, n-1)
	dists := make([]float64, k)
	probs := make([]float64, k)
	for i := 0; i < n; i++ {
		xi := x.RawRowView(i)
		candidates = candidates[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d := floats.Distance(xi, x.RawRowView(j), 2)
			candidates = append(candidates, neighbour{index: j, dist: d * d})
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].dist < candidates[b].dist
		})
		nearest := candidates[:k]
		for m, c := range nearest {
			dists[m] = c.dist
		}
		calibrate(dists, probs, perplexity)
		row := make([]edge, k)
		for m, c := range nearest {
			row[m] = edge{index: c.index, p: probs[m]}
		}
		conditional[i] = row
	}

	return symmetrize(conditional)
}

// calibrate fills probs with the gaussian conditional probabilities for the given squared distances,
// searching the precision that gives the target perplexity.
func calibrate(dists, probs []float64, perplexity float64) {
	target := math.Log(perplexity)
	// distances are shifted by their minimum, which leaves the normalised probabilities unchanged
	shift := floats.Min(dists)

	beta := 1.0
	lo, hi := math.Inf(-1), math.Inf(1)
	for step := 0; step < maxSearchSteps; step++ {
		sum := 0.0
		weighted := 0.0
		for m, d := range dists {
			probs[m] = math.Exp(-beta * (d - shift))
			sum += probs[m]
			weighted += (d - shift) * probs[m]
		}
		entropy := beta*weighted/sum + math.Log(sum)

		diff := entropy - target
		if math.Abs(diff) < entropyTolerance {
			break
		}
		if diff > 0 {
			lo = beta
			if math.IsInf(hi, 1) {
				beta *= 2
			} else {
				beta = (beta + hi) / 2
			}
		} else {
			hi = beta
			if math.IsInf(lo, -1) {
				beta /= 2
			} else {
				beta = (beta + lo) / 2
			}
		}
	}
	floats.Scale(1/floats.Sum(probs), probs)
}

// symmetrize sums the conditional distributions with their transposes and normalises the result to sum to one.
func symmetrize(conditional [][]edge) *affinities {
	n := len(conditional)
	joint := make([]map[int]float64, n)
	for i := range joint {
		joint[i] = make(map[int]float64)
	}
	for i, row := range conditional {
		for _, e := range row {
			joint[i][e.index] += e.p
			joint[e.index][i] += e.p
		}
	}

	total := 0.0
	a := &affinities{
		offsets: make([]int, n+1),
	}
	for i, row := range joint {
		columns := make([]int, 0, len(row))
		for j := range row {
			columns = append(columns, j)
		}
		sort.Ints(columns)
		for _, j := range columns {
			a.columns = append(a.columns, j)
			a.values = append(a.values, row[j])
			total += row[j]
		}
		a.offsets[i+1] = len(a.columns)
	}
	floats.Scale(1/total, a.values)
	return a
}
