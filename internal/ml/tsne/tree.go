package tsne

import "math"

// minWidth is the cell size under which points are no longer separated.
const minWidth = 1e-10

// tree is a 2^d-ary space partitioning tree over the embedding,
// keeping the center of mass and the number of points of every cell.
type tree struct {
	dim      int
	center   []float64
	half     []float64
	com      []float64
	size     int
	points   []int
	children []*tree
}

func newCell(center, half []float64) *tree {
	return &tree{
		dim:    len(center),
		center: center,
		half:   half,
		com:    make([]float64, len(center)),
	}
}

// buildTree creates the tree for the n points of dimension dim laid out flat in ys.
func buildTree(ys []float64, dim int) *tree {
	n := len(ys) / dim
	lo := make([]float64, dim)
	hi := make([]float64, dim)
	for d := 0; d < dim; d++ {
		lo[d] = math.Inf(1)
		hi[d] = math.Inf(-1)
	}
	for i := 0; i < n; i++ {
		p := ys[i*dim : (i+1)*dim]
		for d, v := range p {
			if v < lo[d] {
				lo[d] = v
			}
			if v > hi[d] {
				hi[d] = v
			}
		}
	}
	center := make([]float64, dim)
	half := make([]float64, dim)
	for d := 0; d < dim; d++ {
		center[d] = (lo[d] + hi[d]) / 2
		half[d] = (hi[d]-lo[d])/2 + 1e-5
	}
	root := newCell(center, half)
	for i := 0; i < n; i++ {
		root.insert(i, ys)
	}
	return root
}

func (t *tree) point(i int, ys []float64) []float64 {
	return ys[i*t.dim : (i+1)*t.dim]
}

func (t *tree) insert(i int, ys []float64) {
	p := t.point(i, ys)
	t.size++
	for d := range t.com {
		t.com[d] += (p[d] - t.com[d]) / float64(t.size)
	}

	if t.children == nil {
		if len(t.points) == 0 || equal(t.point(t.points[0], ys), p) || t.width() < minWidth {
			t.points = append(t.points, i)
			return
		}
		t.subdivide(ys)
	}
	t.child(p).insert(i, ys)
}

func (t *tree) subdivide(ys []float64) {
	t.children = make([]*tree, 1<<uint(t.dim))
	points := t.points
	t.points = nil
	for _, j := range points {
		t.child(t.point(j, ys)).insert(j, ys)
	}
}

// child returns the sub-cell containing p, creating it if needed.
func (t *tree) child(p []float64) *tree {
	idx := 0
	for d := 0; d < t.dim; d++ {
		if p[d] > t.center[d] {
			idx |= 1 << uint(d)
		}
	}
	if t.children[idx] == nil {
		center := make([]float64, t.dim)
		half := make([]float64, t.dim)
		for d := 0; d < t.dim; d++ {
			half[d] = t.half[d] / 2
			if idx&(1<<uint(d)) != 0 {
				center[d] = t.center[d] + half[d]
			} else {
				center[d] = t.center[d] - half[d]
			}
		}
		t.children[idx] = newCell(center, half)
	}
	return t.children[idx]
}

// width is the largest side length of the cell.
func (t *tree) width() float64 {
	w := 0.0
	for _, h := range t.half {
		if 2*h > w {
			w = 2 * h
		}
	}
	return w
}

// repulsion accumulates the unnormalised repulsive force on point i into neg,
// returning its contribution to the normalisation term.
// Cells that look small enough from p, i.e. width/distance < theta, are summarised by their center of mass.
func (t *tree) repulsion(i int, p []float64, theta float64, neg, diff []float64) float64 {
	if t.size == 0 {
		return 0
	}
	count := t.size
	if t.children == nil {
		for _, j := range t.points {
			if j == i {
				count--
			}
		}
		if count == 0 {
			return 0
		}
	}

	dist := 0.0
	for d := range diff {
		diff[d] = p[d] - t.com[d]
		dist += diff[d] * diff[d]
	}

	w := t.width()
	if t.children == nil || w*w < theta*theta*dist {
		q := 1 / (1 + dist)
		mult := float64(count) * q
		sumQ := mult
		mult *= q
		for d := range neg {
			neg[d] += mult * diff[d]
		}
		return sumQ
	}

	sumQ := 0.0
	for _, c := range t.children {
		if c != nil {
			sumQ += c.repulsion(i, p, theta, neg, diff)
		}
	}
	return sumQ
}

func equal(a, b []float64) bool {
	for d := range a {
		if a[d] != b[d] {
			return false
		}
	}
	return true
}
