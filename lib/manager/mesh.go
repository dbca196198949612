package manager

import (
	"math"

	"github.com/phil-mansfield/atomstack/lib/lattice"
)

const (
	// meshPadding is the extra fraction of a box width added below the mesh
	// so that points exactly one cutoff away from the cell don't land on a
	// box edge.
	meshPadding = 0.25
)

// mesh is the grid of cubic boxes used by the cell-list search. Boxes have
// a width of at least the search radius, so every neighbour of a point lies
// in the 3x3x3 block of boxes around it.
type mesh struct {
	min, max [3]float64
	width float64
	n [3]int
}

// newMesh creates a mesh which covers the cell, every point in x, and one
// search radius of padding around them.
func newMesh(lat *lattice.Lattice, x [][3]float64, rc float64) *mesh {
	lo, hi := lat.CornerBounds()
	for i := range x {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], x[i][k])
			hi[k] = math.Max(hi[k], x[i][k])
		}
	}

	m := &mesh{width: rc}
	for k := 0; k < 3; k++ {
		m.min[k] = lo[k] - rc - meshPadding*rc
		m.n[k] = int(math.Ceil((hi[k] + rc - m.min[k]) / rc))
		if m.n[k] < 1 { m.n[k] = 1 }
		m.max[k] = m.min[k] + float64(m.n[k])*rc
	}
	return m
}

// contains returns true if x is strictly inside the mesh.
func (m *mesh) contains(x [3]float64) bool {
	for k := 0; k < 3; k++ {
		if x[k] <= m.min[k] || x[k] >= m.max[k] { return false }
	}
	return true
}

// box returns the 3-index of the box containing x.
func (m *mesh) box(x [3]float64) [3]int {
	var idx [3]int
	for k := 0; k < 3; k++ {
		idx[k] = int(math.Floor((x[k] - m.min[k]) / m.width))
		if idx[k] < 0 { idx[k] = 0 }
		if idx[k] >= m.n[k] { idx[k] = m.n[k] - 1 }
	}
	return idx
}

// ghostRange returns the range of lattice translations which can move a
// point from the cell into the mesh. Non-periodic directions get a range of
// zero.
func (m *mesh) ghostRange(lat *lattice.Lattice, pbc [3]bool) (lo, hi [3]int) {
	corners := make([][3]float64, 0, 8)
	for c := 0; c < 8; c++ {
		var x [3]float64
		for k := 0; k < 3; k++ {
			if c&(1<<k) == 0 {
				x[k] = m.min[k]
			} else {
				x[k] = m.max[k]
			}
		}
		corners = append(corners, x)
	}
	frac := lat.SolveFractional(corners, nil)

	for k := 0; k < 3; k++ {
		if !pbc[k] { continue }
		fmin, fmax := frac[0][k], frac[0][k]
		for _, f := range frac[1:] {
			fmin, fmax = math.Min(fmin, f[k]), math.Max(fmax, f[k])
		}
		lo[k] = int(math.Floor(fmin)) - 1
		hi[k] = int(math.Ceil(fmax)) + 1
	}
	return lo, hi
}

// cellList bins points into the boxes of a mesh. Only occupied boxes are
// stored, and the points of each box are in increasing order.
type cellList struct {
	m *mesh
	boxes map[[3]int][]int
}

func newCellList(m *mesh, x [][3]float64) *cellList {
	boxes := make(map[[3]int][]int, len(x))
	for i := range x {
		b := m.box(x[i])
		boxes[b] = append(boxes[b], i)
	}
	return &cellList{m, boxes}
}

// stencil appends the tags of every point in the 3x3x3 block of boxes around
// x to out.
func (cl *cellList) stencil(x [3]float64, out []int) []int {
	b := cl.m.box(x)
	var lo, hi [3]int
	for k := 0; k < 3; k++ {
		lo[k], hi[k] = max(b[k]-1, 0), min(b[k]+1, cl.m.n[k]-1)
	}
	for i := lo[0]; i <= hi[0]; i++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for k := lo[2]; k <= hi[2]; k++ {
				out = append(out, cl.boxes[[3]int{i, j, k}]...)
			}
		}
	}
	return out
}
