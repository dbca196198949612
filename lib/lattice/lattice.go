/*package lattice contains the Lattice type, which handles the bookkeeping
around a periodic cell: its vectors, lengths, angles and volume, and the
conversion between fractional and Cartesian coordinates.

Cell matrices are given as [3][3]float64 values where cell[i] is the i-th
lattice vector. In matrix language, these are the columns of the cell matrix.
*/
package lattice

import (
	"math"

	"gonum.org/v1/gonum/mat"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
)

const (
	// DegenerateDet is the smallest |det(cell)| which is not considered
	// degenerate.
	DegenerateDet = 1e-10
)

// Lattice stores a cell and the quantities derived from it. The zero value
// is not usable; create Lattices with New.
type Lattice struct {
	cell, inv [3][3]float64
	lengths, angles [3]float64
	volume float64
}

// New creates a Lattice from a cell. A configuration error is returned if the
// cell is degenerate.
func New(cell [3][3]float64) (*Lattice, error) {
	l := &Lattice{}
	if err := l.SetCell(cell); err != nil { return nil, err }
	return l, nil
}

// SetCell replaces the Lattice's cell. The Lattice is left unchanged if an
// error is returned.
func (l *Lattice) SetCell(cell [3][3]float64) error {
	m := cellMatrix(cell)
	det := mat.Det(m)
	if math.Abs(det) < DegenerateDet || math.IsNaN(det) {
		return g_error.New(g_error.Configuration, "Lattice.SetCell",
			"the cell %v is degenerate (determinant %g)", cell, det)
	}

	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(m); err != nil {
		return g_error.New(g_error.Configuration, "Lattice.SetCell",
			"the cell %v cannot be inverted: %s", cell, err.Error())
	}

	l.cell = cell
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			l.inv[i][j] = inv.At(i, j)
		}
	}

	for i := 0; i < 3; i++ {
		l.lengths[i] = norm(cell[i])
	}
	// alpha is the angle between b and c, beta between a and c, gamma between
	// a and b.
	l.angles[0] = angle(cell[1], cell[2])
	l.angles[1] = angle(cell[0], cell[2])
	l.angles[2] = angle(cell[0], cell[1])
	l.volume = math.Abs(det)

	return nil
}

// cellMatrix returns the cell as a gonum matrix with lattice vectors as
// columns.
func cellMatrix(cell [3][3]float64) *mat.Dense {
	m := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(j, i, cell[i][j])
		}
	}
	return m
}

// Cell returns the cell the Lattice was built from.
func (l *Lattice) Cell() [3][3]float64 { return l.cell }

// Vector returns the i-th lattice vector.
func (l *Lattice) Vector(i int) [3]float64 { return l.cell[i] }

// Lengths returns the lengths of the three lattice vectors.
func (l *Lattice) Lengths() [3]float64 { return l.lengths }

// Angles returns alpha, beta, and gamma in degrees.
func (l *Lattice) Angles() [3]float64 { return l.angles }

// Volume returns the volume of the cell.
func (l *Lattice) Volume() float64 { return l.volume }

// Fractional converts a Cartesian position to fractional coordinates.
func (l *Lattice) Fractional(x [3]float64) [3]float64 {
	var f [3]float64
	for i := 0; i < 3; i++ {
		f[i] = l.inv[i][0]*x[0] + l.inv[i][1]*x[1] + l.inv[i][2]*x[2]
	}
	return f
}

// Cartesian converts fractional coordinates to a Cartesian position.
func (l *Lattice) Cartesian(f [3]float64) [3]float64 {
	var x [3]float64
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			x[k] += f[i] * l.cell[i][k]
		}
	}
	return x
}

// Translation returns the lattice translation n[0]*a + n[1]*b + n[2]*c.
func (l *Lattice) Translation(n [3]int) [3]float64 {
	return l.Cartesian([3]float64{float64(n[0]), float64(n[1]), float64(n[2])})
}

// SolveFractional writes the fractional coordinates of every point in x to
// out and returns out. The conversion is done as a single gonum
// matrix product. If out is too short, a new slice is allocated.
func (l *Lattice) SolveFractional(x, out [][3]float64) [][3]float64 {
	if cap(out) < len(x) {
		out = make([][3]float64, len(x))
	}
	out = out[:len(x)]
	if len(x) == 0 { return out }

	pts := mat.NewDense(3, len(x), nil)
	for j := range x {
		for k := 0; k < 3; k++ {
			pts.Set(k, j, x[j][k])
		}
	}
	inv := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			inv.Set(i, j, l.inv[i][j])
		}
	}

	var frac mat.Dense
	frac.Mul(inv, pts)
	for j := range out {
		for k := 0; k < 3; k++ {
			out[j][k] = frac.At(k, j)
		}
	}
	return out
}

// CornerBounds returns the axis-aligned bounding box of the eight corners of
// the cell anchored at the origin.
func (l *Lattice) CornerBounds() (min, max [3]float64) {
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			if l.cell[i][k] < 0 {
				min[k] += l.cell[i][k]
			} else {
				max[k] += l.cell[i][k]
			}
		}
	}
	return min, max
}

// Wrap folds x back into the primary cell along every periodic direction.
func (l *Lattice) Wrap(x [3]float64, pbc [3]bool) [3]float64 {
	f := l.Fractional(x)
	changed := false
	for i := 0; i < 3; i++ {
		if !pbc[i] { continue }
		w := f[i] - math.Floor(f[i])
		if w >= 1 { w = 0 }
		if w != f[i] {
			f[i], changed = w, true
		}
	}
	if !changed { return x }
	return l.Cartesian(f)
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func angle(u, v [3]float64) float64 {
	c := (u[0]*v[0] + u[1]*v[1] + u[2]*v[2]) / (norm(u) * norm(v))
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi
}
