/*package structure contains AtomicStructure, the raw input to a manager stack:
atomic positions, species, the periodic cell, and the periodicity flags.
*/
package structure

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/lattice"
)

const (
	// MinAtomType and MaxAtomType give the range of valid atomic numbers.
	MinAtomType = 1
	MaxAtomType = 118
	// CellTolerance is how far outside [0, 1) a fractional coordinate in a
	// non-periodic direction may be before the atom counts as outside the
	// cell.
	CellTolerance = 1e-8
)

// AtomicStructure is a set of atoms in a (possibly periodic) cell.
type AtomicStructure struct {
	// Positions gives the Cartesian position of every atom.
	Positions [][3]float64
	// AtomTypes gives the atomic number of every atom.
	AtomTypes []int
	// Cell holds the three lattice vectors, Cell[i] being the i-th one.
	Cell [3][3]float64
	// PBC gives the periodicity of each lattice direction.
	PBC [3]bool
	// CenterAtomsMask selects the atoms which act as centers. A nil mask
	// makes every atom a center.
	CenterAtomsMask []bool
	// Info holds extra metadata which is carried along but not interpreted.
	Info map[string]interface{}
}

// Len returns the number of atoms in the structure.
func (s *AtomicStructure) Len() int { return len(s.Positions) }

// Validate checks that the structure can be handed to a manager. All
// problems are reported as configuration errors.
func (s *AtomicStructure) Validate() error {
	const op = "AtomicStructure.Validate"
	n := len(s.Positions)
	if n == 0 {
		return g_error.New(g_error.Configuration, op,
			"the structure contains no atoms")
	}
	if len(s.AtomTypes) != n {
		return g_error.New(g_error.Configuration, op,
			"%d positions were given, but %d atom types", n, len(s.AtomTypes))
	}
	if s.CenterAtomsMask != nil && len(s.CenterAtomsMask) != n {
		return g_error.New(g_error.Configuration, op,
			"%d atoms were given, but the center mask has length %d",
			n, len(s.CenterAtomsMask))
	}
	if s.CenterAtomsMask != nil && s.NumCenters() == 0 {
		return g_error.New(g_error.Configuration, op,
			"the center mask does not select any atoms")
	}

	for i, typ := range s.AtomTypes {
		if typ < MinAtomType || typ > MaxAtomType {
			return g_error.New(g_error.Configuration, op,
				"atom %d has type %d, but types must be in the range [%d, %d]",
				i, typ, MinAtomType, MaxAtomType)
		}
	}

	for i, x := range s.Positions {
		for k := 0; k < 3; k++ {
			if math.IsNaN(x[k]) || math.IsInf(x[k], 0) {
				return g_error.New(g_error.Configuration, op,
					"atom %d has non-finite position %v", i, x)
			}
		}
	}

	l, err := lattice.New(s.Cell)
	if err != nil { return err }

	for i, x := range s.Positions {
		f := l.Fractional(x)
		for k := 0; k < 3; k++ {
			if s.PBC[k] { continue }
			if f[k] < -CellTolerance || f[k] >= 1+CellTolerance {
				return g_error.New(g_error.Configuration, op,
					"atom %d at %v lies outside the cell along the "+
						"non-periodic direction %d (fractional coordinate %g)",
					i, x, k, f[k])
			}
		}
	}

	return nil
}

// Lattice returns the structure's Lattice.
func (s *AtomicStructure) Lattice() (*lattice.Lattice, error) {
	return lattice.New(s.Cell)
}

// Wrap folds every atom back into the primary cell along the periodic
// directions.
func (s *AtomicStructure) Wrap() error {
	l, err := lattice.New(s.Cell)
	if err != nil { return err }
	for i := range s.Positions {
		s.Positions[i] = l.Wrap(s.Positions[i], s.PBC)
	}
	return nil
}

// IsCenter returns true if atom i is a center.
func (s *AtomicStructure) IsCenter(i int) bool {
	return s.CenterAtomsMask == nil || s.CenterAtomsMask[i]
}

// NumCenters returns the number of center atoms.
func (s *AtomicStructure) NumCenters() int {
	if s.CenterAtomsMask == nil { return len(s.Positions) }
	n := 0
	for _, ok := range s.CenterAtomsMask {
		if ok { n++ }
	}
	return n
}

// CenterAtoms returns the set of center atom indices.
func (s *AtomicStructure) CenterAtoms() *roaring.Bitmap {
	bm := roaring.New()
	if s.CenterAtomsMask == nil {
		bm.AddRange(0, uint64(len(s.Positions)))
		return bm
	}
	for i, ok := range s.CenterAtomsMask {
		if ok { bm.Add(uint32(i)) }
	}
	return bm
}

// Clone returns a deep copy of the structure. Info is copied shallowly.
func (s *AtomicStructure) Clone() *AtomicStructure {
	out := &AtomicStructure{
		Positions: append([][3]float64{}, s.Positions...),
		AtomTypes: append([]int{}, s.AtomTypes...),
		Cell: s.Cell,
		PBC: s.PBC,
	}
	if s.CenterAtomsMask != nil {
		out.CenterAtomsMask = append([]bool{}, s.CenterAtomsMask...)
	}
	if s.Info != nil {
		out.Info = make(map[string]interface{}, len(s.Info))
		for k, v := range s.Info { out.Info[k] = v }
	}
	return out
}

// IsSimilar returns true if other has the same atoms, cell, periodicity and
// centers as s, and no atom has moved by sqrt(skin2) or more.
func (s *AtomicStructure) IsSimilar(other *AtomicStructure, skin2 float64) bool {
	if len(s.Positions) != len(other.Positions) { return false }
	if len(s.AtomTypes) != len(other.AtomTypes) { return false }
	if s.Cell != other.Cell || s.PBC != other.PBC { return false }
	for i := range s.AtomTypes {
		if s.AtomTypes[i] != other.AtomTypes[i] { return false }
	}
	for i := range s.Positions {
		if s.IsCenter(i) != other.IsCenter(i) { return false }
	}
	for i := range s.Positions {
		if dist2(s.Positions[i], other.Positions[i]) >= skin2 {
			return false
		}
	}
	return true
}

// Translate moves every atom by dx.
func (s *AtomicStructure) Translate(dx [3]float64) {
	for i := range s.Positions {
		for k := 0; k < 3; k++ {
			s.Positions[i][k] += dx[k]
		}
	}
}

func dist2(x, y [3]float64) float64 {
	dx, dy, dz := x[0]-y[0], x[1]-y[1], x[2]-y[2]
	return dx*dx + dy*dy + dz*dz
}
