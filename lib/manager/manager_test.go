package manager

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/atomstack/lib/structure"
)

func cubic(a float64) [3][3]float64 {
	return [3][3]float64{{a, 0, 0}, {0, a, 0}, {0, 0, a}}
}

var (
	allPeriodic = [3]bool{true, true, true}
	noPeriodic = [3]bool{}

	triclinic = [3][3]float64{
		{6.19, 0, 0},
		{2.41, 6.15, 0},
		{0.21, 1.02, 7.31},
	}
)

// image identifies a periodic image of a real atom.
type image struct {
	atom int
	shift [3]int
}

func buildStack(
	t *testing.T, s *structure.AtomicStructure, specs ...AdaptorSpec,
) *Stack {
	t.Helper()
	st, err := NewStack(specs...)
	require.NoError(t, err)
	require.NoError(t, st.Update(s))
	return st
}

func strictSpecs(cutoff, skin float64) []AdaptorSpec {
	return []AdaptorSpec{
		{Name: "AdaptorNeighbourList", Cutoff: cutoff, Skin: skin},
		{Name: "AdaptorStrict", Cutoff: cutoff},
	}
}

// bruteForce finds every image within cutoff of every center of m's
// structure by looping over a generous range of lattice translations.
func bruteForce(m Manager, cutoff float64) map[int]map[image]float64 {
	s, lat := m.Structure(), m.Lattice()
	var rng [3]int
	for k := 0; k < 3; k++ {
		if s.PBC[k] { rng[k] = 3 }
	}

	out := map[int]map[image]float64{}
	for i := range s.Positions {
		if !s.IsCenter(i) { continue }
		out[i] = map[image]float64{}
		xi := s.Positions[i]
		for a := -rng[0]; a <= rng[0]; a++ {
			for b := -rng[1]; b <= rng[1]; b++ {
				for c := -rng[2]; c <= rng[2]; c++ {
					n := [3]int{a, b, c}
					dx := lat.Translation(n)
					for j := range s.Positions {
						if j == i && n == [3]int{} { continue }
						xj := s.Positions[j]
						if n != [3]int{} {
							xj = [3]float64{
								xj[0] + dx[0], xj[1] + dx[1], xj[2] + dx[2],
							}
						}
						d := dist(xi, xj)
						if d <= cutoff { out[i][image{j, n}] = d }
					}
				}
			}
		}
	}
	return out
}

// pairImages collects the pairs of every center of m.
func pairImages(m Manager, withDistances bool) map[int]map[image]float64 {
	out := map[int]map[image]float64{}
	for c := range Centers(m) {
		out[c.AtomTag()] = map[image]float64{}
		for p := range c.Pairs() {
			tag := p.AtomTag()
			img := image{m.AtomIndex(tag), m.GhostShift(tag)}
			d := dist(c.Position(), p.Position())
			if withDistances { d = p.Distance() }
			out[c.AtomTag()][img] = d
		}
	}
	return out
}

func dist(x, y [3]float64) float64 {
	dx := [3]float64{y[0] - x[0], y[1] - x[1], y[2] - x[2]}
	return math.Sqrt(dx[0]*dx[0] + dx[1]*dx[1] + dx[2]*dx[2])
}

// sortedDistances returns every strict pair distance of m in sorted order.
func sortedDistances(m Manager) []float64 {
	out := []float64{}
	for c := range Centers(m) {
		for p := range c.Pairs() {
			out = append(out, p.Distance())
		}
	}
	sort.Float64s(out)
	return out
}

// lattice8 is a structure of eight atoms near the centers of the octants of
// a 6 Angstrom cube, far enough from the faces that small displacements don't
// wrap them.
func lattice8(gen *structure.RNG) *structure.AtomicStructure {
	s := &structure.AtomicStructure{Cell: cubic(6), PBC: allPeriodic}
	for i := 0; i < 8; i++ {
		var x [3]float64
		for k := 0; k < 3; k++ {
			x[k] = 1.5 + 3*float64((i>>k)&1) + 0.6*(gen.Uniform()-0.5)
		}
		s.Positions = append(s.Positions, x)
		s.AtomTypes = append(s.AtomTypes, 1+i%2)
	}
	return s
}
