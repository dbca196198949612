package structure

import (
	"math"
)

var (
	xorshiftMaxUint = float64(math.MaxUint32)
)

// RNG is an xorshift random number generator used to build reproducible
// test structures and perturbations. It is not thread safe.
type RNG struct {
	w, x, y, z uint32
}

// NewRNG creates an RNG with a given seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{uint32(seed), 123456789, 362436069, 521288629}
}

// Uniform generates a single random number in the range [0, 1).
func (gen *RNG) Uniform() float64 {
	for {
		t := gen.x ^ (gen.x << 11)
		gen.x, gen.y, gen.z = gen.y, gen.z, gen.w
		gen.w = gen.w ^ (gen.w >> 19) ^ (t ^ (t >> 8))
		res := float64(math.MaxUint32-gen.w) / xorshiftMaxUint
		if res < 1.0 { return res }
	}
}

// Jitter displaces every atom in a random direction by a distance in
// [0, amplitude).
func (s *AtomicStructure) Jitter(gen *RNG, amplitude float64) {
	for i := range s.Positions {
		// Marsaglia's method for a uniform direction.
		var u, v, r2 float64
		for {
			u, v = 2*gen.Uniform()-1, 2*gen.Uniform()-1
			r2 = u*u + v*v
			if r2 < 1 && r2 > 0 { break }
		}
		f := 2 * math.Sqrt(1-r2)
		dir := [3]float64{u * f, v * f, 1 - 2*r2}
		d := amplitude * gen.Uniform()
		for k := 0; k < 3; k++ {
			s.Positions[i][k] += d * dir[k]
		}
	}
}

// RandomBox creates a structure with n atoms placed uniformly in the given
// cell. Atom types are drawn uniformly from types.
func RandomBox(
	gen *RNG, n int, cell [3][3]float64, pbc [3]bool, types []int,
) *AtomicStructure {
	s := &AtomicStructure{
		Positions: make([][3]float64, n),
		AtomTypes: make([]int, n),
		Cell: cell,
		PBC: pbc,
	}
	for i := 0; i < n; i++ {
		f := [3]float64{gen.Uniform(), gen.Uniform(), gen.Uniform()}
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				s.Positions[i][k] += f[j] * cell[j][k]
			}
		}
		s.AtomTypes[i] = types[int(gen.Uniform()*float64(len(types)))]
	}
	return s
}
