package manager

import (
	"math"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
)

// Strict prunes a pair list to an exact cutoff and caches the length and
// direction of every pair it keeps. Self pairs are kept with a length of
// zero and a zero direction vector.
type Strict struct {
	base
	cutoff float64
	distances []float64
	directions [][3]float64
}

// NewStrict creates a strict layer with the given cutoff on top of prev,
// which must have pairs and nothing higher. The cutoff can't be larger than
// the search radius, cutoff+skin, of the neighbour list beneath it.
func NewStrict(prev Manager, cutoff float64) (*Strict, error) {
	const op = "NewStrict"
	traits := prev.Traits()
	if traits.MaxOrder != 2 {
		return nil, g_error.New(g_error.Configuration, op,
			"a strict adaptor must be built on a layer with MaxOrder 2, but "+
				"'%s' has MaxOrder %d", prev.Name(), traits.MaxOrder)
	}
	if !(cutoff > 0) {
		return nil, g_error.New(g_error.Configuration, op,
			"cutoff must be positive, got %g", cutoff)
	}
	if nl := findNeighbourList(prev); nl != nil &&
		cutoff > nl.Cutoff()+nl.Skin() {
		return nil, g_error.New(g_error.Configuration, op,
			"the cutoff of %g is larger than the search radius of the "+
				"'%s' layer beneath it, %g + %g skin", cutoff, nl.Name(),
			nl.Cutoff(), nl.Skin())
	}

	traits.HasDistances, traits.HasDirectionVectors = true, true
	traits.Strict = true
	st := &Strict{base: newBase(prev, "strict", traits, 1, 2), cutoff: cutoff}
	if err := st.Update(); err != nil { return nil, err }
	return st, nil
}

// findNeighbourList returns the closest neighbour list at or below m, or nil
// if there isn't one.
func findNeighbourList(m Manager) *NeighbourList {
	for ; m != nil; m = m.Previous() {
		if nl, ok := m.(*NeighbourList); ok { return nl }
	}
	return nil
}

// Cutoff returns the cutoff radius.
func (st *Strict) Cutoff() float64 { return st.cutoff }

func (st *Strict) Update() error {
	if err := st.prev.Update(); err != nil { return err }
	if !st.needsBuild() { return nil }

	prev := st.prev
	nCenters, _ := prev.NbClusters(1)
	nPairs, _ := prev.NbClusters(2)

	tables := st.newTables()
	centers, pairs := tables[0], tables[1]
	centers.tags = make([]int, nCenters)
	centers.parents = fillSequence(nCenters)
	centers.nbChildren = make([]int, nCenters)
	pairs.tags = make([]int, 0, nPairs)
	pairs.parents = make([]int, 0, nPairs)
	distances := make([]float64, 0, nPairs)
	directions := make([][3]float64, 0, nPairs)

	for ci := 0; ci < nCenters; ci++ {
		tag := prev.NeighbourTag(1, ci)
		centers.tags[ci] = tag
		xi := prev.Position(tag)

		start, n := prev.Offset(1, ci), prev.ClusterSize(1, ci)
		for pi := start; pi < start+n; pi++ {
			nb := prev.NeighbourTag(2, pi)
			xj := prev.Position(nb)
			dx := [3]float64{xj[0] - xi[0], xj[1] - xi[1], xj[2] - xi[2]}
			d := math.Sqrt(dx[0]*dx[0] + dx[1]*dx[1] + dx[2]*dx[2])
			if d > st.cutoff { continue }

			if d > 0 {
				dx = [3]float64{dx[0] / d, dx[1] / d, dx[2] / d}
			}
			pairs.tags = append(pairs.tags, nb)
			pairs.parents = append(pairs.parents, pi)
			distances = append(distances, d)
			directions = append(directions, dx)
			centers.nbChildren[ci]++
		}
	}
	centers.setOffsets()

	st.distances, st.directions = distances, directions
	st.commit(tables)
	return nil
}

func (st *Strict) Distance(index int) float64 { return st.distances[index] }

func (st *Strict) DirectionVector(index int) [3]float64 {
	return st.directions[index]
}
