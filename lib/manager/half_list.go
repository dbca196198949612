package manager

import (
	g_error "github.com/phil-mansfield/atomstack/lib/error"
)

// HalfList turns a full pair list into a half list. Of the two mirrored
// pairs (i, j+s) and (j, i-s), where s is a lattice translation, only the
// one whose first atom has the lower structure index is kept. Images of an
// atom paired with itself are kept if their shift is lexicographically
// positive. Pairs whose mirror can't exist because the neighbour isn't a
// center are always kept.
type HalfList struct {
	base
}

// NewHalfList creates a half-list layer on top of prev, which must have a
// full pair list and nothing higher.
func NewHalfList(prev Manager) (*HalfList, error) {
	const op = "NewHalfList"
	traits := prev.Traits()
	if traits.MaxOrder != 2 {
		return nil, g_error.New(g_error.Configuration, op,
			"a half list must be built on a layer with MaxOrder 2, but "+
				"'%s' has MaxOrder %d", prev.Name(), traits.MaxOrder)
	}
	if traits.ListType != Full {
		return nil, g_error.New(g_error.Configuration, op,
			"'%s' already has a half list", prev.Name())
	}

	traits.ListType = Half
	hl := &HalfList{newBase(prev, "halflist", traits, 1, 2)}
	if err := hl.Update(); err != nil { return nil, err }
	return hl, nil
}

// keep returns true if the pair (center, nb) is the canonical one of its
// mirrored pair.
func (hl *HalfList) keep(center, nb int) bool {
	if nb == center { return true }
	prev := hl.prev
	i, j := prev.AtomIndex(center), prev.AtomIndex(nb)
	if prev.CenterIndex(j) < 0 { return true }
	if i != j { return i < j }

	s := prev.GhostShift(nb)
	for k := 0; k < 3; k++ {
		if s[k] != 0 { return s[k] > 0 }
	}
	return false
}

func (hl *HalfList) Update() error {
	if err := hl.prev.Update(); err != nil { return err }
	if !hl.needsBuild() { return nil }

	prev := hl.prev
	nCenters, _ := prev.NbClusters(1)

	tables := hl.newTables()
	centers, pairs := tables[0], tables[1]
	centers.tags = make([]int, nCenters)
	centers.parents = fillSequence(nCenters)
	centers.nbChildren = make([]int, nCenters)
	pairs.parents = []int{}

	for ci := 0; ci < nCenters; ci++ {
		tag := prev.NeighbourTag(1, ci)
		centers.tags[ci] = tag
		start, n := prev.Offset(1, ci), prev.ClusterSize(1, ci)
		for pi := start; pi < start+n; pi++ {
			nb := prev.NeighbourTag(2, pi)
			if !hl.keep(tag, nb) { continue }
			pairs.tags = append(pairs.tags, nb)
			pairs.parents = append(pairs.parents, pi)
			centers.nbChildren[ci]++
		}
	}
	centers.setOffsets()

	hl.commit(tables)
	return nil
}
