package manager

import (
	"golang.org/x/exp/slices"
)

// MaxOrder extends the clusters of the largest order of the layer beneath it
// by one atom: pairs become triplets, triplets become quadruplets, and so on.
//
// A cluster (i, j, ..., k) is extended by every atom l which neighbours any
// of its atoms, with l > k and l not already in the cluster, where k is the
// largest neighbour tag in the cluster. Only atoms which are centers of the
// layer beneath have pair lists: ghosts and masked atoms add nothing. Every
// extension lists its neighbour tags in strictly increasing order, so each
// cluster of a center appears exactly once. Self pairs are not extended.
type MaxOrder struct {
	base
}

// NewMaxOrder adds one order to prev. If prev only has atoms, this builds a
// neighbour list with the given cutoff and no skin. Otherwise the cutoff is
// unused: the extension uses whatever pairs prev already has.
func NewMaxOrder(prev Manager, cutoff float64) (Manager, error) {
	traits := prev.Traits()
	if traits.MaxOrder == 1 {
		return newNeighbourList(prev, "maxorder", cutoff, 0)
	}

	k := traits.MaxOrder
	traits.MaxOrder++
	mo := &MaxOrder{newBase(prev, "maxorder", traits, k, k+1)}
	if err := mo.Update(); err != nil { return nil, err }
	return mo, nil
}

func (mo *MaxOrder) Update() error {
	if err := mo.prev.Update(); err != nil { return err }
	if !mo.needsBuild() { return nil }

	prev := mo.prev
	k := prev.Traits().MaxOrder
	nK, err := prev.NbClusters(k)
	if err != nil { return err }

	tables := mo.newTables()
	last, next := tables[k-1], tables[k]
	last.tags = make([]int, nK)
	last.parents = fillSequence(nK)
	last.nbChildren = make([]int, nK)
	for i := range last.tags {
		last.tags[i] = prev.NeighbourTag(k, i)
	}

	clusters, err := Clusters(prev, k)
	if err != nil { return err }

	// extensions[i] holds the new neighbours of the i-th cluster of order k.
	extensions := make([][]int, nK)
	buf := []int{}
	for c := range clusters {
		tags := c.AtomTags()
		center, maxTag, self := tags[0], -1, false
		for _, t := range tags[1:] {
			if t == center { self = true }
			maxTag = max(maxTag, t)
		}
		if self { continue }

		buf = buf[:0]
		for _, t := range tags {
			ci := prev.CenterIndex(t)
			if ci < 0 { continue }
			for p := range Center(prev, ci).Children() {
				nb := p.AtomTag()
				if nb <= maxTag || slices.Contains(tags, nb) { continue }
				buf = append(buf, nb)
			}
		}
		slices.Sort(buf)
		buf = slices.Compact(buf)
		extensions[c.Index()] = append([]int{}, buf...)
	}

	for i, ext := range extensions {
		last.nbChildren[i] = len(ext)
		next.tags = append(next.tags, ext...)
	}
	last.setOffsets()

	mo.commit(tables)
	return nil
}
