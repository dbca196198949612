package manager

import (
	g_error "github.com/phil-mansfield/atomstack/lib/error"
)

// CenterContribution adds the self pair (i, i) to every center as its first
// pair. Descriptors use it to represent a center's contribution to its own
// environment.
type CenterContribution struct {
	base
}

// NewCenterContribution creates a layer adding self pairs on top of prev,
// which must have pairs and nothing higher.
func NewCenterContribution(prev Manager) (*CenterContribution, error) {
	const op = "NewCenterContribution"
	traits := prev.Traits()
	if traits.MaxOrder != 2 {
		return nil, g_error.New(g_error.Configuration, op,
			"center contributions must be added to a layer with MaxOrder "+
				"2, but '%s' has MaxOrder %d", prev.Name(), traits.MaxOrder)
	}
	if traits.HasCenterPair {
		return nil, g_error.New(g_error.Configuration, op,
			"'%s' already has self pairs", prev.Name())
	}

	traits.HasCenterPair = true
	cc := &CenterContribution{newBase(prev, "centercontribution", traits, 1, 2)}
	if err := cc.Update(); err != nil { return nil, err }
	return cc, nil
}

func (cc *CenterContribution) Update() error {
	if err := cc.prev.Update(); err != nil { return err }
	if !cc.needsBuild() { return nil }

	prev := cc.prev
	nCenters, _ := prev.NbClusters(1)
	nPairs, _ := prev.NbClusters(2)

	tables := cc.newTables()
	centers, pairs := tables[0], tables[1]
	centers.tags = make([]int, nCenters)
	centers.parents = fillSequence(nCenters)
	centers.nbChildren = make([]int, nCenters)
	pairs.tags = make([]int, 0, nPairs+nCenters)
	pairs.parents = make([]int, 0, nPairs+nCenters)

	for ci := 0; ci < nCenters; ci++ {
		tag := prev.NeighbourTag(1, ci)
		centers.tags[ci] = tag

		pairs.tags = append(pairs.tags, tag)
		pairs.parents = append(pairs.parents, -1)

		start, n := prev.Offset(1, ci), prev.ClusterSize(1, ci)
		for pi := start; pi < start+n; pi++ {
			pairs.tags = append(pairs.tags, prev.NeighbourTag(2, pi))
			pairs.parents = append(pairs.parents, pi)
		}
		centers.nbChildren[ci] = n + 1
	}
	centers.setOffsets()

	cc.commit(tables)
	return nil
}
