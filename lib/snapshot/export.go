package snapshot

import (
	"github.com/phil-mansfield/atomstack/lib/manager"
)

// StackFields returns the arrays describing the current build of the top
// layer of a stack:
//
//   - "center_tags": the tag of every center.
//   - "nb_neigh" and "offsets": the number of pairs of every center and the
//     index of its first pair (only for stacks with pairs).
//   - "neighbour_tags": the second tag of every pair (only with pairs).
//   - "positions", "atom_types", "atom_index": per tag, ghosts included.
//   - "ghost_shift": the lattice translation of every tag, flattened.
//   - "distances": the length of every pair (only if distances are cached).
func StackFields(st *manager.Stack) []Field {
	top := st.Top()
	traits := top.Traits()
	nCenters := top.Size()
	nTags := top.SizeWithGhosts()

	centerTags := make([]int64, nCenters)
	for i := range centerTags {
		centerTags[i] = int64(top.NeighbourTag(1, i))
	}
	fields := []Field{NewArray("center_tags", centerTags)}

	if traits.MaxOrder >= 2 {
		nbNeigh, offsets := make([]int64, nCenters), make([]int64, nCenters)
		for i := 0; i < nCenters; i++ {
			nbNeigh[i] = int64(top.ClusterSize(1, i))
			offsets[i] = int64(top.Offset(1, i))
		}
		nPairs, _ := top.NbClusters(2)
		neighTags := make([]int64, nPairs)
		for j := range neighTags {
			neighTags[j] = int64(top.NeighbourTag(2, j))
		}
		fields = append(fields,
			NewArray("nb_neigh", nbNeigh),
			NewArray("offsets", offsets),
			NewArray("neighbour_tags", neighTags),
		)

		if traits.HasDistances {
			dist := make([]float64, nPairs)
			for j := range dist { dist[j] = top.Distance(j) }
			fields = append(fields, NewArray("distances", dist))
		}
	}

	positions := make([][3]float64, nTags)
	types, index := make([]int64, nTags), make([]int64, nTags)
	shifts := make([]int64, 3*nTags)
	for tag := 0; tag < nTags; tag++ {
		positions[tag] = top.Position(tag)
		types[tag] = int64(top.AtomType(tag))
		index[tag] = int64(top.AtomIndex(tag))
		s := top.GhostShift(tag)
		for k := 0; k < 3; k++ { shifts[3*tag+k] = int64(s[k]) }
	}

	return append(fields,
		NewArray("positions", positions),
		NewArray("atom_types", types),
		NewArray("atom_index", index),
		NewArray("ghost_shift", shifts),
	)
}

// FromStack adds every array from StackFields to wr.
func FromStack(wr *Writer, st *manager.Stack) error {
	for _, f := range StackFields(st) {
		if err := wr.AddField(f); err != nil { return err }
	}
	return nil
}
