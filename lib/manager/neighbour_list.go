package manager

import (
	"golang.org/x/exp/slices"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/structure"
)

// MaxGhostCandidates is the largest number of periodic images a neighbour
// list will consider. Anything larger is assumed to be a bug.
var MaxGhostCandidates = 1 << 26

// NeighbourList builds a full pair list on top of a root manager with a
// cell-list search. Periodic images of the structure's atoms which are
// needed to cover the search radius are added as ghost atoms, with tags
// following the real atoms.
//
// Pairs are candidates: every atom within cutoff+skin of a center is listed,
// along with some atoms which are further away. Add a Strict layer to prune
// the list to the exact cutoff.
type NeighbourList struct {
	base
	cutoff, skin float64

	nReal int
	ghostPos [][3]float64
	ghostSrc []int
	ghostShift [][3]int

	// ref is the structure of the last full rebuild.
	ref *structure.AtomicStructure
	// rebuilds counts full rebuilds, as opposed to skin reuses.
	rebuilds int
}

// NewNeighbourList creates a neighbour-list layer on top of prev, which must
// not have pairs yet. If skin is positive, the candidate list is kept across
// updates as long as no atom moves by skin/2 or more from where it was at the
// last rebuild.
func NewNeighbourList(prev Manager, cutoff, skin float64) (*NeighbourList, error) {
	return newNeighbourList(prev, "neighbourlist", cutoff, skin)
}

func newNeighbourList(
	prev Manager, name string, cutoff, skin float64,
) (*NeighbourList, error) {
	op := "NewNeighbourList"
	if prev.Traits().MaxOrder != 1 {
		return nil, g_error.New(g_error.Configuration, op,
			"a neighbour list must be built on a layer with MaxOrder 1, but "+
				"'%s' has MaxOrder %d", prev.Name(), prev.Traits().MaxOrder)
	}
	if !(cutoff > 0) {
		return nil, g_error.New(g_error.Configuration, op,
			"cutoff must be positive, got %g", cutoff)
	}
	if !(skin >= 0) {
		return nil, g_error.New(g_error.Configuration, op,
			"skin must be non-negative, got %g", skin)
	}

	traits := Traits{MaxOrder: 2, ListType: Full}
	nl := &NeighbourList{
		base: newBase(prev, name, traits, 1, 2),
		cutoff: cutoff, skin: skin,
	}
	if err := nl.Update(); err != nil { return nil, err }
	return nl, nil
}

// Cutoff returns the cutoff radius.
func (nl *NeighbourList) Cutoff() float64 { return nl.cutoff }

// Skin returns the skin distance.
func (nl *NeighbourList) Skin() float64 { return nl.skin }

// Rebuilds returns the number of full cell-list builds done by the layer.
func (nl *NeighbourList) Rebuilds() int { return nl.rebuilds }

// NbGhosts returns the number of ghost atoms.
func (nl *NeighbourList) NbGhosts() int { return len(nl.ghostPos) }

func (nl *NeighbourList) Update() error {
	if err := nl.prev.Update(); err != nil { return err }
	if !nl.needsBuild() { return nil }

	s := nl.prev.Structure()
	if nl.skin > 0 && nl.built && nl.ref != nil &&
		nl.ref.IsSimilar(s, nl.skin*nl.skin/4) {
		nl.refreshGhosts()
		return nil
	}
	return nl.rebuild()
}

// refreshGhosts moves the ghosts along with the atoms they are images of and
// keeps the candidate list.
func (nl *NeighbourList) refreshGhosts() {
	lat := nl.prev.Lattice()
	pos := make([][3]float64, len(nl.ghostPos))
	for g := range pos {
		x := nl.prev.Position(nl.ghostSrc[g])
		dx := lat.Translation(nl.ghostShift[g])
		pos[g] = [3]float64{x[0] + dx[0], x[1] + dx[1], x[2] + dx[2]}
	}
	nl.ghostPos = pos
	nl.commit(nl.tables)
}

// rebuild runs the full cell-list search.
func (nl *NeighbourList) rebuild() error {
	prev, lat, pbc := nl.prev, nl.prev.Lattice(), nl.prev.PBC()
	rc := nl.cutoff + nl.skin

	nReal := prev.SizeWithGhosts()
	x := make([][3]float64, nReal)
	for tag := range x { x[tag] = prev.Position(tag) }

	m := newMesh(lat, x, rc)

	// Ghosts.
	var ghostPos [][3]float64
	var ghostSrc []int
	var ghostShift [][3]int
	lo, hi := m.ghostRange(lat, pbc)
	images := (hi[0] - lo[0] + 1) * (hi[1] - lo[1] + 1) * (hi[2] - lo[2] + 1)
	if images*nReal > MaxGhostCandidates {
		return g_error.New(g_error.Configuration, "NeighbourList.Update",
			"a search radius of %g would require checking %d periodic "+
				"images of %d atoms; the cutoff is almost certainly too "+
				"large for this cell", rc, images, nReal)
	}
	for i := lo[0]; i <= hi[0]; i++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for k := lo[2]; k <= hi[2]; k++ {
				n := [3]int{i, j, k}
				if n == [3]int{} { continue }
				dx := lat.Translation(n)
				for tag := 0; tag < nReal; tag++ {
					g := [3]float64{
						x[tag][0] + dx[0], x[tag][1] + dx[1], x[tag][2] + dx[2],
					}
					if !m.contains(g) { continue }
					ghostPos = append(ghostPos, g)
					ghostSrc = append(ghostSrc, tag)
					ghostShift = append(ghostShift, n)
				}
			}
		}
	}

	all := append(append(make([][3]float64, 0, nReal+len(ghostPos)),
		x...), ghostPos...)
	cl := newCellList(m, all)

	// Pairs.
	nCenters, _ := prev.NbClusters(1)
	tables := nl.newTables()
	centers, pairs := tables[0], tables[1]
	centers.tags = make([]int, nCenters)
	centers.parents = fillSequence(nCenters)
	centers.nbChildren = make([]int, nCenters)

	buf := []int{}
	for ci := 0; ci < nCenters; ci++ {
		tag := prev.NeighbourTag(1, ci)
		centers.tags[ci] = tag

		buf = cl.stencil(all[tag], buf[:0])
		slices.Sort(buf)
		for _, nb := range buf {
			if nb == tag { continue }
			pairs.tags = append(pairs.tags, nb)
			centers.nbChildren[ci]++
		}
	}
	centers.setOffsets()

	nl.nReal = nReal
	nl.ghostPos, nl.ghostSrc, nl.ghostShift = ghostPos, ghostSrc, ghostShift
	nl.ref = prev.Structure()
	nl.rebuilds++
	nl.commit(tables)
	return nil
}

func (nl *NeighbourList) SizeWithGhosts() int {
	return nl.nReal + len(nl.ghostPos)
}

func (nl *NeighbourList) Position(tag int) [3]float64 {
	if tag < nl.nReal { return nl.prev.Position(tag) }
	return nl.ghostPos[tag-nl.nReal]
}

func (nl *NeighbourList) AtomType(tag int) int {
	return nl.prev.AtomType(nl.AtomIndex(tag))
}

func (nl *NeighbourList) AtomIndex(tag int) int {
	if tag < nl.nReal { return nl.prev.AtomIndex(tag) }
	return nl.ghostSrc[tag-nl.nReal]
}

func (nl *NeighbourList) GhostShift(tag int) [3]int {
	if tag < nl.nReal { return [3]int{} }
	return nl.ghostShift[tag-nl.nReal]
}

func (nl *NeighbourList) CenterIndex(tag int) int {
	if tag >= nl.nReal { return -1 }
	return nl.prev.CenterIndex(tag)
}
