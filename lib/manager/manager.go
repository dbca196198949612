/*package manager contains the structure-manager stack: a root manager wrapping
an AtomicStructure, and the adaptors which are layered on top of it to build
neighbour lists, prune them to a strict cutoff, and extend them to triplets
and beyond.

Every layer exposes clusters (atoms, pairs, triplets, ...) by per-layer integer
indices. A layer either owns the table for a given order, in which case it
records for each of its clusters the index of the same cluster one layer down
(or -1 if the cluster was created by this layer), or it delegates the order
to the layer beneath it and uses the same indices. Per-cluster data cached by
one layer is always looked up with that layer's own index. ClusterRef.IndexAt
walks the parent indices to find it.

Layers never signal each other. Each one has a version counter which is bumped
whenever it commits a new build and remembers the version of the layer
beneath it that it was built from. Update rebuilds any layer whose input has
moved on.
*/
package manager

import (
	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/lattice"
	"github.com/phil-mansfield/atomstack/lib/structure"
)

// ListType distinguishes full neighbour lists, where both (i, j) and (j, i)
// are present, from half lists, where only one of them is.
type ListType int

const (
	Full ListType = iota
	Half
)

func (t ListType) String() string {
	if t == Half { return "half" }
	return "full"
}

// Traits describes what a manager layer can provide.
type Traits struct {
	// MaxOrder is the largest cluster order: 1 for atoms, 2 for pairs, 3 for
	// triplets, etc.
	MaxOrder int
	// HasDistances and HasDirectionVectors are true if pair distances and
	// unit vectors are cached somewhere at or below this layer.
	HasDistances, HasDirectionVectors bool
	// HasCenterPair is true if every center has a self pair (i, i).
	HasCenterPair bool
	// ListType is the type of the pair list.
	ListType ListType
	// Strict is true if every pair is within the cutoff.
	Strict bool
}

// Manager is a single layer of a manager stack.
type Manager interface {
	// Name returns the name of the layer, e.g. "strict".
	Name() string
	// Level returns the position of the layer in its stack. The root is at
	// level 0.
	Level() int
	// Previous returns the layer beneath this one, or nil for the root.
	Previous() Manager
	// Traits returns the layer's traits.
	Traits() Traits

	// Version returns the number of builds this layer has committed.
	Version() uint64
	// Update rebuilds the layer, and any layer beneath it, whose input has
	// changed since it was last built. If an error is returned, the layer
	// keeps its previous build and reports itself as stale.
	Update() error
	// Stale returns true if the layer or any layer beneath it is out of date.
	Stale() bool

	// Size returns the number of centers.
	Size() int
	// SizeWithGhosts returns the number of atoms, including non-center atoms
	// and ghost atoms.
	SizeWithGhosts() int
	// Position returns the position of the atom with the given tag.
	Position(tag int) [3]float64
	// AtomType returns the atomic number of the atom with the given tag.
	AtomType(tag int) int
	// AtomIndex returns the index in the input structure of the atom with
	// the given tag. Ghosts resolve to the real atom they are images of.
	AtomIndex(tag int) int
	// GhostShift returns the lattice translation which maps the real atom
	// AtomIndex(tag) onto the atom with the given tag.
	GhostShift(tag int) [3]int
	// CenterIndex returns the order-1 cluster index of a center atom and -1
	// for any other tag.
	CenterIndex(tag int) int
	// Lattice returns the cell of the current structure.
	Lattice() *lattice.Lattice
	// PBC returns the periodicity of the current structure.
	PBC() [3]bool
	// Structure returns the current (wrapped) structure. It must not be
	// modified.
	Structure() *structure.AtomicStructure

	// NbClusters returns the number of clusters of the given order. A usage
	// error is returned if the order is not supported by this layer.
	NbClusters(order int) (int, error)
	// NeighbourTag returns the tag of the last atom in a cluster.
	NeighbourTag(order, index int) int
	// ParentIndex returns the index of a cluster in the layer beneath this
	// one, or -1 if the cluster was created by this layer.
	ParentIndex(order, index int) int
	// ClusterSize returns the number of clusters of order+1 which extend a
	// cluster.
	ClusterSize(order, index int) int
	// Offset returns the index of the first cluster of order+1 which extends
	// a cluster.
	Offset(order, index int) int

	// Distance returns the length of the pair with the given index. It
	// panics with a usage error if distances are not available.
	Distance(index int) float64
	// DirectionVector returns the unit vector from the first to the second
	// atom of the pair with the given index. It panics with a usage error if
	// direction vectors are not available.
	DirectionVector(index int) [3]float64
}

// clusterTable stores the clusters of one order owned by a layer.
type clusterTable struct {
	// tags gives the tag of the last atom of each cluster.
	tags []int
	// parents gives the index of each cluster in the previous layer. nil
	// means every cluster was created by this layer.
	parents []int
	// nbChildren and offsets give the number and location of each cluster's
	// extensions in the next order's table. They are nil for the largest
	// order.
	nbChildren, offsets []int
}

func (t *clusterTable) parent(i int) int {
	if t.parents == nil { return -1 }
	return t.parents[i]
}

// setOffsets computes offsets as the exclusive prefix sum of nbChildren.
func (t *clusterTable) setOffsets() {
	t.offsets = make([]int, len(t.nbChildren))
	sum := 0
	for i, n := range t.nbChildren {
		t.offsets[i] = sum
		sum += n
	}
}

// fillSequence returns the identity index table of length n.
func fillSequence(n int) []int {
	seq := make([]int, n)
	for i := range seq { seq[i] = i }
	return seq
}

// base implements the parts of Manager which every adaptor shares: identity,
// versioning, and cluster lookups, delegating anything it doesn't own to the
// previous layer.
type base struct {
	prev Manager
	name string
	level int
	traits Traits

	version, builtFrom uint64
	built bool

	// tables[order-1] is the table for the given order, or nil if that order
	// is delegated to prev.
	tables []*clusterTable
}

// newBase creates a base on top of prev which owns the tables of the given
// orders.
func newBase(prev Manager, name string, traits Traits, owned ...int) base {
	b := base{
		prev: prev, name: name, traits: traits,
		tables: make([]*clusterTable, traits.MaxOrder),
	}
	if prev != nil { b.level = prev.Level() + 1 }
	for _, order := range owned {
		b.tables[order-1] = &clusterTable{}
	}
	return b
}

func (b *base) Name() string { return b.name }
func (b *base) Level() int { return b.level }
func (b *base) Previous() Manager { return b.prev }
func (b *base) Traits() Traits { return b.traits }
func (b *base) Version() uint64 { return b.version }

// needsBuild returns true if prev has committed a build this layer has not
// seen yet.
func (b *base) needsBuild() bool {
	if b.prev.Version() == 0 { return false }
	return !b.built || b.builtFrom != b.prev.Version()
}

// commit installs a new set of tables.
func (b *base) commit(tables []*clusterTable) {
	b.tables = tables
	b.builtFrom = b.prev.Version()
	b.built = true
	b.version++
}

// newTables returns a fresh table slice with the same ownership as b's.
func (b *base) newTables() []*clusterTable {
	tables := make([]*clusterTable, len(b.tables))
	for i := range b.tables {
		if b.tables[i] != nil { tables[i] = &clusterTable{} }
	}
	return tables
}

func (b *base) Stale() bool {
	if b.prev.Stale() { return true }
	return b.prev.Version() != 0 && (!b.built || b.builtFrom != b.prev.Version())
}

func (b *base) Size() int { return b.prev.Size() }
func (b *base) SizeWithGhosts() int { return b.prev.SizeWithGhosts() }
func (b *base) Position(tag int) [3]float64 { return b.prev.Position(tag) }
func (b *base) AtomType(tag int) int { return b.prev.AtomType(tag) }
func (b *base) AtomIndex(tag int) int { return b.prev.AtomIndex(tag) }
func (b *base) GhostShift(tag int) [3]int { return b.prev.GhostShift(tag) }
func (b *base) CenterIndex(tag int) int { return b.prev.CenterIndex(tag) }
func (b *base) Lattice() *lattice.Lattice { return b.prev.Lattice() }
func (b *base) PBC() [3]bool { return b.prev.PBC() }
func (b *base) Structure() *structure.AtomicStructure {
	return b.prev.Structure()
}

func (b *base) checkOrder(op string, order int) error {
	if order < 1 || order > b.traits.MaxOrder {
		return g_error.New(g_error.Usage, op,
			"order %d was requested from the '%s' layer, which only "+
				"supports orders 1 through %d", order, b.name, b.traits.MaxOrder)
	}
	return nil
}

func (b *base) NbClusters(order int) (int, error) {
	if err := b.checkOrder("Manager.NbClusters", order); err != nil {
		return 0, err
	}
	if t := b.tables[order-1]; t != nil { return len(t.tags), nil }
	return b.prev.NbClusters(order)
}

func (b *base) NeighbourTag(order, index int) int {
	if t := b.tables[order-1]; t != nil { return t.tags[index] }
	return b.prev.NeighbourTag(order, index)
}

func (b *base) ParentIndex(order, index int) int {
	if t := b.tables[order-1]; t != nil { return t.parent(index) }
	return index
}

func (b *base) ClusterSize(order, index int) int {
	if order >= b.traits.MaxOrder { return 0 }
	if t := b.tables[order-1]; t != nil { return t.nbChildren[index] }
	return b.prev.ClusterSize(order, index)
}

func (b *base) Offset(order, index int) int {
	if order >= b.traits.MaxOrder { return 0 }
	if t := b.tables[order-1]; t != nil { return t.offsets[index] }
	return b.prev.Offset(order, index)
}

// Distance looks the pair up in the layer beneath this one. Pairs created
// above the layer which computed distances can only be self pairs, which have
// length zero.
func (b *base) Distance(index int) float64 {
	if !b.traits.HasDistances {
		panic(g_error.New(g_error.Usage, "Manager.Distance",
			"the '%s' layer does not have distances; add a strict "+
				"adaptor beneath it", b.name))
	}
	t := b.tables[1]
	if t == nil { return b.prev.Distance(index) }
	p := t.parent(index)
	if p < 0 { return 0 }
	return b.prev.Distance(p)
}

func (b *base) DirectionVector(index int) [3]float64 {
	if !b.traits.HasDirectionVectors {
		panic(g_error.New(g_error.Usage, "Manager.DirectionVector",
			"the '%s' layer does not have direction vectors; add a "+
				"strict adaptor beneath it", b.name))
	}
	t := b.tables[1]
	if t == nil { return b.prev.DirectionVector(index) }
	p := t.parent(index)
	if p < 0 { return [3]float64{} }
	return b.prev.DirectionVector(p)
}

// Underlying returns the layer of m's stack at the given level, or nil if
// there is no such layer.
func Underlying(m Manager, level int) Manager {
	for m != nil && m.Level() > level {
		m = m.Previous()
	}
	if m == nil || m.Level() != level { return nil }
	return m
}

// Root returns the root of m's stack.
func Root(m Manager) Manager { return Underlying(m, 0) }
