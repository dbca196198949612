package manager

import (
	"iter"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
)

// ClusterRef refers to a single cluster of a manager layer: its order, its
// index in that layer, and the tags of its atoms. ClusterRefs are only valid
// until the next Update of the stack.
type ClusterRef struct {
	m Manager
	order, index int
	tags []int
}

// Manager returns the layer the cluster belongs to.
func (c ClusterRef) Manager() Manager { return c.m }

// Order returns the number of atoms in the cluster.
func (c ClusterRef) Order() int { return c.order }

// Index returns the cluster's index in its layer. It is -1 for atoms which
// are not centers.
func (c ClusterRef) Index() int { return c.index }

// AtomTags returns the tags of every atom in the cluster. The first one is
// the center.
func (c ClusterRef) AtomTags() []int { return c.tags }

// AtomTag returns the tag of the last atom in the cluster.
func (c ClusterRef) AtomTag() int { return c.tags[len(c.tags)-1] }

// CenterTag returns the tag of the cluster's center.
func (c ClusterRef) CenterTag() int { return c.tags[0] }

// Position returns the position of the last atom in the cluster.
func (c ClusterRef) Position() [3]float64 { return c.m.Position(c.AtomTag()) }

// AtomType returns the atomic number of the last atom in the cluster.
func (c ClusterRef) AtomType() int { return c.m.AtomType(c.AtomTag()) }

// AtomIndex returns the structure index of the last atom in the cluster.
func (c ClusterRef) AtomIndex() int { return c.m.AtomIndex(c.AtomTag()) }

// Size returns the number of clusters of order+1 which extend this one.
func (c ClusterRef) Size() int {
	if c.index < 0 { return 0 }
	return c.m.ClusterSize(c.order, c.index)
}

// IndexAt returns the index of the cluster in the layer of its stack at the
// given level, or -1 if the cluster does not exist there.
func (c ClusterRef) IndexAt(level int) int {
	m, idx := c.m, c.index
	for idx >= 0 && m.Level() > level {
		idx = m.ParentIndex(c.order, idx)
		m = m.Previous()
		if m.Traits().MaxOrder < c.order { return -1 }
	}
	if m.Level() != level { return -1 }
	return idx
}

// ClusterIndices returns the index of the cluster at every level of the
// stack, from the root up. Levels where the cluster does not exist get -1.
func (c ClusterRef) ClusterIndices() []int {
	out := make([]int, c.m.Level()+1)
	for i := range out { out[i] = -1 }

	m, idx := c.m, c.index
	for idx >= 0 && m != nil && m.Traits().MaxOrder >= c.order {
		out[m.Level()] = idx
		idx = m.ParentIndex(c.order, idx)
		m = m.Previous()
	}
	return out
}

// Children iterates over the clusters of order+1 which extend this one.
func (c ClusterRef) Children() iter.Seq[ClusterRef] {
	return func(yield func(ClusterRef) bool) {
		if c.index < 0 || c.order >= c.m.Traits().MaxOrder { return }
		start := c.m.Offset(c.order, c.index)
		n := c.m.ClusterSize(c.order, c.index)
		for j := start; j < start+n; j++ {
			tags := make([]int, len(c.tags)+1)
			copy(tags, c.tags)
			tags[len(c.tags)] = c.m.NeighbourTag(c.order+1, j)
			if !yield(ClusterRef{c.m, c.order + 1, j, tags}) { return }
		}
	}
}

// PairsWithSelfPair iterates over every pair of a center, including its self
// pair if the stack has one.
func (c ClusterRef) PairsWithSelfPair() iter.Seq[ClusterRef] {
	c.mustBeCenter("ClusterRef.PairsWithSelfPair")
	return c.Children()
}

// Pairs iterates over the pairs of a center, skipping its self pair.
func (c ClusterRef) Pairs() iter.Seq[ClusterRef] {
	c.mustBeCenter("ClusterRef.Pairs")
	return func(yield func(ClusterRef) bool) {
		for p := range c.Children() {
			if p.AtomTag() == c.CenterTag() { continue }
			if !yield(p) { return }
		}
	}
}

// Triplets iterates over the triplets of a center.
func (c ClusterRef) Triplets() iter.Seq[ClusterRef] {
	c.mustBeCenter("ClusterRef.Triplets")
	if c.m.Traits().MaxOrder < 3 {
		panic(g_error.New(g_error.Usage, "ClusterRef.Triplets",
			"the '%s' layer only supports clusters up to order %d",
			c.m.Name(), c.m.Traits().MaxOrder))
	}
	return func(yield func(ClusterRef) bool) {
		for p := range c.Children() {
			for t := range p.Children() {
				if !yield(t) { return }
			}
		}
	}
}

// Distance returns the length of a pair.
func (c ClusterRef) Distance() float64 {
	c.mustBePair("ClusterRef.Distance")
	return c.m.Distance(c.index)
}

// DirectionVector returns the unit vector pointing from the center of a pair
// to its neighbour.
func (c ClusterRef) DirectionVector() [3]float64 {
	c.mustBePair("ClusterRef.DirectionVector")
	return c.m.DirectionVector(c.index)
}

func (c ClusterRef) mustBeCenter(op string) {
	if c.order != 1 {
		panic(g_error.New(g_error.Usage, op,
			"called on a cluster of order %d instead of a center", c.order))
	}
}

func (c ClusterRef) mustBePair(op string) {
	if c.order != 2 {
		panic(g_error.New(g_error.Usage, op,
			"called on a cluster of order %d instead of a pair", c.order))
	}
}

// Center returns the i-th center of m.
func Center(m Manager, i int) ClusterRef {
	return ClusterRef{m, 1, i, []int{m.NeighbourTag(1, i)}}
}

// Centers iterates over the centers of m in order.
func Centers(m Manager) iter.Seq[ClusterRef] {
	return func(yield func(ClusterRef) bool) {
		n, _ := m.NbClusters(1)
		for i := 0; i < n; i++ {
			if !yield(Center(m, i)) { return }
		}
	}
}

// WithGhosts iterates over every atom of m, including non-center atoms and
// ghosts, in tag order. Atoms which are not centers have an Index of -1 and
// no children.
func WithGhosts(m Manager) iter.Seq[ClusterRef] {
	return func(yield func(ClusterRef) bool) {
		n := m.SizeWithGhosts()
		for tag := 0; tag < n; tag++ {
			if !yield(ClusterRef{m, 1, m.CenterIndex(tag), []int{tag}}) {
				return
			}
		}
	}
}

// Clusters iterates over every cluster of the given order in index order.
func Clusters(m Manager, order int) (iter.Seq[ClusterRef], error) {
	if _, err := m.NbClusters(order); err != nil { return nil, err }
	return func(yield func(ClusterRef) bool) {
		var walk func(c ClusterRef) bool
		walk = func(c ClusterRef) bool {
			if c.order == order { return yield(c) }
			for child := range c.Children() {
				if !walk(child) { return false }
			}
			return true
		}
		for c := range Centers(m) {
			if !walk(c) { return }
		}
	}, nil
}
