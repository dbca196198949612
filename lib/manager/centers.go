package manager

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/phil-mansfield/atomstack/lib/lattice"
	"github.com/phil-mansfield/atomstack/lib/structure"
)

// Centers is the root of every stack. It wraps an AtomicStructure and exposes
// its center atoms as order-1 clusters. Atom tags are the indices of atoms in
// the structure.
type Centers struct {
	base
	s *structure.AtomicStructure
	lat *lattice.Lattice
	centers *roaring.Bitmap
}

// NewCenters creates an empty root manager. It has no atoms until
// UpdateStructure is called.
func NewCenters() *Centers {
	c := &Centers{
		base: newBase(nil, "centers", Traits{MaxOrder: 1}, 1),
		centers: roaring.New(),
	}
	return c
}

// UpdateStructure validates s, folds its atoms into the cell along periodic
// directions, and installs a copy of it. On error, the previous structure is
// kept.
func (c *Centers) UpdateStructure(s *structure.AtomicStructure) error {
	if err := s.Validate(); err != nil { return err }

	s = s.Clone()
	lat, err := s.Lattice()
	if err != nil { return err }
	for i := range s.Positions {
		s.Positions[i] = lat.Wrap(s.Positions[i], s.PBC)
	}

	centers := s.CenterAtoms()
	t := &clusterTable{tags: make([]int, 0, centers.GetCardinality())}
	it := centers.Iterator()
	for it.HasNext() {
		t.tags = append(t.tags, int(it.Next()))
	}

	c.s, c.lat, c.centers = s, lat, centers
	c.tables = []*clusterTable{t}
	c.built = true
	c.version++
	return nil
}

// Update is a no-op: the root only changes through UpdateStructure.
func (c *Centers) Update() error { return nil }

func (c *Centers) Stale() bool { return false }

func (c *Centers) Size() int { return len(c.tables[0].tags) }

func (c *Centers) SizeWithGhosts() int {
	if c.s == nil { return 0 }
	return len(c.s.Positions)
}

func (c *Centers) Position(tag int) [3]float64 { return c.s.Positions[tag] }
func (c *Centers) AtomType(tag int) int { return c.s.AtomTypes[tag] }
func (c *Centers) AtomIndex(tag int) int { return tag }
func (c *Centers) GhostShift(tag int) [3]int { return [3]int{} }

func (c *Centers) CenterIndex(tag int) int {
	if tag < 0 || !c.centers.Contains(uint32(tag)) { return -1 }
	return int(c.centers.Rank(uint32(tag))) - 1
}

func (c *Centers) Lattice() *lattice.Lattice { return c.lat }

func (c *Centers) PBC() [3]bool {
	if c.s == nil { return [3]bool{} }
	return c.s.PBC
}

func (c *Centers) Structure() *structure.AtomicStructure { return c.s }
