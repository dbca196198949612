package manager

import (
	"fmt"
	"iter"
	"strings"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/structure"
)

// AdaptorSpec names an adaptor and gives its arguments.
type AdaptorSpec struct {
	// Name is the adaptor's type. It is case-insensitive and may carry an
	// "Adaptor" prefix: "AdaptorStrict" and "strict" are the same.
	Name string
	// Cutoff is the cutoff radius used by neighbourlist, strict and maxorder.
	Cutoff float64
	// Skin is the skin distance used by neighbourlist.
	Skin float64
}

// AdaptorNames lists the adaptor types known to Apply.
var AdaptorNames = []string{
	"neighbourlist", "strict", "halflist", "centercontribution", "maxorder",
}

// CanonicalName returns the canonical form of an adaptor name.
func CanonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "adaptor")
	name = strings.ReplaceAll(name, "_", "")
	if name == "neighborlist" { name = "neighbourlist" }
	return name
}

// Apply builds the adaptor described by spec on top of prev.
func Apply(prev Manager, spec AdaptorSpec) (Manager, error) {
	switch CanonicalName(spec.Name) {
	case "neighbourlist":
		return NewNeighbourList(prev, spec.Cutoff, spec.Skin)
	case "strict":
		return NewStrict(prev, spec.Cutoff)
	case "halflist":
		return NewHalfList(prev)
	case "centercontribution":
		return NewCenterContribution(prev)
	case "maxorder":
		return NewMaxOrder(prev, spec.Cutoff)
	}
	return nil, g_error.New(g_error.Configuration, "Apply",
		"unknown adaptor '%s'; the known adaptors are %s",
		spec.Name, strings.Join(AdaptorNames, ", "))
}

// Stack is a root manager together with the adaptors built on top of it.
type Stack struct {
	root *Centers
	layers []Manager
	specs []AdaptorSpec
}

// NewStack creates a stack with the given adaptors applied in order. The
// stack is empty until Update is called.
func NewStack(specs ...AdaptorSpec) (*Stack, error) {
	st := &Stack{root: NewCenters(), specs: specs}
	st.layers = []Manager{st.root}
	for i, spec := range specs {
		m, err := Apply(st.Top(), spec)
		if err != nil {
			return nil, fmt.Errorf("adaptor %d: %w", i, err)
		}
		st.layers = append(st.layers, m)
	}
	return st, nil
}

// Update installs a new structure in the root and rebuilds every layer. If
// the structure is invalid, the stack is unchanged. If a layer fails to
// build, it and the layers above it keep their previous builds and report
// themselves as stale.
func (st *Stack) Update(s *structure.AtomicStructure) error {
	if err := st.root.UpdateStructure(s); err != nil { return err }
	for i, m := range st.layers[1:] {
		if err := m.Update(); err != nil {
			return fmt.Errorf("adaptor %d (%s): %w", i, m.Name(), err)
		}
	}
	return nil
}

// Root returns the stack's root manager.
func (st *Stack) Root() *Centers { return st.root }

// Top returns the highest layer of the stack.
func (st *Stack) Top() Manager { return st.layers[len(st.layers)-1] }

// Layer returns the layer at the given level.
func (st *Stack) Layer(level int) Manager { return st.layers[level] }

// Depth returns the number of layers, including the root.
func (st *Stack) Depth() int { return len(st.layers) }

// Specs returns the adaptors the stack was built from.
func (st *Stack) Specs() []AdaptorSpec { return st.specs }

// Centers iterates over the centers of the top layer.
func (st *Stack) Centers() iter.Seq[ClusterRef] {
	return Centers(st.Top())
}

// Find returns the highest layer with the given adaptor name, or nil.
func (st *Stack) Find(name string) Manager {
	name = CanonicalName(name)
	for i := len(st.layers) - 1; i >= 0; i-- {
		if st.layers[i].Name() == name { return st.layers[i] }
	}
	return nil
}
