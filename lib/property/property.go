/*package property contains containers for per-cluster values computed on top
of a manager stack. A property is attached to one layer of a stack and holds
values for the clusters of one order, addressed by that layer's cluster
indices. It becomes invalid as soon as the layer is rebuilt.
*/
package property

import (
	"fmt"
	"sort"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/manager"
)

// Value lists the element types a property can hold.
type Value interface {
	~int | ~int32 | ~int64 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Field is the type-independent view of a property.
type Field interface {
	// Name returns the name of the property.
	Name() string
	// Len returns the number of clusters with values.
	Len() int
	// Order returns the order of the clusters the property describes.
	Order() int
	// Components returns the number of values per cluster.
	Components() int
	// Data returns the underlying array as an interface{}.
	Data() interface{}
	// Valid returns false once the layer the property is attached to has
	// been rebuilt.
	Valid() bool
}

// Type assertions
var (
	_ Field = &Dense[float64]{}
	_ Field = &Sparse[float64]{}
)

// binding ties a property to a single build of a manager layer.
type binding struct {
	name string
	m manager.Manager
	order, components int
	version uint64
}

func newBinding(
	op, name string, m manager.Manager, order, components int,
) (binding, error) {
	if _, err := m.NbClusters(order); err != nil {
		return binding{}, err
	}
	if components < 1 {
		return binding{}, g_error.New(g_error.Usage, op,
			"property '%s' needs at least one component, got %d",
			name, components)
	}
	return binding{name, m, order, components, m.Version()}, nil
}

func (b *binding) Name() string { return b.name }
func (b *binding) Order() int { return b.order }
func (b *binding) Components() int { return b.components }

func (b *binding) Valid() bool {
	return b.version == b.m.Version() && !b.m.Stale()
}

// index checks that c can be looked up in the property and returns its index
// in the property's layer.
func (b *binding) index(op string, c manager.ClusterRef) (int, error) {
	if !b.Valid() {
		return -1, g_error.New(g_error.Invalidated, op,
			"property '%s' was computed for an older build of the '%s' layer",
			b.name, b.m.Name())
	}
	if c.Order() != b.order {
		return -1, g_error.New(g_error.Usage, op,
			"property '%s' holds clusters of order %d, but was given one of "+
				"order %d", b.name, b.order, c.Order())
	}
	idx := c.IndexAt(b.m.Level())
	if idx < 0 {
		return -1, g_error.New(g_error.Usage, op,
			"cluster %v does not exist in the '%s' layer", c.AtomTags(),
			b.m.Name())
	}
	return idx, nil
}

// Dense holds Components() values for every cluster of an order.
type Dense[T Value] struct {
	binding
	data []T
}

// NewDense creates a zeroed dense property for the clusters of the given
// order of m.
func NewDense[T Value](
	name string, m manager.Manager, order, components int,
) (*Dense[T], error) {
	b, err := newBinding("NewDense", name, m, order, components)
	if err != nil { return nil, err }
	p := &Dense[T]{binding: b}
	p.alloc()
	return p, nil
}

func (p *Dense[T]) alloc() {
	n, _ := p.m.NbClusters(p.order)
	p.data = make([]T, n*p.components)
}

// Resize rebinds the property to the current build of its layer and zeroes
// it.
func (p *Dense[T]) Resize() {
	p.version = p.m.Version()
	p.alloc()
}

func (p *Dense[T]) Len() int { return len(p.data) / p.components }
func (p *Dense[T]) Data() interface{} { return p.data }

// Values returns the underlying array.
func (p *Dense[T]) Values() []T { return p.data }

// At returns the values of the cluster with the given index in the
// property's layer. The returned slice aliases the property.
func (p *Dense[T]) At(index int) []T {
	return p.data[index*p.components : (index+1)*p.components]
}

// Get returns the values of a cluster. c may belong to any layer at or above
// the property's layer.
func (p *Dense[T]) Get(c manager.ClusterRef) ([]T, error) {
	idx, err := p.index("Dense.Get", c)
	if err != nil { return nil, err }
	return p.At(idx), nil
}

// Set sets the values of a cluster.
func (p *Dense[T]) Set(c manager.ClusterRef, values ...T) error {
	const op = "Dense.Set"
	idx, err := p.index(op, c)
	if err != nil { return err }
	if len(values) != p.components {
		return g_error.New(g_error.Usage, op,
			"property '%s' has %d components, but %d values were given",
			p.name, p.components, len(values))
	}
	copy(p.At(idx), values)
	return nil
}

// Sparse holds Components() values for some of the clusters of an order.
type Sparse[T Value] struct {
	binding
	data map[int][]T
}

// NewSparse creates an empty sparse property for the clusters of the given
// order of m.
func NewSparse[T Value](
	name string, m manager.Manager, order, components int,
) (*Sparse[T], error) {
	b, err := newBinding("NewSparse", name, m, order, components)
	if err != nil { return nil, err }
	return &Sparse[T]{b, map[int][]T{}}, nil
}

// Resize rebinds the property to the current build of its layer and
// clears it.
func (p *Sparse[T]) Resize() {
	p.version = p.m.Version()
	p.data = map[int][]T{}
}

func (p *Sparse[T]) Len() int { return len(p.data) }

// Data returns the values of every cluster in index order, flattened into a
// single array.
func (p *Sparse[T]) Data() interface{} {
	out := make([]T, 0, len(p.data)*p.components)
	for _, i := range p.Indices() {
		out = append(out, p.data[i]...)
	}
	return out
}

// Indices returns the indices of every cluster with values, in order.
func (p *Sparse[T]) Indices() []int {
	idx := make([]int, 0, len(p.data))
	for i := range p.data { idx = append(idx, i) }
	sort.Ints(idx)
	return idx
}

// Get returns the values of a cluster and whether it has any.
func (p *Sparse[T]) Get(c manager.ClusterRef) ([]T, bool, error) {
	idx, err := p.index("Sparse.Get", c)
	if err != nil { return nil, false, err }
	v, ok := p.data[idx]
	return v, ok, nil
}

// Set sets the values of a cluster.
func (p *Sparse[T]) Set(c manager.ClusterRef, values ...T) error {
	const op = "Sparse.Set"
	idx, err := p.index(op, c)
	if err != nil { return err }
	if len(values) != p.components {
		return g_error.New(g_error.Usage, op,
			"property '%s' has %d components, but %d values were given",
			p.name, p.components, len(values))
	}
	p.data[idx] = append([]T{}, values...)
	return nil
}

// Properties maps the names of properties to the properties themselves.
type Properties map[string]Field

// Add adds a property, returning an error if one with the same name is
// already present.
func (props Properties) Add(f Field) error {
	if _, ok := props[f.Name()]; ok {
		return fmt.Errorf("a property named '%s' already exists", f.Name())
	}
	props[f.Name()] = f
	return nil
}

// Names returns the names of every property in sorted order.
func (props Properties) Names() []string {
	names := make([]string, 0, len(props))
	for name := range props { names = append(names, name) }
	sort.Strings(names)
	return names
}

// Prune removes every invalid property and returns the names of the
// properties that were removed.
func (props Properties) Prune() []string {
	removed := []string{}
	for _, name := range props.Names() {
		if !props[name].Valid() {
			delete(props, name)
			removed = append(removed, name)
		}
	}
	return removed
}
