package collection

import (
	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/manager"
	"github.com/phil-mansfield/atomstack/lib/property"
)

// Type assertions
var (
	_ Calculator = NeighbourCount{}
	_ Calculator = PairDistance{}
)

// NeighbourCount counts the pairs of every center in the top layer of a
// stack. Self pairs are not counted.
type NeighbourCount struct{}

func (NeighbourCount) Name() string { return "neighbour_count" }

func (calc NeighbourCount) Compute(
	st *manager.Stack,
) (property.Field, error) {
	top := st.Top()
	p, err := property.NewDense[int64](calc.Name(), top, 1, 1)
	if err != nil { return nil, err }
	for c := range manager.Centers(top) {
		n := int64(0)
		for range c.Pairs() { n++ }
		p.At(c.Index())[0] = n
	}
	return p, nil
}

// PairDistance copies the cached pair distances of the top layer of a stack
// into a property.
type PairDistance struct{}

func (PairDistance) Name() string { return "distance" }

func (calc PairDistance) Compute(st *manager.Stack) (property.Field, error) {
	top := st.Top()
	if !top.Traits().HasDistances {
		return nil, g_error.New(g_error.Usage, "PairDistance.Compute",
			"the '%s' layer does not compute distances", top.Name())
	}
	p, err := property.NewDense[float64](calc.Name(), top, 2, 1)
	if err != nil { return nil, err }
	for c := range manager.Centers(top) {
		for pair := range c.PairsWithSelfPair() {
			p.At(pair.Index())[0] = pair.Distance()
		}
	}
	return p, nil
}
