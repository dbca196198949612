/*package collection contains Collection, a batch of independent manager
stacks which share a single adaptor configuration. Each structure added to a
collection gets its own stack, and stacks are built in parallel. No stack is
ever touched by two goroutines at once.
*/
package collection

import (
	"context"
	"fmt"
	"iter"
	"runtime"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/manager"
	"github.com/phil-mansfield/atomstack/lib/property"
	"github.com/phil-mansfield/atomstack/lib/structio"
	"github.com/phil-mansfield/atomstack/lib/structure"
)

type options struct {
	threads int
	log *Logger
}

// Option configures a Collection.
type Option func(*options)

// WithThreads sets the maximum number of stacks built or computed on at
// once. Values below one mean GOMAXPROCS.
func WithThreads(n int) Option {
	return func(o *options) { o.threads = n }
}

// WithLogger sets the logger used by the collection.
func WithLogger(log *Logger) Option {
	return func(o *options) { o.log = log }
}

// Collection is an ordered set of manager stacks.
type Collection struct {
	specs []manager.AdaptorSpec
	opt options
	stacks []*manager.Stack
	ids []uuid.UUID
}

// New creates an empty collection whose stacks are built from specs. The
// specs are checked immediately, so a bad adaptor list is reported here and
// not on the first AddStructures call.
func New(specs []manager.AdaptorSpec, opts ...Option) (*Collection, error) {
	o := options{}
	for _, opt := range opts { opt(&o) }
	if o.threads < 1 { o.threads = runtime.GOMAXPROCS(0) }
	if o.log == nil { o.log = NoopLogger() }

	if _, err := manager.NewStack(specs...); err != nil { return nil, err }
	return &Collection{
		specs: append([]manager.AdaptorSpec{}, specs...), opt: o,
	}, nil
}

// Specs returns the adaptor list shared by every stack.
func (c *Collection) Specs() []manager.AdaptorSpec { return c.specs }

// Size returns the number of stacks in the collection.
func (c *Collection) Size() int { return len(c.stacks) }

// Stack returns the i-th stack.
func (c *Collection) Stack(i int) *manager.Stack { return c.stacks[i] }

// ID returns the unique id assigned to the i-th stack when it was added.
func (c *Collection) ID(i int) uuid.UUID { return c.ids[i] }

// All iterates over every stack in order.
func (c *Collection) All() iter.Seq2[int, *manager.Stack] {
	return func(yield func(int, *manager.Stack) bool) {
		for i, st := range c.stacks {
			if !yield(i, st) { return }
		}
	}
}

// AddStructures builds a stack for each structure and appends them to the
// collection. If any structure fails, nothing is added and the first error is
// returned.
func (c *Collection) AddStructures(
	ctx context.Context, structures []*structure.AtomicStructure,
) error {
	t0 := time.Now()
	base := len(c.stacks)
	stacks := make([]*manager.Stack, len(structures))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opt.threads)
	for i := range structures {
		g.Go(func() error {
			if err := gctx.Err(); err != nil { return err }
			st, err := manager.NewStack(c.specs...)
			if err != nil { return err }
			if err := st.Update(structures[i]); err != nil {
				return fmt.Errorf("structure %d: %w", base+i, err)
			}
			stacks[i] = st
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		c.stacks = append(c.stacks, stacks...)
		for range stacks { c.ids = append(c.ids, uuid.New()) }
	}
	c.opt.log.LogAdd(ctx, len(structures), len(c.stacks), time.Since(t0), err)
	return err
}

// AddStructuresFromFile reads length structures starting at start from a
// structure file and adds them. A negative length reads to the end of the file.
func (c *Collection) AddStructuresFromFile(
	ctx context.Context, fname string, start, length int,
) error {
	structures, err := structio.ReadRange(fname, start, length)
	if err != nil { return err }
	return c.AddStructures(ctx, structures)
}

// Subset returns a new collection holding the stacks at the given indices,
// in the given order. The new collection shares its stacks and ids with c.
func (c *Collection) Subset(indices []int) (*Collection, error) {
	seen := roaring.New()
	out := &Collection{specs: c.specs, opt: c.opt}
	for _, i := range indices {
		if i < 0 || i >= len(c.stacks) {
			return nil, g_error.New(g_error.Usage, "Collection.Subset",
				"index %d is out of range for a collection of size %d",
				i, len(c.stacks))
		}
		if !seen.CheckedAdd(uint32(i)) {
			return nil, g_error.New(g_error.Usage, "Collection.Subset",
				"index %d was requested more than once", i)
		}
		out.stacks = append(out.stacks, c.stacks[i])
		out.ids = append(out.ids, c.ids[i])
	}
	return out, nil
}

// Calculator computes a property on a single stack. Compute calls it
// concurrently on different stacks.
type Calculator interface {
	Name() string
	Compute(st *manager.Stack) (property.Field, error)
}

// Compute runs calc on every stack and returns the results in collection
// order.
func (c *Collection) Compute(
	ctx context.Context, calc Calculator,
) ([]property.Field, error) {
	if len(c.stacks) == 0 {
		return nil, g_error.New(g_error.EmptyCollection, "Collection.Compute",
			"calculator '%s' was run on a collection with no structures",
			calc.Name())
	}

	t0 := time.Now()
	out := make([]property.Field, len(c.stacks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opt.threads)
	for i, st := range c.stacks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil { return err }
			f, err := calc.Compute(st)
			if err != nil { return fmt.Errorf("structure %d: %w", i, err) }
			out[i] = f
			return nil
		})
	}
	err := g.Wait()
	c.opt.log.LogCompute(ctx, calc.Name(), len(c.stacks), time.Since(t0), err)
	if err != nil { return nil, err }
	return out, nil
}

// Distances returns the pair distances of every stack's top layer,
// concatenated in collection order. The top layer must cache distances.
func (c *Collection) Distances() ([]float64, error) {
	const op = "Collection.Distances"
	if len(c.stacks) == 0 {
		return nil, g_error.New(g_error.EmptyCollection, op,
			"no structures have been added")
	}
	if !c.stacks[0].Top().Traits().HasDistances {
		return nil, g_error.New(g_error.Usage, op,
			"the top layer of the stack does not compute distances; "+
				"add a 'strict' adaptor")
	}

	out := []float64{}
	for _, st := range c.stacks {
		for center := range st.Centers() {
			for p := range center.Pairs() {
				out = append(out, p.Distance())
			}
		}
	}
	return out, nil
}
