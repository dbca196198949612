package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/manager"
	"github.com/phil-mansfield/atomstack/lib/structure"
)

func simpleCubic(t *testing.T, specs ...manager.AdaptorSpec) *manager.Stack {
	s := &structure.AtomicStructure{
		Positions: [][3]float64{{0.3, 0.3, 0.3}},
		AtomTypes: []int{29},
		Cell: [3][3]float64{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}},
		PBC: [3]bool{true, true, true},
	}
	st, err := manager.NewStack(specs...)
	require.NoError(t, err)
	require.NoError(t, st.Update(s))
	return st
}

var strict = []manager.AdaptorSpec{
	{Name: "neighbourlist", Cutoff: 2.1},
	{Name: "strict", Cutoff: 2.1},
}

func TestSummarize(t *testing.T) {
	st := simpleCubic(t, strict...)
	sum, err := Summarize(st)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Atoms)
	assert.Equal(t, 1, sum.Centers)
	assert.Equal(t, 6, sum.Pairs)
	assert.Greater(t, sum.Ghosts, 6)
	assert.Equal(t, 6.0, sum.MeanNeighbours)
	assert.InDelta(t, 2.0, sum.MeanDistance, 1e-12)
	assert.InDelta(t, 0.0, sum.StdDistance, 1e-12)
	assert.InDelta(t, 2.0, sum.MinDistance, 1e-12)

	sum, err = Summarize(simpleCubic(t, strict[0]))
	require.NoError(t, err)
	assert.Equal(t, 26, sum.Pairs)
	assert.True(t, math.IsNaN(sum.MeanDistance))
}

func TestShellShape(t *testing.T) {
	for _, specs := range [][]manager.AdaptorSpec{strict, strict[:1]} {
		st := simpleCubic(t, specs...)
		shape, err := ShellShape(manager.Center(st.Top(), 0))
		require.NoError(t, err)
		for k := 0; k < 3; k++ {
			assert.InDelta(t, 1.0/3, shape.Eigenvalues[k], 1e-12)
		}
		assert.InDelta(t, 1.0, shape.CA, 1e-6)
		assert.InDelta(t, 1.0, shape.BA, 1e-6)
	}

	// Two neighbours on a line.
	s := &structure.AtomicStructure{
		Positions: [][3]float64{{1, 2, 2}, {2, 2, 2}, {3, 2, 2}},
		AtomTypes: []int{1, 1, 1},
		Cell: [3][3]float64{{5, 0, 0}, {0, 5, 0}, {0, 0, 5}},
	}
	st, err := manager.NewStack(
		manager.AdaptorSpec{Name: "neighbourlist", Cutoff: 1.5},
		manager.AdaptorSpec{Name: "strict", Cutoff: 1.5},
	)
	require.NoError(t, err)
	require.NoError(t, st.Update(s))

	shape, err := ShellShape(manager.Center(st.Top(), 1))
	require.NoError(t, err)
	assert.Equal(t, 2, shape.N)
	assert.InDelta(t, 1.0, shape.Eigenvalues[0], 1e-12)
	assert.InDelta(t, 0.0, shape.Eigenvalues[1], 1e-12)
	assert.Equal(t, -1.0, shape.CA)
	assert.Equal(t, -1.0, shape.BA)
}

func TestRDF(t *testing.T) {
	st := simpleCubic(t, strict...)
	r, g, err := RDF(st, 10, 2.1)
	require.NoError(t, err)
	require.Len(t, r, 10)
	require.Len(t, g, 10)

	rho := 1.0 / 8
	edges := binEdges(10, 2.1)
	for i := range g {
		n := g[i] * rho * shellVolume(edges[i], edges[i+1])
		if i == 9 {
			assert.InDelta(t, 6.0, n, 1e-9)
		} else {
			assert.InDelta(t, 0.0, n, 1e-12)
		}
	}
	assert.InDelta(t, 2.1*0.95, r[9], 1e-9)

	_, _, err = RDF(simpleCubic(t, strict[0]), 10, 2.1)
	assert.True(t, g_error.IsKind(err, g_error.Usage))
	_, _, err = RDF(st, 0, 2.1)
	assert.True(t, g_error.IsKind(err, g_error.Usage))
}

func TestSort3(t *testing.T) {
	tests := [][3]float64{{1, 2, 3}, {3, 2, 1}, {2, 3, 1}, {1, 3, 2}}
	for i := range tests {
		a, b, c := sort3(tests[i][0], tests[i][1], tests[i][2])
		if a != 3 || b != 2 || c != 1 {
			t.Errorf("%d) Expected sort3(%v) = 3, 2, 1, got %g, %g, %g.",
				i, tests[i], a, b, c)
		}
	}
}
