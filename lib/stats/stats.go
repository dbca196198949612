/*package stats contains summary statistics for manager stacks: distance
distributions, radial distribution functions, and the shape of each center's
neighbour shell.
*/
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/manager"
)

// Summary describes a single build of a stack.
type Summary struct {
	// Atoms, Centers, Ghosts, and Pairs count the atoms in the structure,
	// the centers, the ghost atoms, and the pairs of the top layer.
	Atoms, Centers, Ghosts, Pairs int
	// MeanNeighbours is the average number of pairs per center.
	MeanNeighbours float64
	// MeanDistance and StdDistance are the mean and standard deviation of
	// the pair distances. Both are NaN if distances aren't cached.
	MeanDistance, StdDistance float64
	// MinDistance is the shortest pair distance.
	MinDistance float64
}

// Summarize computes a Summary for the current build of st.
func Summarize(st *manager.Stack) (Summary, error) {
	top := st.Top()
	sum := Summary{
		Atoms: top.Structure().Len(),
		Centers: top.Size(),
		MeanDistance: math.NaN(), StdDistance: math.NaN(),
		MinDistance: math.NaN(),
	}
	sum.Ghosts = top.SizeWithGhosts() - sum.Atoms
	if top.Traits().MaxOrder < 2 { return sum, nil }

	dist := []float64{}
	for c := range st.Centers() {
		for p := range c.Pairs() {
			sum.Pairs++
			if top.Traits().HasDistances {
				dist = append(dist, p.Distance())
			}
		}
	}
	if sum.Centers > 0 {
		sum.MeanNeighbours = float64(sum.Pairs) / float64(sum.Centers)
	}

	if len(dist) > 0 {
		sum.MeanDistance, sum.StdDistance = stat.MeanStdDev(dist, nil)
		sum.MinDistance = dist[0]
		for _, d := range dist { sum.MinDistance = math.Min(sum.MinDistance, d) }
	}
	return sum, nil
}

// RDF computes the radial distribution function of the pairs of st in nBins
// bins between 0 and rMax. The structure's number density is computed from
// its cell, so the normalization is only meaningful for periodic structures.
// rMax should not exceed the cutoff of the stack.
func RDF(st *manager.Stack, nBins int, rMax float64) (r, g []float64, err error) {
	const op = "stats.RDF"
	top := st.Top()
	if !top.Traits().HasDistances {
		return nil, nil, g_error.New(g_error.Usage, op,
			"the '%s' layer does not compute distances", top.Name())
	}
	if nBins < 1 || rMax <= 0 {
		return nil, nil, g_error.New(g_error.Usage, op,
			"need nBins > 0 and rMax > 0, got nBins = %d and rMax = %g",
			nBins, rMax)
	}

	dist := []float64{}
	for c := range st.Centers() {
		for p := range c.Pairs() {
			if d := p.Distance(); d < rMax { dist = append(dist, d) }
		}
	}
	sort.Float64s(dist)

	edges := binEdges(nBins, rMax)
	counts := stat.Histogram(nil, edges, dist, nil)

	rho := float64(top.Structure().Len()) / top.Lattice().Volume()
	norm := float64(top.Size()) * rho
	r, g = make([]float64, nBins), make([]float64, nBins)
	for i := range counts {
		r[i] = (edges[i] + edges[i+1]) / 2
		if norm > 0 {
			g[i] = counts[i] / (norm * shellVolume(edges[i], edges[i+1]))
		}
	}
	return r, g, nil
}

// binEdges returns nBins+1 evenly spaced edges from 0 to rMax. The last
// edge is nudged outward so stat.Histogram keeps values just below rMax.
func binEdges(nBins int, rMax float64) []float64 {
	edges := make([]float64, nBins+1)
	for i := range edges {
		edges[i] = rMax * float64(i) / float64(nBins)
	}
	edges[nBins] = math.Nextafter(rMax, math.Inf(1))
	return edges
}

func shellVolume(r1, r2 float64) float64 {
	return 4 * math.Pi / 3 * (r2*r2*r2 - r1*r1*r1)
}

// Shape describes the shape of a center's neighbour shell through the
// eigenvalues of S = sum(r_hat r_hat^T) / n, where r_hat runs over the unit
// vectors to its neighbours.
type Shape struct {
	// N is the number of neighbours.
	N int
	// Eigenvalues of S, largest first. They sum to one.
	Eigenvalues [3]float64
	// CA and BA are the axis ratios c/a and b/a. They are -1 for shells with
	// fewer than four neighbours.
	CA, BA float64
}

// ShellShape computes the Shape of a center's neighbour shell.
func ShellShape(c manager.ClusterRef) (Shape, error) {
	shape := Shape{CA: -1, BA: -1}
	S := make([]float64, 9)

	for p := range c.Pairs() {
		dx := direction(c, p)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				S[i+3*j] += dx[i] * dx[j]
			}
		}
		shape.N++
	}
	if shape.N == 0 { return shape, nil }
	for i := range S { S[i] /= float64(shape.N) }

	eig := &mat.EigenSym{}
	if ok := eig.Factorize(mat.NewSymDense(3, S), false); !ok {
		return shape, g_error.New(g_error.Usage, "stats.ShellShape",
			"eigendecomposition of the shell tensor of center %d failed",
			c.CenterTag())
	}
	val := eig.Values(nil)
	a2, b2, c2 := sort3(val[0], val[1], val[2])
	shape.Eigenvalues = [3]float64{a2, b2, c2}

	if shape.N >= 4 {
		shape.CA = math.Sqrt(math.Max(c2, 0) / a2)
		shape.BA = math.Sqrt(math.Max(b2, 0) / a2)
	}
	return shape, nil
}

// direction returns the unit vector from a center to one of its neighbours,
// using the cached vector if the stack has one.
func direction(c, p manager.ClusterRef) [3]float64 {
	if c.Manager().Traits().HasDirectionVectors {
		return p.DirectionVector()
	}
	x0, x1 := c.Position(), p.Position()
	dx := [3]float64{x1[0] - x0[0], x1[1] - x0[1], x1[2] - x0[2]}
	r := math.Sqrt(dx[0]*dx[0] + dx[1]*dx[1] + dx[2]*dx[2])
	if r == 0 { return [3]float64{} }
	return [3]float64{dx[0] / r, dx[1] / r, dx[2] / r}
}

// sort3 returns its arguments in descending order.
func sort3(x, y, z float64) (l1, l2, l3 float64) {
	min, max := x, x
	if y > max {
		max = y
	} else if y < min {
		min = y
	}

	if z > max {
		max = z
	} else if z < min {
		min = z
	}

	return max, (x + y + z) - (min + max), min
}
