/*package eq is a simple package for telling whether two arrays, vectors, or
matrices are equal to one another. It is mostly used by tests.*/
package eq

// Slice returns true if two slices of comparable values have the same length
// and elements and false otherwise.
func Slice[T comparable](x, y []T) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Ints returns true if two []int arrays are the same and false otherwise.
func Ints(x, y []int) bool { return Slice(x, y) }

// Strings returns true if two []string arrays are the same and false otherwise.
func Strings(x, y []string) bool { return Slice(x, y) }

// Bytes returns true if two []byte arrays are the same and false otherwise.
func Bytes(x, y []byte) bool { return Slice(x, y) }

// Float64s returns true if two []float64 arrays are the same and false
// otherwise.
func Float64s(x, y []float64) bool { return Slice(x, y) }

// Vec64s returns true if two [][3]float64 arrays are the same and false
// otherwise.
func Vec64s(x, y [][3]float64) bool { return Slice(x, y) }

// Float64Eps returns true if x and y are within eps of one another.
func Float64Eps(x, y, eps float64) bool {
	return !(x + eps < y || x - eps > y)
}

// Float64sEps returns true if the two []float64 arrays are within eps of one
// another and false otherwise.
func Float64sEps(x, y []float64, eps float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if !Float64Eps(x[i], y[i], eps) { return false }
	}
	return true
}

// Vec64Eps returns true if every component of x and y are within eps of one
// another.
func Vec64Eps(x, y [3]float64, eps float64) bool {
	for k := 0; k < 3; k++ {
		if !Float64Eps(x[k], y[k], eps) { return false }
	}
	return true
}

// Vec64sEps returns true if the two [][3]float64 arrays are within eps of
// one another and false otherwise.
func Vec64sEps(x, y [][3]float64, eps float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if !Vec64Eps(x[i], y[i], eps) { return false }
	}
	return true
}

// Mat33Eps returns true if the two 3x3 matrices are within eps of one another.
func Mat33Eps(x, y [3][3]float64, eps float64) bool {
	for i := 0; i < 3; i++ {
		if !Vec64Eps(x[i], y[i], eps) { return false }
	}
	return true
}
