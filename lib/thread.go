package lib

/* thread.go contains functions useful for multi-threading. */

import (
	"runtime"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
)

// SetThreads sets GOMAXPROCS and returns the number of threads used. A
// negative n uses every core.
func SetThreads(n int) (int, error) {
	if n < 0 { n = runtime.NumCPU() }
	if n == 0 || n > runtime.NumCPU() {
		return 0, g_error.New(g_error.Configuration, "lib.SetThreads",
			"%d threads requested, but your system only has %d cores. If "+
				"you want atomstack to use every core, set Threads = -1", n,
			runtime.NumCPU())
	}
	runtime.GOMAXPROCS(n)
	return n, nil
}
