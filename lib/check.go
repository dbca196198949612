package lib

/* check.go contains the core functions of atomstack's "check" mode. */

import (
	"os"
	"runtime"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/manager"
)

// Check runs the atomstack "check" command on the provided Args. Unlike
// Process, it may touch the filesystem. It returns every problem it finds,
// so a user can fix them all at once. An empty result means all tests
// passed.
func Check(args *Args) []error {
	const op = "lib.Check"
	errs := []error{}

	if _, err := manager.NewStack(args.Specs...); err != nil {
		errs = append(errs, err)
	}

	if args.Structures == "" {
		errs = append(errs, g_error.New(g_error.Configuration, op,
			"[Collection] doesn't set Structures"))
	} else if info, err := os.Stat(args.Structures); err != nil {
		errs = append(errs, g_error.New(g_error.Configuration, op,
			"the Structures file '%s' can't be opened: %s",
			args.Structures, err.Error()))
	} else if info.IsDir() {
		errs = append(errs, g_error.New(g_error.Configuration, op,
			"the Structures file '%s' is a directory", args.Structures))
	}

	if args.Start < 0 {
		errs = append(errs, g_error.New(g_error.Configuration, op,
			"Start is set to %d, but must be non-negative", args.Start))
	}
	if args.Threads == 0 || args.Threads > runtime.NumCPU() {
		errs = append(errs, g_error.New(g_error.Configuration, op,
			"Threads is set to %d, but must be -1 or between 1 and %d",
			args.Threads, runtime.NumCPU()))
	}
	for _, i := range args.Subset {
		if i < 0 || (args.Length >= 0 && i >= args.Length) {
			errs = append(errs, g_error.New(g_error.Configuration, op,
				"Subset contains %d, which is outside the %d structures "+
					"being read", i, args.Length))
			break
		}
	}
	return errs
}
