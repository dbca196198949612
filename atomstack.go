package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/phil-mansfield/atomstack/lib"
	"github.com/phil-mansfield/atomstack/lib/collection"
	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/snapshot"
	"github.com/phil-mansfield/atomstack/lib/stats"
)

func main() {
	// Parse arguments.
	mode, configFile, cmdArgs, err := lib.ParseCommandLine(os.Args[1:])
	if err != nil { g_error.Report(err) }

	switch mode {
	case lib.HelpMode:
		fmt.Print(lib.Usage)
		return
	case lib.ExampleConfigMode:
		fmt.Print(lib.ExampleConfig)
		return
	case lib.DumpMode:
		// The "config file" of dump mode is the snapshot itself.
		if err := Dump(configFile); err != nil { g_error.Report(err) }
		return
	}

	rawArgs, err := lib.ParseConfigFile(configFile)
	if err != nil { g_error.Report(err) }
	if err := rawArgs.Overwrite(cmdArgs); err != nil { g_error.Report(err) }

	// Do processing that doesn't need external validation.
	args, err := rawArgs.Process()
	if err != nil { g_error.Report(err) }

	// Run the chosen mode.
	switch mode {
	case lib.CheckMode:
		Check(args)
	case lib.BuildMode:
		err = Build(args)
	case lib.StatsMode:
		err = Stats(args)
	}
	if err != nil { g_error.Report(err) }
}

// Check runs atomstack's "check" mode which tests for errors in the
// configuration arguments.
func Check(args *lib.Args) {
	errs := lib.Check(args)
	if len(errs) == 0 {
		fmt.Println("No errors detected.")
		return
	}
	msg := make([]string, len(errs))
	for i := range errs { msg[i] = errs[i].Error() }
	g_error.External("%d problems found:\n%s", len(errs),
		strings.Join(msg, "\n"))
}

// load runs the checks, sets the thread count, and builds the collection
// described by args.
func load(
	ctx context.Context, args *lib.Args,
) (*collection.Collection, *collection.Logger, error) {
	if errs := lib.Check(args); len(errs) > 0 { return nil, nil, errs[0] }
	threads, err := lib.SetThreads(args.Threads)
	if err != nil { return nil, nil, err }

	log := collection.NewTextLogger(args.LogLevel)
	c, err := collection.New(args.Specs,
		collection.WithThreads(threads), collection.WithLogger(log))
	if err != nil { return nil, nil, err }

	err = c.AddStructuresFromFile(ctx, args.Structures, args.Start, args.Length)
	if err != nil { return nil, nil, err }
	if args.Subset != nil {
		if c, err = c.Subset(args.Subset); err != nil { return nil, nil, err }
	}
	return c, log, nil
}

// Build runs atomstack's "build" mode, which builds the stack of every
// structure and writes a snapshot for each of them.
func Build(args *lib.Args) error {
	ctx := context.Background()
	c, log, err := load(ctx, args)
	if err != nil { return err }
	if args.Snapshot == nil {
		log.WarnContext(ctx, "no Snapshot format set, nothing will be written")
		return nil
	}

	t0 := time.Now()
	total := 0
	for i := range c.All() {
		// Number structures by their position in the input file.
		structure := args.Start + i
		if args.Subset != nil { structure = args.Start + args.Subset[i] }
		fname := args.Snapshot.Expand(map[string]interface{}{
			"structure": structure, "id": c.ID(i).String(),
		})
		n, err := snapshot.WriteFile(fname, args.Codec, c.ID(i),
			snapshot.StackFields(c.Stack(i))...)
		if err != nil { return err }
		total += n
	}
	log.InfoContext(ctx, "snapshots written",
		"count", c.Size(),
		"size", humanize.Bytes(uint64(total)),
		"elapsed", time.Since(t0),
	)
	return nil
}

// Dump runs atomstack's "dump" mode, which prints the header of a snapshot
// and the first few elements of every field.
func Dump(fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return g_error.New(g_error.Configuration, "Dump",
			"could not open snapshot '%s': %s", fname, err.Error())
	}
	defer f.Close()

	snap, err := snapshot.Read(f)
	if err != nil { return err }

	fmt.Printf("id:    %s\n", snap.ID)
	fmt.Printf("codec: %s\n", snap.Codec)
	for i, name := range snap.Names {
		x, err := snap.Field(name)
		if err != nil { return err }
		fmt.Printf("%-16s %s %10s  %s\n", name, snap.Types[i],
			humanize.Comma(snap.Lens[i]), preview(x))
	}
	return nil
}

// preview formats the first few elements of a field.
func preview(x interface{}) string {
	const n = 4
	switch x := x.(type) {
	case []int64:
		if len(x) > n { return fmt.Sprint(x[:n]) + "..." }
		return fmt.Sprint(x)
	case []float64:
		if len(x) > n { return fmt.Sprint(x[:n]) + "..." }
		return fmt.Sprint(x)
	case [][3]float64:
		if len(x) > n { return fmt.Sprint(x[:n]) + "..." }
		return fmt.Sprint(x)
	}
	return fmt.Sprint(x)
}

// Stats runs atomstack's "stats" mode, which builds every stack and prints
// a summary of it.
func Stats(args *lib.Args) error {
	c, _, err := load(context.Background(), args)
	if err != nil { return err }

	fmt.Printf("# %4s %8s %8s %8s %10s %8s %8s %8s %6s\n",
		"i", "atoms", "centers", "ghosts", "pairs", "<nb>", "<r>", "r_min",
		"<c/a>")
	for i, st := range c.All() {
		sum, err := stats.Summarize(st)
		if err != nil { return err }

		ca, nShells := 0.0, 0
		for center := range st.Centers() {
			shape, err := stats.ShellShape(center)
			if err != nil { return err }
			if shape.CA >= 0 {
				ca += shape.CA
				nShells++
			}
		}
		if nShells > 0 { ca /= float64(nShells) }

		fmt.Printf("  %4d %8s %8s %8s %10s %8.3f %8.4f %8.4f %6.3f\n",
			i, humanize.Comma(int64(sum.Atoms)),
			humanize.Comma(int64(sum.Centers)),
			humanize.Comma(int64(sum.Ghosts)),
			humanize.Comma(int64(sum.Pairs)),
			sum.MeanNeighbours, sum.MeanDistance, sum.MinDistance, ca)
	}
	return nil
}
