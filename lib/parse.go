package lib

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/gcfg.v1"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/format"
	"github.com/phil-mansfield/atomstack/lib/manager"
	"github.com/phil-mansfield/atomstack/lib/snapshot"
)

// FileFormatRules are the rules which can be used in the Snapshot file
// format.
var FileFormatRules = []string{"structure", "id"}

// RawArgs stores the unprocessed values which the user assigned to each config
// variable. The sections map onto the sections of the config file.
type RawArgs struct {
	Stack struct {
		// Adaptor lists the adaptors of the stack, bottom first.
		Adaptor []string `toml:"Adaptor"`
		Cutoff float64 `toml:"Cutoff"`
		Skin float64 `toml:"Skin"`
	} `toml:"Stack"`
	// Adaptor holds per-adaptor overrides of Cutoff and Skin, keyed by the
	// adaptor's name.
	Adaptor map[string]*AdaptorSection `toml:"Adaptor"`
	Collection struct {
		Structures string `toml:"Structures"`
		Start int `toml:"Start"`
		Length int `toml:"Length"`
		Subset string `toml:"Subset"`
		Threads int `toml:"Threads"`
	} `toml:"Collection"`
	Output struct {
		Snapshot string `toml:"Snapshot"`
		Codec string `toml:"Codec"`
		LogLevel string `toml:"LogLevel"`
	} `toml:"Output"`

	// overrides holds the variables set on the command line.
	overrides map[string]string
}

// AdaptorSection holds the overrides for a single adaptor.
type AdaptorSection struct {
	Cutoff float64 `toml:"Cutoff"`
	Skin float64 `toml:"Skin"`
}

// Args stores configuration information. It is a post-processed version of
// RawArgs.
type Args struct {
	Specs []manager.AdaptorSpec

	Structures string
	Start, Length int
	// Subset gives the indices of the structures to analyse. nil means all
	// of them.
	Subset []int
	Threads int

	// Snapshot is the file format of output snapshots. nil means no
	// snapshots are written.
	Snapshot *format.FileFormat
	Codec snapshot.Codec
	LogLevel slog.Level
}

// DefaultRawArgs returns the RawArgs used for any variable which isn't set.
func DefaultRawArgs() *RawArgs {
	args := &RawArgs{overrides: map[string]string{}}
	args.Collection.Length = -1
	args.Collection.Threads = -1
	args.Output.Codec = "zstd"
	args.Output.LogLevel = "info"
	return args
}

// setters maps the lowercased name of every command-line variable to a
// function which assigns it.
var setters = map[string]func(args *RawArgs, val string) error{
	"adaptor": func(args *RawArgs, val string) error {
		args.Stack.Adaptor = nil
		for _, name := range strings.Split(val, ",") {
			if name = strings.TrimSpace(name); name != "" {
				args.Stack.Adaptor = append(args.Stack.Adaptor, name)
			}
		}
		return nil
	},
	"cutoff": floatSetter(func(a *RawArgs) *float64 { return &a.Stack.Cutoff }),
	"skin": floatSetter(func(a *RawArgs) *float64 { return &a.Stack.Skin }),
	"structures": func(args *RawArgs, val string) error {
		args.Collection.Structures = val
		return nil
	},
	"start": intSetter(func(a *RawArgs) *int { return &a.Collection.Start }),
	"length": intSetter(func(a *RawArgs) *int { return &a.Collection.Length }),
	"subset": func(args *RawArgs, val string) error {
		args.Collection.Subset = val
		return nil
	},
	"threads": intSetter(func(a *RawArgs) *int { return &a.Collection.Threads }),
	"snapshot": func(args *RawArgs, val string) error {
		args.Output.Snapshot = val
		return nil
	},
	"codec": func(args *RawArgs, val string) error {
		args.Output.Codec = val
		return nil
	},
	"loglevel": func(args *RawArgs, val string) error {
		args.Output.LogLevel = val
		return nil
	},
}

func floatSetter(
	field func(*RawArgs) *float64,
) func(*RawArgs, string) error {
	return func(args *RawArgs, val string) error {
		x, err := strconv.ParseFloat(val, 64)
		if err != nil { return fmt.Errorf("'%s' is not a number", val) }
		*field(args) = x
		return nil
	}
}

func intSetter(field func(*RawArgs) *int) func(*RawArgs, string) error {
	return func(args *RawArgs, val string) error {
		x, err := strconv.Atoi(val)
		if err != nil { return fmt.Errorf("'%s' is not an integer", val) }
		*field(args) = x
		return nil
	}
}

// ParseCommandLine parses the command line arguments (without the program
// name) and returns the mode atomstack is being run in, the name of the
// config file, and any arguments which were set. Expects that the arguments
// are presented in the order:
// $ atomstack <mode> <config file> [--<Arg1> <Value1>] [--<Arg2> <Value2>]
// The config file is omitted for modes which don't need one.
func ParseCommandLine(
	argv []string,
) (mode Mode, configFile string, args *RawArgs, err error) {
	const op = "lib.ParseCommandLine"
	args = DefaultRawArgs()
	if len(argv) == 0 { return HelpMode, "", args, nil }

	mode, err = ParseMode(argv[0])
	if err != nil { return mode, "", nil, err }
	argv = argv[1:]

	if mode.NeedsConfig() {
		if len(argv) == 0 {
			return mode, "", nil, g_error.New(g_error.Configuration, op,
				"the '%s' mode needs a config file", mode)
		}
		configFile, argv = argv[0], argv[1:]
	}

	if len(argv)%2 != 0 {
		return mode, "", nil, g_error.New(g_error.Configuration, op,
			"command-line variables must come in '--Name value' pairs, but "+
				"'%s' has no value", argv[len(argv)-1])
	}
	for i := 0; i < len(argv); i += 2 {
		if !strings.HasPrefix(argv[i], "--") {
			return mode, "", nil, g_error.New(g_error.Configuration, op,
				"expected a variable name starting with '--', got '%s'",
				argv[i])
		}
		if err := args.set(argv[i][2:], argv[i+1]); err != nil {
			return mode, "", nil, g_error.New(g_error.Configuration, op,
				"could not set %s: %s", argv[i], err.Error())
		}
	}
	return mode, configFile, args, nil
}

func (args *RawArgs) set(name, val string) error {
	key := strings.ToLower(name)
	setter, ok := setters[key]
	if !ok { return fmt.Errorf("there is no variable named '%s'", name) }
	if err := setter(args, val); err != nil { return err }
	if args.overrides == nil { args.overrides = map[string]string{} }
	args.overrides[key] = val
	return nil
}

// ParseConfigFile parses arguments from a config file. Files ending in
// ".toml" are read as TOML and everything else as an INI-style gcfg file.
func ParseConfigFile(fileName string) (*RawArgs, error) {
	args := DefaultRawArgs()

	var err error
	if strings.EqualFold(filepath.Ext(fileName), ".toml") {
		err = readTOML(fileName, args)
	} else {
		err = gcfg.ReadFileInto(args, fileName)
	}
	if err != nil {
		return nil, g_error.New(g_error.Configuration, "lib.ParseConfigFile",
			"could not read config file '%s': %s", fileName, err.Error())
	}
	return args, nil
}

func readTOML(fileName string, args *RawArgs) error {
	f, err := os.Open(fileName)
	if err != nil { return err }
	defer f.Close()
	return toml.NewDecoder(f).Decode(args)
}

// Overwrite arguments in arg1 which were set on the command line in arg2.
func (arg1 *RawArgs) Overwrite(arg2 *RawArgs) error {
	for key, val := range arg2.overrides {
		if err := arg1.set(key, val); err != nil { return err }
	}
	return nil
}

// Process converts the raw user input to a format which is more useful for
// internal functions. Very simple validation will be done here, but nothing
// which requires interacting with external files.
func (args *RawArgs) Process() (*Args, error) {
	const op = "RawArgs.Process"
	out := &Args{
		Structures: args.Collection.Structures,
		Start: args.Collection.Start,
		Length: args.Collection.Length,
		Threads: args.Collection.Threads,
	}

	if len(args.Stack.Adaptor) == 0 {
		return nil, g_error.New(g_error.Configuration, op,
			"[Stack] must list at least one Adaptor")
	}
	used := map[string]bool{}
	for _, name := range args.Stack.Adaptor {
		spec := manager.AdaptorSpec{
			Name: manager.CanonicalName(name),
			Cutoff: args.Stack.Cutoff,
			Skin: args.Stack.Skin,
		}
		for key, sec := range args.Adaptor {
			if manager.CanonicalName(key) != spec.Name || sec == nil {
				continue
			}
			used[key] = true
			if sec.Cutoff != 0 { spec.Cutoff = sec.Cutoff }
			if sec.Skin != 0 { spec.Skin = sec.Skin }
		}
		out.Specs = append(out.Specs, spec)
	}
	for key := range args.Adaptor {
		if !used[key] {
			return nil, g_error.New(g_error.Configuration, op,
				"there is an [Adaptor \"%s\"] section, but no such adaptor "+
					"is listed in [Stack]", key)
		}
	}
	// Catches adaptor orderings and cutoffs which can't be stacked.
	if _, err := manager.NewStack(out.Specs...); err != nil { return nil, err }

	if args.Collection.Subset != "" {
		subset, err := format.ExpandSequenceFormat(args.Collection.Subset)
		if err != nil { return nil, err }
		out.Subset = subset
	}

	if args.Output.Snapshot != "" {
		ff, err := format.ParseFileFormat(args.Output.Snapshot,
			FileFormatRules...)
		if err != nil { return nil, err }
		out.Snapshot = ff
	}

	codec, err := snapshot.ParseCodec(args.Output.Codec)
	if err != nil { return nil, err }
	out.Codec = codec

	if err := out.LogLevel.UnmarshalText(
		[]byte(args.Output.LogLevel)); err != nil {
		return nil, g_error.New(g_error.Configuration, op,
			"LogLevel must be one of 'debug', 'info', 'warn', or 'error', "+
				"not '%s'", args.Output.LogLevel)
	}
	return out, nil
}
