package lib

import (
	"strings"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
)

// Mode is the mode atomstack is being run in.
type Mode int
const (
	HelpMode Mode = iota
	CheckMode
	BuildMode
	DumpMode
	StatsMode
	ExampleConfigMode
)

var modeNames = []string{
	"help", "check", "build", "dump", "stats", "example_config",
}

func (m Mode) String() string { return modeNames[m] }

// ParseMode converts the name of a mode into a Mode.
func ParseMode(name string) (Mode, error) {
	for i := range modeNames {
		if modeNames[i] == name { return Mode(i), nil }
	}
	return HelpMode, g_error.New(g_error.Configuration, "lib.ParseMode",
		"you attempted to run atomstack in the mode '%s', but the only "+
			"valid modes are '%s'", name, strings.Join(modeNames, "', '"))
}

// NeedsConfig returns true if the mode reads a config file.
func (m Mode) NeedsConfig() bool {
	return m != HelpMode && m != ExampleConfigMode
}
