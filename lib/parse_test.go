package lib

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/manager"
	"github.com/phil-mansfield/atomstack/lib/snapshot"
)

const gcfgConfig = `[Stack]
Adaptor = neighbourlist
Adaptor = AdaptorStrict
Cutoff = 3.5
Skin = 0.5

[Adaptor "strict"]
Cutoff = 3.0

[Collection]
Structures = structures.json
Start = 2
Length = 10
Subset = 0..5 - 3
Threads = 2

[Output]
Snapshot = out/stack.{%04d,structure}.snap
Codec = lz4
LogLevel = debug
`

const tomlConfig = `[Stack]
Adaptor = ["neighbourlist", "strict"]
Cutoff = 3.5
Skin = 0.5

[Adaptor.strict]
Cutoff = 3.0
Skin = 0.0

[Collection]
Structures = "structures.json"
Start = 2
Length = 10
Subset = "0..5 - 3"
Threads = 2

[Output]
Snapshot = "out/stack.{%04d,structure}.snap"
Codec = "lz4"
LogLevel = "debug"
`

func writeConfig(t *testing.T, name, text string) string {
	fname := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fname, []byte(text), 0644))
	return fname
}

func TestParseConfigFile(t *testing.T) {
	files := []string{
		writeConfig(t, "config.txt", gcfgConfig),
		writeConfig(t, "config.toml", tomlConfig),
	}

	for _, fname := range files {
		t.Run(filepath.Base(fname), func(t *testing.T) {
			raw, err := ParseConfigFile(fname)
			require.NoError(t, err)
			args, err := raw.Process()
			require.NoError(t, err)

			assert.Equal(t, []manager.AdaptorSpec{
				{Name: "neighbourlist", Cutoff: 3.5, Skin: 0.5},
				{Name: "strict", Cutoff: 3.0, Skin: 0.5},
			}, args.Specs)
			assert.Equal(t, "structures.json", args.Structures)
			assert.Equal(t, 2, args.Start)
			assert.Equal(t, 10, args.Length)
			assert.Equal(t, []int{0, 1, 2, 4, 5}, args.Subset)
			assert.Equal(t, 2, args.Threads)
			require.NotNil(t, args.Snapshot)
			assert.Equal(t, "out/stack.0007.snap", args.Snapshot.Expand(
				map[string]interface{}{"structure": 7, "id": "x"}))
			assert.Equal(t, snapshot.LZ4, args.Codec)
			assert.Equal(t, slog.LevelDebug, args.LogLevel)
		})
	}
}

func TestParseConfigFileDefaults(t *testing.T) {
	fname := writeConfig(t, "config.txt",
		"[Stack]\nAdaptor = neighbourlist\nCutoff = 2\n")
	raw, err := ParseConfigFile(fname)
	require.NoError(t, err)
	args, err := raw.Process()
	require.NoError(t, err)

	assert.Equal(t, -1, args.Length)
	assert.Equal(t, -1, args.Threads)
	assert.Nil(t, args.Subset)
	assert.Nil(t, args.Snapshot)
	assert.Equal(t, snapshot.Zstd, args.Codec)
	assert.Equal(t, slog.LevelInfo, args.LogLevel)
}

func TestParseConfigFileErrors(t *testing.T) {
	_, err := ParseConfigFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, g_error.IsKind(err, g_error.Configuration))

	fname := writeConfig(t, "config.txt", "[Stack]\nNotAVariable = 1\n")
	_, err = ParseConfigFile(fname)
	assert.True(t, g_error.IsKind(err, g_error.Configuration))
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name string
		edit func(*RawArgs)
	}{
		{"no adaptors", func(a *RawArgs) { a.Stack.Adaptor = nil }},
		{"unused section", func(a *RawArgs) {
			a.Adaptor = map[string]*AdaptorSection{"halflist": {Cutoff: 1}}
		}},
		{"bad subset", func(a *RawArgs) { a.Collection.Subset = "0..a" }},
		{"bad snapshot", func(a *RawArgs) { a.Output.Snapshot = "{%d,time}" }},
		{"bad codec", func(a *RawArgs) { a.Output.Codec = "gzip" }},
		{"bad log level", func(a *RawArgs) { a.Output.LogLevel = "loud" }},
		{"strict beyond neighbour list", func(a *RawArgs) {
			a.Adaptor = map[string]*AdaptorSection{"strict": {Cutoff: 5}}
		}},
		{"unknown adaptor", func(a *RawArgs) {
			a.Stack.Adaptor = []string{"neighbourlist", "sorted"}
		}},
	}

	for _, test := range tests {
		raw := DefaultRawArgs()
		raw.Stack.Adaptor = []string{"neighbourlist", "strict"}
		raw.Stack.Cutoff = 3
		test.edit(raw)
		_, err := raw.Process()
		assert.True(t, g_error.IsKind(err, g_error.Configuration),
			"%s: got %v", test.name, err)
	}
}

func TestStrictCutoffOverride(t *testing.T) {
	text := "[Stack]\nAdaptor = neighbourlist\nAdaptor = strict\n" +
		"Cutoff = 3\n\n[Adaptor \"strict\"]\nCutoff = 5\n"
	raw, err := ParseConfigFile(writeConfig(t, "config.txt", text))
	require.NoError(t, err)
	_, err = raw.Process()
	require.Error(t, err)
	assert.True(t, g_error.IsKind(err, g_error.Configuration))

	args := &Args{
		Specs: []manager.AdaptorSpec{
			{Name: "neighbourlist", Cutoff: 3},
			{Name: "strict", Cutoff: 5},
		},
		Structures: writeConfig(t, "structures.json", "[]"),
		Length: -1, Threads: -1,
	}
	assert.Len(t, Check(args), 1)

	args.Specs[0].Skin = 2
	assert.Empty(t, Check(args))
}

func TestParseCommandLine(t *testing.T) {
	mode, config, raw, err := ParseCommandLine(nil)
	require.NoError(t, err)
	assert.Equal(t, HelpMode, mode)
	assert.Equal(t, "", config)

	mode, config, raw, err = ParseCommandLine([]string{
		"build", "config.txt", "--Cutoff", "4.5",
		"--adaptor", "neighbourlist, strict,halflist", "--Threads", "3",
	})
	require.NoError(t, err)
	assert.Equal(t, BuildMode, mode)
	assert.Equal(t, "config.txt", config)
	assert.Equal(t, 4.5, raw.Stack.Cutoff)
	assert.Equal(t, []string{"neighbourlist", "strict", "halflist"},
		raw.Stack.Adaptor)
	assert.Equal(t, 3, raw.Collection.Threads)

	mode, _, _, err = ParseCommandLine([]string{"example_config"})
	require.NoError(t, err)
	assert.Equal(t, ExampleConfigMode, mode)

	bad := [][]string{
		{"convert", "config.txt"},
		{"build"},
		{"build", "config.txt", "--Cutoff"},
		{"build", "config.txt", "Cutoff", "3"},
		{"build", "config.txt", "--Cutoff", "three"},
		{"build", "config.txt", "--Threads", "1.5"},
		{"build", "config.txt", "--Mass", "3"},
	}
	for i := range bad {
		_, _, _, err := ParseCommandLine(bad[i])
		assert.True(t, g_error.IsKind(err, g_error.Configuration),
			"%d) %v: got %v", i, bad[i], err)
	}
}

func TestOverwrite(t *testing.T) {
	fname := writeConfig(t, "config.txt", gcfgConfig)
	raw, err := ParseConfigFile(fname)
	require.NoError(t, err)

	_, _, cmd, err := ParseCommandLine([]string{
		"stats", fname, "--Skin", "0", "--Codec", "none", "--Length", "-1",
	})
	require.NoError(t, err)
	require.NoError(t, raw.Overwrite(cmd))

	args, err := raw.Process()
	require.NoError(t, err)
	assert.Equal(t, 0.0, args.Specs[0].Skin)
	assert.Equal(t, 3.5, args.Specs[0].Cutoff)
	assert.Equal(t, 3.0, args.Specs[1].Cutoff)
	assert.Equal(t, snapshot.None, args.Codec)
	assert.Equal(t, -1, args.Length)
	assert.Equal(t, 2, args.Start)
}

func TestParseMode(t *testing.T) {
	for i, name := range modeNames {
		mode, err := ParseMode(name)
		require.NoError(t, err)
		assert.Equal(t, Mode(i), mode)
		assert.Equal(t, name, mode.String())
	}
	assert.False(t, HelpMode.NeedsConfig())
	assert.True(t, DumpMode.NeedsConfig())
}

func TestCheck(t *testing.T) {
	fname := writeConfig(t, "structures.json", "[]")
	args := &Args{
		Specs: []manager.AdaptorSpec{{Name: "neighbourlist", Cutoff: 2}},
		Structures: fname, Length: -1, Threads: -1,
	}
	assert.Empty(t, Check(args))

	args = &Args{
		Specs: []manager.AdaptorSpec{{Name: "strict", Cutoff: 2}},
		Structures: filepath.Join(t.TempDir(), "missing.json"),
		Start: -1, Length: 3, Threads: 0, Subset: []int{1, 5},
	}
	assert.Len(t, Check(args), 5)
}

func TestSetThreads(t *testing.T) {
	n, err := SetThreads(-1)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	_, err = SetThreads(0)
	assert.True(t, g_error.IsKind(err, g_error.Configuration))
}
