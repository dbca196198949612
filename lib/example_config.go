package lib

// ExampleConfig is printed by the "example_config" mode.
const ExampleConfig = `[Stack]

# Adaptor lists the adaptors applied on top of the root manager, bottom first.
# The valid adaptors are neighbourlist, strict, halflist, centercontribution,
# and maxorder. Names are case-insensitive and may carry an "Adaptor" prefix,
# so AdaptorNeighbourList also works.
Adaptor = neighbourlist
Adaptor = strict

# Cutoff is the pair cutoff, in the same units as the atomic positions.
Cutoff = 3.5

# Skin is added to the cutoff of the neighbour list. As long as no atom
# moves by more than Skin/2, the candidate list is reused between updates.
Skin = 0.0

# Any adaptor can override Cutoff and Skin in its own section.
# [Adaptor "strict"]
# Cutoff = 3.0

[Collection]

# Structures is a JSON file with either a single structure, a list of
# structures, or an ASE database.
Structures = path/to/structures.json

# Start and Length select a contiguous range of structures from the file.
# Length = -1 reads everything after Start.
Start = 0
Length = -1

# Subset optionally picks out structures from that range. Numbers and
# ranges can be added with "+" and removed with "-". The example below would
# use structures 0 to 100, skipping structure 63.
# Subset = 0..100 - 63

# Number of threads to use during execution. If set to -1, one thread will be
# used for each core on the node.
Threads = -1

[Output]

# Snapshot is a format string giving the name of the snapshot file written
# for each structure. Variables are placed in braces with the form
# {verb,rule}, where "verb" is a printf verb (e.g. %04d) and "rule" is
# either "structure" (the index of the structure) or "id" (its unique id).
# Leave it empty to skip writing snapshots.
Snapshot = out/stack.{%04d,structure}.snap

# Codec is the compression used in snapshots: none, zstd, or lz4.
Codec = zstd

# LogLevel is one of debug, info, warn, or error.
LogLevel = info
`

// Usage is printed by the "help" mode.
const Usage = `Expected usage:
atomstack help
atomstack example_config
atomstack check <ConfigName> [--<Name> <Value> ...]
atomstack build <ConfigName> [--<Name> <Value> ...]
atomstack dump <SnapshotName>
atomstack stats <ConfigName> [--<Name> <Value> ...]

- "help" prints this message.
- "example_config" prints an example configuration file.
- "check" reports every problem with a configuration file.
- "build" builds the stack of every structure and writes snapshots.
- "dump" prints the contents of a snapshot file.
- "stats" builds every stack and prints summary statistics.

Any variable in the config file can be overridden on the command line, e.g.
--Cutoff 4.0 or --Adaptor neighbourlist,strict,halflist.
`
