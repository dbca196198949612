/*package lib contains the configuration layer of the atomstack command-line
tool: parsing config files and command-line overrides, validating them, and
turning them into the arguments used by the library packages. Almost all of
the heavy lifting is done by lib/'s subpackages.
*/
package lib

var (
	// Version is the version of the software. This can potentially be used
	// to differentiate between breaking changes to the input/output format.
	Version uint64 = 0x1
)
