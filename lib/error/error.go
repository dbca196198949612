/*package error contains the functions and types used for reporting atomstack
errors. Library code returns *Error values which carry a Kind, so callers can
tell a bad structure apart from a misassembled stack. Command-line code turns
those into fatal reports with External and Internal.
*/
package error

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
)

// Kind is the category of an atomstack error.
type Kind int

const (
	// Configuration errors come from bad inputs: invalid species codes,
	// degenerate cells, atoms outside a non-periodic cell, or an adaptor
	// applied on top of a stack with the wrong order or traits. The caller
	// can retry with corrected input.
	Configuration Kind = iota
	// Usage errors are programming mismatches, like asking a pair-only stack
	// for triplets.
	Usage
	// EmptyCollection errors are raised when a batch operation is requested
	// on a collection with no structures in it.
	EmptyCollection
	// Invalidated errors are raised when a property is accessed after the
	// manager layer it belongs to has been rebuilt.
	Invalidated
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration error"
	case Usage:
		return "usage error"
	case EmptyCollection:
		return "empty collection"
	case Invalidated:
		return "invalidated property"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the error type returned by atomstack's library packages. Op names
// the operation which failed (e.g. "Centers.UpdateStructure").
type Error struct {
	Kind Kind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

// New creates an *Error with a printf-style message.
func New(kind Kind, op, format string, a ...interface{}) *Error {
	return &Error{kind, op, fmt.Sprintf(format, a...)}
}

// IsKind returns true if err, or anything it wraps, is an *Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// External reports an error to stderr and kills the function. It should be used
// when an error is something a user could reasonably be expected to fix through
// changes in configuration/data/environment. It has the same signature as the
// standard fmt.*printf() functions.
func External(format string, a ...interface{}) {
	log.Printf("atomstack exited early with the following error:\n"+format, a...)
	os.Exit(1)
}

// Internal reports an error to stderr along with a stack trace and kills the
// function. It should be used when the error requires a code dive to fix.
func Internal(format string, a ...interface{}) {
	log.Println("atomstack exited early with the following error:")
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n\n")
	debug.PrintStack()
	os.Exit(1)
}

// Report sends err through External or Internal depending on its kind.
// Configuration and empty-collection errors are the user's to fix;
// everything else is treated as a bug.
func Report(err error) {
	var e *Error
	if errors.As(err, &e) &&
		(e.Kind == Configuration || e.Kind == EmptyCollection) {
		External("%s", err.Error())
		return
	}
	if e == nil {
		External("%s", err.Error())
		return
	}
	Internal("%s", err.Error())
}
