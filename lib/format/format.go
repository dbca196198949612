/*package format handles atomstack's miniature formatting languages for output
files and structure subsets, e.g:

   Snapshot = "out/stack.{%04d,structure}.snap"
   Subset = 0..100 - 63

The exact rules are as follows:
File format strings are a combination of fixed text and variables. Fixed text is
always the same, and variables can change from file to file. Variables are
written as {verb,rule}. "verb" is a printf() verb (e.g. %03d) that specifies
how the variable should be printed. "rule" names the value the variable takes
on. There are currently two rules:

  "structure" - The index of the structure in its collection.
  "id" - The unique id assigned to the structure by its collection.

Sequence formats are a generic way to specify non-contiguous sequences of
natural numbers. They consist of a series of n tokens separated by "+" or "-".
Each token can be either a number or two numbers separted by "..". E.g.:

  100
  0..100
  0..10 + 100
  0..100 - 63 - 10..20

These strings build up sequences of numbers by adding/removing individual
numbers and contiguous sequences. For example, 0 through 10 would be 0..10,
1, 2, 3, 15, 16, 17 could be written as  1..17 - 4..13. This is useful for
skipping broken structures or specifying a subset of a collection.

All spaces around "-", "+", and "," symbols are ignored.
*/
package format

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
)

const (
	// Any expanded formats which would have more than BigNumber elements are
	// assumed to be bugs.
	BigNumber = 1<<20
)

// ExpandSequenceFormat expands a sequence format string into a sorted sequence
// of integers.
func ExpandSequenceFormat(format string) ([]int, error) {
	const op = "format.ExpandSequenceFormat"
	// Parse and error-check the format string.
	tok, err := tokeniseSequenceFormat(format)
	if err != nil { return nil, sequenceError(format, err) }
	adds, subs, err := addsSubsSequenceFormat(tok)
	if err != nil { return nil, sequenceError(format, err) }

	// Add numbers to the sequence.
	m := map[int]int{ }
	for i := range adds {
		ns := parseSequenceFormatToken(adds[i])
		for _, n := range ns {
			if _, ok := m[n]; ok {
				return nil, g_error.New(g_error.Configuration, op,
					"the number %d is added more than once to '%s'", n, format)
			}
			m[n] = n
		}
	}

	// Remove numbers from the sequence.
	for i := range subs {
		ns := parseSequenceFormatToken(subs[i])
		for _, n := range ns {
			if _, ok := m[n]; !ok {
				return nil, g_error.New(g_error.Configuration, op,
					"the number %d is removed from '%s' more times than it "+
						"was inserted", n, format)
			}
			delete(m, n)
		}
	}
	
	if len(m) > BigNumber {
		return nil, g_error.New(g_error.Configuration, op,
			"'%s' would have %d elements, which is almost certainly a bug",
			format, len(m))
	}

	// Convert to a sorted array of integers.
	out := []int{ }
	for n := range m { out = append(out, n) }
	slices.Sort(out)
	
	return out, nil
}

func sequenceError(format string, err error) error {
	return g_error.New(g_error.Configuration, "format.ExpandSequenceFormat",
		"the sequence '%s' is invalid: %s", format, err.Error())
}

// tokeniseSequenceFormat tokenizes a SeqeunceFormat string. This means that
// is separates all the 
func tokeniseSequenceFormat(format string) ([]string, error) {
	// Make sure all operators are separated by spaces.
	formatClean := strings.ReplaceAll(format, "+", " + ")
	formatClean = strings.ReplaceAll(formatClean, "-", " - ")

	// Tokenize and remove empty tokens.
	tokRaw := strings.Split(formatClean, " ")
	tok := []string{ }
	for i := range tokRaw {
		tokRaw[i] = strings.Trim(tokRaw[i], " ")
		if len(tokRaw[i]) > 0 {
			tok = append(tok, tokRaw[i])
		}
	}
	
	if len(tok) == 0 {
		return nil, fmt.Errorf("The format string is empty.")
	}
	return tok, nil
}

func addsSubsSequenceFormat(tok []string) (adds, subs []string, err error) {
	if len(tok) == 0 {
		return nil, nil, fmt.Errorf("Format string is empty")
	}

	
	// Handle the case where the starting "+" is dropped.
	adds, subs = []string{}, []string{}
	var start int
	if tok[0] == "+" || tok[0] == "-" {
		start = 0
	} else {
		if err := isSequenceFormatToken(tok[0]); err != nil {
			return nil, nil, fmt.Errorf(
				"Element number %d, '%s', cannot be parsed because %s",
				1, tok[0], err.Error(),
			)
		}
		
		adds = append(adds, tok[0])
		start = 1
	}

	for i := start; i < len(tok); i += 2 {
		if tok[i] != "-" && tok[i] != "+" {
			return nil, nil, fmt.Errorf(
				"Element number %d, '%s', should be a '-' or '+', but isn't.",
				i+1, tok[i])
		}

		if i + 1 >= len(tok) {
			return nil, nil, fmt.Errorf(
				"The format string ends in a trailing '%s'", tok[i],
			)
		}

		if err := isSequenceFormatToken(tok[i+1]); err != nil {
			return nil, nil, fmt.Errorf(
				"Element number %d, '%s', cannot be parsed because %s",
				i+2, tok[i+1], err.Error(),
			)
		}
		
		if tok[i] == "+" {
			adds = append(adds, tok[i+1])
		} else {
			subs = append(subs, tok[i+1])
		}
	}

	return adds, subs, nil
}

// isSequenceFormatToken returns a nil error is tok is a valid token for
// a sequence format and an error describing the problem otherwise. The error
// message assumes it is printed after a trailing "beacause"
func isSequenceFormatToken(tok string) error {
	if len(tok) == 0 {
		return fmt.Errorf("the format string is empty.")
	}
	
	bounds := strings.Split(tok, "..")

	switch len(bounds) {
	case 1:
		_, err := strconv.Atoi(bounds[0])
		if err != nil {
			return fmt.Errorf("'%s' is not an integer.", bounds[0])
		}
		return nil
	case 2:
		start, err1 := strconv.Atoi(bounds[0])
		if err1 != nil {
			return fmt.Errorf("'%s' is not an integer.", bounds[0])
		}
		end, err2 := strconv.Atoi(bounds[1])
		if err2 != nil {
			return fmt.Errorf("'%s' is not an integer.", bounds[1])
		}
		if end < start {
			return fmt.Errorf("lower bound %d is larger than upper bound %d.",
				start, end)
		}
		
		return nil
	}
	return fmt.Errorf("it has more than one '..'.")
}

// parseSeqeunceFormatToken parses a single token in a seqeunce format stirng
// and returns the corresponding array of numbers. This function assumes that
// the tests in isSequenceFormatToken have already been run and thus does no
// error checking. This makes sense to do because the calling funciton has
// already removed location information from these tokens, so the error
// message would be less informative.
func parseSequenceFormatToken(tok string) []int {
	bounds := strings.Split(tok, "..")

	switch len(bounds) {
	case 1:
		n, _ := strconv.Atoi(tok)
		return []int{ n }
	case 2:
		start, _ := strconv.Atoi(bounds[0])
		end, _ := strconv.Atoi(bounds[1])
		out := []int{ }
		for n := start; n <= end; n++ {
			out = append(out, n)
		}

		return out
	}

	g_error.Internal(
		"Invalid sequence format token, '%s', passed isSeqeunceFormatToken()",
		tok,
	)
	return nil
}


// FileFormat is a parsed file format string.
type FileFormat struct {
	// Separators gives the fixed text around each variable. It has one more
	// element than Verbs and Rules.
	Separators []string
	// Verbs and Rules give the printf verb and rule of each variable.
	Verbs, Rules []string
}

// ParseFileFormat parses a file format string. Every rule must be one of
// rules.
func ParseFileFormat(format string, rules ...string) (*FileFormat, error) {
	const op = "format.ParseFileFormat"
	starts, ends, err := startsEndsFormatString(format)
	if err != nil {
		return nil, g_error.New(g_error.Configuration, op,
			"the file format '%s' is invalid: %s Make sure variables in "+
				"file formats are enclosed in matching { ... } pairs.",
			format, err.Error())
	}

	ff := &FileFormat{}
	sepStart := 0
	for i := range starts {
		ff.Separators = append(ff.Separators, format[sepStart:starts[i]])
		sepStart = ends[i]

		v := format[starts[i]+1 : ends[i]-1]
		tok := strings.Split(v, ",")
		if len(tok) != 2 {
			return nil, g_error.New(g_error.Configuration, op,
				"the file format '%s' has an invalid variable, '{%s}'. "+
					"Variables should contain a formatting 'verb' (e.g. "+
					"'%%d', '%%03d', etc.), a comma, and a rule giving the "+
					"value of the variable (one of %s).", format, v, rules)
		}
		verb, rule := strings.TrimSpace(tok[0]), strings.TrimSpace(tok[1])
		if !strings.HasPrefix(verb, "%") || strings.Count(verb, "%") != 1 {
			return nil, g_error.New(g_error.Configuration, op,
				"the variable '{%s}' in the file format '%s' does not start "+
					"with a single printf verb.", v, format)
		}
		if !slices.Contains(rules, rule) {
			return nil, g_error.New(g_error.Configuration, op,
				"the variable '{%s}' in the file format '%s' uses the rule "+
					"'%s', but only the rules %s are supported.",
				v, format, rule, rules)
		}
		ff.Verbs = append(ff.Verbs, verb)
		ff.Rules = append(ff.Rules, rule)
	}
	ff.Separators = append(ff.Separators, format[sepStart:])
	return ff, nil
}

// Expand writes out the file name for a given set of rule values.
func (ff *FileFormat) Expand(values map[string]interface{}) string {
	sb := &strings.Builder{}
	for i := range ff.Verbs {
		sb.WriteString(ff.Separators[i])
		val, ok := values[ff.Rules[i]]
		if !ok {
			g_error.Internal("No value was given for the file format rule "+
				"'%s'.", ff.Rules[i])
		}
		fmt.Fprintf(sb, ff.Verbs[i], val)
	}
	sb.WriteString(ff.Separators[len(ff.Separators)-1])
	return sb.String()
}

// startsEndsFormatString returns the index of the '{' and one past the index
// of the '}' of each variable in a file format.
func startsEndsFormatString(format string) (starts, ends []int, err error) {
	starts, ends = []int{ }, []int{ }
	nestedLevel := 0

	for i := range format {
		if format[i] == '{' {
			nestedLevel++
			starts = append(starts, i)
		} else if format[i] == '}' {
			nestedLevel--
			ends = append(ends, i+1)
		}

		if nestedLevel > 1 {
			end := len(starts) - 1
			return nil, nil, fmt.Errorf("it has nested '{' characters at "+
				"indices %d and %d.", starts[end-1], starts[end])
		} else if nestedLevel < 0 {
			return nil, nil, fmt.Errorf("it has a '}' that doesn't come "+
				"after a '{' character at index %d.", i)
		}
	}

	if len(ends) != len(starts) {
		return nil, nil, fmt.Errorf("it has a '{' without a matching '}' "+
			"at index %d.", starts[len(starts)-1])
	}

	return starts, ends, nil
}
