package structio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phil-mansfield/atomstack/lib/structure"
)

// XYZConfig contains the information needed to parse extended XYZ files.
type XYZConfig struct {
	Comment byte // Character which starts a comment in atom lines.
	MaxLineSize int // Largest possible line size.
}

// DefaultXYZConfig reads the files written by ASE.
var DefaultXYZConfig = XYZConfig{
	Comment: '#',
	MaxLineSize: 1<<20,
}

// elements lists element symbols in order of atomic number, starting at 1.
var elements = strings.Fields(`
H He Li Be B C N O F Ne Na Mg Al Si P S Cl Ar K Ca Sc Ti V Cr Mn Fe Co Ni Cu
Zn Ga Ge As Se Br Kr Rb Sr Y Zr Nb Mo Tc Ru Rh Pd Ag Cd In Sn Sb Te I Xe Cs Ba
La Ce Pr Nd Pm Sm Eu Gd Tb Dy Ho Er Tm Yb Lu Hf Ta W Re Os Ir Pt Au Hg Tl Pb
Bi Po At Rn Fr Ra Ac Th Pa U Np Pu Am Cm Bk Cf Es Fm Md No Lr Rf Db Sg Bh Hs
Mt Ds Rg Cn Nh Fl Mc Lv Ts Og
`)

// AtomicNumber returns the atomic number of an element symbol, or -1 if the
// symbol is unknown.
func AtomicNumber(symbol string) int {
	for i := range elements {
		if strings.EqualFold(elements[i], symbol) { return i + 1 }
	}
	return -1
}

// xyzColumns gives the column of each per-atom property that's read.
type xyzColumns struct {
	width int // Number of columns in an atom line.
	species, z, pos int
}

// ReadXYZ reads every frame of an extended XYZ file. The second line of each
// frame holds key=value pairs: "Lattice" gives the cell vectors, "pbc" the
// periodicity, and "Properties" the layout of the atom lines. Every other
// pair is kept in AtomicStructure.Info. Frames without a Lattice have a zero
// cell and fail AtomicStructure.Validate. An optional config can be given,
// otherwise DefaultXYZConfig is used.
func ReadXYZ(
	r io.Reader, config ...XYZConfig,
) ([]*structure.AtomicStructure, error) {
	cfg := DefaultXYZConfig
	if len(config) > 0 { cfg = config[0] }

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), cfg.MaxLineSize)
	line := 0
	next := func() (string, bool) {
		ok := sc.Scan()
		line++
		return sc.Text(), ok
	}

	out := []*structure.AtomicStructure{}
	for {
		header, ok := next()
		if !ok { break }
		if strings.TrimSpace(header) == "" { continue }

		n, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil || n < 0 {
			return nil, parseError("line %d: expected an atom count, got '%s'",
				line, header)
		}
		comment, ok := next()
		if !ok {
			return nil, parseError("line %d: frame %d ends early", line,
				len(out))
		}

		s, cols, err := parseXYZComment(comment)
		if err != nil { return nil, parseError("line %d: %s", line, err) }
		s.Positions = make([][3]float64, n)
		s.AtomTypes = make([]int, n)

		for i := 0; i < n; i++ {
			text, ok := next()
			if !ok {
				return nil, parseError("line %d: frame %d has %d atoms, "+
					"expected %d", line, len(out), i, n)
			}
			if err := parseXYZAtom(uncomment(text, cfg.Comment), cols,
				s, i); err != nil {
				return nil, parseError("line %d: %s", line, err)
			}
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil { return nil, err }
	if len(out) == 0 { return nil, parseError("the input is empty") }
	return out, nil
}

func uncomment(line string, comment byte) string {
	if i := strings.IndexByte(line, comment); i >= 0 { return line[:i] }
	return line
}

// parseXYZComment reads the key=value pairs of a frame's comment line.
func parseXYZComment(
	comment string,
) (*structure.AtomicStructure, xyzColumns, error) {
	s := &structure.AtomicStructure{Info: map[string]interface{}{}}
	cols := xyzColumns{width: 4, species: 0, z: -1, pos: 1}

	pairs, err := splitPairs(comment)
	if err != nil { return nil, cols, err }

	hasLattice, hasPBC := false, false
	for _, kv := range pairs {
		switch strings.ToLower(kv[0]) {
		case "lattice":
			x, err := parseFloats(kv[1], 9)
			if err != nil {
				return nil, cols, fmt.Errorf("invalid Lattice: %s", err)
			}
			for i := 0; i < 3; i++ {
				copy(s.Cell[i][:], x[3*i:3*i+3])
			}
			hasLattice = true
		case "pbc":
			tok := strings.Fields(kv[1])
			if len(tok) != 3 {
				return nil, cols, fmt.Errorf("pbc must have three values")
			}
			for k := range tok {
				b, ok := parseBool(tok[k])
				if !ok {
					return nil, cols, fmt.Errorf("invalid pbc '%s'", kv[1])
				}
				s.PBC[k] = b
			}
			hasPBC = true
		case "properties":
			cols, err = parseProperties(kv[1])
			if err != nil { return nil, cols, err }
		default:
			s.Info[kv[0]] = infoValue(kv[1])
		}
	}
	if hasLattice && !hasPBC { s.PBC = [3]bool{true, true, true} }
	return s, cols, nil
}

// splitPairs splits a comment line into key=value pairs. Values may be
// quoted. A key without a value is read as "T".
func splitPairs(line string) ([][2]string, error) {
	out := [][2]string{}
	i := 0
	for {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') { i++ }
		if i == len(line) { return out, nil }

		start := i
		for i < len(line) && line[i] != '=' && line[i] != ' ' &&
			line[i] != '\t' {
			i++
		}
		key := line[start:i]
		if i == len(line) || line[i] != '=' {
			out = append(out, [2]string{key, "T"})
			continue
		}
		i++

		var val string
		if i < len(line) && line[i] == '"' {
			end := strings.IndexByte(line[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("unmatched quote after %s=", key)
			}
			val = line[i+1 : i+1+end]
			i += end + 2
		} else {
			start = i
			for i < len(line) && line[i] != ' ' && line[i] != '\t' { i++ }
			val = line[start:i]
		}
		out = append(out, [2]string{key, val})
	}
}

// parseProperties reads a Properties value, e.g. species:S:1:pos:R:3.
func parseProperties(val string) (xyzColumns, error) {
	cols := xyzColumns{species: -1, z: -1, pos: -1}
	tok := strings.Split(val, ":")
	if len(tok)%3 != 0 {
		return cols, fmt.Errorf("invalid Properties '%s'", val)
	}
	for i := 0; i < len(tok); i += 3 {
		n, err := strconv.Atoi(tok[i+2])
		if err != nil || n < 1 {
			return cols, fmt.Errorf("invalid Properties '%s'", val)
		}
		switch strings.ToLower(tok[i]) {
		case "species":
			cols.species = cols.width
		case "z":
			cols.z = cols.width
		case "pos":
			if n != 3 {
				return cols, fmt.Errorf("pos must have three columns")
			}
			cols.pos = cols.width
		}
		cols.width += n
	}
	if cols.pos < 0 { return cols, fmt.Errorf("Properties has no pos") }
	if cols.species < 0 && cols.z < 0 {
		return cols, fmt.Errorf("Properties has neither species nor Z")
	}
	return cols, nil
}

func parseXYZAtom(
	line string, cols xyzColumns, s *structure.AtomicStructure, i int,
) error {
	tok := strings.Fields(line)
	if len(tok) < cols.width {
		return fmt.Errorf("expected %d columns, got %d", cols.width, len(tok))
	}
	for k := 0; k < 3; k++ {
		x, err := strconv.ParseFloat(tok[cols.pos+k], 64)
		if err != nil {
			return fmt.Errorf("invalid position '%s'", tok[cols.pos+k])
		}
		s.Positions[i][k] = x
	}

	if cols.z >= 0 {
		z, err := strconv.Atoi(tok[cols.z])
		if err != nil { return fmt.Errorf("invalid Z '%s'", tok[cols.z]) }
		s.AtomTypes[i] = z
		return nil
	}
	sym := tok[cols.species]
	if z, err := strconv.Atoi(sym); err == nil {
		s.AtomTypes[i] = z
	} else if z = AtomicNumber(sym); z > 0 {
		s.AtomTypes[i] = z
	} else {
		return fmt.Errorf("unknown element '%s'", sym)
	}
	return nil
}

func parseFloats(val string, n int) ([]float64, error) {
	tok := strings.Fields(val)
	if len(tok) != n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(tok))
	}
	out := make([]float64, n)
	for i := range tok {
		x, err := strconv.ParseFloat(tok[i], 64)
		if err != nil { return nil, err }
		out[i] = x
	}
	return out, nil
}

func parseBool(tok string) (bool, bool) {
	switch strings.ToUpper(tok) {
	case "T", "TRUE", "1": return true, true
	case "F", "FALSE", "0": return false, true
	}
	return false, false
}

// infoValue converts a comment value to a number or bool if possible.
func infoValue(val string) interface{} {
	if i, err := strconv.ParseInt(val, 10, 64); err == nil { return i }
	if x, err := strconv.ParseFloat(val, 64); err == nil { return x }
	if b, ok := parseBool(val); ok && len(val) == 1 { return b }
	return val
}
