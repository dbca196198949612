/*package structio reads atomic structures from JSON and extended XYZ files.
For JSON, three layouts are
understood: a single structure object, an array of structure objects, and the
ASE database layout, where the keys of a top-level object are structure ids
listed in its "ids" array.

A structure object looks like

    {
        "positions": [[0, 0, 0], [0.5, 0.5, 0.5]],
        "numbers": [1, 8],
        "cell": [[2, 0, 0], [0, 2, 0], [0, 0, 2]],
        "pbc": [true, true, true],
        "center_atoms_mask": [true, false]
    }

"atom_types" is accepted in place of "numbers". "pbc" and "center_atoms_mask"
are optional. Any other keys are kept in AtomicStructure.Info.
*/
package structio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/structure"
)

// record is the on-disk form of a single structure.
type record struct {
	Positions [][3]float64 `json:"positions"`
	Numbers []int `json:"numbers"`
	AtomTypes []int `json:"atom_types"`
	Cell json.RawMessage `json:"cell"`
	PBC json.RawMessage `json:"pbc"`
	CenterAtomsMask []bool `json:"center_atoms_mask"`
}

var knownKeys = map[string]bool{
	"positions": true, "numbers": true, "atom_types": true, "cell": true,
	"pbc": true, "center_atoms_mask": true,
}

// ReadFile reads every structure in a file. Files ending in ".xyz" or
// ".extxyz" are read with ReadXYZ and everything else as JSON.
func ReadFile(fname string) ([]*structure.AtomicStructure, error) {
	f, err := os.Open(fname)
	if err != nil { return nil, err }
	defer f.Close()

	read := Read
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".xyz", ".extxyz":
		read = func(r io.Reader) ([]*structure.AtomicStructure, error) {
			return ReadXYZ(r)
		}
	}
	out, err := read(f)
	if err != nil { return nil, fmt.Errorf("reading '%s': %w", fname, err) }
	return out, nil
}

// ReadRange reads length structures starting at start. A negative length
// reads to the end of the file. A range that runs past the end of the file is
// a configuration error.
func ReadRange(
	fname string, start, length int,
) ([]*structure.AtomicStructure, error) {
	all, err := ReadFile(fname)
	if err != nil { return nil, err }

	if length < 0 { length = len(all) - start }
	if start < 0 || length < 0 || start+length > len(all) {
		return nil, g_error.New(g_error.Configuration, "structio.ReadRange",
			"'%s' contains %d structures, so the range start = %d, "+
				"length = %d is out of bounds", fname, len(all), start, length)
	}
	return all[start : start+length], nil
}

// Read reads every structure in r.
func Read(r io.Reader) ([]*structure.AtomicStructure, error) {
	b, err := io.ReadAll(r)
	if err != nil { return nil, err }
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, parseError("the input is empty")
	}

	var raw []json.RawMessage
	switch b[0] {
	case '[':
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, parseError("%s", err)
		}
	case '{':
		raw, err = splitObject(b)
		if err != nil { return nil, err }
	default:
		return nil, parseError("expected a JSON object or array")
	}

	out := make([]*structure.AtomicStructure, len(raw))
	for i := range raw {
		out[i], err = decode(raw[i])
		if err != nil {
			return nil, fmt.Errorf("structure %d: %w", i, err)
		}
	}
	return out, nil
}

// splitObject handles both a lone structure object and the ASE database
// layout.
func splitObject(b []byte) ([]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return nil, parseError("%s", err)
	}
	idsRaw, ok := top["ids"]
	if !ok { return []json.RawMessage{b}, nil }

	var ids []int
	if err := json.Unmarshal(idsRaw, &ids); err != nil {
		return nil, parseError("'ids' is not a list of integers: %s", err)
	}
	out := make([]json.RawMessage, len(ids))
	for i, id := range ids {
		rec, ok := top[strconv.Itoa(id)]
		if !ok {
			return nil, parseError("id %d is listed in 'ids', but there is "+
				"no structure with that key", id)
		}
		out[i] = rec
	}
	return out, nil
}

func decode(b json.RawMessage) (*structure.AtomicStructure, error) {
	rec := &record{}
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, parseError("%s", err)
	}

	s := &structure.AtomicStructure{
		Positions: rec.Positions,
		AtomTypes: rec.Numbers,
		CenterAtomsMask: rec.CenterAtomsMask,
	}
	if s.AtomTypes == nil { s.AtomTypes = rec.AtomTypes }
	if rec.Positions == nil { return nil, parseError("no 'positions' key") }
	if s.AtomTypes == nil {
		return nil, parseError("no 'numbers' or 'atom_types' key")
	}

	var err error
	if s.Cell, err = decodeCell(rec.Cell); err != nil { return nil, err }
	if s.PBC, err = decodePBC(rec.PBC); err != nil { return nil, err }

	var all map[string]interface{}
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, parseError("%s", err)
	}
	for key, val := range all {
		if knownKeys[key] { continue }
		if s.Info == nil { s.Info = map[string]interface{}{} }
		s.Info[key] = val
	}
	return s, nil
}

// decodeCell accepts either a 3x3 list or ASE's {"array": 3x3 list}.
func decodeCell(b json.RawMessage) ([3][3]float64, error) {
	cell := [3][3]float64{}
	if len(b) == 0 { return cell, parseError("no 'cell' key") }
	if err := json.Unmarshal(b, &cell); err == nil { return cell, nil }

	wrapped := struct{ Array [3][3]float64 `json:"array"` }{}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return cell, parseError("'cell' must be a 3x3 list: %s", err)
	}
	return wrapped.Array, nil
}

// decodePBC accepts three booleans, three 0/1 integers, or a single boolean
// applied to every direction. A missing value means fully periodic.
func decodePBC(b json.RawMessage) ([3]bool, error) {
	pbc := [3]bool{true, true, true}
	if len(b) == 0 { return pbc, nil }
	if err := json.Unmarshal(b, &pbc); err == nil { return pbc, nil }

	var all bool
	if err := json.Unmarshal(b, &all); err == nil {
		return [3]bool{all, all, all}, nil
	}

	ints := [3]int{}
	if err := json.Unmarshal(b, &ints); err != nil {
		return pbc, parseError("'pbc' must be three booleans")
	}
	for k := range ints { pbc[k] = ints[k] != 0 }
	return pbc, nil
}

func parseError(format string, a ...interface{}) error {
	return g_error.New(g_error.Configuration, "structio.Read", format, a...)
}

// Write writes structures as a JSON array which Read can parse.
func Write(w io.Writer, structures []*structure.AtomicStructure) error {
	out := make([]map[string]interface{}, len(structures))
	for i, s := range structures {
		m := map[string]interface{}{}
		for key, val := range s.Info { m[key] = val }
		m["positions"] = s.Positions
		m["numbers"] = s.AtomTypes
		m["cell"] = s.Cell
		m["pbc"] = s.PBC
		if s.CenterAtomsMask != nil {
			m["center_atoms_mask"] = s.CenterAtomsMask
		}
		out[i] = m
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
