/*package snapshot reads and writes snapshot files: named arrays describing
one build of a manager stack (neighbour lists, ghost images, cached distances
and any computed properties), each stored as an optionally compressed block.

A file is laid out as

    magic number (uint32), version (uint32), codec (uint32), id (16 bytes)
    number of fields (uint32), name lengths (uint32 each), names,
    types (3 bytes each), element counts (int64 each),
    block edges (int64 each, one more than the number of fields)
    blocks

All integers are written in the writer's byte order. Readers detect the
order from the magic number.
*/
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/google/uuid"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
)

const (
	// MagicNumber is an arbitrary number at the start of every snapshot file
	// which identifies when the code is run on something else by accident.
	MagicNumber = 0xa7057ac4
	// ReverseMagicNumber is the magic number if read on a machine with
	// flipped endianness.
	ReverseMagicNumber = 0xc47a05a7
	Version = 1
)

// Field is a named array which can be written to a snapshot. Data() must
// return a []int64, []int, []float64 or [][3]float64. Every property.Field
// with a supported element type satisfies this.
type Field interface {
	Name() string
	Data() interface{}
}

// Array is a Field backed by a plain array.
type Array struct {
	name string
	data interface{}
}

// NewArray creates a Field with the given name and data.
func NewArray(name string, data interface{}) *Array {
	return &Array{name, data}
}

func (a *Array) Name() string { return a.name }
func (a *Array) Data() interface{} { return a.data }

// Header is the part of the file which describes its fields.
type Header struct {
	ID uuid.UUID
	Codec Codec
	// Names gives the names of every field. Types gives their types: "i64"
	// and "f64" for 64-bit integers and floats, "v64" for 3-vectors of
	// 64-bit floats. Lens gives the number of elements in each field.
	Names, Types []string
	Lens []int64
}

// Writer collects fields in memory and writes them all at once. The pattern
// is to create a single Writer with NewWriter, add fields with AddField, and
// finally call Flush.
type Writer struct {
	Header
	w io.Writer
	order binary.ByteOrder
	blocks [][]byte
}

// NewWriter creates a Writer targeting w.
func NewWriter(w io.Writer, codec Codec, id uuid.UUID) *Writer {
	return &Writer{
		Header: Header{ID: id, Codec: codec},
		w: w, order: binary.LittleEndian,
	}
}

// SetOrder sets the byte order used by Flush.
func (wr *Writer) SetOrder(order binary.ByteOrder) { wr.order = order }

// SystemByteOrder returns the byte order of the current machine.
func SystemByteOrder() binary.ByteOrder {
	b := [2]byte{}
	*(*uint16)(unsafe.Pointer(&b[0])) = uint16(0x0001)
	if b[0] == 0 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// AddField encodes and compresses a field.
func (wr *Writer) AddField(f Field) error {
	const op = "Writer.AddField"
	for _, name := range wr.Names {
		if name == f.Name() {
			return g_error.New(g_error.Usage, op,
				"a field named '%s' was already added", name)
		}
	}

	raw := &bytes.Buffer{}
	var typ string
	var n int
	var err error
	switch x := f.Data().(type) {
	case []int64:
		typ, n, err = "i64", len(x), binary.Write(raw, wr.order, x)
	case []int:
		i64 := make([]int64, len(x))
		for i := range x { i64[i] = int64(x[i]) }
		typ, n, err = "i64", len(x), binary.Write(raw, wr.order, i64)
	case []float64:
		typ, n, err = "f64", len(x), binary.Write(raw, wr.order, x)
	case [][3]float64:
		typ, n, err = "v64", len(x), binary.Write(raw, wr.order, x)
	default:
		return g_error.New(g_error.Usage, op,
			"field '%s' has the unsupported type %T", f.Name(), x)
	}
	if err != nil { return err }

	block, err := compress(wr.Codec, raw.Bytes())
	if err != nil { return err }

	wr.Names = append(wr.Names, f.Name())
	wr.Types = append(wr.Types, typ)
	wr.Lens = append(wr.Lens, int64(n))
	wr.blocks = append(wr.blocks, block)
	return nil
}

// Flush writes the header and every field to the underlying writer.
func (wr *Writer) Flush() error {
	buf := &bytes.Buffer{}
	order := wr.order

	fixed := []uint32{MagicNumber, Version, uint32(wr.Codec)}
	if err := binary.Write(buf, order, fixed); err != nil { return err }
	buf.Write(wr.ID[:])

	nFields := uint32(len(wr.Names))
	if err := binary.Write(buf, order, nFields); err != nil { return err }
	nNames := make([]uint32, nFields)
	for i := range nNames { nNames[i] = uint32(len(wr.Names[i])) }
	if err := binary.Write(buf, order, nNames); err != nil { return err }
	for i := range wr.Names { buf.WriteString(wr.Names[i]) }
	for i := range wr.Types { buf.WriteString(wr.Types[i]) }
	if err := binary.Write(buf, order, wr.Lens); err != nil { return err }

	edges := make([]int64, len(wr.blocks)+1)
	for i := range wr.blocks {
		edges[i+1] = edges[i] + int64(len(wr.blocks[i]))
	}
	if err := binary.Write(buf, order, edges); err != nil { return err }
	for i := range wr.blocks { buf.Write(wr.blocks[i]) }

	_, err := wr.w.Write(buf.Bytes())
	return err
}

// WriteFile writes fields to a new snapshot file in the byte order of the
// current machine and returns the size of the file. Missing directories are
// created. If anything fails, including closing the file, the partial file
// is removed.
func WriteFile(
	fname string, codec Codec, id uuid.UUID, fields ...Field,
) (size int, err error) {
	if dir := filepath.Dir(fname); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil { return 0, err }
	}
	f, err := os.Create(fname)
	if err != nil { return 0, err }
	defer func() {
		if cerr := f.Close(); err == nil { err = cerr }
		if err != nil {
			os.Remove(fname)
			size = 0
		}
	}()

	wr := NewWriter(f, codec, id)
	wr.SetOrder(SystemByteOrder())
	for i := range fields {
		if err := wr.AddField(fields[i]); err != nil { return 0, err }
	}
	if err := wr.Flush(); err != nil { return 0, err }

	info, err := f.Stat()
	if err != nil { return 0, err }
	return int(info.Size()), nil
}

// File is a fully-read snapshot.
type File struct {
	Header
	order binary.ByteOrder
	blocks [][]byte
}

// Read reads a snapshot file from r.
func Read(r io.Reader) (*File, error) {
	order, err := checkFile(r)
	if err != nil { return nil, err }

	f := &File{order: order}
	var codec uint32
	if err := binary.Read(r, order, &codec); err != nil { return nil, err }
	f.Codec = Codec(codec)
	if f.Codec > LZ4 { return nil, formatError("unknown codec %d", codec) }
	if _, err := io.ReadFull(r, f.ID[:]); err != nil { return nil, err }

	var nFields uint32
	if err := binary.Read(r, order, &nFields); err != nil { return nil, err }
	nNames := make([]uint32, nFields)
	if err := binary.Read(r, order, nNames); err != nil { return nil, err }

	f.Names = make([]string, nFields)
	for i := range f.Names {
		b := make([]byte, nNames[i])
		if _, err := io.ReadFull(r, b); err != nil { return nil, err }
		f.Names[i] = string(b)
	}
	f.Types = make([]string, nFields)
	for i := range f.Types {
		b := make([]byte, 3)
		if _, err := io.ReadFull(r, b); err != nil { return nil, err }
		f.Types[i] = string(b)
	}

	f.Lens = make([]int64, nFields)
	if err := binary.Read(r, order, f.Lens); err != nil { return nil, err }
	for i, n := range f.Lens {
		if n < 0 {
			return nil, formatError("field '%s' has a negative length, %d",
				f.Names[i], n)
		}
	}
	edges := make([]int64, nFields+1)
	if err := binary.Read(r, order, edges); err != nil { return nil, err }

	f.blocks = make([][]byte, nFields)
	for i := range f.blocks {
		n := edges[i+1] - edges[i]
		if n < 0 { return nil, formatError("corrupted block edges") }
		f.blocks[i] = make([]byte, n)
		if _, err := io.ReadFull(r, f.blocks[i]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// checkFile reads the magic number and version and returns the byte order of
// the file.
func checkFile(r io.Reader) (binary.ByteOrder, error) {
	var magicNumber, version uint32
	order := binary.ByteOrder(binary.LittleEndian)
	if err := binary.Read(r, order, &magicNumber); err != nil {
		return nil, err
	}

	switch magicNumber {
	case MagicNumber:
	case ReverseMagicNumber: order = binary.BigEndian
	default:
		return nil, formatError("this is not a snapshot file. Snapshot "+
			"files begin with either the 32-bit integer %x or %x. This "+
			"file begins with %x", MagicNumber, ReverseMagicNumber,
			magicNumber)
	}

	if err := binary.Read(r, order, &version); err != nil { return nil, err }
	if version > Version {
		return nil, formatError("the file was written with snapshot "+
			"version %d, but this code only reads up to version %d",
			version, Version)
	}
	return order, nil
}

func formatError(format string, a ...interface{}) error {
	return g_error.New(g_error.Configuration, "snapshot.Read", format, a...)
}

// Field returns the named field's data as a []int64, []float64 or
// [][3]float64.
func (f *File) Field(name string) (interface{}, error) {
	i := -1
	for j := range f.Names {
		if f.Names[j] == name { i = j; break }
	}
	if i == -1 {
		return nil, g_error.New(g_error.Usage, "File.Field",
			"the field '%s' is not in the snapshot. It only contains the "+
				"fields %s", name, f.Names)
	}

	n := f.Lens[i]
	width := int64(8)
	if f.Types[i] == "v64" { width = 24 }
	raw, err := decompress(f.Codec, f.blocks[i], int(n*width))
	if err != nil { return nil, fmt.Errorf("field '%s': %w", name, err) }
	rd := bytes.NewReader(raw)

	switch f.Types[i] {
	case "i64":
		out := make([]int64, n)
		err = binary.Read(rd, f.order, out)
		return out, err
	case "f64":
		out := make([]float64, n)
		err = binary.Read(rd, f.order, out)
		return out, err
	case "v64":
		out := make([][3]float64, n)
		err = binary.Read(rd, f.order, out)
		return out, err
	}
	return nil, formatError("field '%s' has the unknown type '%s'",
		name, f.Types[i])
}

// Int64s returns a field of type "i64".
func (f *File) Int64s(name string) ([]int64, error) {
	x, err := f.Field(name)
	if err != nil { return nil, err }
	out, ok := x.([]int64)
	if !ok { return nil, typeError(name, "i64", x) }
	return out, nil
}

// Float64s returns a field of type "f64".
func (f *File) Float64s(name string) ([]float64, error) {
	x, err := f.Field(name)
	if err != nil { return nil, err }
	out, ok := x.([]float64)
	if !ok { return nil, typeError(name, "f64", x) }
	return out, nil
}

// Vec64s returns a field of type "v64".
func (f *File) Vec64s(name string) ([][3]float64, error) {
	x, err := f.Field(name)
	if err != nil { return nil, err }
	out, ok := x.([][3]float64)
	if !ok { return nil, typeError(name, "v64", x) }
	return out, nil
}

func typeError(name, typ string, x interface{}) error {
	return g_error.New(g_error.Usage, "File.Field",
		"field '%s' has type %T, not %s", name, x, typ)
}
