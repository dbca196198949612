package snapshot

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
	"github.com/phil-mansfield/atomstack/lib/manager"
	"github.com/phil-mansfield/atomstack/lib/property"
	"github.com/phil-mansfield/atomstack/lib/structure"
)

func testStack(t *testing.T, seed uint64) *manager.Stack {
	s := structure.RandomBox(structure.NewRNG(seed), 16,
		[3][3]float64{{5, 0, 0}, {1, 5, 0}, {0, 0.5, 5}},
		[3]bool{true, true, false}, []int{1, 6, 8})
	st, err := manager.NewStack(
		manager.AdaptorSpec{Name: "neighbourlist", Cutoff: 2.8},
		manager.AdaptorSpec{Name: "strict", Cutoff: 2.8},
	)
	require.NoError(t, err)
	require.NoError(t, st.Update(s))
	return st
}

func TestShuffle(t *testing.T) {
	b := make([]byte, 64)
	for i := range b { b[i] = byte(i * 7) }
	shuffled, out := make([]byte, 64), make([]byte, 64)
	shuffle(b, 8, shuffled)
	assert.Equal(t, b[8], shuffled[1])
	assert.Equal(t, b[1], shuffled[8])
	unshuffle(shuffled, 8, out)
	assert.Equal(t, b, out)
}

func TestRoundTrip(t *testing.T) {
	i64 := []int64{0, 1, -5, 1 << 40, 7, 7, 7, 7}
	f64 := []float64{0.5, -1.25, 3e10, 0}
	v64 := [][3]float64{{1, 2, 3}, {-4, 5, 6.5}}
	ints := []int{3, 1, 4, 1, 5, 9, 2, 6}

	for _, codec := range []Codec{None, Zstd, LZ4} {
		for _, order := range []binary.ByteOrder{
			binary.LittleEndian, binary.BigEndian,
		} {
			t.Run(codec.String()+"/"+order.String(), func(t *testing.T) {
				id := uuid.New()
				buf := &bytes.Buffer{}
				wr := NewWriter(buf, codec, id)
				wr.SetOrder(order)
				require.NoError(t, wr.AddField(NewArray("i64", i64)))
				require.NoError(t, wr.AddField(NewArray("f64", f64)))
				require.NoError(t, wr.AddField(NewArray("v64", v64)))
				require.NoError(t, wr.AddField(NewArray("ints", ints)))
				require.NoError(t, wr.AddField(NewArray("empty", []float64{})))
				require.NoError(t, wr.Flush())

				f, err := Read(buf)
				require.NoError(t, err)
				assert.Equal(t, id, f.ID)
				assert.Equal(t, codec, f.Codec)
				assert.Equal(t, []string{"i64", "f64", "v64", "ints", "empty"},
					f.Names)
				assert.Equal(t, []string{"i64", "f64", "v64", "i64", "f64"},
					f.Types)

				gotI64, err := f.Int64s("i64")
				require.NoError(t, err)
				assert.Equal(t, i64, gotI64)
				gotF64, err := f.Float64s("f64")
				require.NoError(t, err)
				assert.Equal(t, f64, gotF64)
				gotV64, err := f.Vec64s("v64")
				require.NoError(t, err)
				assert.Equal(t, v64, gotV64)
				gotInts, err := f.Int64s("ints")
				require.NoError(t, err)
				assert.Equal(t, []int64{3, 1, 4, 1, 5, 9, 2, 6}, gotInts)
				empty, err := f.Float64s("empty")
				require.NoError(t, err)
				assert.Len(t, empty, 0)

				_, err = f.Field("missing")
				assert.True(t, g_error.IsKind(err, g_error.Usage))
				_, err = f.Float64s("i64")
				assert.True(t, g_error.IsKind(err, g_error.Usage))
			})
		}
	}
}

func TestWriterErrors(t *testing.T) {
	wr := NewWriter(&bytes.Buffer{}, Zstd, uuid.Nil)
	require.NoError(t, wr.AddField(NewArray("x", []float64{1})))
	err := wr.AddField(NewArray("x", []float64{2}))
	assert.True(t, g_error.IsKind(err, g_error.Usage))
	err = wr.AddField(NewArray("y", []string{"a"}))
	assert.True(t, g_error.IsKind(err, g_error.Usage))
	assert.Equal(t, []string{"x"}, wr.Names)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	assert.True(t, g_error.IsKind(err, g_error.Configuration))

	b := &bytes.Buffer{}
	binary.Write(b, binary.LittleEndian, []uint32{MagicNumber, Version + 1})
	_, err = Read(b)
	assert.True(t, g_error.IsKind(err, g_error.Configuration))

	// Truncated files fail instead of returning partial data.
	buf := &bytes.Buffer{}
	wr := NewWriter(buf, LZ4, uuid.New())
	require.NoError(t, wr.AddField(NewArray("x", make([]float64, 100))))
	require.NoError(t, wr.Flush())
	_, err = Read(bytes.NewReader(buf.Bytes()[:buf.Len()-10]))
	assert.Error(t, err)

	// A negative field length in the header.
	buf.Reset()
	wr = NewWriter(buf, None, uuid.New())
	wr.SetOrder(binary.LittleEndian)
	require.NoError(t, wr.AddField(NewArray("x", make([]int64, 4))))
	require.NoError(t, wr.Flush())
	data := buf.Bytes()
	lenOffset := 4*3 + 16 + 4 + 4 + len("x") + 3
	require.Equal(t, uint64(4), binary.LittleEndian.Uint64(data[lenOffset:]))
	binary.LittleEndian.PutUint64(data[lenOffset:], uint64(1<<64-4))
	_, err = Read(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, g_error.IsKind(err, g_error.Configuration))

	_, err = ParseCodec("gzip")
	assert.True(t, g_error.IsKind(err, g_error.Configuration))
	c, err := ParseCodec(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, Zstd, c)
}

func TestStackSnapshot(t *testing.T) {
	st := testStack(t, 3)
	id := uuid.New()

	buf := &bytes.Buffer{}
	wr := NewWriter(buf, Zstd, id)
	require.NoError(t, FromStack(wr, st))

	counts, err := property.NewDense[int64]("counts", st.Top(), 1, 1)
	require.NoError(t, err)
	for c := range st.Centers() { counts.At(c.Index())[0] = int64(c.Size()) }
	require.NoError(t, wr.AddField(counts))
	require.NoError(t, wr.Flush())

	f, err := Read(buf)
	require.NoError(t, err)
	top := st.Top()

	nbNeigh, err := f.Int64s("nb_neigh")
	require.NoError(t, err)
	offsets, err := f.Int64s("offsets")
	require.NoError(t, err)
	neigh, err := f.Int64s("neighbour_tags")
	require.NoError(t, err)
	dist, err := f.Float64s("distances")
	require.NoError(t, err)
	positions, err := f.Vec64s("positions")
	require.NoError(t, err)
	shifts, err := f.Int64s("ghost_shift")
	require.NoError(t, err)
	got, err := f.Int64s("counts")
	require.NoError(t, err)

	assert.Equal(t, nbNeigh, got)
	assert.Len(t, positions, top.SizeWithGhosts())
	assert.Len(t, shifts, 3*top.SizeWithGhosts())

	for c := range st.Centers() {
		i := c.Index()
		j := int(offsets[i])
		for p := range c.Pairs() {
			assert.Equal(t, int64(p.AtomTag()), neigh[j])
			assert.Equal(t, p.Distance(), dist[j])
			assert.Equal(t, p.Position(), positions[p.AtomTag()])
			j++
		}
		assert.Equal(t, int(offsets[i]+nbNeigh[i]), j)
	}
}

func TestSnapshotDeterminism(t *testing.T) {
	id := uuid.MustParse("3b241101-e2bb-4255-8caf-4136c566a962")
	write := func() []byte {
		buf := &bytes.Buffer{}
		wr := NewWriter(buf, LZ4, id)
		require.NoError(t, FromStack(wr, testStack(t, 9)))
		require.NoError(t, wr.Flush())
		return buf.Bytes()
	}
	assert.Equal(t, write(), write())
}

func TestSystemByteOrder(t *testing.T) {
	order := SystemByteOrder()
	assert.Equal(t, binary.NativeEndian.Uint32([]byte{1, 2, 3, 4}),
		order.Uint32([]byte{1, 2, 3, 4}))
}

func TestWriteFile(t *testing.T) {
	st := testStack(t, 5)
	id := uuid.New()
	fname := filepath.Join(t.TempDir(), "out", "stack.snap")

	size, err := WriteFile(fname, Zstd, id, StackFields(st)...)
	require.NoError(t, err)
	info, err := os.Stat(fname)
	require.NoError(t, err)
	assert.Equal(t, int(info.Size()), size)

	rd, err := os.Open(fname)
	require.NoError(t, err)
	defer rd.Close()
	f, err := Read(rd)
	require.NoError(t, err)
	assert.Equal(t, id, f.ID)
	centers, err := f.Int64s("center_tags")
	require.NoError(t, err)
	assert.Len(t, centers, st.Top().Size())

	// A field which can't be written leaves nothing behind.
	bad := filepath.Join(t.TempDir(), "bad.snap")
	size, err = WriteFile(bad, LZ4, id,
		NewArray("x", make([]float64, 8)), NewArray("names", []string{"a"}))
	require.Error(t, err)
	assert.Equal(t, 0, size)
	_, err = os.Stat(bad)
	assert.True(t, os.IsNotExist(err))
}
