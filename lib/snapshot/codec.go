package snapshot

import (
	"fmt"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/pierrec/lz4/v4"

	g_error "github.com/phil-mansfield/atomstack/lib/error"
)

// Codec is the compression method applied to every field block of a file.
type Codec uint32

const (
	None Codec = iota
	Zstd
	LZ4
)

// ZstdLevel is the compression level used by the Zstd codec.
var ZstdLevel = 3

func (c Codec) String() string {
	switch c {
	case None: return "none"
	case Zstd: return "zstd"
	case LZ4: return "lz4"
	}
	return fmt.Sprintf("Codec(%d)", uint32(c))
}

// ParseCodec converts a codec name into a Codec. The empty string is None.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none": return None, nil
	case "zstd": return Zstd, nil
	case "lz4": return LZ4, nil
	}
	return None, g_error.New(g_error.Configuration, "snapshot.ParseCodec",
		"the codec '%s' isn't recognized. The valid codecs are 'none', "+
			"'zstd', and 'lz4'", name)
}

// shuffle transposes an array of width-byte words so that the i-th bytes of
// every word are contiguous. The high bytes of neighbour tags and offsets are
// nearly constant, so this gives the compressors long runs to work with.
func shuffle(b []byte, width int, out []byte) {
	n := len(b) / width
	for i := 0; i < n; i++ {
		for j := 0; j < width; j++ {
			out[j*n+i] = b[i*width+j]
		}
	}
}

// unshuffle inverts shuffle.
func unshuffle(b []byte, width int, out []byte) {
	n := len(b) / width
	for i := 0; i < n; i++ {
		for j := 0; j < width; j++ {
			out[i*width+j] = b[j*n+i]
		}
	}
}

// compress shuffles and compresses a block of 8-byte words.
func compress(c Codec, b []byte) ([]byte, error) {
	if len(b) == 0 { return []byte{}, nil }
	shuffled := make([]byte, len(b))
	shuffle(b, 8, shuffled)

	switch c {
	case None:
		return shuffled, nil
	case Zstd:
		return zstd.CompressLevel(nil, shuffled, ZstdLevel)
	case LZ4:
		out := make([]byte, lz4.CompressBlockBound(len(shuffled)))
		n, err := lz4.CompressBlock(shuffled, out, nil)
		if err != nil { return nil, err }
		if n == 0 || n >= len(shuffled) {
			// Incompressible: stored raw, which decompress recognizes by
			// its length.
			return shuffled, nil
		}
		return out[:n], nil
	}
	panic(fmt.Sprintf("Internal error: unknown codec %d.", uint32(c)))
}

// decompress inverts compress. rawLen is the length of the original block.
func decompress(c Codec, b []byte, rawLen int) ([]byte, error) {
	if rawLen == 0 { return []byte{}, nil }
	shuffled := make([]byte, rawLen)
	switch c {
	case None:
		copy(shuffled, b)
	case Zstd:
		out, err := zstd.Decompress(shuffled, b)
		if err != nil { return nil, err }
		shuffled = out
	case LZ4:
		if len(b) == rawLen {
			copy(shuffled, b)
			break
		}
		n, err := lz4.UncompressBlock(b, shuffled)
		if err != nil { return nil, err }
		shuffled = shuffled[:n]
	default:
		return nil, fmt.Errorf("unknown codec %d", uint32(c))
	}

	if len(shuffled) != rawLen {
		return nil, fmt.Errorf("block decompressed to %d bytes, but %d "+
			"were expected", len(shuffled), rawLen)
	}
	out := make([]byte, rawLen)
	unshuffle(shuffled, 8, out)
	return out, nil
}
