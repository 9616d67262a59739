package tempfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the stream compression applied to run files.
type Compression uint8

const (
	// None stores run files as plain text.
	None Compression = iota
	// Gzip compresses run files with gzip.
	Gzip
	// Zstd compresses run files with zstandard.
	Zstd
	// LZ4 compresses run files with the lz4 frame format.
	LZ4
)

var (
	gzipMagic = []byte{0x1f, 0x8b, 0x08}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Compression) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Compression) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "none":
		*c = None
	case "gzip", "gz":
		*c = Gzip
	case "zstd", "zst":
		*c = Zstd
	case "lz4":
		*c = LZ4
	default:
		return fmt.Errorf("unknown compression %q", text)
	}
	return nil
}

// Detect peeks at the start of r and reports the compression its magic bytes
// announce. Streams with no known magic are reported as None.
func Detect(r *bufio.Reader) Compression {
	head, _ := r.Peek(4)
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, lz4Magic):
		return LZ4
	default:
		return None
	}
}

// NewReader detects the compression of r and returns a reader producing the
// decompressed stream. The returned closer releases the decompressor, it does
// not close r.
func NewReader(r *bufio.Reader) (io.Reader, io.Closer, error) {
	return newReaderFor(r, Detect(r))
}

// newReaderFor wraps r with the decompressor for c. The returned closer
// releases the decompressor, it does not close r.
func newReaderFor(r io.Reader, c Compression) (io.Reader, io.Closer, error) {
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr, nil
	case Zstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, err
		}
		return zr, closerFunc(func() error { zr.Close(); return nil }), nil
	case LZ4:
		return lz4.NewReader(r), nopCloser{}, nil
	case None:
		return r, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown compression %d", uint8(c))
	}
}

// newWriter wraps w with the compressor for c. The returned closer flushes the
// compressed stream; it does not close w.
func newWriter(w io.Writer, c Compression) (io.Writer, io.Closer, error) {
	switch c {
	case None:
		return w, nopCloser{}, nil
	case Gzip:
		zw := gzip.NewWriter(w)
		return zw, zw, nil
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, nil, err
		}
		return zw, zw, nil
	case LZ4:
		zw := lz4.NewWriter(w)
		return zw, zw, nil
	default:
		return nil, nil, fmt.Errorf("unknown compression %d", uint8(c))
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
