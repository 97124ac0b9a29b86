package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// flateWriterPool pools raw deflate writers; Reset rebinds them to a new output.
var flateWriterPool = sync.Pool{
	New: func() any {
		w, err := flate.NewWriter(nil, flate.DefaultCompression)
		if err != nil {
			panic(fmt.Sprintf("failed to create flate writer for pool: %v", err))
		}

		return w
	},
}

// DeflateCompressor implements the "deflate" codec: raw RFC 1951 data with no
// zlib header or checksum.
type DeflateCompressor struct{}

var _ Codec = (*DeflateCompressor)(nil)

// NewDeflateCompressor creates the deflate codec.
func NewDeflateCompressor() DeflateCompressor {
	return DeflateCompressor{}
}

// Compress compresses data with a pooled flate writer.
func (c DeflateCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	w, _ := flateWriterPool.Get().(*flate.Writer)
	defer flateWriterPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("deflate compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("deflate compression failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress inflates raw deflate data.
func (c DeflateCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("deflate decompression failed: %w", err)
	}

	return out, nil
}
