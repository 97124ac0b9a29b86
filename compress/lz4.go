package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// maxLZ4Block bounds the output buffer while guessing the uncompressed size.
const maxLZ4Block = 128 * 1024 * 1024

// LZ4Compressor implements the "lz4" codec as a single raw LZ4 block.
//
// The name is not one of the standard container codecs; files using it are only
// readable by implementations that register the same codec.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates the lz4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses data as one LZ4 block.
//
// Incompressible input is stored as a literal-only block so that Decompress
// never has to distinguish stored from compressed payloads.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 {
		return literalLZ4Block(data), nil
	}

	return dst[:n], nil
}

// literalLZ4Block encodes data as a single LZ4 sequence with no match.
func literalLZ4Block(data []byte) []byte {
	n := len(data)
	out := make([]byte, 0, n+n/255+2)
	if n < 15 {
		out = append(out, byte(n<<4))
	} else {
		out = append(out, 0xF0)
		rest := n - 15
		for rest >= 255 {
			out = append(out, 255)
			rest -= 255
		}
		out = append(out, byte(rest))
	}

	return append(out, data...)
}

// Decompress decodes one LZ4 block.
//
// The uncompressed size is not stored, so the output buffer starts at 4x the
// input and doubles on ErrInvalidSourceShortBuffer. LZ4 cannot expand input by
// more than 255x, which together with maxLZ4Block bounds the retries.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	limit := min(len(data)*255+64, maxLZ4Block)
	bufSize := min(len(data)*4, limit)
	for {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < limit {
				bufSize = min(bufSize*2, limit)
				continue
			}

			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}

		return buf[:n], nil
	}
}
