package compress

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/compress/s2"
)

// SnappyCompressor implements the "snappy" codec: a Snappy block followed by the
// big-endian CRC-32 (IEEE) of the uncompressed payload.
//
// Blocks are produced by s2.EncodeSnappy, so any Snappy decoder can read them.
type SnappyCompressor struct{}

var _ Codec = (*SnappyCompressor)(nil)

// NewSnappyCompressor creates the snappy codec.
func NewSnappyCompressor() SnappyCompressor {
	return SnappyCompressor{}
}

// Compress compresses data and appends its checksum.
func (c SnappyCompressor) Compress(data []byte) ([]byte, error) {
	bound := s2.MaxEncodedLen(len(data))
	if bound < 0 {
		return nil, fmt.Errorf("snappy block too large: %d bytes", len(data))
	}
	dst := make([]byte, bound+crc32.Size)
	encoded := s2.EncodeSnappy(dst, data)

	out := dst[:len(encoded)+crc32.Size]
	binary.BigEndian.PutUint32(out[len(encoded):], crc32.ChecksumIEEE(data))

	return out, nil
}

// Decompress decodes the Snappy block and verifies the trailing checksum.
func (c SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) < crc32.Size {
		return nil, fmt.Errorf("snappy block too short: %d bytes", len(data))
	}

	body := data[:len(data)-crc32.Size]
	want := binary.BigEndian.Uint32(data[len(body):])

	out, err := s2.Decode(nil, body)
	if err != nil {
		return nil, fmt.Errorf("snappy decompression failed: %w", err)
	}
	if got := crc32.ChecksumIEEE(out); got != want {
		return nil, fmt.Errorf("snappy checksum mismatch: got %08x, want %08x", got, want)
	}

	return out, nil
}
