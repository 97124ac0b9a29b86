// Package compress provides the block codecs used by the container format.
//
// A container file names its codec in the header (avro.codec) and every block
// payload is passed through that codec as a whole. Codecs are looked up by name
// in a Registry:
//
//	reg := compress.NewRegistry()
//	c, ok := reg.Lookup(compress.Deflate)
//
// Built-in codecs:
//
//   - null: payload stored as is.
//   - deflate: raw RFC 1951 data (klauspost/compress/flate).
//   - snappy: Snappy block plus a 4-byte big-endian CRC-32 of the uncompressed
//     payload (klauspost/compress/s2 in Snappy-compatible mode).
//   - zstandard: one zstd frame per block, pooled encoders and decoders.
//   - lz4: one raw LZ4 block (pierrec/lz4). Not a standard container codec.
//
// Custom codecs implement Codec and are added with Registry.Register. All
// built-in codecs are stateless values safe for concurrent use.
package compress
