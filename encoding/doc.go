// Package encoding implements the primitive wire forms shared by the record codec
// and the container format.
//
// Integers are zigzag-mapped and written as little-endian base-128 varints, so ints
// and longs share one encoding of at most ten bytes. Floats and doubles are
// little-endian IEEE-754. Bytes and strings carry a long length prefix.
//
// Writer appends into pooled buffers from internal/pool; Reader walks a byte slice
// and reports failures as *errs.DecodeError values carrying the byte offset where
// the problem was detected.
package encoding
