// Package codec encodes and decodes values against schemas.
//
// The binary form is compact and untagged: a record is the concatenation of its
// fields, a union is a branch index followed by the branch's value, arrays and
// maps are sequences of counted blocks ending with a zero count. Structure is
// recovered entirely from the schema, so decoding needs the exact writer schema.
//
// Direct use:
//
//	data, err := codec.Encode(s, v)
//	v, err := codec.Decode(s, data)
//
// Reading data written with an older or newer schema goes through a resolution
// plan from the resolve package:
//
//	res, err := resolve.Resolve(writerSchema, readerSchema)
//	v, err := codec.DecodeResolved(res, data)
//
// Decoder reads many concatenated values from one buffer, which is how container
// blocks store records. All decode failures are *errs.DecodeError values whose
// Offset is relative to the start of the input buffer.
package codec
