// Package avrokit is a schema-driven binary serialization engine for Avro
// records.
//
// Producers encode values against a writer schema; consumers decode the bytes
// against a reader schema that may differ, as long as the two are compatible.
// Records can also be stored in self-describing container files that carry the
// writer schema and a compression codec.
//
// # Basic Usage
//
// Encoding and decoding a single record:
//
//	s, _ := avrokit.ParseSchema(`{"type": "record", "name": "User", "fields": [
//	    {"name": "id", "type": "long"},
//	    {"name": "email", "type": ["null", "string"], "default": null}
//	]}`)
//
//	data, _ := avrokit.Marshal(s, value.Record(
//	    value.F("id", value.Long(42)),
//	    value.F("email", value.Union(1, value.String("a@example.com"))),
//	))
//	v, _ := avrokit.Unmarshal(s, data)
//
// Reading bytes written with another version of the schema:
//
//	v, err := avrokit.UnmarshalAs(writerSchema, readerSchema, data)
//
// Callers decoding many records of the same pair keep their own cache:
//
//	cache := resolve.NewCache()
//	v, err := avrokit.UnmarshalCached(cache, writerSchema, readerSchema, data)
//
// Writing and reading a container file:
//
//	err := avrokit.WriteContainer(f, s, records, container.WithCodec(compress.Zstandard))
//	records, header, err := avrokit.ReadContainer(f)
//
// # Package Structure
//
// This package provides convenient top-level wrappers. The schema, value, codec,
// resolve, container and compress packages expose the full API.
package avrokit

import (
	"io"

	"github.com/arloliu/avrokit/codec"
	"github.com/arloliu/avrokit/container"
	"github.com/arloliu/avrokit/resolve"
	"github.com/arloliu/avrokit/schema"
	"github.com/arloliu/avrokit/value"
)

// ParseSchema parses a JSON schema definition.
//
// Returns an *errs.SchemaError describing the first problem found.
func ParseSchema(text string, opts ...schema.ParseOption) (*schema.Schema, error) {
	return schema.Parse(text, opts...)
}

// Marshal encodes v against s.
//
// Returns an *errs.EncodeError when v does not conform to s.
func Marshal(s *schema.Schema, v value.Value) ([]byte, error) {
	return codec.Encode(s, v)
}

// Unmarshal decodes one value written with s. The whole of data must be
// consumed.
//
// Returns an *errs.DecodeError carrying the byte offset of the failure.
func Unmarshal(s *schema.Schema, data []byte) (value.Value, error) {
	return codec.Decode(s, data)
}

// UnmarshalAs decodes data written with writer and returns it shaped like reader.
// The pair is resolved on every call; use UnmarshalCached to reuse the plan.
//
// Returns an *errs.ResolutionError if the schemas are incompatible, or an
// *errs.DecodeError if data is malformed.
func UnmarshalAs(writer, reader *schema.Schema, data []byte) (value.Value, error) {
	res, err := resolve.Resolve(writer, reader)
	if err != nil {
		return value.Value{}, err
	}

	return codec.DecodeResolved(res, data)
}

// UnmarshalCached is UnmarshalAs with the resolution plan taken from cache,
// which the caller owns and may share between goroutines.
func UnmarshalCached(cache *resolve.Cache, writer, reader *schema.Schema, data []byte) (value.Value, error) {
	res, err := cache.Resolve(writer, reader)
	if err != nil {
		return value.Value{}, err
	}

	return codec.DecodeResolved(res, data)
}

// Fingerprint returns the CRC-64-AVRO fingerprint of the schema's Parsing
// Canonical Form.
func Fingerprint(s *schema.Schema) uint64 {
	return s.Fingerprint64()
}

// WriteContainer writes vs as a complete container file.
//
// If a value fails to encode, the values before it are still flushed so the
// output remains a readable file, and the encode error is returned.
func WriteContainer(w io.Writer, s *schema.Schema, vs []value.Value, opts ...container.Option) error {
	cw, err := container.NewWriter(w, s, opts...)
	if err != nil {
		return err
	}
	if err := cw.AppendAll(vs...); err != nil {
		_ = cw.Close()
		return err
	}

	return cw.Close()
}

// ReadContainer reads every record of a container file.
//
// With container.WithReaderSchema the records are resolved against that schema.
func ReadContainer(r io.Reader, opts ...container.Option) ([]value.Value, *container.Header, error) {
	cr, err := container.NewReader(r, opts...)
	if err != nil {
		return nil, nil, err
	}
	vs, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	return vs, cr.Header(), nil
}
