// Package schema parses, represents and prints data schemas.
//
// A Schema is an immutable graph of Nodes. Primitive, array, map and union nodes are
// stored inline; records, enums and fixed types live in a per-schema table of Named
// definitions and nodes refer to them by Ref. Recursive types therefore need no
// pointer cycles, and two independently parsed schemas never share names.
//
// # Parsing
//
//	s, err := schema.Parse(`{
//	    "type": "record", "name": "com.example.User",
//	    "fields": [
//	        {"name": "id", "type": "long"},
//	        {"name": "email", "type": ["null", "string"], "default": null}
//	    ]
//	}`)
//
// Parse validates names, duplicate definitions, union membership and field
// defaults, and reports problems as *errs.SchemaError values that carry the path of
// the offending node. Logical types (decimal, uuid, date, timestamp-millis,
// timestamp-micros) refine their underlying primitive or fixed; an annotation on the
// wrong underlying type is ignored with a warning through the configured logger.
//
// # Printing and fingerprints
//
// String renders JSON that parses back to an equal Schema. Canonical renders the
// Parsing Canonical Form, the input of Fingerprint64 (CRC-64-AVRO Rabin),
// FingerprintSHA256 and FingerprintXXH64.
package schema
