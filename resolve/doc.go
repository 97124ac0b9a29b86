// Package resolve reconciles a writer schema with a reader schema.
//
// Data is always encoded with some writer schema; a consumer may want it in the
// shape of a different, compatible reader schema. Resolve walks both schemas once
// and produces a Resolved plan that a decoder follows record after record:
//
//   - primitives are read as written and promoted when the reader is wider
//     (int to long, float or double; long to float or double; float to double;
//     string and bytes interchangeably)
//   - record fields are matched by name or alias; writer-only fields are skipped
//     and reader-only fields take their declared default
//   - enum symbols map by name, falling back to the reader's default symbol
//   - unions resolve branch by branch; a writer branch the reader cannot accept
//     fails only when a record actually uses it
//
// Cache shares plans across goroutines for callers that see the same schema pairs
// repeatedly.
package resolve
