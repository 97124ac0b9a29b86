// Package container reads and writes object container files: a header holding
// the writer schema, the codec name and a random 16-byte sync marker, followed by
// blocks of encoded records.
//
// File layout:
//
//	magic "Obj\x01"
//	metadata map (avro.schema, avro.codec, user entries)
//	sync marker (16 bytes)
//	repeated: record count (long), payload size (long), payload, sync marker
//
// Writing:
//
//	w, err := container.NewWriter(f, s, container.WithCodec(compress.Deflate))
//	err = w.Append(v)
//	err = w.Close()
//
// Reading, optionally resolved against a reader schema:
//
//	r, err := container.NewReader(f, container.WithReaderSchema(readerSchema))
//	for {
//		v, err := r.Next()
//		if errors.Is(err, io.EOF) {
//			break
//		}
//		...
//	}
//
// Every block must end with the header's sync marker; a mismatch stops the
// reader with a SyncMismatch error. Reader.NextBlock exposes block boundaries so
// a caller can give up on a block holding a corrupt record and continue with the
// next one.
package container
