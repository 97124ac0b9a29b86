package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arloliu/avrokit/compress"
	"github.com/arloliu/avrokit/encoding"
	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/schema"
)

// Header layout constants.
const (
	MagicSize = 4
	SyncSize  = 16

	// MetaSchema and MetaCodec are the reserved metadata keys holding the writer
	// schema text and the codec name.
	MetaSchema = "avro.schema"
	MetaCodec  = "avro.codec"

	reservedPrefix = "avro."
)

// Magic opens every container file.
var Magic = [MagicSize]byte{'O', 'b', 'j', 1}

// SyncMarker terminates every block of a file.
type SyncMarker [SyncSize]byte

// NewSyncMarker returns a random sync marker.
func NewSyncMarker() (SyncMarker, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return SyncMarker{}, fmt.Errorf("generate sync marker: %w", err)
	}

	return SyncMarker(id), nil
}

// Header is the self-describing file header: magic, metadata and sync marker.
type Header struct {
	// Schema is the writer schema parsed from the avro.schema entry.
	Schema *schema.Schema
	// Codec is the avro.codec entry, "null" when absent.
	Codec string
	// Meta holds every metadata entry, reserved ones included.
	Meta map[string][]byte
	Sync SyncMarker
}

// Bytes serializes the header. Metadata is written as one map block with keys in
// sorted order.
func (h *Header) Bytes() []byte {
	keys := make([]string, 0, len(h.Meta))
	for k := range h.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := make([]byte, 0, 256)
	b = append(b, Magic[:]...)
	if len(keys) > 0 {
		b = encoding.AppendLong(b, int64(len(keys)))
		for _, k := range keys {
			b = encoding.AppendString(b, k)
			b = encoding.AppendBytes(b, h.Meta[k])
		}
	}
	b = encoding.AppendLong(b, 0)

	return append(b, h.Sync[:]...)
}

// Metadata returns the user metadata entries, skipping reserved avro.* keys.
func (h *Header) Metadata() map[string][]byte {
	out := make(map[string][]byte)
	for k, v := range h.Meta {
		if !strings.HasPrefix(k, reservedPrefix) {
			out[k] = v
		}
	}

	return out
}

func headerErr(kind errs.ContainerErrorKind, err error, format string, args ...any) *errs.ContainerError {
	return &errs.ContainerError{Kind: kind, Block: -1, Msg: fmt.Sprintf(format, args...), Err: err}
}

// readHeader reads and validates the header, resolving the codec in reg.
func readHeader(br *byteReader, reg *compress.Registry, logger *zap.Logger) (*Header, compress.Codec, error) {
	var magic [MagicSize]byte
	if err := br.readFull(magic[:]); err != nil {
		return nil, nil, headerErr(errs.Truncated, err, "reading magic")
	}
	if magic != Magic {
		return nil, nil, headerErr(errs.InvalidMagic, nil, "got %q", magic[:])
	}

	meta, err := readMeta(br)
	if err != nil {
		return nil, nil, err
	}

	h := &Header{Meta: meta, Codec: compress.Null}
	if err := br.readFull(h.Sync[:]); err != nil {
		return nil, nil, headerErr(errs.Truncated, err, "reading sync marker")
	}

	text, ok := meta[MetaSchema]
	if !ok {
		return nil, nil, headerErr(errs.InvalidHeader, nil, "missing %s", MetaSchema)
	}
	h.Schema, err = schema.Parse(string(text), schema.WithLogger(logger))
	if err != nil {
		return nil, nil, headerErr(errs.InvalidHeader, err, "invalid writer schema")
	}

	if name, ok := meta[MetaCodec]; ok && len(name) > 0 {
		h.Codec = string(name)
	}
	c, ok := reg.Lookup(h.Codec)
	if !ok {
		return nil, nil, headerErr(errs.UnknownCodec, nil, "codec %q is not registered", h.Codec)
	}

	return h, c, nil
}

// readMeta reads the metadata map. Blocks with a negative count carry a byte
// size, which is read and ignored.
func readMeta(br *byteReader) (map[string][]byte, error) {
	meta := make(map[string][]byte)
	for {
		count, err := br.readLong()
		if err != nil {
			return nil, metaErr(err)
		}
		if count == 0 {
			return meta, nil
		}
		if count < 0 {
			count = -count
			if _, err := br.readLong(); err != nil {
				return nil, metaErr(err)
			}
		}
		for range count {
			key, err := br.readBytes()
			if err != nil {
				return nil, metaErr(err)
			}
			val, err := br.readBytes()
			if err != nil {
				return nil, metaErr(err)
			}
			meta[string(key)] = bytes.Clone(val)
		}
	}
}

func metaErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return headerErr(errs.Truncated, err, "reading metadata")
	}

	return headerErr(errs.InvalidHeader, err, "reading metadata")
}
