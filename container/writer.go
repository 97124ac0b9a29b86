package container

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/arloliu/avrokit/codec"
	"github.com/arloliu/avrokit/compress"
	"github.com/arloliu/avrokit/encoding"
	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/internal/pool"
	"github.com/arloliu/avrokit/schema"
	"github.com/arloliu/avrokit/value"
)

// Writer frames encoded records into container blocks.
//
// The header is written by NewWriter. Records are buffered until the block size
// or record cap is reached, then compressed and written as one block followed by
// the sync marker. Close flushes the last block; it does not close the
// underlying io.Writer.
//
// Note: Writer is NOT thread-safe.
type Writer struct {
	w      io.Writer
	cfg    *config
	header *Header
	codec  compress.Codec

	buf    *pool.ByteBuffer
	frame  []byte
	count  int64
	blocks int
	closed bool
}

// NewWriter writes the header for schema s to w and returns a Writer for its
// records.
func NewWriter(w io.Writer, s *schema.Schema, opts ...Option) (*Writer, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	c, ok := cfg.registry.Lookup(cfg.codec)
	if !ok {
		return nil, headerErr(errs.UnknownCodec, nil, "codec %q is not registered", cfg.codec)
	}

	sync := cfg.sync
	if sync == nil {
		m, err := NewSyncMarker()
		if err != nil {
			return nil, err
		}
		sync = &m
	}

	meta := make(map[string][]byte, len(cfg.meta)+2)
	for k, v := range cfg.meta {
		meta[k] = v
	}
	meta[MetaSchema] = []byte(s.String())
	meta[MetaCodec] = []byte(cfg.codec)

	h := &Header{Schema: s, Codec: cfg.codec, Meta: meta, Sync: *sync}
	if _, err := w.Write(h.Bytes()); err != nil {
		return nil, fmt.Errorf("write container header: %w", err)
	}

	return &Writer{
		w:      w,
		cfg:    cfg,
		header: h,
		codec:  c,
		buf:    pool.GetBlockBuffer(),
		frame:  make([]byte, 0, 20),
	}, nil
}

// Header returns the written header.
func (w *Writer) Header() *Header { return w.header }

// Append encodes v and adds it to the current block. A value that fails to
// encode leaves the block unchanged.
func (w *Writer) Append(v value.Value) error {
	if w.closed {
		return &errs.ContainerError{Kind: errs.WriterClosed, Block: -1}
	}

	b, err := codec.AppendEncode(w.buf.B, w.header.Schema, v)
	if err != nil {
		return err
	}
	w.buf.B = b
	w.count++

	if w.buf.Len() >= w.cfg.blockSize || (w.cfg.blockRecords > 0 && w.count >= int64(w.cfg.blockRecords)) {
		return w.Flush()
	}

	return nil
}

// AppendAll appends every value in vs, stopping at the first error.
func (w *Writer) AppendAll(vs ...value.Value) error {
	for _, v := range vs {
		if err := w.Append(v); err != nil {
			return err
		}
	}

	return nil
}

// Flush writes the buffered records as one block. It is a no-op when nothing is
// buffered.
func (w *Writer) Flush() error {
	if w.closed {
		return &errs.ContainerError{Kind: errs.WriterClosed, Block: -1}
	}
	if w.count == 0 {
		return nil
	}

	raw := w.buf.Bytes()
	payload, err := w.codec.Compress(raw)
	if err != nil {
		return &errs.ContainerError{Kind: errs.CompressionFailed, Block: w.blocks, Msg: w.header.Codec, Err: err}
	}

	w.frame = encoding.AppendLong(w.frame[:0], w.count)
	w.frame = encoding.AppendLong(w.frame, int64(len(payload)))
	for _, part := range [][]byte{w.frame, payload, w.header.Sync[:]} {
		if _, err := w.w.Write(part); err != nil {
			return fmt.Errorf("write block %d: %w", w.blocks, err)
		}
	}

	w.cfg.logger.Debug("flushed container block",
		zap.Int("block", w.blocks),
		zap.Int64("records", w.count),
		zap.Int("raw_bytes", len(raw)),
		zap.Int("compressed_bytes", len(payload)),
		zap.String("codec", w.header.Codec),
	)
	w.cfg.metrics.block(directionWrite, w.header.Codec, w.count, len(payload), len(raw))

	w.blocks++
	w.count = 0
	w.buf.Reset()

	return nil
}

// Blocks returns the number of blocks written so far.
func (w *Writer) Blocks() int { return w.blocks }

// Close flushes pending records. Further calls to Append or Flush fail with a
// WriterClosed error; closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	err := w.Flush()
	w.closed = true
	pool.PutBlockBuffer(w.buf)
	w.buf = nil

	return err
}
