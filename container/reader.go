package container

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/arloliu/avrokit/codec"
	"github.com/arloliu/avrokit/compress"
	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/resolve"
	"github.com/arloliu/avrokit/schema"
	"github.com/arloliu/avrokit/value"
)

type readerState uint8

const (
	stateHeaderRead readerState = iota + 1
	stateStreaming
	stateExhausted
	stateFailed
)

// BlockInfo describes one block of a container file.
type BlockInfo struct {
	// Index is the zero-based position of the block in the file.
	Index int
	// Offset is the stream position of the block's record count.
	Offset int64
	// Records is the record count declared by the block.
	Records int64
	// Size is the stored payload size, RawSize the size after decompression.
	Size    int
	RawSize int
}

// Reader reads records from a container file one block at a time.
//
// Framing failures (truncation, a sync marker that does not match the header,
// a corrupt block length) are fatal: every later call returns the same error.
// Failures confined to one block (the codec rejects the payload or a record
// does not decode) abandon only that block; Next keeps returning the error
// until the caller moves on with NextBlock.
//
// Note: Reader is NOT thread-safe.
type Reader struct {
	br     *byteReader
	cfg    *config
	header *Header
	codec  compress.Codec
	res    *resolve.Resolved
	dec    *codec.Decoder

	state     readerState
	block     BlockInfo
	blocks    int
	remaining int64
	err       error
	blockErr  error
}

// NewReader reads the header from r. It fails with InvalidMagic if r is not a
// container file and with UnknownCodec if the header names a codec missing from
// the registry.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	br := newByteReader(r)
	h, c, err := readHeader(br, cfg.registry, cfg.logger)
	if err != nil {
		return nil, err
	}

	rd := &Reader{br: br, cfg: cfg, header: h, codec: c, state: stateHeaderRead}
	if cfg.readerSchema != nil {
		if cfg.cache != nil {
			rd.res, err = cfg.cache.Resolve(h.Schema, cfg.readerSchema)
		} else {
			rd.res, err = resolve.Resolve(h.Schema, cfg.readerSchema)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve reader schema: %w", err)
		}
		rd.dec, err = codec.NewResolvedDecoder(rd.res, nil)
	} else {
		rd.dec, err = codec.NewDecoder(h.Schema, nil)
	}
	if err != nil {
		return nil, err
	}

	return rd, nil
}

// Header returns the parsed file header.
func (r *Reader) Header() *Header { return r.header }

// Schema returns the writer schema stored in the header.
func (r *Reader) Schema() *schema.Schema { return r.header.Schema }

// Resolved returns the resolution plan in use, or nil when records are returned
// in the writer schema.
func (r *Reader) Resolved() *resolve.Resolved { return r.res }

// Err returns the fatal error that stopped the reader, if any. Errors confined
// to one block are not reported here.
func (r *Reader) Err() error { return r.err }

// Block returns the current block. It is the zero value before the first block.
func (r *Reader) Block() BlockInfo { return r.block }

// Next returns the next record, moving to the next block as needed. It returns
// io.EOF once the file is exhausted.
func (r *Reader) Next() (value.Value, error) {
	for {
		if r.err != nil {
			return value.Value{}, r.err
		}
		if r.blockErr != nil {
			return value.Value{}, r.blockErr
		}
		if r.state == stateExhausted {
			return value.Value{}, io.EOF
		}

		if r.state == stateStreaming && r.remaining > 0 {
			v, err := r.dec.Next()
			if err != nil {
				r.cfg.metrics.decodeError(r.header.Codec)
				r.blockErr = fmt.Errorf("block %d record %d: %w", r.block.Index, r.block.Records-r.remaining, err)
				r.remaining = 0

				return value.Value{}, r.blockErr
			}
			r.remaining--
			r.cfg.metrics.recordRead(r.header.Codec)

			return v, nil
		}

		if r.state == stateStreaming && r.dec.More() {
			r.blockErr = &errs.DecodeError{
				Kind:   errs.TrailingBytes,
				Offset: int64(r.dec.Offset()),
				Msg:    fmt.Sprintf("block %d holds bytes past its %d records", r.block.Index, r.block.Records),
			}

			return value.Value{}, r.blockErr
		}

		if _, err := r.NextBlock(); err != nil {
			return value.Value{}, err
		}
	}
}

// NextBlock abandons whatever remains of the current block and reads the next
// one. Records of the new block are then returned by Next. It returns io.EOF at
// the end of the file.
func (r *Reader) NextBlock() (BlockInfo, error) {
	if r.err != nil {
		return BlockInfo{}, r.err
	}
	if r.state == stateExhausted {
		return BlockInfo{}, io.EOF
	}
	r.blockErr = nil
	r.remaining = 0

	info := BlockInfo{Index: r.blocks, Offset: r.br.off}
	count, err := r.br.readLong()
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.state = stateExhausted
			return BlockInfo{}, io.EOF
		}

		return BlockInfo{}, r.fail(r.framingErr(info.Index, err, "reading record count"))
	}
	if count < 0 {
		return BlockInfo{}, r.fail(&errs.ContainerError{Kind: errs.InvalidBlock, Block: info.Index, Msg: fmt.Sprintf("negative record count %d", count)})
	}

	size, err := r.br.readLong()
	if err != nil {
		return BlockInfo{}, r.fail(r.framingErr(info.Index, eofIsUnexpected(err), "reading block size"))
	}
	if size < 0 || size > r.cfg.maxBlockBytes {
		return BlockInfo{}, r.fail(&errs.ContainerError{Kind: errs.InvalidBlock, Block: info.Index, Msg: fmt.Sprintf("block size %d out of range", size)})
	}

	payload := make([]byte, size)
	if err := r.br.readFull(payload); err != nil {
		return BlockInfo{}, r.fail(r.framingErr(info.Index, eofIsUnexpected(err), "reading block payload"))
	}

	var sync SyncMarker
	if err := r.br.readFull(sync[:]); err != nil {
		return BlockInfo{}, r.fail(r.framingErr(info.Index, eofIsUnexpected(err), "reading sync marker"))
	}
	if sync != r.header.Sync {
		r.cfg.metrics.syncMismatch(r.header.Codec)
		r.cfg.logger.Warn("container sync marker mismatch",
			zap.Int("block", info.Index),
			zap.Int64("offset", info.Offset),
		)

		return BlockInfo{}, r.fail(&errs.ContainerError{Kind: errs.SyncMismatch, Block: info.Index, Msg: fmt.Sprintf("got %x, want %x", sync[:], r.header.Sync[:])})
	}

	r.blocks++
	r.state = stateStreaming
	info.Records = count
	info.Size = len(payload)
	r.block = info

	raw, err := r.codec.Decompress(payload)
	if err != nil {
		r.dec.Reset(nil)
		r.blockErr = &errs.ContainerError{Kind: errs.CompressionFailed, Block: info.Index, Msg: r.header.Codec, Err: err}

		return info, r.blockErr
	}
	info.RawSize = len(raw)
	r.block = info
	r.dec.Reset(raw)
	r.remaining = count

	r.cfg.logger.Debug("read container block",
		zap.Int("block", info.Index),
		zap.Int64("records", count),
		zap.Int("compressed_bytes", info.Size),
		zap.Int("raw_bytes", info.RawSize),
		zap.String("codec", r.header.Codec),
	)
	r.cfg.metrics.block(directionRead, r.header.Codec, count, info.Size, info.RawSize)

	return info, nil
}

// ReadAll returns every remaining record.
func (r *Reader) ReadAll() ([]value.Value, error) {
	var out []value.Value
	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

func (r *Reader) fail(err error) error {
	r.err = err
	r.state = stateFailed

	return err
}

func (r *Reader) framingErr(block int, err error, msg string) error {
	kind := errs.InvalidBlock
	if errors.Is(err, io.ErrUnexpectedEOF) {
		kind = errs.Truncated
	}

	return &errs.ContainerError{Kind: kind, Block: block, Msg: msg, Err: err}
}

func eofIsUnexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}

	return err
}
