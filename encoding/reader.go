package encoding

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/arloliu/avrokit/errs"
)

// Reader decodes wire primitives from a byte slice and tracks the current offset
// so failures can report where they were detected.
//
// Note: Reader is NOT thread-safe.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Done reports whether all bytes have been consumed.
func (r *Reader) Done() bool { return r.pos >= len(r.buf) }

// Reset repositions the reader over a new buffer.
func (r *Reader) Reset(buf []byte) {
	r.buf = buf
	r.pos = 0
}

// Errorf builds a DecodeError at the current offset.
func (r *Reader) Errorf(kind errs.DecodeErrorKind, format string, args ...any) *errs.DecodeError {
	return &errs.DecodeError{Kind: kind, Offset: int64(r.pos), Msg: fmt.Sprintf(format, args...)}
}

// eof reports running out of input. The offset is the end of the buffer, where
// the missing byte would have been.
func (r *Reader) eof(need int) *errs.DecodeError {
	e := r.Errorf(errs.UnexpectedEOF, "need %d bytes, %d remaining", need, r.Remaining())
	e.Offset = int64(len(r.buf))

	return e
}

// ReadLong reads a zigzag varint long.
func (r *Reader) ReadLong() (int64, error) {
	var u uint64
	var shift uint
	start := r.pos
	for i := 0; i < MaxVarintLen; i++ {
		if r.pos >= len(r.buf) {
			r.pos = start
			return 0, r.eof(1)
		}
		b := r.buf[r.pos]
		r.pos++
		if i == MaxVarintLen-1 && b > 1 {
			r.pos = start
			return 0, r.Errorf(errs.VarintOverflow, "varint exceeds 64 bits")
		}
		u |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return Unzigzag(u), nil
		}
		shift += 7
	}
	r.pos = start

	return 0, r.Errorf(errs.VarintOverflow, "varint exceeds 64 bits")
}

// ReadInt reads a zigzag varint and checks that it fits in 32 bits.
func (r *Reader) ReadInt() (int32, error) {
	start := r.pos
	n, err := r.ReadLong()
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		r.pos = start
		return 0, r.Errorf(errs.VarintOverflow, "value %d overflows int", n)
	}

	return int32(n), nil
}

// ReadBool reads a single 0 or 1 byte.
func (r *Reader) ReadBool() (bool, error) {
	if r.pos >= len(r.buf) {
		return false, r.eof(1)
	}
	switch r.buf[r.pos] {
	case 0:
		r.pos++
		return false, nil
	case 1:
		r.pos++
		return true, nil
	default:
		return false, r.Errorf(errs.InvalidBool, "byte 0x%02x is not a boolean", r.buf[r.pos])
	}
}

// ReadFloat reads 4 little-endian IEEE-754 bytes.
func (r *Reader) ReadFloat() (float32, error) {
	if r.Remaining() < 4 {
		return 0, r.eof(4)
	}
	bits := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4

	return math.Float32frombits(bits), nil
}

// ReadDouble reads 8 little-endian IEEE-754 bytes.
func (r *Reader) ReadDouble() (float64, error) {
	if r.Remaining() < 8 {
		return 0, r.eof(8)
	}
	bits := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8

	return math.Float64frombits(bits), nil
}

// ReadLength reads a long length prefix and validates it against the remaining input.
func (r *Reader) ReadLength() (int, error) {
	start := r.pos
	n, err := r.ReadLong()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		r.pos = start
		return 0, r.Errorf(errs.NegativeLength, "length %d", n)
	}
	if n > int64(r.Remaining()) {
		return 0, r.eof(int(min(n, math.MaxInt32)))
	}

	return int(n), nil
}

// ReadBytes reads a length-prefixed byte sequence. The result is a copy.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n

	return out, nil
}

// ReadString reads a length-prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	start := r.pos
	n, err := r.ReadLength()
	if err != nil {
		return "", err
	}
	raw := r.buf[r.pos : r.pos+n]
	if !utf8.Valid(raw) {
		r.pos = start
		return "", r.Errorf(errs.InvalidUTF8, "string of %d bytes", n)
	}
	r.pos += n

	return string(raw), nil
}

// ReadFixed reads exactly n raw bytes. The result is a copy.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, r.eof(n)
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n

	return out, nil
}

// Skip advances past n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return r.Errorf(errs.NegativeLength, "skip %d", n)
	}
	if r.Remaining() < n {
		return r.eof(n)
	}
	r.pos += n

	return nil
}

// SkipBytes advances past a length-prefixed byte sequence or string.
func (r *Reader) SkipBytes() error {
	n, err := r.ReadLength()
	if err != nil {
		return err
	}
	r.pos += n

	return nil
}

// ReadBlockCount reads the item count of an array or map block. A negative count
// is followed by the block's byte size; both are returned with the count made
// positive. size is -1 when the block carried no size hint.
func (r *Reader) ReadBlockCount() (count int64, size int64, err error) {
	start := r.pos
	count, err = r.ReadLong()
	if err != nil {
		return 0, 0, err
	}
	if count >= 0 {
		return count, -1, nil
	}
	if count == math.MinInt64 {
		r.pos = start
		return 0, 0, r.Errorf(errs.NegativeLength, "block count overflows")
	}
	count = -count
	size, err = r.ReadLong()
	if err != nil {
		return 0, 0, err
	}
	if size < 0 {
		return 0, 0, r.Errorf(errs.NegativeLength, "block size %d", size)
	}

	return count, size, nil
}
