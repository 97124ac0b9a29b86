package encoding

import (
	"encoding/binary"
	"math"

	"github.com/arloliu/avrokit/internal/pool"
)

// MaxVarintLen is the maximum encoded length of a zigzag varint long.
const MaxVarintLen = 10

// Zigzag maps a signed integer onto an unsigned one so small magnitudes stay small:
// 0 → 0, -1 → 1, 1 → 2, -2 → 3, ...
func Zigzag(n int64) uint64 {
	return uint64(n<<1) ^ uint64(n>>63) //nolint:gosec
}

// Unzigzag is the inverse of Zigzag.
func Unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1) //nolint:gosec
}

// VarintLen returns the number of bytes AppendLong writes for n.
func VarintLen(n int64) int {
	u := Zigzag(n)
	size := 1
	for u >= 0x80 {
		u >>= 7
		size++
	}

	return size
}

// AppendLong appends n as a zigzag varint.
func AppendLong(dst []byte, n int64) []byte {
	u := Zigzag(n)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}

	return append(dst, byte(u))
}

// AppendInt appends n as a zigzag varint. Ints and longs share one wire form.
func AppendInt(dst []byte, n int32) []byte {
	return AppendLong(dst, int64(n))
}

// AppendBool appends a single 0 or 1 byte.
func AppendBool(dst []byte, b bool) []byte {
	if b {
		return append(dst, 1)
	}

	return append(dst, 0)
}

// AppendFloat appends f as 4 little-endian IEEE-754 bytes.
func AppendFloat(dst []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
}

// AppendDouble appends f as 8 little-endian IEEE-754 bytes.
func AppendDouble(dst []byte, f float64) []byte {
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(f))
}

// AppendBytes appends b with a long length prefix.
func AppendBytes(dst []byte, b []byte) []byte {
	dst = AppendLong(dst, int64(len(b)))
	return append(dst, b...)
}

// AppendString appends s with a long length prefix.
func AppendString(dst []byte, s string) []byte {
	dst = AppendLong(dst, int64(len(s)))
	return append(dst, s...)
}

// Writer accumulates wire-encoded data in a pooled buffer.
//
// Note: Writer is NOT thread-safe. Call Release when done so the buffer returns
// to its pool; the slice from Bytes is invalid afterwards.
type Writer struct {
	buf  *pool.ByteBuffer
	pool func(*pool.ByteBuffer)
}

// NewWriter creates a Writer backed by a record-sized pooled buffer.
func NewWriter() *Writer {
	return &Writer{buf: pool.GetRecordBuffer(), pool: pool.PutRecordBuffer}
}

// NewBlockWriter creates a Writer backed by a block-sized pooled buffer.
func NewBlockWriter() *Writer {
	return &Writer{buf: pool.GetBlockBuffer(), pool: pool.PutBlockBuffer}
}

// WriteLong writes n as a zigzag varint.
func (w *Writer) WriteLong(n int64) { w.buf.B = AppendLong(w.buf.B, n) }

// WriteInt writes n as a zigzag varint.
func (w *Writer) WriteInt(n int32) { w.buf.B = AppendInt(w.buf.B, n) }

// WriteBool writes a boolean byte.
func (w *Writer) WriteBool(b bool) { w.buf.B = AppendBool(w.buf.B, b) }

// WriteFloat writes 4 little-endian bytes.
func (w *Writer) WriteFloat(f float32) { w.buf.B = AppendFloat(w.buf.B, f) }

// WriteDouble writes 8 little-endian bytes.
func (w *Writer) WriteDouble(f float64) { w.buf.B = AppendDouble(w.buf.B, f) }

// WriteBytes writes a length-prefixed byte sequence.
func (w *Writer) WriteBytes(b []byte) {
	w.buf.Grow(MaxVarintLen + len(b))
	w.buf.B = AppendBytes(w.buf.B, b)
}

// WriteString writes a length-prefixed string.
func (w *Writer) WriteString(s string) {
	w.buf.Grow(MaxVarintLen + len(s))
	w.buf.B = AppendString(w.buf.B, s)
}

// WriteRaw writes b without a length prefix.
func (w *Writer) WriteRaw(b []byte) {
	w.buf.Grow(len(b))
	w.buf.B = append(w.buf.B, b...)
}

// Bytes returns the encoded data. The slice shares the writer's buffer.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Len returns the number of encoded bytes.
func (w *Writer) Len() int { return w.buf.Len() }

// Reset discards the encoded data but keeps the buffer.
func (w *Writer) Reset() { w.buf.Reset() }

// Buffer exposes the underlying buffer for append-style encoders.
func (w *Writer) Buffer() *pool.ByteBuffer { return w.buf }

// Release returns the buffer to its pool. The Writer must not be used afterwards.
func (w *Writer) Release() {
	if w.buf != nil {
		w.pool(w.buf)
		w.buf = nil
	}
}
