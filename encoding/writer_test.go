package encoding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZigzag(t *testing.T) {
	tests := []struct {
		n int64
		u uint64
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{-2, 3},
		{2, 4},
		{math.MaxInt32, 0xfffffffe},
		{math.MinInt32, 0xffffffff},
		{math.MaxInt64, math.MaxUint64 - 1},
		{math.MinInt64, math.MaxUint64},
	}
	for _, tt := range tests {
		require.Equal(t, tt.u, Zigzag(tt.n), "zigzag(%d)", tt.n)
		require.Equal(t, tt.n, Unzigzag(tt.u), "unzigzag(%d)", tt.u)
	}
}

func TestAppendLong(t *testing.T) {
	tests := []struct {
		n    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x01}},
		{1, []byte{0x02}},
		{-64, []byte{0x7f}},
		{64, []byte{0x80, 0x01}},
		{8192, []byte{0x80, 0x80, 0x01}},
		{math.MinInt64, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
	}
	for _, tt := range tests {
		got := AppendLong(nil, tt.n)
		require.Equal(t, tt.want, got, "long %d", tt.n)
		require.Equal(t, len(tt.want), VarintLen(tt.n))
	}
}

func TestAppendPrimitives(t *testing.T) {
	var buf []byte
	buf = AppendBool(buf, true)
	buf = AppendBool(buf, false)
	buf = AppendInt(buf, -3)
	buf = AppendFloat(buf, 1.0)
	buf = AppendDouble(buf, -2.0)
	buf = AppendString(buf, "hé")
	buf = AppendBytes(buf, []byte{0xde, 0xad})

	want := []byte{
		0x01, 0x00,
		0x05,
		0x00, 0x00, 0x80, 0x3f,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xc0,
		0x06, 'h', 0xc3, 0xa9,
		0x04, 0xde, 0xad,
	}
	require.Equal(t, want, buf)
}

func TestWriter(t *testing.T) {
	w := NewWriter()
	defer w.Release()

	w.WriteLong(150)
	w.WriteInt(-1)
	w.WriteBool(true)
	w.WriteString("abc")
	w.WriteBytes(nil)
	w.WriteRaw([]byte{0xaa, 0xbb})
	w.WriteFloat(0)
	w.WriteDouble(0)

	require.Equal(t, 2+1+1+4+1+2+4+8, w.Len())
	require.Equal(t, []byte{0xac, 0x02, 0x01, 0x01, 0x06, 'a', 'b', 'c', 0x00, 0xaa, 0xbb}, w.Bytes()[:11])

	w.Reset()
	require.Zero(t, w.Len())
	w.WriteLong(1)
	require.Equal(t, []byte{0x02}, w.Bytes())
}

func TestBlockWriter_Release(t *testing.T) {
	w := NewBlockWriter()
	w.WriteRaw(make([]byte, 1024))
	require.Equal(t, 1024, w.Buffer().Len())

	w.Release()
	require.NotPanics(t, w.Release, "second release is a no-op")
}
