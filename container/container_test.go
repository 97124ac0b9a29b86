package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arloliu/avrokit/compress"
	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/resolve"
	"github.com/arloliu/avrokit/schema"
	"github.com/arloliu/avrokit/value"
)

const pointSchema = `{"type": "record", "name": "Point", "namespace": "geo", "fields": [
	{"name": "id", "type": "int"},
	{"name": "label", "type": "string"},
	{"name": "tags", "type": {"type": "array", "items": "int"}}
]}`

const pointLongSchema = `{"type": "record", "name": "Point", "namespace": "geo", "fields": [
	{"name": "id", "type": "long"},
	{"name": "label", "type": "string"},
	{"name": "tags", "type": {"type": "array", "items": "long"}},
	{"name": "source", "type": "string", "default": "legacy"}
]}`

var testSync = SyncMarker{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

func point(i int) value.Value {
	return value.Record(
		value.F("id", value.Int(int32(i))),
		value.F("label", value.String(fmt.Sprintf("p%d", i))),
		value.F("tags", value.Array(value.Int(int32(i)), value.Int(int32(-i)))),
	)
}

func writeFile(t *testing.T, n int, opts ...Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, schema.MustParse(pointSchema), opts...)
	require.NoError(t, err)
	for i := range n {
		require.NoError(t, w.Append(point(i)))
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func readAll(t *testing.T, data []byte, opts ...Option) []value.Value {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data), opts...)
	require.NoError(t, err)
	vs, err := r.ReadAll()
	require.NoError(t, err)

	return vs
}

func TestRoundTrip_PromotesIntToLongAcrossBlocks(t *testing.T) {
	const n = 35
	data := writeFile(t, n, WithBlockRecords(10), WithSyncMarker(testSync))

	r, err := NewReader(bytes.NewReader(data), WithReaderSchema(schema.MustParse(pointLongSchema)))
	require.NoError(t, err)
	require.Equal(t, testSync, r.Header().Sync)

	var got []value.Value
	blocks := map[int]bool{}
	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		blocks[r.Block().Index] = true
		got = append(got, v)
	}

	require.Len(t, got, n)
	require.Len(t, blocks, 4)
	for i, v := range got {
		require.Equal(t, value.KindLong, v.Field("id").Kind())
		require.Equal(t, int64(i), v.Field("id").Int64())
		require.Equal(t, fmt.Sprintf("p%d", i), v.Field("label").Str())
		require.Equal(t, value.KindLong, v.Field("tags").Items()[1].Kind())
		require.Equal(t, int64(-i), v.Field("tags").Items()[1].Int64())
		require.Equal(t, "legacy", v.Field("source").Str())
	}

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestRoundTrip_AllCodecs(t *testing.T) {
	for _, name := range compress.Default().Names() {
		t.Run(name, func(t *testing.T) {
			data := writeFile(t, 200, WithCodec(name), WithBlockSize(512))

			r, err := NewReader(bytes.NewReader(data))
			require.NoError(t, err)
			require.Equal(t, name, r.Header().Codec)

			vs, err := r.ReadAll()
			require.NoError(t, err)
			require.Len(t, vs, 200)
			for i, v := range vs {
				require.True(t, value.Equal(point(i), v), "record %d: %s", i, v)
			}
		})
	}
}

func TestWriter_BlockSizeThreshold(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, schema.MustParse(`"long"`), WithBlockSize(8))
	require.NoError(t, err)

	// Each long below encodes to one byte, so every eighth record fills a block.
	for i := range 20 {
		require.NoError(t, w.Append(value.Long(int64(i))))
	}
	require.Equal(t, 2, w.Blocks())
	require.NoError(t, w.Close())
	require.Equal(t, 3, w.Blocks())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	var sizes []int64
	for {
		info, err := r.NextBlock()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		sizes = append(sizes, info.Records)
	}
	require.Equal(t, []int64{8, 8, 4}, sizes)
}

func TestWriter_EmptyFile(t *testing.T) {
	data := writeFile(t, 0)
	require.Empty(t, readAll(t, data))
}

func TestWriter_EncodeErrorLeavesBlockIntact(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, schema.MustParse(pointSchema))
	require.NoError(t, err)

	require.NoError(t, w.Append(point(1)))
	err = w.Append(value.Record(value.F("id", value.String("x"))))
	var encErr *errs.EncodeError
	require.ErrorAs(t, err, &encErr)
	require.NoError(t, w.Append(point(2)))
	require.NoError(t, w.Close())

	vs := readAll(t, buf.Bytes())
	require.Len(t, vs, 2)
	require.True(t, value.Equal(point(2), vs[1]))
}

func TestWriter_Closed(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, schema.MustParse(`"int"`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	require.ErrorIs(t, w.Append(value.Int(1)), errs.ErrWriterClosed)
	require.ErrorIs(t, w.Flush(), errs.ErrWriterClosed)
}

func TestWriter_Options(t *testing.T) {
	s := schema.MustParse(`"int"`)

	_, err := NewWriter(io.Discard, s, WithCodec("bzip2"))
	require.ErrorIs(t, err, errs.ErrUnknownCodec)

	_, err = NewWriter(io.Discard, s, WithMetadata("avro.codec", []byte("x")))
	require.Error(t, err)

	_, err = NewWriter(io.Discard, s, WithBlockSize(0))
	require.Error(t, err)

	_, err = NewWriter(io.Discard, s, WithBlockRecords(-1))
	require.Error(t, err)

	_, err = NewWriter(io.Discard, s, WithRegistry(nil))
	require.Error(t, err)
}

func TestHeader_Metadata(t *testing.T) {
	data := writeFile(t, 1, WithMetadata("producer", []byte("ingest-7")), WithCodec(compress.Snappy))

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	h := r.Header()
	require.Equal(t, map[string][]byte{"producer": []byte("ingest-7")}, h.Metadata())
	require.Equal(t, []byte(compress.Snappy), h.Meta[MetaCodec])
	require.True(t, schema.Equal(schema.MustParse(pointSchema), r.Schema()))
	require.Equal(t, data[:len(h.Bytes())], h.Bytes())
}

func TestReader_InvalidMagic(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("PAR1 not a container")))
	require.ErrorIs(t, err, errs.ErrInvalidMagic)

	_, err = NewReader(bytes.NewReader([]byte("Ob")))
	require.ErrorIs(t, err, errs.ErrTruncated)
}

func TestReader_UnknownCodec(t *testing.T) {
	reg := compress.NewRegistry()
	require.NoError(t, reg.Register("custom", compress.NewNoOpCompressor()))
	data := writeFile(t, 3, WithRegistry(reg), WithCodec("custom"))

	_, err := NewReader(bytes.NewReader(data))
	require.ErrorIs(t, err, errs.ErrUnknownCodec)
	require.ErrorContains(t, err, `"custom"`)

	require.Len(t, readAll(t, data, WithRegistry(reg)), 3)
}

func TestReader_MissingCodecMeansNull(t *testing.T) {
	h := &Header{Meta: map[string][]byte{MetaSchema: []byte(`"int"`)}, Sync: testSync}
	data := h.Bytes()
	data = append(data, 0x02, 0x02, 0x54)
	data = append(data, testSync[:]...)

	vs := readAll(t, data)
	require.Len(t, vs, 1)
	require.Equal(t, int32(42), vs[0].Int32())
}

func TestReader_MissingSchema(t *testing.T) {
	h := &Header{Meta: map[string][]byte{MetaCodec: []byte("null")}, Sync: testSync}
	_, err := NewReader(bytes.NewReader(h.Bytes()))
	require.ErrorIs(t, err, errs.ErrInvalidHeader)
}

func TestReader_SyncMismatchIsFatal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")
	core, logs := observer.New(zapcore.WarnLevel)

	data := writeFile(t, 4, WithBlockRecords(2), WithSyncMarker(testSync))
	// Corrupt the sync marker that ends the second block: the last 16 bytes.
	data[len(data)-1] ^= 0xff

	r, err := NewReader(bytes.NewReader(data), WithMetrics(m), WithLogger(zap.New(core)))
	require.NoError(t, err)

	for range 2 {
		_, err := r.Next()
		require.NoError(t, err)
	}
	_, err = r.Next()
	require.ErrorIs(t, err, errs.ErrSyncMismatch)

	var cerr *errs.ContainerError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, 1, cerr.Block)

	_, err = r.Next()
	require.ErrorIs(t, err, errs.ErrSyncMismatch)
	_, err = r.NextBlock()
	require.ErrorIs(t, err, errs.ErrSyncMismatch)

	require.InDelta(t, 1, testutil.ToFloat64(m.syncMismatches.WithLabelValues(compress.Null)), 0)
	require.Equal(t, 1, logs.FilterMessage("container sync marker mismatch").Len())
}

func syncOffsets(data []byte, sync SyncMarker) []int {
	var out []int
	for from := 0; ; {
		i := bytes.Index(data[from:], sync[:])
		if i < 0 {
			return out
		}
		out = append(out, from+i)
		from += i + SyncSize
	}
}

func TestReader_SyncMismatchAtEveryMarkerByte(t *testing.T) {
	data := writeFile(t, 6, WithBlockRecords(2), WithSyncMarker(testSync))
	markers := syncOffsets(data, testSync)
	// Header marker, then one per block.
	require.Len(t, markers, 4)

	tests := []struct {
		name   string
		marker int
		block  int
	}{
		{"header", 0, 0},
		{"first block", 1, 0},
		{"inner block", 2, 1},
		{"last block", 3, 2},
	}
	for _, tt := range tests {
		for off := range SyncSize {
			t.Run(fmt.Sprintf("%s/byte%d", tt.name, off), func(t *testing.T) {
				corrupt := bytes.Clone(data)
				corrupt[markers[tt.marker]+off] ^= 0x01

				r, err := NewReader(bytes.NewReader(corrupt))
				require.NoError(t, err)

				vs, err := r.ReadAll()
				require.ErrorIs(t, err, errs.ErrSyncMismatch)
				require.Len(t, vs, 2*tt.block)

				var cerr *errs.ContainerError
				require.ErrorAs(t, err, &cerr)
				require.Equal(t, tt.block, cerr.Block)
			})
		}
	}
}

func TestReader_Truncated(t *testing.T) {
	data := writeFile(t, 4, WithBlockRecords(2))

	r, err := NewReader(bytes.NewReader(data[:len(data)-5]))
	require.NoError(t, err)

	vs, err := r.ReadAll()
	require.Len(t, vs, 2)
	require.ErrorIs(t, err, errs.ErrTruncated)
}

func TestReader_CorruptRecordAbandonsOnlyItsBlock(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, schema.MustParse(`"boolean"`), WithBlockRecords(2))
	require.NoError(t, err)
	for _, b := range []bool{true, false, true, true} {
		require.NoError(t, w.Append(value.Bool(b)))
	}
	require.NoError(t, w.Close())

	data := buf.Bytes()
	// Block 0 is: count 2, size 2, payload [01 00], sync.
	payload := len(w.Header().Bytes()) + 2
	require.Equal(t, byte(0x01), data[payload])
	data[payload] = 0x05

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = r.Next()
	require.ErrorIs(t, err, errs.ErrInvalidBool)
	_, err = r.Next()
	require.ErrorIs(t, err, errs.ErrInvalidBool, "the block stays abandoned until NextBlock")

	info, err := r.NextBlock()
	require.NoError(t, err)
	require.Equal(t, 1, info.Index)
	require.Equal(t, int64(2), info.Records)

	for range 2 {
		v, err := r.Next()
		require.NoError(t, err)
		require.True(t, v.Bool())
	}
	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_DecompressionFailure(t *testing.T) {
	data := writeFile(t, 2, WithCodec(compress.Snappy), WithBlockRecords(1))

	// Flip the checksum trailer of the first snappy block, just before its sync marker.
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.NextBlock()
	require.NoError(t, err)
	end := int(r.br.off) - SyncSize - 1
	data[end] ^= 0xff

	r, err = NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, errs.ErrCompressionFailed)

	_, err = r.NextBlock()
	require.NoError(t, err)
	v, err := r.Next()
	require.NoError(t, err)
	require.True(t, value.Equal(point(1), v))
}

func TestReader_ResolveCache(t *testing.T) {
	data := writeFile(t, 3)
	cache := resolve.NewCache()
	reader := schema.MustParse(pointLongSchema)

	for range 2 {
		vs := readAll(t, data, WithReaderSchema(reader), WithResolveCache(cache))
		require.Len(t, vs, 3)
	}
	require.Equal(t, 1, cache.Len())
}

func TestReader_IncompatibleReaderSchema(t *testing.T) {
	data := writeFile(t, 1)
	_, err := NewReader(bytes.NewReader(data), WithReaderSchema(schema.MustParse(`"string"`)))
	var rerr *errs.ResolutionError
	require.ErrorAs(t, err, &rerr)
}

func TestMetrics_WriteAndRead(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "avro")

	data := writeFile(t, 25, WithBlockRecords(10), WithCodec(compress.Deflate), WithMetrics(m))
	require.Len(t, readAll(t, data, WithMetrics(m)), 25)

	require.InDelta(t, 3, testutil.ToFloat64(m.blocksTotal.WithLabelValues(directionWrite, compress.Deflate)), 0)
	require.InDelta(t, 3, testutil.ToFloat64(m.blocksTotal.WithLabelValues(directionRead, compress.Deflate)), 0)
	require.InDelta(t, 25, testutil.ToFloat64(m.recordsTotal.WithLabelValues(directionWrite, compress.Deflate)), 0)
	require.InDelta(t, 25, testutil.ToFloat64(m.recordsTotal.WithLabelValues(directionRead, compress.Deflate)), 0)
	require.Equal(t,
		testutil.ToFloat64(m.rawBytesTotal.WithLabelValues(directionWrite, compress.Deflate)),
		testutil.ToFloat64(m.rawBytesTotal.WithLabelValues(directionRead, compress.Deflate)),
	)

	count, err := testutil.GatherAndCount(reg, "avro_container_blocks_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestWriter_LogsFlushedBlocks(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	writeFile(t, 5, WithBlockRecords(2), WithLogger(zap.New(core)))

	entries := logs.FilterMessage("flushed container block").All()
	require.Len(t, entries, 3)
	require.Equal(t, int64(1), entries[2].ContextMap()["records"])
}
