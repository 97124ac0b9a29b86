package codec

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/resolve"
	"github.com/arloliu/avrokit/schema"
	"github.com/arloliu/avrokit/value"
)

func decodeAs(t *testing.T, writer, reader string, v value.Value) (value.Value, error) {
	t.Helper()
	ws := schema.MustParse(writer)
	data, err := Encode(ws, v)
	require.NoError(t, err)

	res, err := resolve.Resolve(ws, schema.MustParse(reader))
	require.NoError(t, err)

	return DecodeResolved(res, data)
}

func TestResolved_DefaultSubstitution(t *testing.T) {
	got, err := decodeAs(t,
		`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}]}`,
		`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}, {"name": "b", "type": "string", "default": "x"}]}`,
		value.Record(value.F("a", value.Int(5))),
	)
	require.NoError(t, err)

	want := value.Record(value.F("a", value.Int(5)), value.F("b", value.String("x")))
	require.True(t, value.Equal(want, got), "got %s", got)
}

func TestResolved_EnumEvolution(t *testing.T) {
	got, err := decodeAs(t,
		`{"type": "enum", "name": "E", "symbols": ["A", "B"]}`,
		`{"type": "enum", "name": "E", "symbols": ["A", "C"], "default": "A"}`,
		value.Enum(1, "B"),
	)
	require.NoError(t, err)
	require.Equal(t, "A", got.Str())
	require.Equal(t, 0, got.Ordinal())
}

func TestResolved_UnionBranchReordering(t *testing.T) {
	got, err := decodeAs(t, `["null", "int"]`, `["int", "null"]`, value.Union(1, value.Int(7)))
	require.NoError(t, err)
	require.True(t, value.Equal(value.Union(0, value.Int(7)), got), "got %s", got)
}

func TestResolved_Promotions(t *testing.T) {
	tests := []struct {
		writer string
		reader string
		in     value.Value
		want   value.Value
	}{
		{`"int"`, `"long"`, value.Int(-3), value.Long(-3)},
		{`"int"`, `"float"`, value.Int(3), value.Float(3)},
		{`"int"`, `"double"`, value.Int(3), value.Double(3)},
		{`"long"`, `"float"`, value.Long(1 << 20), value.Float(1 << 20)},
		{`"long"`, `"double"`, value.Long(-9), value.Double(-9)},
		{`"float"`, `"double"`, value.Float(0.5), value.Double(0.5)},
		{`"string"`, `"bytes"`, value.String("hi"), value.Bytes([]byte("hi"))},
		{`"bytes"`, `"string"`, value.Bytes([]byte("hi")), value.String("hi")},
		{`"int"`, `["null", "long"]`, value.Int(4), value.Union(1, value.Long(4))},
		{`"int"`, `{"type": "int", "logicalType": "date"}`, value.Int(10), value.Date(10)},
		{
			`{"type": "bytes", "logicalType": "decimal", "precision": 4, "scale": 1}`,
			`"bytes"`,
			value.NewDecimal(big.NewInt(-1), 4, 1),
			value.Bytes([]byte{0xff}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.writer+"->"+tt.reader, func(t *testing.T) {
			got, err := decodeAs(t, tt.writer, tt.reader, tt.in)
			require.NoError(t, err)
			require.True(t, value.Equal(tt.want, got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestResolved_BytesToStringRejectsInvalidUTF8(t *testing.T) {
	_, err := decodeAs(t, `"bytes"`, `"string"`, value.Bytes([]byte{0xff}))
	require.ErrorIs(t, err, errs.ErrInvalidUTF8)
}

func TestResolved_SkipsWriterOnlyFields(t *testing.T) {
	writer := `{"type": "record", "name": "R", "fields": [
		{"name": "drop1", "type": {"type": "array", "items": {"type": "map", "values": "string"}}},
		{"name": "keep", "type": "int"},
		{"name": "drop2", "type": ["null", {"type": "record", "name": "Inner", "fields": [{"name": "z", "type": "double"}]}]},
		{"name": "last", "type": "string"}
	]}`
	reader := `{"type": "record", "name": "R", "fields": [
		{"name": "last", "type": "string"},
		{"name": "keep", "type": "long"}
	]}`
	in := value.Record(
		value.F("drop1", value.Array(value.Map(value.Entry{Key: "k", Value: value.String("v")}))),
		value.F("keep", value.Int(9)),
		value.F("drop2", value.Union(1, value.Record(value.F("z", value.Double(1))))),
		value.F("last", value.String("end")),
	)

	got, err := decodeAs(t, writer, reader, in)
	require.NoError(t, err)

	want := value.Record(value.F("last", value.String("end")), value.F("keep", value.Long(9)))
	require.True(t, value.Equal(want, got), "got %s", got)
}

func TestResolved_UnresolvedBranchFailsOnlyWhenRead(t *testing.T) {
	writer := `["null", "boolean", "int"]`
	reader := `["null", "long"]`

	got, err := decodeAs(t, writer, reader, value.Union(2, value.Int(3)))
	require.NoError(t, err)
	require.True(t, value.Equal(value.Union(1, value.Long(3)), got))

	_, err = decodeAs(t, writer, reader, value.Union(1, value.Bool(true)))
	require.ErrorIs(t, err, errs.ErrUnresolvedBranch)
	require.ErrorIs(t, err, errs.ErrNoMatchingBranch, "the resolution cause is wrapped")
}

func TestResolved_Identity(t *testing.T) {
	s := schema.MustParse(everythingSchema)
	v := everythingValue(value.Union(1, everythingValue(value.Union(0, value.Null()))))

	data, err := Encode(s, v)
	require.NoError(t, err)

	direct, err := Decode(s, data)
	require.NoError(t, err)

	res, err := resolve.Resolve(s, s)
	require.NoError(t, err)
	resolved, err := DecodeResolved(res, data)
	require.NoError(t, err)

	require.True(t, value.Equal(direct, resolved), "direct %s\nresolved %s", direct, resolved)
}

func TestResolvedDecoder_Sequence(t *testing.T) {
	ws := schema.MustParse(`{"type": "record", "name": "P", "fields": [{"name": "x", "type": "int"}]}`)
	rs := schema.MustParse(`{"type": "record", "name": "P", "fields": [{"name": "x", "type": "double"}, {"name": "y", "type": "int", "default": 7}]}`)

	var data []byte
	for i := range 3 {
		var err error
		data, err = AppendEncode(data, ws, value.Record(value.F("x", value.Int(int32(i)))))
		require.NoError(t, err)
	}

	res, err := resolve.Resolve(ws, rs)
	require.NoError(t, err)
	dec, err := NewResolvedDecoder(res, data)
	require.NoError(t, err)

	var n int
	for dec.More() {
		v, err := dec.Next()
		require.NoError(t, err)
		require.InDelta(t, float64(n), v.Field("x").Float64(), 0)
		require.Equal(t, int32(7), v.Field("y").Int32())
		n++
	}
	require.Equal(t, 3, n)
}

func TestResolved_FailedRecursiveTypeIsUnresolvedBranch(t *testing.T) {
	nested := `{"type": "record", "name": "A", "fields": [
		{"name": "c", "type": {"type": "record", "name": "C", "fields": [
			{"name": "back", "type": ["null", "A"]}
		]}},
		{"name": "bad", "type": "%s"}
	]}`
	root := `{"type": "record", "name": "Root", "fields": [
		{"name": "x", "type": ["null", ` + nested + `]},
		{"name": "y", "type": "C"}
	]}`
	writer := fmt.Sprintf(root, "int")
	reader := fmt.Sprintf(root, "boolean")

	noBack := value.Record(value.F("back", value.Union(0, value.Null())))
	got, err := decodeAs(t, writer, reader, value.Record(
		value.F("x", value.Union(0, value.Null())),
		value.F("y", noBack),
	))
	require.NoError(t, err)
	require.True(t, value.Equal(value.Record(
		value.F("x", value.Union(0, value.Null())),
		value.F("y", noBack),
	), got), "got %s", got)

	a := value.Record(value.F("c", noBack), value.F("bad", value.Int(1)))
	_, err = decodeAs(t, writer, reader, value.Record(
		value.F("x", value.Union(0, value.Null())),
		value.F("y", value.Record(value.F("back", value.Union(1, a)))),
	))
	require.ErrorIs(t, err, errs.ErrUnresolvedBranch)
	require.ErrorIs(t, err, errs.ErrNoMatchingBranch)
}
