package value

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strings"
)

// Equal reports whether a and b are deeply equal. Floats compare by bit pattern
// so NaN payloads round-trip as equal; decimals compare by numeric value and
// scale; maps compare entry by entry in order.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindInvalid, KindNull:
		return true
	case KindBoolean, KindInt, KindLong, KindDate:
		return a.num == b.num
	case KindFloat:
		return math.Float32bits(float32(a.flt)) == math.Float32bits(float32(b.flt))
	case KindDouble:
		return math.Float64bits(a.flt) == math.Float64bits(b.flt)
	case KindBytes, KindFixed:
		return bytes.Equal(a.raw, b.raw)
	case KindString:
		return a.str == b.str
	case KindEnum:
		return a.num == b.num && a.str == b.str
	case KindArray:
		return equalValues(a.items, b.items)
	case KindUnion:
		return a.num == b.num && equalValues(a.items, b.items)
	case KindMap, KindRecord:
		if len(a.entries) != len(b.entries) {
			return false
		}
		for i := range a.entries {
			if a.entries[i].Key != b.entries[i].Key || !Equal(a.entries[i].Value, b.entries[i].Value) {
				return false
			}
		}

		return true
	case KindDecimal:
		da, db := a.Decimal(), b.Decimal()
		return da.Scale == db.Scale && da.Unscaled.Cmp(db.Unscaled) == 0
	case KindTimestamp:
		return a.ts.Equal(b.ts)
	case KindUUID:
		return a.id == b.id
	}

	return false
}

func equalValues(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}

	return true
}

// Native converts v into plain Go values suitable for JSON rendering:
// nil, bool, int32, int64, float32, float64, string, []any and map[string]any.
// Bytes and fixed become base64 strings, decimals their exact decimal string,
// timestamps RFC 3339 strings and unions the inner native value.
func (v Value) Native() any {
	switch v.kind {
	case KindNull, KindInvalid:
		return nil
	case KindBoolean:
		return v.num != 0
	case KindInt:
		return int32(v.num) //nolint:gosec
	case KindLong:
		return v.num
	case KindDate:
		return v.Time().Format("2006-01-02")
	case KindFloat:
		return float32(v.flt)
	case KindDouble:
		return v.flt
	case KindBytes, KindFixed:
		return base64.StdEncoding.EncodeToString(v.raw)
	case KindString, KindEnum:
		return v.str
	case KindArray:
		out := make([]any, len(v.items))
		for i := range v.items {
			out[i] = v.items[i].Native()
		}

		return out
	case KindMap, KindRecord:
		out := make(map[string]any, len(v.entries))
		for _, e := range v.entries {
			out[e.Key] = e.Value.Native()
		}

		return out
	case KindUnion:
		return v.Inner().Native()
	case KindDecimal:
		return v.Decimal().String()
	case KindTimestamp:
		return v.ts.Format("2006-01-02T15:04:05.999999Z07:00")
	case KindUUID:
		return v.id.String()
	}

	return nil
}

// String renders v in a compact debugging form, e.g. {a: 5, b: "x"}.
func (v Value) String() string {
	var sb strings.Builder
	v.format(&sb)

	return sb.String()
}

func (v Value) format(sb *strings.Builder) {
	switch v.kind {
	case KindInvalid:
		sb.WriteString("<invalid>")
	case KindNull:
		sb.WriteString("null")
	case KindBoolean:
		fmt.Fprintf(sb, "%t", v.num != 0)
	case KindInt, KindLong:
		fmt.Fprintf(sb, "%d", v.num)
	case KindFloat, KindDouble:
		fmt.Fprintf(sb, "%g", v.flt)
	case KindBytes, KindFixed:
		fmt.Fprintf(sb, "0x%x", v.raw)
	case KindString:
		fmt.Fprintf(sb, "%q", v.str)
	case KindEnum:
		fmt.Fprintf(sb, "%s(%d)", v.str, v.num)
	case KindArray:
		sb.WriteByte('[')
		for i := range v.items {
			if i > 0 {
				sb.WriteString(", ")
			}
			v.items[i].format(sb)
		}
		sb.WriteByte(']')
	case KindMap, KindRecord:
		sb.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			if v.kind == KindMap {
				fmt.Fprintf(sb, "%q: ", e.Key)
			} else {
				sb.WriteString(e.Key)
				sb.WriteString(": ")
			}
			e.Value.format(sb)
		}
		sb.WriteByte('}')
	case KindUnion:
		fmt.Fprintf(sb, "union[%d](", v.num)
		v.Inner().format(sb)
		sb.WriteByte(')')
	case KindDecimal:
		sb.WriteString(v.Decimal().String())
	case KindDate:
		sb.WriteString(v.Time().Format("2006-01-02"))
	case KindTimestamp:
		sb.WriteString(v.ts.Format("2006-01-02T15:04:05.999999Z07:00"))
	case KindUUID:
		sb.WriteString(v.id.String())
	}
}
