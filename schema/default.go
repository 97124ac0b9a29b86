package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/value"
)

// latin1 maps each code point of a JSON default string to one byte, which is how
// bytes and fixed defaults are written in schema JSON.
func latin1(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return nil, false
		}
		out = append(out, byte(r))
	}

	return out, true
}

func latin1String(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}

	return string(runes)
}

func invalidDefault(path string, n Node, got any) error {
	return errs.NewSchemaError(errs.InvalidDefault, path, "default %s is not a valid %s", describeJSON(got), n.Kind)
}

func describeJSON(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case []any:
		return "array"
	case *jsonObject:
		return "object"
	default:
		return "value"
	}
}

// defaultValue converts a JSON default into a typed Value for node n. Union
// defaults always describe the union's first branch.
func (s *Schema) defaultValue(n Node, j any, path string, depth int) (value.Value, error) {
	if depth > maxJSONDepth {
		return value.Value{}, errs.NewSchemaError(errs.DepthExceeded, path, "default nesting exceeds %d", maxJSONDepth)
	}

	switch n.Kind {
	case KindNull:
		if j == nil {
			return value.Null(), nil
		}
	case KindBoolean:
		if b, ok := j.(bool); ok {
			return value.Bool(b), nil
		}
	case KindInt:
		if i, ok := asInt(j); ok && i >= math.MinInt32 && i <= math.MaxInt32 {
			return value.Int(int32(i)), nil
		}
	case KindLong:
		if i, ok := asInt(j); ok {
			return value.Long(i), nil
		}
	case KindFloat:
		if f, ok := asFloat(j); ok {
			return value.Float(float32(f)), nil
		}
	case KindDouble:
		if f, ok := asFloat(j); ok {
			return value.Double(f), nil
		}
	case KindBytes:
		if str, ok := j.(string); ok {
			if b, ok := latin1(str); ok {
				return value.Bytes(b), nil
			}
		}
	case KindString:
		if str, ok := j.(string); ok {
			return value.String(str), nil
		}
	case KindFixed:
		if str, ok := j.(string); ok {
			if b, ok := latin1(str); ok && len(b) == s.named[n.Ref].Size {
				return value.Fixed(b), nil
			}
		}
	case KindEnum:
		if str, ok := j.(string); ok {
			if idx, ok := s.named[n.Ref].SymbolIndex(str); ok {
				return value.Enum(idx, str), nil
			}
		}
	case KindArray:
		if list, ok := j.([]any); ok {
			items := make([]value.Value, 0, len(list))
			for i, elem := range list {
				v, err := s.defaultValue(*n.Items, elem, path+"["+strconv.Itoa(i)+"]", depth+1)
				if err != nil {
					return value.Value{}, err
				}
				items = append(items, v)
			}

			return value.Array(items...), nil
		}
	case KindMap:
		if obj, ok := j.(*jsonObject); ok {
			entries := make([]value.Entry, 0, len(obj.keys))
			for _, key := range obj.keys {
				v, err := s.defaultValue(*n.Values, obj.vals[key], joinPath(path, key), depth+1)
				if err != nil {
					return value.Value{}, err
				}
				entries = append(entries, value.Entry{Key: key, Value: v})
			}

			return value.Map(entries...), nil
		}
	case KindUnion:
		v, err := s.defaultValue(n.Branches[0], j, path, depth+1)
		if err != nil {
			return value.Value{}, err
		}

		return value.Union(0, v), nil
	case KindRecord:
		if obj, ok := j.(*jsonObject); ok {
			return s.recordDefault(n, obj, path, depth)
		}
	case KindDecimal:
		if str, ok := j.(string); ok {
			if b, ok := latin1(str); ok {
				if n.Ref != NoRef && len(b) != s.named[n.Ref].Size {
					break
				}

				return value.DecimalFromTwos(b, n.Precision, n.Scale), nil
			}
		}
	case KindUUID:
		if str, ok := j.(string); ok {
			if id, err := uuid.Parse(str); err == nil {
				return value.UUID(id), nil
			}
		}
	case KindDate:
		if i, ok := asInt(j); ok && i >= math.MinInt32 && i <= math.MaxInt32 {
			return value.Date(int32(i)), nil
		}
	case KindTimestampMillis:
		if i, ok := asInt(j); ok {
			return value.Timestamp(time.UnixMilli(i)), nil
		}
	case KindTimestampMicros:
		if i, ok := asInt(j); ok {
			return value.Timestamp(time.UnixMicro(i)), nil
		}
	}

	return value.Value{}, invalidDefault(path, n, j)
}

func (s *Schema) recordDefault(n Node, obj *jsonObject, path string, depth int) (value.Value, error) {
	nt := s.named[n.Ref]
	fields := make([]value.Entry, 0, len(nt.Fields))
	for i := range nt.Fields {
		f := &nt.Fields[i]
		fpath := joinPath(path, f.Name)
		raw, present := obj.get(f.Name)
		switch {
		case present:
		case f.HasDefault:
			raw = f.rawDefault
		default:
			return value.Value{}, errs.NewSchemaError(errs.InvalidDefault, fpath,
				"record default lacks field %q which has no default", f.Name)
		}
		v, err := s.defaultValue(f.Type, raw, fpath, depth+1)
		if err != nil {
			return value.Value{}, err
		}
		fields = append(fields, value.F(f.Name, v))
	}

	return value.Record(fields...), nil
}

// defaultJSON converts a typed default back to its JSON form. The result is one of
// nil, bool, json.Number, string, []any or *jsonObject.
func (s *Schema) defaultJSON(n Node, v value.Value) any {
	switch n.Kind {
	case KindNull:
		return nil
	case KindBoolean:
		return v.Bool()
	case KindInt, KindLong, KindDate:
		return json.Number(strconv.FormatInt(v.Int64(), 10))
	case KindFloat:
		return json.Number(strconv.FormatFloat(v.Float64(), 'g', -1, 32))
	case KindDouble:
		return json.Number(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case KindBytes, KindFixed:
		return latin1String(v.BytesValue())
	case KindString, KindEnum:
		return v.Str()
	case KindArray:
		items := v.Items()
		out := make([]any, len(items))
		for i := range items {
			out[i] = s.defaultJSON(*n.Items, items[i])
		}

		return out
	case KindMap:
		obj := &jsonObject{vals: map[string]any{}}
		for _, e := range v.Entries() {
			obj.keys = append(obj.keys, e.Key)
			obj.vals[e.Key] = s.defaultJSON(*n.Values, e.Value)
		}

		return obj
	case KindUnion:
		return s.defaultJSON(n.Branches[0], v.Inner())
	case KindRecord:
		obj := &jsonObject{vals: map[string]any{}}
		for _, f := range s.named[n.Ref].Fields {
			obj.keys = append(obj.keys, f.Name)
			obj.vals[f.Name] = s.defaultJSON(f.Type, v.Field(f.Name))
		}

		return obj
	case KindDecimal:
		size := 0
		if n.Ref != NoRef {
			size = s.named[n.Ref].Size
		}
		b, _ := v.Decimal().Twos(size)

		return latin1String(b)
	case KindUUID:
		return v.UUIDValue().String()
	case KindTimestampMillis:
		return json.Number(strconv.FormatInt(v.Time().UnixMilli(), 10))
	case KindTimestampMicros:
		return json.Number(strconv.FormatInt(v.Time().UnixMicro(), 10))
	default:
		return nil
	}
}
