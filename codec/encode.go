package codec

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/arloliu/avrokit/encoding"
	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/schema"
	"github.com/arloliu/avrokit/value"
)

// Encode encodes v against s.
//
// The value must conform to the schema: a record value supplies every field
// that has no default, an enum value names a known symbol, a fixed value has
// exactly the declared size. A non-union value encoded against a union schema
// selects the first branch that accepts its kind.
//
// Returns:
//   - []byte: Encoded bytes, owned by the caller
//   - error: *errs.EncodeError naming the offending path
func Encode(s *schema.Schema, v value.Value, opts ...Option) ([]byte, error) {
	return AppendEncode(nil, s, v, opts...)
}

// AppendEncode is like Encode but appends to dst.
func AppendEncode(dst []byte, s *schema.Schema, v value.Value, opts ...Option) ([]byte, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return dst, err
	}

	e := &encoder{s: s, buf: dst, maxDepth: cfg.maxDepth}
	if err := e.encode(s.Root(), v, "", 0); err != nil {
		return dst, err
	}

	return e.buf, nil
}

type encoder struct {
	s        *schema.Schema
	buf      []byte
	maxDepth int
}

func (e *encoder) mismatch(n schema.Node, v value.Value, path string) error {
	return &errs.EncodeError{
		Kind:     errs.ValueMismatch,
		Path:     path,
		Expected: e.s.TypeName(n),
		Actual:   v.Kind().String(),
	}
}

//nolint:gocyclo,cyclop
func (e *encoder) encode(n schema.Node, v value.Value, path string, depth int) error {
	if depth > e.maxDepth {
		return &errs.EncodeError{Kind: errs.EncodeDepthExceeded, Path: path, Msg: "nesting exceeds " + strconv.Itoa(e.maxDepth)}
	}

	if n.Kind == schema.KindUnion {
		return e.union(n, v, path, depth)
	}
	if !accepts(n, v) {
		return e.mismatch(n, v, path)
	}

	switch n.Kind { //nolint:exhaustive
	case schema.KindNull:
	case schema.KindBoolean:
		e.buf = encoding.AppendBool(e.buf, v.Bool())
	case schema.KindInt, schema.KindDate:
		e.buf = encoding.AppendInt(e.buf, v.Int32())
	case schema.KindLong:
		e.buf = encoding.AppendLong(e.buf, v.Int64())
	case schema.KindFloat:
		e.buf = encoding.AppendFloat(e.buf, v.Float32())
	case schema.KindDouble:
		e.buf = encoding.AppendDouble(e.buf, v.Float64())
	case schema.KindBytes:
		e.buf = encoding.AppendBytes(e.buf, v.BytesValue())
	case schema.KindString:
		e.buf = encoding.AppendString(e.buf, v.Str())
	case schema.KindFixed:
		size := e.s.Named(n.Ref).Size
		if len(v.BytesValue()) != size {
			return &errs.EncodeError{
				Kind: errs.FixedSize, Path: path,
				Expected: strconv.Itoa(size) + " bytes", Actual: strconv.Itoa(len(v.BytesValue())) + " bytes",
			}
		}
		e.buf = append(e.buf, v.BytesValue()...)
	case schema.KindEnum:
		return e.enum(n, v, path)
	case schema.KindArray:
		items := v.Items()
		if len(items) > 0 {
			e.buf = encoding.AppendLong(e.buf, int64(len(items)))
			for i := range items {
				if err := e.encode(*n.Items, items[i], path+"["+strconv.Itoa(i)+"]", depth+1); err != nil {
					return err
				}
			}
		}
		e.buf = encoding.AppendLong(e.buf, 0)
	case schema.KindMap:
		entries := v.Entries()
		if len(entries) > 0 {
			e.buf = encoding.AppendLong(e.buf, int64(len(entries)))
			for i := range entries {
				e.buf = encoding.AppendString(e.buf, entries[i].Key)
				if err := e.encode(*n.Values, entries[i].Value, path+"{"+entries[i].Key+"}", depth+1); err != nil {
					return err
				}
			}
		}
		e.buf = encoding.AppendLong(e.buf, 0)
	case schema.KindRecord:
		return e.record(n, v, path, depth)
	case schema.KindDecimal:
		return e.decimal(n, v, path)
	case schema.KindUUID:
		if v.Kind() == value.KindString {
			if _, err := uuid.Parse(v.Str()); err != nil {
				return &errs.EncodeError{Kind: errs.ValueMismatch, Path: path, Expected: "uuid", Actual: strconv.Quote(v.Str())}
			}
			e.buf = encoding.AppendString(e.buf, v.Str())

			return nil
		}
		e.buf = encoding.AppendString(e.buf, v.UUIDValue().String())
	case schema.KindTimestampMillis:
		e.buf = encoding.AppendLong(e.buf, v.Time().UnixMilli())
	case schema.KindTimestampMicros:
		e.buf = encoding.AppendLong(e.buf, v.Time().UnixMicro())
	}

	return nil
}

// accepts reports whether v has the value kind that schema node n encodes.
func accepts(n schema.Node, v value.Value) bool {
	switch n.Kind { //nolint:exhaustive
	case schema.KindNull:
		return v.Kind() == value.KindNull
	case schema.KindBoolean:
		return v.Kind() == value.KindBoolean
	case schema.KindInt:
		return v.Kind() == value.KindInt
	case schema.KindLong:
		return v.Kind() == value.KindLong
	case schema.KindFloat:
		return v.Kind() == value.KindFloat
	case schema.KindDouble:
		return v.Kind() == value.KindDouble
	case schema.KindBytes:
		return v.Kind() == value.KindBytes
	case schema.KindString:
		return v.Kind() == value.KindString
	case schema.KindFixed:
		return v.Kind() == value.KindFixed
	case schema.KindEnum:
		return v.Kind() == value.KindEnum
	case schema.KindArray:
		return v.Kind() == value.KindArray
	case schema.KindMap:
		return v.Kind() == value.KindMap
	case schema.KindRecord:
		return v.Kind() == value.KindRecord
	case schema.KindDecimal:
		return v.Kind() == value.KindDecimal
	case schema.KindUUID:
		return v.Kind() == value.KindUUID || v.Kind() == value.KindString
	case schema.KindDate:
		return v.Kind() == value.KindDate
	case schema.KindTimestampMillis, schema.KindTimestampMicros:
		return v.Kind() == value.KindTimestamp
	default:
		return false
	}
}

func (e *encoder) union(n schema.Node, v value.Value, path string, depth int) error {
	if v.Kind() == value.KindUnion {
		idx := v.Branch()
		if idx < 0 || idx >= len(n.Branches) {
			return &errs.EncodeError{
				Kind: errs.UnionBranch, Path: path,
				Expected: "branch < " + strconv.Itoa(len(n.Branches)), Actual: strconv.Itoa(idx),
			}
		}
		e.buf = encoding.AppendInt(e.buf, int32(idx)) //nolint:gosec

		return e.encode(n.Branches[idx], v.Inner(), path, depth+1)
	}

	for i := range n.Branches {
		if accepts(n.Branches[i], v) {
			e.buf = encoding.AppendInt(e.buf, int32(i)) //nolint:gosec
			return e.encode(n.Branches[i], v, path, depth+1)
		}
	}

	return &errs.EncodeError{Kind: errs.UnionBranch, Path: path, Expected: e.s.TypeName(n), Actual: v.Kind().String()}
}

func (e *encoder) enum(n schema.Node, v value.Value, path string) error {
	nt := e.s.Named(n.Ref)
	ordinal := v.Ordinal()
	if sym := v.Str(); sym != "" {
		idx, ok := nt.SymbolIndex(sym)
		if !ok {
			return &errs.EncodeError{Kind: errs.EncodeUnknownSymbol, Path: path, Expected: nt.Name.Full(), Actual: strconv.Quote(sym)}
		}
		ordinal = idx
	}
	if ordinal < 0 || ordinal >= len(nt.Symbols) {
		return &errs.EncodeError{Kind: errs.EncodeUnknownSymbol, Path: path, Expected: nt.Name.Full(), Actual: "ordinal " + strconv.Itoa(ordinal)}
	}
	e.buf = encoding.AppendInt(e.buf, int32(ordinal)) //nolint:gosec

	return nil
}

func (e *encoder) record(n schema.Node, v value.Value, path string, depth int) error {
	nt := e.s.Named(n.Ref)
	rpath := recordPath(path, nt)
	for _, entry := range v.Entries() {
		if _, ok := nt.FieldIndex(entry.Key); !ok {
			return &errs.EncodeError{Kind: errs.FieldMismatch, Path: joinPath(rpath, entry.Key), Msg: "record has no such field"}
		}
	}

	for i := range nt.Fields {
		f := &nt.Fields[i]
		fpath := joinPath(rpath, f.Name)
		fv, ok := v.Lookup(f.Name)
		if !ok {
			if !f.HasDefault {
				return &errs.EncodeError{Kind: errs.FieldMismatch, Path: fpath, Msg: "missing field without default"}
			}
			fv = f.Default
		}
		if err := e.encode(f.Type, fv, fpath, depth+1); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) decimal(n schema.Node, v value.Value, path string) error {
	d := v.Decimal()
	if d.Scale != n.Scale {
		return &errs.EncodeError{
			Kind: errs.DecimalRange, Path: path,
			Expected: "scale " + strconv.Itoa(n.Scale), Actual: "scale " + strconv.Itoa(d.Scale),
		}
	}
	if digits := d.Digits(); digits > n.Precision {
		return &errs.EncodeError{
			Kind: errs.DecimalRange, Path: path,
			Expected: "precision " + strconv.Itoa(n.Precision), Actual: strconv.Itoa(digits) + " digits",
		}
	}

	if n.Ref == schema.NoRef {
		b, _ := d.Twos(0)
		e.buf = encoding.AppendBytes(e.buf, b)

		return nil
	}

	size := e.s.Named(n.Ref).Size
	b, ok := d.Twos(size)
	if !ok {
		return &errs.EncodeError{Kind: errs.DecimalRange, Path: path, Expected: "fits in " + strconv.Itoa(size) + " bytes", Actual: d.String()}
	}
	e.buf = append(e.buf, b...)

	return nil
}

// recordPath names the root record by its full name; nested records are named by
// the field path that leads to them.
func recordPath(path string, nt *schema.Named) string {
	if path == "" {
		return nt.Name.Full()
	}

	return path
}

func joinPath(path, elem string) string {
	if path == "" {
		return elem
	}

	return path + "." + elem
}
