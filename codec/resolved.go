package codec

import (
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/arloliu/avrokit/encoding"
	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/resolve"
	"github.com/arloliu/avrokit/schema"
	"github.com/arloliu/avrokit/value"
)

// DecodeResolved decodes one value written with res.Writer() and returns it in
// the shape of res.Reader(). Writer-only record fields are skipped, missing reader
// fields take their defaults and numeric values are promoted.
func DecodeResolved(res *resolve.Resolved, data []byte, opts ...Option) (value.Value, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return value.Value{}, err
	}

	rd := newResolvedDecoder(res, encoding.NewReader(data), cfg.maxDepth)
	v, err := rd.decode(res.Root(), "", 0)
	if err != nil {
		return value.Value{}, err
	}
	if !rd.r.Done() {
		return value.Value{}, rd.r.Errorf(errs.TrailingBytes, "%d bytes after value", rd.r.Remaining())
	}

	return v, nil
}

type resolvedDecoder struct {
	res *resolve.Resolved
	r   *encoding.Reader
	// plain decodes writer nodes for primitive reads and skips.
	plain    *decoder
	maxDepth int
}

func newResolvedDecoder(res *resolve.Resolved, r *encoding.Reader, maxDepth int) *resolvedDecoder {
	return &resolvedDecoder{
		res:      res,
		r:        r,
		plain:    &decoder{s: res.Writer(), r: r, maxDepth: maxDepth},
		maxDepth: maxDepth,
	}
}

//nolint:gocyclo,cyclop
func (d *resolvedDecoder) decode(n *resolve.Node, path string, depth int) (value.Value, error) {
	if depth > d.maxDepth {
		return value.Value{}, d.plain.depthErr(path)
	}

	switch n.Action {
	case resolve.Direct:
		start := d.r.Offset()
		v, err := d.plain.decode(schema.Primitive(n.Writer.Underlying()), path, depth)
		if err != nil {
			return value.Value{}, err
		}

		return project(v, n.Reader, start, path)
	case resolve.Record:
		return d.record(n, path, depth)
	case resolve.Enum:
		ordinal, err := d.plain.ordinal(len(n.Symbols), errs.InvalidEnumOrdinal, path)
		if err != nil {
			return value.Value{}, err
		}
		ri := n.Symbols[ordinal]

		return value.Enum(ri, n.ReaderSymbols[ri]), nil
	case resolve.Fixed:
		raw, err := d.r.ReadFixed(n.Size)
		if err != nil {
			return value.Value{}, at(err, path)
		}
		if n.Reader.Kind == schema.KindDecimal {
			return value.DecimalFromTwos(raw, n.Reader.Precision, n.Reader.Scale), nil
		}

		return value.Fixed(raw), nil
	case resolve.Array:
		items, err := readBlocks(d.r, path, func(i int) (value.Value, error) {
			return d.decode(n.Items, path+"["+strconv.Itoa(i)+"]", depth+1)
		})
		if err != nil {
			return value.Value{}, err
		}

		return value.Array(items...), nil
	case resolve.Map:
		entries, err := readMapBlocks(d.r, path, func(key string) (value.Value, error) {
			return d.decode(n.Items, path+"{"+key+"}", depth+1)
		})
		if err != nil {
			return value.Value{}, err
		}

		return value.Map(entries...), nil
	case resolve.WriterUnion:
		start := d.r.Offset()
		idx, err := d.plain.ordinal(len(n.Branches), errs.InvalidUnionTag, path)
		if err != nil {
			return value.Value{}, err
		}
		branch := n.Branches[idx]
		if branch == nil {
			return value.Value{}, &errs.DecodeError{
				Kind: errs.UnresolvedBranch, Offset: int64(start), Path: path,
				Msg: "writer branch " + strconv.Itoa(idx) + " cannot be read", Err: n.BranchErrs[idx],
			}
		}

		return d.decode(branch, path, depth+1)
	case resolve.ReaderUnion:
		inner, err := d.decode(n.Inner, path, depth+1)
		if err != nil {
			return value.Value{}, err
		}

		return value.Union(n.Branch, inner), nil
	default:
		return value.Value{}, d.r.Errorf(errs.UnresolvedBranch, "invalid resolution action %s", n.Action)
	}
}

func (d *resolvedDecoder) record(n *resolve.Node, path string, depth int) (value.Value, error) {
	rt := d.res.Reader().Named(n.Reader.Ref)
	rpath := recordPath(path, rt)

	fields := make([]value.Entry, len(n.ReaderFields))
	for i, name := range n.ReaderFields {
		fields[i].Key = name
	}
	for i := range n.Fields {
		fp := &n.Fields[i]
		fpath := joinPath(rpath, fp.Name)
		if fp.Skip {
			if err := skip(d.plain, fp.Writer, fpath, depth+1); err != nil {
				return value.Value{}, err
			}
			continue
		}
		v, err := d.decode(fp.Node, fpath, depth+1)
		if err != nil {
			return value.Value{}, err
		}
		fields[fp.Index].Value = v
	}
	for _, dp := range n.Defaults {
		fields[dp.Index].Value = dp.Value
	}

	return value.Record(fields...), nil
}

// project converts a primitive read with the writer's underlying kind into the
// value kind of reader node rd.
//
//nolint:gocyclo,cyclop
func project(v value.Value, rd schema.Node, offset int, path string) (value.Value, error) {
	switch rd.Kind { //nolint:exhaustive
	case schema.KindNull, schema.KindBoolean, schema.KindInt:
		return v, nil
	case schema.KindLong:
		return value.Long(v.Int64()), nil
	case schema.KindFloat:
		if v.Kind() == value.KindFloat {
			return v, nil
		}

		return value.Float(float32(v.Int64())), nil
	case schema.KindDouble:
		switch v.Kind() { //nolint:exhaustive
		case value.KindFloat, value.KindDouble:
			return value.Double(v.Float64()), nil
		default:
			return value.Double(float64(v.Int64())), nil
		}
	case schema.KindBytes:
		if v.Kind() == value.KindString {
			return value.Bytes([]byte(v.Str())), nil
		}

		return v, nil
	case schema.KindString:
		if v.Kind() == value.KindBytes {
			raw := v.BytesValue()
			if !utf8.Valid(raw) {
				return value.Value{}, &errs.DecodeError{Kind: errs.InvalidUTF8, Offset: int64(offset), Path: path, Msg: "bytes promoted to string"}
			}

			return value.String(string(raw)), nil
		}

		return v, nil
	case schema.KindDecimal:
		raw := v.BytesValue()
		if v.Kind() == value.KindString {
			raw = []byte(v.Str())
		}

		return value.DecimalFromTwos(raw, rd.Precision, rd.Scale), nil
	case schema.KindUUID:
		s := v.Str()
		if v.Kind() == value.KindBytes {
			s = string(v.BytesValue())
		}

		return parseUUID(s, offset, path)
	case schema.KindDate:
		n := v.Int64()
		if n < math.MinInt32 || n > math.MaxInt32 {
			return value.Value{}, &errs.DecodeError{Kind: errs.VarintOverflow, Offset: int64(offset), Path: path}
		}

		return value.Date(int32(n)), nil
	case schema.KindTimestampMillis:
		return value.Timestamp(time.UnixMilli(v.Int64())), nil
	case schema.KindTimestampMicros:
		return value.Timestamp(time.UnixMicro(v.Int64())), nil
	default:
		return value.Value{}, &errs.DecodeError{Kind: errs.UnresolvedBranch, Offset: int64(offset), Path: path, Msg: "cannot project onto " + rd.Kind.String()}
	}
}
