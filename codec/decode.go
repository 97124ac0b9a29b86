package codec

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/avrokit/encoding"
	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/schema"
	"github.com/arloliu/avrokit/value"
)

// Decode decodes exactly one value of schema s from data. Bytes left over after
// the value are reported as TrailingBytes; use a Decoder to read a sequence of
// concatenated values.
//
// Returns:
//   - value.Value: Decoded value, sharing no memory with data
//   - error: *errs.DecodeError with the offset of the first malformed byte
func Decode(s *schema.Schema, data []byte, opts ...Option) (value.Value, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return value.Value{}, err
	}

	d := &decoder{s: s, r: encoding.NewReader(data), maxDepth: cfg.maxDepth}
	v, err := d.decode(s.Root(), "", 0)
	if err != nil {
		return value.Value{}, err
	}
	if !d.r.Done() {
		return value.Value{}, d.r.Errorf(errs.TrailingBytes, "%d bytes after value", d.r.Remaining())
	}

	return v, nil
}

type decoder struct {
	s        *schema.Schema
	r        *encoding.Reader
	maxDepth int
}

// at attaches path to a DecodeError that does not carry one yet.
func at(err error, path string) error {
	var de *errs.DecodeError
	if errors.As(err, &de) && de.Path == "" {
		de.Path = path
	}

	return err
}

func (d *decoder) depthErr(path string) error {
	e := d.r.Errorf(errs.DecodeDepthExceeded, "nesting exceeds %d", d.maxDepth)
	e.Path = path

	return e
}

//nolint:gocyclo,cyclop
func (d *decoder) decode(n schema.Node, path string, depth int) (value.Value, error) {
	if depth > d.maxDepth {
		return value.Value{}, d.depthErr(path)
	}

	r := d.r
	switch n.Kind { //nolint:exhaustive
	case schema.KindNull:
		return value.Null(), nil
	case schema.KindBoolean:
		b, err := r.ReadBool()
		return value.Bool(b), at(err, path)
	case schema.KindInt:
		i, err := r.ReadInt()
		return value.Int(i), at(err, path)
	case schema.KindLong:
		l, err := r.ReadLong()
		return value.Long(l), at(err, path)
	case schema.KindFloat:
		f, err := r.ReadFloat()
		return value.Float(f), at(err, path)
	case schema.KindDouble:
		f, err := r.ReadDouble()
		return value.Double(f), at(err, path)
	case schema.KindBytes:
		b, err := r.ReadBytes()
		return value.Bytes(b), at(err, path)
	case schema.KindString:
		s, err := r.ReadString()
		return value.String(s), at(err, path)
	case schema.KindFixed:
		b, err := r.ReadFixed(d.s.Named(n.Ref).Size)
		return value.Fixed(b), at(err, path)
	case schema.KindEnum:
		nt := d.s.Named(n.Ref)
		ordinal, err := d.ordinal(len(nt.Symbols), errs.InvalidEnumOrdinal, path)
		if err != nil {
			return value.Value{}, err
		}

		return value.Enum(ordinal, nt.Symbols[ordinal]), nil
	case schema.KindArray:
		items, err := readBlocks(r, path, func(i int) (value.Value, error) {
			return d.decode(*n.Items, path+"["+strconv.Itoa(i)+"]", depth+1)
		})
		if err != nil {
			return value.Value{}, err
		}

		return value.Array(items...), nil
	case schema.KindMap:
		entries, err := readMapBlocks(r, path, func(key string) (value.Value, error) {
			return d.decode(*n.Values, path+"{"+key+"}", depth+1)
		})
		if err != nil {
			return value.Value{}, err
		}

		return value.Map(entries...), nil
	case schema.KindUnion:
		idx, err := d.ordinal(len(n.Branches), errs.InvalidUnionTag, path)
		if err != nil {
			return value.Value{}, err
		}
		inner, err := d.decode(n.Branches[idx], path, depth+1)
		if err != nil {
			return value.Value{}, err
		}

		return value.Union(idx, inner), nil
	case schema.KindRecord:
		nt := d.s.Named(n.Ref)
		rpath := recordPath(path, nt)
		fields := make([]value.Entry, len(nt.Fields))
		for i := range nt.Fields {
			f := &nt.Fields[i]
			v, err := d.decode(f.Type, joinPath(rpath, f.Name), depth+1)
			if err != nil {
				return value.Value{}, err
			}
			fields[i] = value.F(f.Name, v)
		}

		return value.Record(fields...), nil
	default:
		return d.logical(n, path)
	}
}

func (d *decoder) ordinal(limit int, kind errs.DecodeErrorKind, path string) (int, error) {
	start := d.r.Offset()
	n, err := d.r.ReadInt()
	if err != nil {
		return 0, at(err, path)
	}
	if n < 0 || int(n) >= limit {
		e := &errs.DecodeError{Kind: kind, Offset: int64(start), Path: path, Msg: "index " + strconv.Itoa(int(n)) + " out of range [0," + strconv.Itoa(limit) + ")"}
		return 0, e
	}

	return int(n), nil
}

func (d *decoder) logical(n schema.Node, path string) (value.Value, error) {
	r := d.r
	switch n.Kind { //nolint:exhaustive
	case schema.KindDecimal:
		var raw []byte
		var err error
		if n.Ref != schema.NoRef {
			raw, err = r.ReadFixed(d.s.Named(n.Ref).Size)
		} else {
			raw, err = r.ReadBytes()
		}
		if err != nil {
			return value.Value{}, at(err, path)
		}

		return value.DecimalFromTwos(raw, n.Precision, n.Scale), nil
	case schema.KindUUID:
		start := r.Offset()
		s, err := r.ReadString()
		if err != nil {
			return value.Value{}, at(err, path)
		}

		return parseUUID(s, start, path)
	case schema.KindDate:
		days, err := r.ReadInt()
		return value.Date(days), at(err, path)
	case schema.KindTimestampMillis:
		ms, err := r.ReadLong()
		return value.Timestamp(time.UnixMilli(ms)), at(err, path)
	case schema.KindTimestampMicros:
		us, err := r.ReadLong()
		return value.Timestamp(time.UnixMicro(us)), at(err, path)
	default:
		return value.Value{}, &errs.DecodeError{Kind: errs.UnresolvedBranch, Offset: int64(r.Offset()), Path: path, Msg: "unsupported schema kind " + n.Kind.String()}
	}
}

func parseUUID(s string, offset int, path string) (value.Value, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return value.Value{}, &errs.DecodeError{Kind: errs.InvalidUUID, Offset: int64(offset), Path: path, Err: err}
	}

	return value.UUID(id), nil
}

// readBlocks reads an array's block sequence, calling item for each element.
func readBlocks(r *encoding.Reader, path string, item func(i int) (value.Value, error)) ([]value.Value, error) {
	var items []value.Value
	for {
		count, _, err := r.ReadBlockCount()
		if err != nil {
			return nil, at(err, path)
		}
		if count == 0 {
			return items, nil
		}
		if items == nil {
			items = make([]value.Value, 0, min(count, int64(r.Remaining())+1))
		}
		for range count {
			v, err := item(len(items))
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
	}
}

// readMapBlocks reads a map's block sequence of string keys and values.
func readMapBlocks(r *encoding.Reader, path string, val func(key string) (value.Value, error)) ([]value.Entry, error) {
	var entries []value.Entry
	for {
		count, _, err := r.ReadBlockCount()
		if err != nil {
			return nil, at(err, path)
		}
		if count == 0 {
			return entries, nil
		}
		if entries == nil {
			entries = make([]value.Entry, 0, min(count, int64(r.Remaining())/2+1))
		}
		for range count {
			key, err := r.ReadString()
			if err != nil {
				return nil, at(err, path)
			}
			v, err := val(key)
			if err != nil {
				return nil, err
			}
			entries = append(entries, value.Entry{Key: key, Value: v})
		}
	}
}
