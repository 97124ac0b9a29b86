package codec

import (
	"github.com/arloliu/avrokit/encoding"
	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/schema"
)

// Skip advances r past one value of schema s without materializing it. Array and
// map blocks that carry a byte-size hint are skipped in one step.
func Skip(s *schema.Schema, r *encoding.Reader, opts ...Option) error {
	cfg, err := newConfig(opts)
	if err != nil {
		return err
	}

	return skip(&decoder{s: s, r: r, maxDepth: cfg.maxDepth}, s.Root(), "", 0)
}

//nolint:gocyclo,cyclop
func skip(d *decoder, n schema.Node, path string, depth int) error {
	if depth > d.maxDepth {
		return d.depthErr(path)
	}

	r := d.r
	switch n.Underlying() { //nolint:exhaustive
	case schema.KindNull:
		return nil
	case schema.KindBoolean:
		return at(r.Skip(1), path)
	case schema.KindInt, schema.KindLong:
		_, err := r.ReadLong()
		return at(err, path)
	case schema.KindFloat:
		return at(r.Skip(4), path)
	case schema.KindDouble:
		return at(r.Skip(8), path)
	case schema.KindBytes, schema.KindString:
		return at(r.SkipBytes(), path)
	case schema.KindFixed:
		return at(r.Skip(d.s.Named(n.Ref).Size), path)
	case schema.KindEnum:
		_, err := d.ordinal(len(d.s.Named(n.Ref).Symbols), errs.InvalidEnumOrdinal, path)
		return err
	case schema.KindArray:
		return skipBlocks(d, path, func() error { return skip(d, *n.Items, path+"[]", depth+1) })
	case schema.KindMap:
		return skipBlocks(d, path, func() error {
			if err := r.SkipBytes(); err != nil {
				return at(err, path)
			}

			return skip(d, *n.Values, path+"{}", depth+1)
		})
	case schema.KindUnion:
		idx, err := d.ordinal(len(n.Branches), errs.InvalidUnionTag, path)
		if err != nil {
			return err
		}

		return skip(d, n.Branches[idx], path, depth+1)
	case schema.KindRecord:
		nt := d.s.Named(n.Ref)
		rpath := recordPath(path, nt)
		for i := range nt.Fields {
			if err := skip(d, nt.Fields[i].Type, joinPath(rpath, nt.Fields[i].Name), depth+1); err != nil {
				return err
			}
		}

		return nil
	default:
		return d.r.Errorf(errs.UnresolvedBranch, "cannot skip %s", n.Kind)
	}
}

func skipBlocks(d *decoder, path string, item func() error) error {
	for {
		count, size, err := d.r.ReadBlockCount()
		if err != nil {
			return at(err, path)
		}
		if count == 0 {
			return nil
		}
		if size >= 0 {
			if size > int64(d.r.Remaining()) {
				return at(d.r.Skip(d.r.Remaining()+1), path)
			}
			if err := d.r.Skip(int(size)); err != nil {
				return at(err, path)
			}

			continue
		}
		for range count {
			if err := item(); err != nil {
				return err
			}
		}
	}
}
