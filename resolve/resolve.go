package resolve

import (
	"strconv"

	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/schema"
	"github.com/arloliu/avrokit/value"
)

// Action tells a decoder how to turn writer bytes into a reader-shaped value.
type Action uint8

const (
	// Direct reads a primitive or logical writer value and converts it to the
	// reader's kind, applying numeric or string/bytes promotion when the
	// underlying kinds differ.
	Direct Action = iota + 1
	// Record reads writer fields in writer order, skipping the ones the reader
	// does not know, and fills missing reader fields from defaults.
	Record
	// Enum maps writer ordinals to reader ordinals.
	Enum
	// Fixed reads size raw bytes.
	Fixed
	// Array resolves its items with Items.
	Array
	// Map resolves its values with Items.
	Map
	// WriterUnion reads a writer branch index and continues with that branch's plan.
	WriterUnion
	// ReaderUnion reads a non-union writer value and wraps it in reader branch Branch.
	ReaderUnion
)

func (a Action) String() string {
	switch a {
	case Direct:
		return "direct"
	case Record:
		return "record"
	case Enum:
		return "enum"
	case Fixed:
		return "fixed"
	case Array:
		return "array"
	case Map:
		return "map"
	case WriterUnion:
		return "writer-union"
	case ReaderUnion:
		return "reader-union"
	default:
		return "invalid"
	}
}

// Node is one vertex of a resolved schema. Nodes for named types are shared, so a
// recursive schema pair resolves to a cyclic graph of Nodes.
type Node struct {
	Action Action
	Writer schema.Node
	Reader schema.Node

	// Fields lists writer fields in writer order.
	Fields []FieldPlan
	// Defaults lists reader fields that take their default value.
	Defaults []DefaultPlan
	// ReaderFields are the reader's field names in reader order.
	ReaderFields []string

	// Symbols maps a writer enum ordinal to a reader ordinal.
	Symbols []int
	// ReaderSymbols are the reader enum's symbols.
	ReaderSymbols []string

	// Size of a fixed.
	Size int

	// Items is the plan for array items or map values.
	Items *Node

	// Branches holds one plan per writer union branch. A nil entry has the
	// matching error in BranchErrs and fails only if that branch is decoded.
	Branches   []*Node
	BranchErrs []error

	// Branch is the selected reader union branch and Inner the plan that
	// produces its value.
	Branch int
	Inner  *Node
}

// FieldPlan describes one writer field.
type FieldPlan struct {
	Name string
	// Skip means the reader has no such field; the bytes are consumed and dropped.
	Skip   bool
	Writer schema.Node
	// Index is the position of the reader field that receives the value.
	Index int
	Node  *Node
}

// DefaultPlan fills reader field Index with Value.
type DefaultPlan struct {
	Index int
	Name  string
	Value value.Value
}

// Resolved is the immutable result of resolving a writer schema against a reader
// schema. It is safe for concurrent use.
type Resolved struct {
	writer *schema.Schema
	reader *schema.Schema
	root   *Node
}

// Writer returns the writer schema.
func (r *Resolved) Writer() *schema.Schema { return r.writer }

// Reader returns the reader schema.
func (r *Resolved) Reader() *schema.Schema { return r.reader }

// Root returns the plan for the top-level node.
func (r *Resolved) Root() *Node { return r.root }

// Resolve reconciles data written with writer so it can be read as reader.
//
// Resolution is eager: the whole schema graph is walked once and structural
// incompatibilities are reported here rather than while decoding. The only
// exception is a writer union branch that cannot be read, which fails only
// when a record actually selects that branch.
//
// Parameters:
//   - writer: Schema the data was encoded with
//   - reader: Schema the caller wants values in
//
// Returns:
//   - *Resolved: Resolution plan, reusable for every record of this pair
//   - error: *errs.ResolutionError on incompatibility
func Resolve(writer, reader *schema.Schema) (*Resolved, error) {
	r := &resolver{
		w:     writer,
		r:     reader,
		memo:  map[[2]schema.Ref]*Node{},
		fails: map[[2]schema.Ref]error{},
	}
	root, err := r.node(writer.Root(), reader.Root(), "")
	if err != nil {
		return nil, err
	}

	return &Resolved{writer: writer, reader: reader, root: root}, nil
}

type resolver struct {
	w, r  *schema.Schema
	memo  map[[2]schema.Ref]*Node
	fails map[[2]schema.Ref]error
	// added lists memo keys in insertion order so a failed named pair can drop
	// every plan built while it was in progress.
	added [][2]schema.Ref
}

func childPath(path, elem string) string {
	if path == "" {
		return elem
	}

	return path + "." + elem
}

func (r *resolver) mismatch(kind errs.ResolutionErrorKind, w, rd schema.Node, path string) error {
	return &errs.ResolutionError{Kind: kind, Path: path, Writer: r.w.TypeName(w), Reader: r.r.TypeName(rd)}
}

func (r *resolver) node(w, rd schema.Node, path string) (*Node, error) {
	if w.Kind == schema.KindUnion {
		return r.writerUnion(w, rd, path)
	}
	if rd.Kind == schema.KindUnion {
		return r.readerUnion(w, rd, path)
	}

	wu, ru := w.Underlying(), rd.Underlying()
	switch wu { //nolint:exhaustive
	case schema.KindRecord, schema.KindEnum, schema.KindFixed:
		if ru != wu {
			return nil, r.mismatch(errs.TypeMismatch, w, rd, path)
		}

		return r.named(w, rd, path)
	case schema.KindArray:
		if ru != schema.KindArray {
			return nil, r.mismatch(errs.TypeMismatch, w, rd, path)
		}
		items, err := r.node(*w.Items, *rd.Items, path+"[]")
		if err != nil {
			return nil, err
		}

		return &Node{Action: Array, Writer: w, Reader: rd, Items: items}, nil
	case schema.KindMap:
		if ru != schema.KindMap {
			return nil, r.mismatch(errs.TypeMismatch, w, rd, path)
		}
		values, err := r.node(*w.Values, *rd.Values, path+"{}")
		if err != nil {
			return nil, err
		}

		return &Node{Action: Map, Writer: w, Reader: rd, Items: values}, nil
	default:
		return r.direct(w, rd, path)
	}
}

// Promotable reports whether a writer primitive of kind from may be read as to.
func Promotable(from, to schema.Kind) bool {
	if from == to {
		return true
	}
	switch from { //nolint:exhaustive
	case schema.KindInt:
		return to == schema.KindLong || to == schema.KindFloat || to == schema.KindDouble
	case schema.KindLong:
		return to == schema.KindFloat || to == schema.KindDouble
	case schema.KindFloat:
		return to == schema.KindDouble
	case schema.KindString:
		return to == schema.KindBytes
	case schema.KindBytes:
		return to == schema.KindString
	default:
		return false
	}
}

func (r *resolver) direct(w, rd schema.Node, path string) (*Node, error) {
	wu, ru := w.Underlying(), rd.Underlying()
	if !wu.IsPrimitive() || !ru.IsPrimitive() || !Promotable(wu, ru) {
		return nil, r.mismatch(errs.TypeMismatch, w, rd, path)
	}
	if w.Kind.IsLogical() && rd.Kind.IsLogical() {
		if w.Kind != rd.Kind {
			return nil, r.mismatch(errs.TypeMismatch, w, rd, path)
		}
		if w.Kind == schema.KindDecimal && (w.Precision != rd.Precision || w.Scale != rd.Scale) {
			return nil, r.decimalMismatch(w, rd, path)
		}
	}

	return &Node{Action: Direct, Writer: w, Reader: rd}, nil
}

func (r *resolver) decimalMismatch(w, rd schema.Node, path string) error {
	return &errs.ResolutionError{
		Kind:   errs.DecimalMismatch,
		Path:   path,
		Writer: "decimal(" + strconv.Itoa(w.Precision) + "," + strconv.Itoa(w.Scale) + ")",
		Reader: "decimal(" + strconv.Itoa(rd.Precision) + "," + strconv.Itoa(rd.Scale) + ")",
	}
}

func (r *resolver) named(w, rd schema.Node, path string) (*Node, error) {
	wt, rt := r.w.Named(w.Ref), r.r.Named(rd.Ref)
	if !rt.HasName(wt.Name.Full()) {
		return nil, &errs.ResolutionError{
			Kind: errs.NameMismatch, Path: path,
			Writer: wt.Name.Full(), Reader: rt.Name.Full(),
		}
	}

	key := [2]schema.Ref{w.Ref, rd.Ref}
	if n, ok := r.memo[key]; ok {
		return n, nil
	}
	if err, ok := r.fails[key]; ok {
		return nil, err
	}

	n := &Node{Writer: w, Reader: rd}
	mark := len(r.added)
	r.memo[key] = n
	r.added = append(r.added, key)

	var err error
	switch wt.Kind { //nolint:exhaustive
	case schema.KindRecord:
		err = r.record(n, wt, rt, childPath(path, rt.Name.Full()))
	case schema.KindEnum:
		err = r.enum(n, wt, rt, path)
	default:
		err = r.fixed(n, wt, rt, w, rd, path)
	}
	if err != nil {
		for _, k := range r.added[mark:] {
			delete(r.memo, k)
		}
		r.added = r.added[:mark]
		r.fails[key] = err

		return nil, err
	}

	return n, nil
}

func (r *resolver) record(n *Node, wt, rt *schema.Named, path string) error {
	n.Action = Record
	n.ReaderFields = make([]string, len(rt.Fields))
	matched := make([]bool, len(wt.Fields))
	targets := make([]int, len(wt.Fields))
	for i := range targets {
		targets[i] = -1
	}

	for ri := range rt.Fields {
		rf := &rt.Fields[ri]
		n.ReaderFields[ri] = rf.Name
		wi := writerFieldFor(wt, rf)
		if wi < 0 || matched[wi] {
			if !rf.HasDefault {
				return &errs.ResolutionError{
					Kind: errs.MissingField, Path: childPath(path, rf.Name),
					Writer: wt.Name.Full(), Reader: rt.Name.Full(), Field: rf.Name,
				}
			}
			n.Defaults = append(n.Defaults, DefaultPlan{Index: ri, Name: rf.Name, Value: rf.Default})

			continue
		}
		matched[wi] = true
		targets[wi] = ri
	}

	n.Fields = make([]FieldPlan, len(wt.Fields))
	for wi := range wt.Fields {
		wf := &wt.Fields[wi]
		plan := FieldPlan{Name: wf.Name, Writer: wf.Type, Index: targets[wi], Skip: targets[wi] < 0}
		if !plan.Skip {
			rf := &rt.Fields[plan.Index]
			child, err := r.node(wf.Type, rf.Type, childPath(path, rf.Name))
			if err != nil {
				return err
			}
			plan.Node = child
		}
		n.Fields[wi] = plan
	}

	return nil
}

// writerFieldFor finds the writer field feeding reader field rf: same name first,
// then a writer alias equal to the reader name, then a reader alias equal to a
// writer name.
func writerFieldFor(wt *schema.Named, rf *schema.Field) int {
	if idx, ok := wt.FieldIndex(rf.Name); ok {
		return idx
	}
	for i := range wt.Fields {
		for _, alias := range wt.Fields[i].Aliases {
			if alias == rf.Name {
				return i
			}
		}
	}
	for _, alias := range rf.Aliases {
		if idx, ok := wt.FieldIndex(alias); ok {
			return idx
		}
	}

	return -1
}

func (r *resolver) enum(n *Node, wt, rt *schema.Named, path string) error {
	n.Action = Enum
	n.ReaderSymbols = rt.Symbols
	n.Symbols = make([]int, len(wt.Symbols))

	fallback := -1
	if rt.HasDefault {
		fallback, _ = rt.SymbolIndex(rt.Default)
	}
	for wi, sym := range wt.Symbols {
		ri, ok := rt.SymbolIndex(sym)
		if !ok {
			if fallback < 0 {
				return &errs.ResolutionError{
					Kind: errs.UnknownSymbol, Path: path,
					Writer: wt.Name.Full(), Reader: rt.Name.Full(), Symbol: sym,
				}
			}
			ri = fallback
		}
		n.Symbols[wi] = ri
	}

	return nil
}

func (r *resolver) fixed(n *Node, wt, rt *schema.Named, w, rd schema.Node, path string) error {
	n.Action = Fixed
	if wt.Size != rt.Size {
		return &errs.ResolutionError{
			Kind: errs.SizeMismatch, Path: path,
			Writer: wt.Name.Full() + "(" + strconv.Itoa(wt.Size) + ")",
			Reader: rt.Name.Full() + "(" + strconv.Itoa(rt.Size) + ")",
		}
	}
	if w.Kind == schema.KindDecimal && rd.Kind == schema.KindDecimal &&
		(w.Precision != rd.Precision || w.Scale != rd.Scale) {
		return r.decimalMismatch(w, rd, path)
	}
	n.Size = wt.Size

	return nil
}

func (r *resolver) writerUnion(w, rd schema.Node, path string) (*Node, error) {
	n := &Node{
		Action:     WriterUnion,
		Writer:     w,
		Reader:     rd,
		Branches:   make([]*Node, len(w.Branches)),
		BranchErrs: make([]error, len(w.Branches)),
	}
	for i := range w.Branches {
		bpath := path + "[" + strconv.Itoa(i) + "]"
		child, err := r.node(w.Branches[i], rd, bpath)
		if err != nil {
			n.BranchErrs[i] = err
			continue
		}
		n.Branches[i] = child
	}

	return n, nil
}

// sameType reports whether writer node w and reader node rd are the same type
// without promotion.
func (r *resolver) sameType(w, rd schema.Node) bool {
	if w.Kind != rd.Kind {
		return false
	}
	if w.Ref == schema.NoRef || rd.Ref == schema.NoRef {
		return w.Ref == rd.Ref
	}

	return r.r.Named(rd.Ref).HasName(r.w.Named(w.Ref).Name.Full())
}

// readerUnion picks the reader branch for a non-union writer node: an identical
// type first, otherwise the first branch the writer resolves against.
func (r *resolver) readerUnion(w, rd schema.Node, path string) (*Node, error) {
	pick := func(idx int) (*Node, error) {
		inner, err := r.node(w, rd.Branches[idx], path)
		if err != nil {
			return nil, err
		}

		return &Node{Action: ReaderUnion, Writer: w, Reader: rd, Branch: idx, Inner: inner}, nil
	}

	for i := range rd.Branches {
		if r.sameType(w, rd.Branches[i]) {
			if n, err := pick(i); err == nil {
				return n, nil
			}
		}
	}
	for i := range rd.Branches {
		if n, err := pick(i); err == nil {
			return n, nil
		}
	}

	return nil, r.mismatch(errs.NoMatchingBranch, w, rd, path)
}

// Walk calls fn once for every node reachable from root. Shared and recursive
// nodes are visited once.
func Walk(root *Node, fn func(*Node)) {
	seen := make(map[*Node]bool)
	var visit func(n *Node)
	visit = func(n *Node) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		fn(n)
		for i := range n.Fields {
			visit(n.Fields[i].Node)
		}
		visit(n.Items)
		for _, b := range n.Branches {
			visit(b)
		}
		visit(n.Inner)
	}
	visit(root)
}
