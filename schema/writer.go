package schema

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.Config{EscapeHTML: false}.Froze()

type writeMode uint8

const (
	modeFull writeMode = iota
	modeNoDoc
	modeCanonical
)

type schemaWriter struct {
	s       *Schema
	mode    writeMode
	stream  *jsoniter.Stream
	written map[Ref]bool
}

func (s *Schema) render(mode writeMode) string {
	stream := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(stream)

	w := &schemaWriter{s: s, mode: mode, stream: stream, written: map[Ref]bool{}}
	w.node(s.root, "")

	return string(stream.Buffer())
}

// String returns the schema as JSON. Named types are written once, at their first
// occurrence, with fully-qualified names; later occurrences are name references.
// Parsing the result yields an equal Schema.
func (s *Schema) String() string {
	return s.render(modeFull)
}

// Canonical returns the Parsing Canonical Form: whitespace-free JSON that keeps only
// the attributes affecting how data is read (name, type, fields, symbols, items,
// values, size), with full names and primitives as bare strings.
func (s *Schema) Canonical() string {
	return s.render(modeCanonical)
}

// Equal reports whether two schemas describe the same types, defaults, aliases and
// logical annotations. Documentation strings are ignored.
func Equal(a, b *Schema) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.render(modeNoDoc) == b.render(modeNoDoc)
}

func (w *schemaWriter) canonical() bool { return w.mode == modeCanonical }

func (w *schemaWriter) field(name string, first *bool) {
	if !*first {
		w.stream.WriteMore()
	}
	*first = false
	w.stream.WriteObjectField(name)
}

func (w *schemaWriter) node(n Node, ns string) {
	st := w.stream
	switch n.Kind { //nolint:exhaustive
	case KindRecord, KindEnum, KindFixed:
		w.named(n.Ref, ns)
	case KindDecimal:
		if n.Ref != NoRef {
			w.named(n.Ref, ns)
			return
		}
		if w.canonical() {
			st.WriteString(KindBytes.String())
			return
		}
		st.WriteObjectStart()
		st.WriteObjectField("type")
		st.WriteString(KindBytes.String())
		st.WriteMore()
		st.WriteObjectField("logicalType")
		st.WriteString("decimal")
		st.WriteMore()
		st.WriteObjectField("precision")
		st.WriteInt(n.Precision)
		st.WriteMore()
		st.WriteObjectField("scale")
		st.WriteInt(n.Scale)
		st.WriteObjectEnd()
	case KindUUID, KindDate, KindTimestampMillis, KindTimestampMicros:
		if w.canonical() {
			st.WriteString(n.Underlying().String())
			return
		}
		st.WriteObjectStart()
		st.WriteObjectField("type")
		st.WriteString(n.Underlying().String())
		st.WriteMore()
		st.WriteObjectField("logicalType")
		st.WriteString(n.Kind.String())
		st.WriteObjectEnd()
	case KindArray:
		st.WriteObjectStart()
		st.WriteObjectField("type")
		st.WriteString("array")
		st.WriteMore()
		st.WriteObjectField("items")
		w.node(*n.Items, ns)
		st.WriteObjectEnd()
	case KindMap:
		st.WriteObjectStart()
		st.WriteObjectField("type")
		st.WriteString("map")
		st.WriteMore()
		st.WriteObjectField("values")
		w.node(*n.Values, ns)
		st.WriteObjectEnd()
	case KindUnion:
		st.WriteArrayStart()
		for i := range n.Branches {
			if i > 0 {
				st.WriteMore()
			}
			w.node(n.Branches[i], ns)
		}
		st.WriteArrayEnd()
	default:
		st.WriteString(n.Kind.String())
	}
}

func (w *schemaWriter) named(ref Ref, ns string) {
	st := w.stream
	nt := w.s.named[ref]
	if w.written[ref] {
		st.WriteString(nt.Name.Full())
		return
	}
	w.written[ref] = true

	first := true
	st.WriteObjectStart()
	w.field("name", &first)
	st.WriteString(nt.Name.Full())
	if !w.canonical() && nt.Name.Namespace == "" && ns != "" {
		w.field("namespace", &first)
		st.WriteString("")
	}
	w.field("type", &first)
	st.WriteString(nt.Kind.String())

	if !w.canonical() {
		if nt.Doc != "" && w.mode == modeFull {
			w.field("doc", &first)
			st.WriteString(nt.Doc)
		}
		if len(nt.Aliases) > 0 {
			w.field("aliases", &first)
			st.WriteArrayStart()
			for i, a := range nt.Aliases {
				if i > 0 {
					st.WriteMore()
				}
				st.WriteString(a.Full())
			}
			st.WriteArrayEnd()
		}
	}

	switch nt.Kind { //nolint:exhaustive
	case KindRecord:
		w.field("fields", &first)
		st.WriteArrayStart()
		for i := range nt.Fields {
			if i > 0 {
				st.WriteMore()
			}
			w.recordField(&nt.Fields[i], nt.Name.Namespace)
		}
		st.WriteArrayEnd()
	case KindEnum:
		w.field("symbols", &first)
		st.WriteArrayStart()
		for i, sym := range nt.Symbols {
			if i > 0 {
				st.WriteMore()
			}
			st.WriteString(sym)
		}
		st.WriteArrayEnd()
		if nt.HasDefault && !w.canonical() {
			w.field("default", &first)
			st.WriteString(nt.Default)
		}
	case KindFixed:
		w.field("size", &first)
		st.WriteInt(nt.Size)
		if nt.Decimal != nil && !w.canonical() {
			w.field("logicalType", &first)
			st.WriteString("decimal")
			w.field("precision", &first)
			st.WriteInt(nt.Decimal.Precision)
			w.field("scale", &first)
			st.WriteInt(nt.Decimal.Scale)
		}
	}
	st.WriteObjectEnd()
}

func (w *schemaWriter) recordField(f *Field, ns string) {
	st := w.stream
	first := true
	st.WriteObjectStart()
	w.field("name", &first)
	st.WriteString(f.Name)
	w.field("type", &first)
	w.node(f.Type, ns)

	if !w.canonical() {
		if f.Doc != "" && w.mode == modeFull {
			w.field("doc", &first)
			st.WriteString(f.Doc)
		}
		if len(f.Aliases) > 0 {
			w.field("aliases", &first)
			st.WriteArrayStart()
			for i, a := range f.Aliases {
				if i > 0 {
					st.WriteMore()
				}
				st.WriteString(a)
			}
			st.WriteArrayEnd()
		}
		if f.HasDefault {
			w.field("default", &first)
			w.jsonValue(w.s.defaultJSON(f.Type, f.Default))
		}
	}
	st.WriteObjectEnd()
}

func (w *schemaWriter) jsonValue(v any) {
	st := w.stream
	switch t := v.(type) {
	case nil:
		st.WriteNil()
	case bool:
		st.WriteBool(t)
	case json.Number:
		st.WriteRaw(t.String())
	case string:
		st.WriteString(t)
	case []any:
		st.WriteArrayStart()
		for i, elem := range t {
			if i > 0 {
				st.WriteMore()
			}
			w.jsonValue(elem)
		}
		st.WriteArrayEnd()
	case *jsonObject:
		st.WriteObjectStart()
		for i, key := range t.keys {
			if i > 0 {
				st.WriteMore()
			}
			st.WriteObjectField(key)
			w.jsonValue(t.vals[key])
		}
		st.WriteObjectEnd()
	}
}
