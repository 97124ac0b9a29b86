package schema

import (
	"strings"

	"github.com/arloliu/avrokit/value"
)

// Kind is the variant tag of a schema Node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindFixed
	KindEnum
	KindArray
	KindMap
	KindUnion
	KindRecord
	KindDecimal
	KindUUID
	KindDate
	KindTimestampMillis
	KindTimestampMicros
)

var kindNames = [...]string{
	KindInvalid:         "invalid",
	KindNull:            "null",
	KindBoolean:         "boolean",
	KindInt:             "int",
	KindLong:            "long",
	KindFloat:           "float",
	KindDouble:          "double",
	KindBytes:           "bytes",
	KindString:          "string",
	KindFixed:           "fixed",
	KindEnum:            "enum",
	KindArray:           "array",
	KindMap:             "map",
	KindUnion:           "union",
	KindRecord:          "record",
	KindDecimal:         "decimal",
	KindUUID:            "uuid",
	KindDate:            "date",
	KindTimestampMillis: "timestamp-millis",
	KindTimestampMicros: "timestamp-micros",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "invalid"
}

// IsPrimitive reports whether k is one of the eight attribute-free primitives.
func (k Kind) IsPrimitive() bool {
	return k >= KindNull && k <= KindString
}

// IsNamed reports whether nodes of kind k refer to the named-type table.
func (k Kind) IsNamed() bool {
	return k == KindFixed || k == KindEnum || k == KindRecord
}

// IsLogical reports whether k is a logical refinement of another kind.
func (k Kind) IsLogical() bool {
	return k >= KindDecimal && k <= KindTimestampMicros
}

// Ref is a handle into a Schema's named-type table.
type Ref int32

// NoRef marks a node that does not refer to a named type.
const NoRef Ref = -1

// Node is one vertex of the schema graph. Named types are not nested in place;
// a Record, Enum or Fixed node (and a Decimal node backed by a fixed) carries a
// Ref into the table of the Schema that owns it, which makes recursive types a
// graph of handles rather than a cycle of pointers.
type Node struct {
	Kind Kind
	// Ref is the named type for KindRecord, KindEnum, KindFixed and fixed-backed
	// KindDecimal; NoRef otherwise.
	Ref Ref
	// Items is the element schema of an array.
	Items *Node
	// Values is the value schema of a map.
	Values *Node
	// Branches are the members of a union in declared order.
	Branches []Node
	// Precision and Scale describe a decimal.
	Precision int
	Scale     int
}

// Primitive returns a node of the given attribute-free kind.
func Primitive(kind Kind) Node {
	return Node{Kind: kind, Ref: NoRef}
}

// Underlying returns the kind that determines n's wire encoding: logical kinds map to
// the primitive or fixed they refine; every other kind maps to itself.
func (n Node) Underlying() Kind {
	switch n.Kind { //nolint:exhaustive
	case KindDecimal:
		if n.Ref != NoRef {
			return KindFixed
		}

		return KindBytes
	case KindUUID:
		return KindString
	case KindDate:
		return KindInt
	case KindTimestampMillis, KindTimestampMicros:
		return KindLong
	default:
		return n.Kind
	}
}

// Name is a namespace-qualified type name.
type Name struct {
	Namespace string
	Local     string
}

// ParseName splits a possibly dotted name, inheriting namespace when name has none.
func ParseName(name, namespace string) Name {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return Name{Namespace: name[:idx], Local: name[idx+1:]}
	}

	return Name{Namespace: namespace, Local: name}
}

// Full returns the fully-qualified dotted name.
func (n Name) Full() string {
	if n.Namespace == "" {
		return n.Local
	}

	return n.Namespace + "." + n.Local
}

func (n Name) String() string { return n.Full() }

// Field is one field of a record.
type Field struct {
	Name    string
	Type    Node
	Doc     string
	Aliases []string
	// Default is the typed default value; valid only when HasDefault is true.
	// A union-typed field's default selects the union's first branch.
	Default    value.Value
	HasDefault bool

	rawDefault any
}

// Named is a record, enum or fixed definition in a Schema's named-type table.
type Named struct {
	Kind    Kind
	Name    Name
	Aliases []Name
	Doc     string

	// Fields of a record, in declared order.
	Fields []Field
	// Symbols of an enum; a symbol's position is its wire ordinal.
	Symbols []string
	// Default is the enum's fallback symbol used by schema resolution.
	Default    string
	HasDefault bool
	// Size of a fixed in bytes.
	Size int
	// Decimal is set when a fixed carries the decimal logical type.
	Decimal *DecimalSpec

	fieldIndex  map[string]int
	symbolIndex map[string]int
}

// DecimalSpec holds the logical decimal attributes of a fixed.
type DecimalSpec struct {
	Precision int
	Scale     int
}

// FieldIndex returns the position of the named field.
func (n *Named) FieldIndex(name string) (int, bool) {
	idx, ok := n.fieldIndex[name]
	return idx, ok
}

// SymbolIndex returns the ordinal of the named symbol.
func (n *Named) SymbolIndex(symbol string) (int, bool) {
	idx, ok := n.symbolIndex[symbol]
	return idx, ok
}

// HasName reports whether full equals the type's full name or one of its aliases.
func (n *Named) HasName(full string) bool {
	if n.Name.Full() == full {
		return true
	}
	for _, a := range n.Aliases {
		if a.Full() == full {
			return true
		}
	}

	return false
}

// Schema is an immutable parsed schema: a root node plus the named types it defines.
// Named-type registration is local to each Schema; two independently parsed
// schemas never share names.
type Schema struct {
	root   Node
	named  []*Named
	byName map[string]Ref
}

// Root returns the top-level node.
func (s *Schema) Root() Node { return s.root }

// Named returns the named type behind ref. It panics on a ref this schema did not issue.
func (s *Schema) Named(ref Ref) *Named { return s.named[ref] }

// NamedTypes returns the named-type table in definition order.
func (s *Schema) NamedTypes() []*Named {
	out := make([]*Named, len(s.named))
	copy(out, s.named)

	return out
}

// Lookup finds a named type by fully-qualified name.
func (s *Schema) Lookup(fullName string) (Ref, bool) {
	ref, ok := s.byName[fullName]
	return ref, ok
}

// Sub returns a schema sharing s's named types but rooted at n.
func (s *Schema) Sub(n Node) *Schema {
	return &Schema{root: n, named: s.named, byName: s.byName}
}

// TypeName returns a short human-readable name for n: the primitive or logical
// kind name, or the full name of a named type.
func (s *Schema) TypeName(n Node) string {
	switch n.Kind { //nolint:exhaustive
	case KindRecord, KindEnum, KindFixed:
		return s.named[n.Ref].Name.Full()
	case KindArray:
		return "array<" + s.TypeName(*n.Items) + ">"
	case KindMap:
		return "map<" + s.TypeName(*n.Values) + ">"
	case KindUnion:
		parts := make([]string, len(n.Branches))
		for i := range n.Branches {
			parts[i] = s.TypeName(n.Branches[i])
		}

		return "union[" + strings.Join(parts, ",") + "]"
	default:
		return n.Kind.String()
	}
}

// refNode builds the node that references a named type, carrying the decimal
// refinement of a fixed when present.
func (s *Schema) refNode(ref Ref) Node {
	nt := s.named[ref]
	if nt.Kind == KindFixed && nt.Decimal != nil {
		return Node{Kind: KindDecimal, Ref: ref, Precision: nt.Decimal.Precision, Scale: nt.Decimal.Scale}
	}

	return Node{Kind: nt.Kind, Ref: ref}
}

// unionTag returns the key that must be unique among a union's branches.
func (s *Schema) unionTag(n Node) string {
	switch n.Underlying() { //nolint:exhaustive
	case KindRecord, KindEnum, KindFixed:
		return s.named[n.Ref].Name.Full()
	default:
		return n.Underlying().String()
	}
}
