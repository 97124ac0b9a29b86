package schema

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/internal/options"
)

// DefaultMaxDepth is the default bound on schema nesting depth.
const DefaultMaxDepth = 64

type parseConfig struct {
	logger   *zap.Logger
	maxDepth int
}

// ParseOption configures Parse.
type ParseOption = options.Option[*parseConfig]

// WithLogger sets the logger that receives warnings about ignored or malformed
// logical-type annotations. The default logger discards everything.
func WithLogger(logger *zap.Logger) ParseOption {
	return options.NoError(func(cfg *parseConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	})
}

// WithMaxDepth bounds how deeply schema nodes may nest. Deeper schemas fail with
// a DepthExceeded SchemaError instead of growing the stack without limit.
func WithMaxDepth(depth int) ParseOption {
	return options.New(func(cfg *parseConfig) error {
		if depth <= 0 {
			return fmt.Errorf("invalid max depth: %d", depth)
		}
		cfg.maxDepth = depth

		return nil
	})
}

// Parse parses a JSON schema description into a Schema.
//
// Named types may be referenced before their definition and from within
// themselves; names resolve against the namespace of the enclosing named type.
//
// Parameters:
//   - text: Schema JSON (a primitive name string, a union array or a type object)
//   - opts: Parse options
//
// Returns:
//   - *Schema: Parsed immutable schema
//   - error: *errs.SchemaError describing the first problem found
func Parse(text string, opts ...ParseOption) (*Schema, error) {
	cfg := &parseConfig{logger: zap.NewNop(), maxDepth: DefaultMaxDepth}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	doc, err := readJSON(text)
	if err != nil {
		return nil, err
	}

	p := &parser{
		cfg:  cfg,
		s:    &Schema{byName: map[string]Ref{}},
		defs: map[*jsonObject]Ref{},
	}
	if err := p.prescan(doc, "", "", 0); err != nil {
		return nil, err
	}

	root, err := p.parseNode(doc, "", "", 0)
	if err != nil {
		return nil, err
	}
	p.s.root = root

	if err := p.resolveDefaults(); err != nil {
		return nil, err
	}

	return p.s, nil
}

// MustParse is like Parse but panics on error. Intended for schemas embedded in code.
func MustParse(text string, opts ...ParseOption) *Schema {
	s, err := Parse(text, opts...)
	if err != nil {
		panic(err)
	}

	return s
}

type pendingDefault struct {
	ref   Ref
	field int
	path  string
}

type parser struct {
	cfg      *parseConfig
	s        *Schema
	defs     map[*jsonObject]Ref
	defaults []pendingDefault
}

func isNamedDefinition(t string) bool {
	switch t {
	case "record", "error", "enum", "fixed":
		return true
	default:
		return false
	}
}

func primitiveKind(name string) (Kind, bool) {
	switch name {
	case "null":
		return KindNull, true
	case "boolean":
		return KindBoolean, true
	case "int":
		return KindInt, true
	case "long":
		return KindLong, true
	case "float":
		return KindFloat, true
	case "double":
		return KindDouble, true
	case "bytes":
		return KindBytes, true
	case "string":
		return KindString, true
	default:
		return KindInvalid, false
	}
}

func joinPath(path, elem string) string {
	if path == "" {
		return elem
	}

	return path + "." + elem
}

// prescan registers every named definition so references may precede definitions.
func (p *parser) prescan(j any, ns string, path string, depth int) error {
	if depth > p.cfg.maxDepth {
		return errs.NewSchemaError(errs.DepthExceeded, path, "nesting exceeds %d", p.cfg.maxDepth)
	}

	switch t := j.(type) {
	case []any:
		for i, branch := range t {
			if err := p.prescan(branch, ns, fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
				return err
			}
		}
	case *jsonObject:
		typ, _ := t.get("type")
		switch tt := typ.(type) {
		case string:
			if isNamedDefinition(tt) {
				return p.register(t, tt, ns, path, depth)
			}
			if tt == "array" {
				if items, ok := t.get("items"); ok {
					return p.prescan(items, ns, joinPath(path, "items"), depth+1)
				}
			}
			if tt == "map" {
				if values, ok := t.get("values"); ok {
					return p.prescan(values, ns, joinPath(path, "values"), depth+1)
				}
			}
		case []any, *jsonObject:
			return p.prescan(tt, ns, path, depth+1)
		}
	}

	return nil
}

func (p *parser) register(obj *jsonObject, typ, ns, path string, depth int) error {
	rawName, ok := obj.str("name")
	if !ok {
		return errs.NewSchemaError(errs.MissingAttribute, path, "%s requires a string \"name\"", typ)
	}
	if explicit, ok := obj.str("namespace"); ok && !containsDot(rawName) {
		ns = explicit
	}
	name := ParseName(rawName, ns)
	if err := validateFullName(name, path); err != nil {
		return err
	}
	if _, prim := primitiveKind(name.Local); prim && name.Namespace == "" {
		return errs.NewSchemaError(errs.InvalidName, path, "%q redefines a primitive type", name.Full())
	}
	full := name.Full()
	if _, dup := p.s.byName[full]; dup {
		return errs.NewSchemaError(errs.DuplicateName, path, "%q is already defined", full)
	}

	nt := &Named{Name: name}
	switch typ {
	case "enum":
		nt.Kind = KindEnum
	case "fixed":
		nt.Kind = KindFixed
		if err := p.fixedAttributes(obj, nt, joinPath(path, full)); err != nil {
			return err
		}
	default:
		nt.Kind = KindRecord
	}

	ref := Ref(len(p.s.named)) //nolint:gosec
	p.s.named = append(p.s.named, nt)
	p.s.byName[full] = ref
	p.defs[obj] = ref

	if nt.Kind != KindRecord {
		return nil
	}
	fields, _ := obj.get("fields")
	list, ok := fields.([]any)
	if !ok {
		return nil
	}
	for _, f := range list {
		fo, ok := f.(*jsonObject)
		if !ok {
			continue
		}
		fname, _ := fo.str("name")
		if ft, ok := fo.get("type"); ok {
			if err := p.prescan(ft, name.Namespace, joinPath(joinPath(path, full), fname), depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *parser) fixedAttributes(obj *jsonObject, nt *Named, path string) error {
	raw, ok := obj.get("size")
	if !ok {
		return errs.NewSchemaError(errs.MissingAttribute, path, "fixed requires \"size\"")
	}
	size, ok := asInt(raw)
	if !ok || size < 0 || size > math.MaxInt32 {
		return errs.NewSchemaError(errs.InvalidAttribute, path, "invalid fixed size %v", raw)
	}
	nt.Size = int(size)

	if lt, _ := obj.str("logicalType"); lt == "decimal" {
		precision, scale, err := decimalAttributes(obj, path)
		if err != nil {
			return err
		}
		if maxPrec := maxFixedPrecision(nt.Size); precision > maxPrec {
			return errs.NewSchemaError(errs.InvalidDecimal, path,
				"precision %d does not fit in fixed(%d), max %d", precision, nt.Size, maxPrec)
		}
		nt.Decimal = &DecimalSpec{Precision: precision, Scale: scale}
	}

	return nil
}

// maxFixedPrecision returns the number of base-10 digits a two's-complement
// integer of size bytes can always hold.
func maxFixedPrecision(size int) int {
	if size <= 0 {
		return 0
	}

	return int(math.Floor(float64(8*size-1) * math.Log10(2)))
}

func decimalAttributes(obj *jsonObject, path string) (int, int, error) {
	rawPrec, ok := obj.get("precision")
	if !ok {
		return 0, 0, errs.NewSchemaError(errs.InvalidDecimal, path, "decimal requires \"precision\"")
	}
	precision, ok := asInt(rawPrec)
	if !ok || precision <= 0 || precision > math.MaxInt32 {
		return 0, 0, errs.NewSchemaError(errs.InvalidDecimal, path, "invalid precision %v", rawPrec)
	}
	var scale int64
	if rawScale, ok := obj.get("scale"); ok {
		scale, ok = asInt(rawScale)
		if !ok || scale < 0 {
			return 0, 0, errs.NewSchemaError(errs.InvalidDecimal, path, "invalid scale %v", rawScale)
		}
	}
	if scale > precision {
		return 0, 0, errs.NewSchemaError(errs.InvalidDecimal, path, "scale %d exceeds precision %d", scale, precision)
	}

	return int(precision), int(scale), nil
}

func (p *parser) parseNode(j any, ns string, path string, depth int) (Node, error) {
	if depth > p.cfg.maxDepth {
		return Node{}, errs.NewSchemaError(errs.DepthExceeded, path, "nesting exceeds %d", p.cfg.maxDepth)
	}

	switch t := j.(type) {
	case string:
		return p.lookupType(t, ns, path)
	case []any:
		return p.parseUnion(t, ns, path, depth)
	case *jsonObject:
		return p.parseObject(t, ns, path, depth)
	default:
		return Node{}, errs.NewSchemaError(errs.UnknownType, path, "expected a type name, union or object, got %T", j)
	}
}

func (p *parser) lookupType(name, ns, path string) (Node, error) {
	if kind, ok := primitiveKind(name); ok {
		return Primitive(kind), nil
	}
	if !containsDot(name) && ns != "" {
		if ref, ok := p.s.byName[ns+"."+name]; ok {
			return p.s.refNode(ref), nil
		}
	}
	if ref, ok := p.s.byName[name]; ok {
		return p.s.refNode(ref), nil
	}

	return Node{}, errs.NewSchemaError(errs.UnknownType, path, "unknown type %q", name)
}

func (p *parser) parseUnion(list []any, ns, path string, depth int) (Node, error) {
	if len(list) == 0 {
		return Node{}, errs.NewSchemaError(errs.InvalidAttribute, path, "union must have at least one branch")
	}

	node := Node{Kind: KindUnion, Ref: NoRef, Branches: make([]Node, 0, len(list))}
	seen := make(map[string]int, len(list))
	for i, raw := range list {
		bpath := fmt.Sprintf("%s[%d]", path, i)
		branch, err := p.parseNode(raw, ns, bpath, depth+1)
		if err != nil {
			return Node{}, err
		}
		if branch.Kind == KindUnion {
			return Node{}, errs.NewSchemaError(errs.NestedUnion, bpath, "union may not contain a union")
		}
		tag := p.s.unionTag(branch)
		if prev, dup := seen[tag]; dup {
			return Node{}, errs.NewSchemaError(errs.DuplicateUnionBranch, bpath,
				"branch %d duplicates branch %d (%s)", i, prev, tag)
		}
		seen[tag] = i
		node.Branches = append(node.Branches, branch)
	}

	return node, nil
}

func (p *parser) parseObject(obj *jsonObject, ns, path string, depth int) (Node, error) {
	typ, ok := obj.get("type")
	if !ok {
		return Node{}, errs.NewSchemaError(errs.MissingAttribute, path, "object requires \"type\"")
	}

	tname, isName := typ.(string)
	if !isName {
		return p.parseNode(typ, ns, path, depth+1)
	}

	switch tname {
	case "record", "error":
		return p.parseRecord(obj, path, depth)
	case "enum":
		return p.parseEnum(obj, path)
	case "fixed":
		ref := p.defs[obj]
		p.namedExtras(obj, p.s.named[ref])

		return p.s.refNode(ref), nil
	case "array":
		items, ok := obj.get("items")
		if !ok {
			return Node{}, errs.NewSchemaError(errs.MissingAttribute, path, "array requires \"items\"")
		}
		item, err := p.parseNode(items, ns, joinPath(path, "items"), depth+1)
		if err != nil {
			return Node{}, err
		}

		return Node{Kind: KindArray, Ref: NoRef, Items: &item}, nil
	case "map":
		values, ok := obj.get("values")
		if !ok {
			return Node{}, errs.NewSchemaError(errs.MissingAttribute, path, "map requires \"values\"")
		}
		val, err := p.parseNode(values, ns, joinPath(path, "values"), depth+1)
		if err != nil {
			return Node{}, err
		}

		return Node{Kind: KindMap, Ref: NoRef, Values: &val}, nil
	}

	if kind, ok := primitiveKind(tname); ok {
		return p.applyLogical(kind, obj, path)
	}

	return p.lookupType(tname, ns, path)
}

func (p *parser) namedExtras(obj *jsonObject, nt *Named) {
	nt.Doc, _ = obj.str("doc")
	if raw, ok := obj.get("aliases"); ok {
		if list, ok := raw.([]any); ok {
			for _, a := range list {
				if s, ok := a.(string); ok {
					nt.Aliases = append(nt.Aliases, ParseName(s, nt.Name.Namespace))
				}
			}
		}
	}
}

func (p *parser) parseRecord(obj *jsonObject, path string, depth int) (Node, error) {
	ref := p.defs[obj]
	nt := p.s.named[ref]
	p.namedExtras(obj, nt)
	rpath := joinPath(path, nt.Name.Full())

	raw, ok := obj.get("fields")
	if !ok {
		return Node{}, errs.NewSchemaError(errs.MissingAttribute, rpath, "record requires \"fields\"")
	}
	list, ok := raw.([]any)
	if !ok {
		return Node{}, errs.NewSchemaError(errs.InvalidAttribute, rpath, "\"fields\" must be an array")
	}

	nt.Fields = make([]Field, 0, len(list))
	nt.fieldIndex = make(map[string]int, len(list))
	for i, rf := range list {
		fo, ok := rf.(*jsonObject)
		if !ok {
			return Node{}, errs.NewSchemaError(errs.InvalidAttribute, fmt.Sprintf("%s[%d]", rpath, i), "field must be an object")
		}
		fname, ok := fo.str("name")
		if !ok {
			return Node{}, errs.NewSchemaError(errs.MissingAttribute, fmt.Sprintf("%s[%d]", rpath, i), "field requires a string \"name\"")
		}
		fpath := joinPath(rpath, fname)
		if !validName(fname) {
			return Node{}, errs.NewSchemaError(errs.InvalidName, fpath, "invalid field name %q", fname)
		}
		if _, dup := nt.fieldIndex[fname]; dup {
			return Node{}, errs.NewSchemaError(errs.DuplicateField, fpath, "field %q defined twice", fname)
		}
		ftype, ok := fo.get("type")
		if !ok {
			return Node{}, errs.NewSchemaError(errs.MissingAttribute, fpath, "field requires \"type\"")
		}
		node, err := p.parseNode(ftype, nt.Name.Namespace, fpath, depth+1)
		if err != nil {
			return Node{}, err
		}

		field := Field{Name: fname, Type: node}
		field.Doc, _ = fo.str("doc")
		if rawAliases, ok := fo.get("aliases"); ok {
			if aliases, ok := rawAliases.([]any); ok {
				for _, a := range aliases {
					if s, ok := a.(string); ok {
						field.Aliases = append(field.Aliases, s)
					}
				}
			}
		}
		if rawDefault, ok := fo.get("default"); ok {
			field.rawDefault = rawDefault
			field.HasDefault = true
			p.defaults = append(p.defaults, pendingDefault{ref: ref, field: len(nt.Fields), path: fpath})
		}

		nt.fieldIndex[fname] = len(nt.Fields)
		nt.Fields = append(nt.Fields, field)
	}

	return p.s.refNode(ref), nil
}

func (p *parser) parseEnum(obj *jsonObject, path string) (Node, error) {
	ref := p.defs[obj]
	nt := p.s.named[ref]
	p.namedExtras(obj, nt)
	epath := joinPath(path, nt.Name.Full())

	raw, ok := obj.get("symbols")
	if !ok {
		return Node{}, errs.NewSchemaError(errs.MissingAttribute, epath, "enum requires \"symbols\"")
	}
	list, ok := raw.([]any)
	if !ok {
		return Node{}, errs.NewSchemaError(errs.InvalidAttribute, epath, "\"symbols\" must be an array")
	}

	nt.Symbols = make([]string, 0, len(list))
	nt.symbolIndex = make(map[string]int, len(list))
	for _, rs := range list {
		sym, ok := rs.(string)
		if !ok || !validName(sym) {
			return Node{}, errs.NewSchemaError(errs.InvalidName, epath, "invalid enum symbol %v", rs)
		}
		if _, dup := nt.symbolIndex[sym]; dup {
			return Node{}, errs.NewSchemaError(errs.DuplicateSymbol, epath, "symbol %q listed twice", sym)
		}
		nt.symbolIndex[sym] = len(nt.Symbols)
		nt.Symbols = append(nt.Symbols, sym)
	}

	if rawDefault, ok := obj.get("default"); ok {
		sym, ok := rawDefault.(string)
		if !ok {
			return Node{}, errs.NewSchemaError(errs.InvalidDefault, epath, "enum default must be a string")
		}
		if _, known := nt.symbolIndex[sym]; !known {
			return Node{}, errs.NewSchemaError(errs.InvalidDefault, epath, "enum default %q is not a symbol", sym)
		}
		nt.Default = sym
		nt.HasDefault = true
	}

	return p.s.refNode(ref), nil
}

// applyLogical refines a primitive with its logicalType annotation. A logical type
// on the wrong underlying primitive is advisory and is dropped with a warning.
func (p *parser) applyLogical(kind Kind, obj *jsonObject, path string) (Node, error) {
	lt, ok := obj.str("logicalType")
	if !ok {
		return Primitive(kind), nil
	}

	var want Kind
	var logical Kind
	switch lt {
	case "decimal":
		want, logical = KindBytes, KindDecimal
	case "uuid":
		want, logical = KindString, KindUUID
	case "date":
		want, logical = KindInt, KindDate
	case "timestamp-millis":
		want, logical = KindLong, KindTimestampMillis
	case "timestamp-micros":
		want, logical = KindLong, KindTimestampMicros
	default:
		p.cfg.logger.Debug("ignoring unsupported logical type",
			zap.String("path", path), zap.String("logicalType", lt))

		return Primitive(kind), nil
	}

	if kind != want {
		p.cfg.logger.Warn("logical type does not apply to underlying type, using underlying type",
			zap.String("path", path),
			zap.String("logicalType", lt),
			zap.Stringer("type", kind))

		return Primitive(kind), nil
	}

	if logical != KindDecimal {
		return Primitive(logical), nil
	}

	precision, scale, err := decimalAttributes(obj, path)
	if err != nil {
		return Node{}, err
	}

	return Node{Kind: KindDecimal, Ref: NoRef, Precision: precision, Scale: scale}, nil
}

func (p *parser) resolveDefaults() error {
	for _, pd := range p.defaults {
		field := &p.s.named[pd.ref].Fields[pd.field]
		v, err := p.s.defaultValue(field.Type, field.rawDefault, pd.path, 0)
		if err != nil {
			return err
		}
		field.Default = v
	}

	return nil
}

func containsDot(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return true
		}
	}

	return false
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}

func validateFullName(n Name, path string) error {
	if !validName(n.Local) {
		return errs.NewSchemaError(errs.InvalidName, path, "invalid name %q", n.Local)
	}
	if n.Namespace == "" {
		return nil
	}
	start := 0
	for i := 0; i <= len(n.Namespace); i++ {
		if i == len(n.Namespace) || n.Namespace[i] == '.' {
			if !validName(n.Namespace[start:i]) {
				return errs.NewSchemaError(errs.InvalidName, path, "invalid namespace %q", n.Namespace)
			}
			start = i + 1
		}
	}

	return nil
}
