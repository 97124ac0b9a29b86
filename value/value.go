// Package value provides the in-memory representation of decoded data.
//
// A Value is a closed tagged variant whose shape mirrors the schema it was decoded
// against: primitives, fixed, enum, array, map, union and record, plus the logical
// refinements decimal, date, timestamp and uuid. Values are fully materialized trees
// that own all their nested data; nothing borrows from the input buffer.
//
// Values are built with the constructor functions and inspected with accessors:
//
//	rec := value.Record(
//	    value.F("id", value.Long(42)),
//	    value.F("tags", value.Array(value.String("a"), value.String("b"))),
//	)
//	id := rec.Field("id").Int64() // 42
//
// Accessors return the zero value when called on a Value of another kind, so
// callers that have not checked Kind first still get a well-defined result.
package value

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Kind is the variant tag of a Value.
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
	KindDate
	KindTimestamp
	KindUUID
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindFixed:
		return "fixed"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindUnion:
		return "union"
	case KindRecord:
		return "record"
	case KindDecimal:
		return "decimal"
	case KindDate:
		return "date"
	case KindTimestamp:
		return "timestamp"
	case KindUUID:
		return "uuid"
	default:
		return "invalid"
	}
}

// Entry is a key/value pair of a map Value or a name/value pair of a record Value.
type Entry struct {
	Key   string
	Value Value
}

// F is shorthand for building a record field entry.
func F(name string, v Value) Entry {
	return Entry{Key: name, Value: v}
}

// Value is a decoded datum. The zero Value has KindInvalid.
type Value struct {
	kind Kind
	// num holds bool (0/1), int, long, enum ordinal, union index and date days.
	num int64
	// flt holds float and double.
	flt float64
	// raw holds bytes and fixed payloads.
	raw []byte
	// str holds string and enum symbol.
	str string
	// items holds array elements, or the single inner value of a union.
	items []Value
	// entries holds map entries and record fields in order.
	entries []Entry
	dec     *Decimal
	ts      time.Time
	id      uuid.UUID
}

// Decimal is a fixed-point number: Unscaled * 10^-Scale.
type Decimal struct {
	Unscaled  *big.Int
	Precision int
	Scale     int
}

// Rat returns the decimal as an exact rational number.
func (d Decimal) Rat() *big.Rat {
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Scale)), nil)
	return new(big.Rat).SetFrac(d.Unscaled, den)
}

// String formats the decimal with exactly Scale fractional digits.
func (d Decimal) String() string {
	if d.Unscaled == nil {
		return "0"
	}

	return d.Rat().FloatString(d.Scale)
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean Value.
func Bool(b bool) Value {
	v := Value{kind: KindBoolean}
	if b {
		v.num = 1
	}

	return v
}

// Int returns a 32-bit integer Value.
func Int(n int32) Value { return Value{kind: KindInt, num: int64(n)} }

// Long returns a 64-bit integer Value.
func Long(n int64) Value { return Value{kind: KindLong, num: n} }

// Float returns a 32-bit float Value.
func Float(f float32) Value { return Value{kind: KindFloat, flt: float64(f)} }

// Double returns a 64-bit float Value.
func Double(f float64) Value { return Value{kind: KindDouble, flt: f} }

// Bytes returns a byte-sequence Value. The slice is not copied.
func Bytes(b []byte) Value {
	if b == nil {
		b = []byte{}
	}

	return Value{kind: KindBytes, raw: b}
}

// String returns a text Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Fixed returns a fixed-length byte Value. The slice is not copied.
func Fixed(b []byte) Value {
	if b == nil {
		b = []byte{}
	}

	return Value{kind: KindFixed, raw: b}
}

// Enum returns an enum Value with its ordinal and resolved symbol.
func Enum(ordinal int, symbol string) Value {
	return Value{kind: KindEnum, num: int64(ordinal), str: symbol}
}

// Array returns an array Value.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}

	return Value{kind: KindArray, items: items}
}

// Map returns a map Value. Entries keep their insertion order; a repeated key
// replaces the earlier entry's value in place.
func Map(entries ...Entry) Value {
	out := make([]Entry, 0, len(entries))
	var seen map[string]int
	if len(entries) > 8 {
		seen = make(map[string]int, len(entries))
	}
	for _, e := range entries {
		if idx, ok := indexOf(out, seen, e.Key); ok {
			out[idx].Value = e.Value
			continue
		}
		if seen != nil {
			seen[e.Key] = len(out)
		}
		out = append(out, e)
	}

	return Value{kind: KindMap, entries: out}
}

func indexOf(entries []Entry, seen map[string]int, key string) (int, bool) {
	if seen != nil {
		idx, ok := seen[key]
		return idx, ok
	}
	for i := range entries {
		if entries[i].Key == key {
			return i, true
		}
	}

	return 0, false
}

// Union returns a union Value selecting branch index with the given inner value.
func Union(index int, inner Value) Value {
	return Value{kind: KindUnion, num: int64(index), items: []Value{inner}}
}

// Record returns a record Value whose fields appear in the given order.
func Record(fields ...Entry) Value {
	if fields == nil {
		fields = []Entry{}
	}

	return Value{kind: KindRecord, entries: fields}
}

// NewDecimal returns a decimal Value.
func NewDecimal(unscaled *big.Int, precision, scale int) Value {
	if unscaled == nil {
		unscaled = new(big.Int)
	}

	return Value{kind: KindDecimal, dec: &Decimal{Unscaled: unscaled, Precision: precision, Scale: scale}}
}

// Date returns a date Value counting days since the Unix epoch.
func Date(days int32) Value { return Value{kind: KindDate, num: int64(days)} }

// Timestamp returns a timestamp Value normalized to UTC.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, ts: t.UTC()} }

// UUID returns a uuid Value.
func UUID(id uuid.UUID) Value { return Value{kind: KindUUID, id: id} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null Value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.kind == KindBoolean && v.num != 0 }

// Int32 returns the payload of an int or date Value.
func (v Value) Int32() int32 {
	if v.kind == KindInt || v.kind == KindDate {
		return int32(v.num) //nolint:gosec
	}

	return 0
}

// Int64 returns the payload of an int, long or date Value widened to int64.
func (v Value) Int64() int64 {
	switch v.kind { //nolint:exhaustive
	case KindInt, KindLong, KindDate:
		return v.num
	default:
		return 0
	}
}

// Float32 returns the payload of a float Value.
func (v Value) Float32() float32 {
	if v.kind == KindFloat {
		return float32(v.flt)
	}

	return 0
}

// Float64 returns the payload of a float or double Value widened to float64.
func (v Value) Float64() float64 {
	if v.kind == KindFloat || v.kind == KindDouble {
		return v.flt
	}

	return 0
}

// BytesValue returns the payload of a bytes or fixed Value.
func (v Value) BytesValue() []byte {
	if v.kind == KindBytes || v.kind == KindFixed {
		return v.raw
	}

	return nil
}

// Str returns the payload of a string Value or the symbol of an enum Value.
func (v Value) Str() string {
	if v.kind == KindString || v.kind == KindEnum {
		return v.str
	}

	return ""
}

// Ordinal returns the ordinal of an enum Value.
func (v Value) Ordinal() int {
	if v.kind == KindEnum {
		return int(v.num)
	}

	return 0
}

// Items returns the elements of an array Value.
func (v Value) Items() []Value {
	if v.kind == KindArray {
		return v.items
	}

	return nil
}

// Entries returns the entries of a map Value or the fields of a record Value.
func (v Value) Entries() []Entry {
	if v.kind == KindMap || v.kind == KindRecord {
		return v.entries
	}

	return nil
}

// Len returns the number of array items, map entries or record fields.
func (v Value) Len() int {
	switch v.kind { //nolint:exhaustive
	case KindArray:
		return len(v.items)
	case KindMap, KindRecord:
		return len(v.entries)
	default:
		return 0
	}
}

// Field returns the named field of a record Value or the entry of a map Value,
// and the zero Value when absent.
func (v Value) Field(name string) Value {
	f, _ := v.Lookup(name)
	return f
}

// Lookup is like Field but reports whether the name was present.
func (v Value) Lookup(name string) (Value, bool) {
	if v.kind != KindRecord && v.kind != KindMap {
		return Value{}, false
	}
	for i := range v.entries {
		if v.entries[i].Key == name {
			return v.entries[i].Value, true
		}
	}

	return Value{}, false
}

// Branch returns the selected branch index of a union Value.
func (v Value) Branch() int {
	if v.kind == KindUnion {
		return int(v.num)
	}

	return 0
}

// Inner returns the wrapped value of a union Value.
func (v Value) Inner() Value {
	if v.kind == KindUnion && len(v.items) == 1 {
		return v.items[0]
	}

	return Value{}
}

// Decimal returns the payload of a decimal Value.
func (v Value) Decimal() Decimal {
	if v.kind == KindDecimal && v.dec != nil {
		return *v.dec
	}

	return Decimal{Unscaled: new(big.Int)}
}

// Time returns the payload of a timestamp Value, or the midnight UTC instant of a
// date Value.
func (v Value) Time() time.Time {
	switch v.kind { //nolint:exhaustive
	case KindTimestamp:
		return v.ts
	case KindDate:
		return time.Unix(v.num*86400, 0).UTC()
	default:
		return time.Time{}
	}
}

// UUIDValue returns the payload of a uuid Value.
func (v Value) UUIDValue() uuid.UUID {
	if v.kind == KindUUID {
		return v.id
	}

	return uuid.Nil
}
