// Package errs defines the error taxonomy shared by every avrokit package.
//
// There are five error families, one per stage of the pipeline:
//
//   - SchemaError: malformed or self-inconsistent schema, detected while parsing.
//   - ResolutionError: writer/reader incompatibility, detected once per schema pair.
//   - DecodeError: malformed bytes relative to a valid schema, carries a byte offset.
//   - EncodeError: a value that does not conform to the schema it is encoded against.
//   - ContainerError: header, codec and sync-marker failures in container files.
//
// Every family has a Kind and one sentinel per kind. errors.Is matches an error
// against a sentinel by family and kind, so callers can write
//
//	if errors.Is(err, errs.ErrMissingField) { ... }
//
// while errors.As still yields the structured value with its path and detail.
package errs

import (
	"fmt"
	"strings"
)

// SchemaErrorKind classifies a SchemaError.
type SchemaErrorKind uint8

const (
	InvalidJSON SchemaErrorKind = iota + 1
	UnknownType
	DuplicateName
	InvalidName
	InvalidDefault
	InvalidDecimal
	NestedUnion
	DuplicateUnionBranch
	DuplicateSymbol
	DuplicateField
	MissingAttribute
	InvalidAttribute
	DepthExceeded
)

func (k SchemaErrorKind) String() string {
	switch k {
	case InvalidJSON:
		return "InvalidJSON"
	case UnknownType:
		return "UnknownType"
	case DuplicateName:
		return "DuplicateName"
	case InvalidName:
		return "InvalidName"
	case InvalidDefault:
		return "InvalidDefault"
	case InvalidDecimal:
		return "InvalidDecimal"
	case NestedUnion:
		return "NestedUnion"
	case DuplicateUnionBranch:
		return "DuplicateUnionBranch"
	case DuplicateSymbol:
		return "DuplicateSymbol"
	case DuplicateField:
		return "DuplicateField"
	case MissingAttribute:
		return "MissingAttribute"
	case InvalidAttribute:
		return "InvalidAttribute"
	case DepthExceeded:
		return "DepthExceeded"
	default:
		return "Unknown"
	}
}

// SchemaError reports a malformed schema description.
type SchemaError struct {
	Kind SchemaErrorKind
	// Path locates the offending node, e.g. "User.address.items".
	Path string
	Msg  string
	Err  error
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("schema error (")
	sb.WriteString(e.Kind.String())
	sb.WriteString(")")
	if e.Path != "" {
		sb.WriteString(" at ")
		sb.WriteString(e.Path)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Is reports whether target is a SchemaError sentinel of the same kind.
func (e *SchemaError) Is(target error) bool {
	t, ok := target.(*SchemaError)
	return ok && t.Kind == e.Kind && t.Path == "" && t.Msg == ""
}

// NewSchemaError builds a SchemaError with a formatted message.
func NewSchemaError(kind SchemaErrorKind, path string, format string, args ...any) *SchemaError {
	return &SchemaError{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// ResolutionErrorKind classifies a ResolutionError.
type ResolutionErrorKind uint8

const (
	TypeMismatch ResolutionErrorKind = iota + 1
	NameMismatch
	MissingField
	UnknownSymbol
	SizeMismatch
	DecimalMismatch
	NoMatchingBranch
)

func (k ResolutionErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "TypeMismatch"
	case NameMismatch:
		return "NameMismatch"
	case MissingField:
		return "MissingField"
	case UnknownSymbol:
		return "UnknownSymbol"
	case SizeMismatch:
		return "SizeMismatch"
	case DecimalMismatch:
		return "DecimalMismatch"
	case NoMatchingBranch:
		return "NoMatchingBranch"
	default:
		return "Unknown"
	}
}

// ResolutionError reports that a writer schema cannot be read with a reader schema.
type ResolutionError struct {
	Kind ResolutionErrorKind
	Path string
	// Writer and Reader describe the two sides of the mismatch (type names,
	// sizes or symbols depending on Kind).
	Writer string
	Reader string
	// Field is set for MissingField; Symbol for UnknownSymbol.
	Field  string
	Symbol string
}

func (e *ResolutionError) Error() string {
	var sb strings.Builder
	sb.WriteString("schema resolution error (")
	sb.WriteString(e.Kind.String())
	sb.WriteString(")")
	if e.Path != "" {
		sb.WriteString(" at ")
		sb.WriteString(e.Path)
	}
	switch e.Kind {
	case MissingField:
		fmt.Fprintf(&sb, ": reader field %q has no default and no matching writer field", e.Field)
	case UnknownSymbol:
		fmt.Fprintf(&sb, ": writer symbol %q missing from reader enum %s without default", e.Symbol, e.Reader)
	default:
		fmt.Fprintf(&sb, ": writer %s, reader %s", e.Writer, e.Reader)
	}

	return sb.String()
}

// Is reports whether target is a ResolutionError sentinel of the same kind.
func (e *ResolutionError) Is(target error) bool {
	t, ok := target.(*ResolutionError)
	return ok && t.Kind == e.Kind && t.Path == "" && t.Writer == "" && t.Reader == ""
}

// DecodeErrorKind classifies a DecodeError.
type DecodeErrorKind uint8

const (
	UnexpectedEOF DecodeErrorKind = iota + 1
	InvalidUTF8
	InvalidUnionTag
	InvalidEnumOrdinal
	NegativeLength
	VarintOverflow
	InvalidBool
	InvalidUUID
	UnresolvedBranch
	DecodeDepthExceeded
	TrailingBytes
)

func (k DecodeErrorKind) String() string {
	switch k {
	case UnexpectedEOF:
		return "UnexpectedEof"
	case InvalidUTF8:
		return "InvalidUtf8"
	case InvalidUnionTag:
		return "InvalidUnionTag"
	case InvalidEnumOrdinal:
		return "InvalidEnumOrdinal"
	case NegativeLength:
		return "NegativeLength"
	case VarintOverflow:
		return "VarintOverflow"
	case InvalidBool:
		return "InvalidBool"
	case InvalidUUID:
		return "InvalidUuid"
	case UnresolvedBranch:
		return "UnresolvedBranch"
	case DecodeDepthExceeded:
		return "DepthExceeded"
	case TrailingBytes:
		return "TrailingBytes"
	default:
		return "Unknown"
	}
}

// DecodeError reports malformed bytes. Offset is the position, relative to the
// start of the decoded buffer, where the violation was detected.
type DecodeError struct {
	Kind   DecodeErrorKind
	Offset int64
	Path   string
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "decode error (%s) at offset %d", e.Kind, e.Offset)
	if e.Path != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Path)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports whether target is a DecodeError sentinel of the same kind.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind && t.Offset == 0 && t.Path == "" && t.Msg == ""
}

// EncodeErrorKind classifies an EncodeError.
type EncodeErrorKind uint8

const (
	ValueMismatch EncodeErrorKind = iota + 1
	FixedSize
	DecimalRange
	EncodeUnknownSymbol
	UnionBranch
	FieldMismatch
	EncodeDepthExceeded
)

func (k EncodeErrorKind) String() string {
	switch k {
	case ValueMismatch:
		return "ValueMismatch"
	case FixedSize:
		return "FixedSize"
	case DecimalRange:
		return "DecimalRange"
	case EncodeUnknownSymbol:
		return "UnknownSymbol"
	case UnionBranch:
		return "UnionBranch"
	case FieldMismatch:
		return "FieldMismatch"
	case EncodeDepthExceeded:
		return "DepthExceeded"
	default:
		return "Unknown"
	}
}

// EncodeError reports a value that does not conform to its schema.
type EncodeError struct {
	Kind     EncodeErrorKind
	Path     string
	Expected string
	Actual   string
	Msg      string
}

func (e *EncodeError) Error() string {
	var sb strings.Builder
	sb.WriteString("encode error (")
	sb.WriteString(e.Kind.String())
	sb.WriteString(")")
	if e.Path != "" {
		sb.WriteString(" at ")
		sb.WriteString(e.Path)
	}
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&sb, ": expected %s, got %s", e.Expected, e.Actual)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}

	return sb.String()
}

// Is reports whether target is an EncodeError sentinel of the same kind.
func (e *EncodeError) Is(target error) bool {
	t, ok := target.(*EncodeError)
	return ok && t.Kind == e.Kind && t.Path == "" && t.Expected == "" && t.Msg == ""
}

// ContainerErrorKind classifies a ContainerError.
type ContainerErrorKind uint8

const (
	InvalidMagic ContainerErrorKind = iota + 1
	UnknownCodec
	SyncMismatch
	InvalidHeader
	CompressionFailed
	Truncated
	WriterClosed
	InvalidBlock
)

func (k ContainerErrorKind) String() string {
	switch k {
	case InvalidMagic:
		return "InvalidMagic"
	case UnknownCodec:
		return "UnknownCodec"
	case SyncMismatch:
		return "SyncMismatch"
	case InvalidHeader:
		return "InvalidHeader"
	case CompressionFailed:
		return "CompressionFailed"
	case Truncated:
		return "Truncated"
	case WriterClosed:
		return "WriterClosed"
	case InvalidBlock:
		return "InvalidBlock"
	default:
		return "Unknown"
	}
}

// ContainerError reports container framing failures.
type ContainerError struct {
	Kind ContainerErrorKind
	// Block is the zero-based index of the block being processed, -1 for the header.
	Block int
	Msg   string
	Err   error
}

func (e *ContainerError) Error() string {
	var sb strings.Builder
	sb.WriteString("container error (")
	sb.WriteString(e.Kind.String())
	sb.WriteString(")")
	if e.Block >= 0 {
		fmt.Fprintf(&sb, " in block %d", e.Block)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *ContainerError) Unwrap() error { return e.Err }

// Is reports whether target is a ContainerError sentinel of the same kind.
func (e *ContainerError) Is(target error) bool {
	t, ok := target.(*ContainerError)
	return ok && t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}
