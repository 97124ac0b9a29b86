package errs

// Schema error sentinels.
var (
	ErrInvalidJSON          = &SchemaError{Kind: InvalidJSON}
	ErrUnknownType          = &SchemaError{Kind: UnknownType}
	ErrDuplicateName        = &SchemaError{Kind: DuplicateName}
	ErrInvalidName          = &SchemaError{Kind: InvalidName}
	ErrInvalidDefault       = &SchemaError{Kind: InvalidDefault}
	ErrInvalidDecimal       = &SchemaError{Kind: InvalidDecimal}
	ErrNestedUnion          = &SchemaError{Kind: NestedUnion}
	ErrDuplicateUnionBranch = &SchemaError{Kind: DuplicateUnionBranch}
	ErrDuplicateSymbol      = &SchemaError{Kind: DuplicateSymbol}
	ErrDuplicateField       = &SchemaError{Kind: DuplicateField}
	ErrMissingAttribute     = &SchemaError{Kind: MissingAttribute}
	ErrInvalidAttribute     = &SchemaError{Kind: InvalidAttribute}
	ErrSchemaDepthExceeded  = &SchemaError{Kind: DepthExceeded}
)

// Resolution error sentinels.
var (
	ErrTypeMismatch     = &ResolutionError{Kind: TypeMismatch}
	ErrNameMismatch     = &ResolutionError{Kind: NameMismatch}
	ErrMissingField     = &ResolutionError{Kind: MissingField}
	ErrUnknownSymbol    = &ResolutionError{Kind: UnknownSymbol}
	ErrSizeMismatch     = &ResolutionError{Kind: SizeMismatch}
	ErrDecimalMismatch  = &ResolutionError{Kind: DecimalMismatch}
	ErrNoMatchingBranch = &ResolutionError{Kind: NoMatchingBranch}
)

// Decode error sentinels.
var (
	ErrUnexpectedEOF       = &DecodeError{Kind: UnexpectedEOF}
	ErrInvalidUTF8         = &DecodeError{Kind: InvalidUTF8}
	ErrInvalidUnionTag     = &DecodeError{Kind: InvalidUnionTag}
	ErrInvalidEnumOrdinal  = &DecodeError{Kind: InvalidEnumOrdinal}
	ErrNegativeLength      = &DecodeError{Kind: NegativeLength}
	ErrVarintOverflow      = &DecodeError{Kind: VarintOverflow}
	ErrInvalidBool         = &DecodeError{Kind: InvalidBool}
	ErrInvalidUUID         = &DecodeError{Kind: InvalidUUID}
	ErrUnresolvedBranch    = &DecodeError{Kind: UnresolvedBranch}
	ErrDecodeDepthExceeded = &DecodeError{Kind: DecodeDepthExceeded}
	ErrTrailingBytes       = &DecodeError{Kind: TrailingBytes}
)

// Encode error sentinels.
var (
	ErrValueMismatch       = &EncodeError{Kind: ValueMismatch}
	ErrFixedSize           = &EncodeError{Kind: FixedSize}
	ErrDecimalRange        = &EncodeError{Kind: DecimalRange}
	ErrEncodeUnknownSymbol = &EncodeError{Kind: EncodeUnknownSymbol}
	ErrUnionBranch         = &EncodeError{Kind: UnionBranch}
	ErrFieldMismatch       = &EncodeError{Kind: FieldMismatch}
	ErrEncodeDepthExceeded = &EncodeError{Kind: EncodeDepthExceeded}
)

// Container error sentinels.
var (
	ErrInvalidMagic      = &ContainerError{Kind: InvalidMagic, Block: -1}
	ErrUnknownCodec      = &ContainerError{Kind: UnknownCodec, Block: -1}
	ErrSyncMismatch      = &ContainerError{Kind: SyncMismatch, Block: -1}
	ErrInvalidHeader     = &ContainerError{Kind: InvalidHeader, Block: -1}
	ErrCompressionFailed = &ContainerError{Kind: CompressionFailed, Block: -1}
	ErrTruncated         = &ContainerError{Kind: Truncated, Block: -1}
	ErrWriterClosed      = &ContainerError{Kind: WriterClosed, Block: -1}
	ErrInvalidBlock      = &ContainerError{Kind: InvalidBlock, Block: -1}
)
