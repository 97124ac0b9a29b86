package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIs_MatchesKindOnly(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		other    error
	}{
		{"schema", NewSchemaError(DuplicateName, "R.a", "name %q defined twice", "X"), ErrDuplicateName, ErrInvalidName},
		{"resolution", &ResolutionError{Kind: MissingField, Path: "R", Field: "b"}, ErrMissingField, ErrTypeMismatch},
		{"decode", &DecodeError{Kind: InvalidBool, Offset: 7, Path: "R.flag"}, ErrInvalidBool, ErrUnexpectedEOF},
		{"encode", &EncodeError{Kind: FixedSize, Path: "R.h", Expected: "4 bytes", Actual: "3 bytes"}, ErrFixedSize, ErrValueMismatch},
		{"container", &ContainerError{Kind: SyncMismatch, Block: 3}, ErrSyncMismatch, ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.err, tt.sentinel)
			require.NotErrorIs(t, tt.err, tt.other)

			wrapped := fmt.Errorf("reading record: %w", tt.err)
			require.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestIs_DetailedTargetDoesNotMatch(t *testing.T) {
	err := &DecodeError{Kind: InvalidBool, Offset: 7}
	require.NotErrorIs(t, err, &DecodeError{Kind: InvalidBool, Offset: 8})
}

func TestAs_YieldsStructuredDetail(t *testing.T) {
	err := fmt.Errorf("block 2: %w", &DecodeError{Kind: InvalidUnionTag, Offset: 12, Path: "Event.payload"})

	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, int64(12), derr.Offset)
	require.Equal(t, "Event.payload", derr.Path)
}

func TestUnwrap(t *testing.T) {
	cause := &ResolutionError{Kind: NoMatchingBranch, Writer: "boolean", Reader: `["null","long"]`}
	err := &DecodeError{Kind: UnresolvedBranch, Offset: 0, Err: cause}

	require.ErrorIs(t, err, ErrUnresolvedBranch)
	require.ErrorIs(t, err, ErrNoMatchingBranch)

	inner := errors.New("eof")
	require.ErrorIs(t, &ContainerError{Kind: Truncated, Block: -1, Err: inner}, inner)
	require.ErrorIs(t, &SchemaError{Kind: InvalidJSON, Err: inner}, inner)
}

func TestMessages(t *testing.T) {
	require.Equal(t,
		`schema error (DuplicateName) at R.a: name "X" defined twice`,
		NewSchemaError(DuplicateName, "R.a", "name %q defined twice", "X").Error(),
	)
	require.Equal(t,
		`schema resolution error (MissingField) at R: reader field "b" has no default and no matching writer field`,
		(&ResolutionError{Kind: MissingField, Path: "R", Field: "b"}).Error(),
	)
	require.Equal(t,
		"decode error (InvalidBool) at offset 7 in R.flag: byte 0x05",
		(&DecodeError{Kind: InvalidBool, Offset: 7, Path: "R.flag", Msg: "byte 0x05"}).Error(),
	)
	require.Equal(t,
		"encode error (FixedSize) at R.h: expected 4 bytes, got 3 bytes",
		(&EncodeError{Kind: FixedSize, Path: "R.h", Expected: "4 bytes", Actual: "3 bytes"}).Error(),
	)
	require.Equal(t,
		"container error (SyncMismatch) in block 3",
		(&ContainerError{Kind: SyncMismatch, Block: 3}).Error(),
	)
	require.Equal(t,
		"container error (InvalidMagic): got \"PAR1\"",
		(&ContainerError{Kind: InvalidMagic, Block: -1, Msg: `got "PAR1"`}).Error(),
	)
}
