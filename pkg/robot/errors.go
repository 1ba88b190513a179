// ABOUTME: Error types for Robot container parsing
// ABOUTME: FormatError for malformed input, RangeError for out-of-bounds frame access
package robot

import (
	"errors"
	"fmt"
)

var (
	// ErrBadSignature means the leading signature or SOL tag is missing
	ErrBadSignature = errors.New("bad robot signature")

	// ErrUnsupportedVersion means the header version is not 5 or 6
	ErrUnsupportedVersion = errors.New("unsupported robot version")

	// ErrTruncated means a structure runs past the end of the input
	ErrTruncated = errors.New("truncated robot data")

	// ErrChunkBounds means a chunk declares a size past its record boundary
	ErrChunkBounds = errors.New("chunk exceeds record bounds")

	// ErrForeignRecord means a record was not produced by this container
	ErrForeignRecord = errors.New("record does not belong to this container")
)

// FormatError reports malformed container data. It is always fatal to a
// decode session: skipping would shift every following record.
type FormatError struct {
	Offset int64
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("robot: format error at offset %d: %s: %v", e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("robot: format error at offset %d: %s", e.Offset, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatErrorf(offset int64, cause error, format string, args ...any) *FormatError {
	return &FormatError{
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
		Err:    cause,
	}
}

// RangeError reports a frame index outside [0, Count)
type RangeError struct {
	Index int
	Count int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("robot: frame index %d out of range [0,%d)", e.Index, e.Count)
}
