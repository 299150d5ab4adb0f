package dash

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedTemplate is returned when a URL template cannot be compiled.
	ErrMalformedTemplate = errors.New("malformed url template")
	// ErrIndexOutOfRange is returned when a segment number was never advertised by the index.
	ErrIndexOutOfRange = errors.New("segment number out of range")
	// ErrInvalidSegmentBase is returned when segment base or representation attributes are unusable.
	ErrInvalidSegmentBase = errors.New("invalid segment base")
)

// TemplateError describes where and why a URL template failed to compile.
type TemplateError struct {
	Template string
	Pos      int
	Reason   string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("invalid url template %q at offset %d: %s", e.Template, e.Pos, e.Reason)
}

func (e *TemplateError) Unwrap() error {
	return ErrMalformedTemplate
}

// OutOfRangeError is returned when a caller asks for a segment the index does not contain.
type OutOfRangeError struct {
	SegmentNumber int64
	First         int64
	// Count is the number of addressable segments, or IndexUnbounded.
	Count int64
}

func (e *OutOfRangeError) Error() string {
	if e.Count == IndexUnbounded {
		return fmt.Sprintf("segment %d is before the first segment %d", e.SegmentNumber, e.First)
	}
	return fmt.Sprintf("segment %d outside [%d, %d]", e.SegmentNumber, e.First, e.First+e.Count-1)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrIndexOutOfRange
}
