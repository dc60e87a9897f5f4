package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fatal import failures. The concrete error types
// below match them with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrDecode            = errors.New("decode error")
	ErrProcessing        = errors.New("processing error")
	ErrAuditFinalized    = errors.New("import audit log already finalized")
	ErrNotFound          = errors.New("not found")
)

// UnsupportedFormatError is returned when no decoder handles a media type.
type UnsupportedFormatError struct {
	MediaType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %q", e.MediaType)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// DecodeError wraps a structural failure of the input file.
type DecodeError struct {
	Format string // "csv" or "xml"
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// ProcessingError reports a persistence failure for one record.
type ProcessingError struct {
	Row int
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing error at row %d: %v", e.Row, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

func (e *ProcessingError) Is(target error) bool {
	return target == ErrProcessing
}
