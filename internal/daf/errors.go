package daf

import (
	"errors"
	"fmt"
)

// Sentinel format errors. Every decoding failure wraps exactly one of these
// inside a *FormatError.
var (
	ErrBadMagic   = errors.New("bad magic")
	ErrTruncated  = errors.New("truncated")
	ErrOutOfRange = errors.New("out of range")
	ErrBadSummary = errors.New("bad summary record")
)

// FormatError reports a malformed or unsupported binary structure.
type FormatError struct {
	Kind   error
	Detail string
}

func (e *FormatError) Error() string {
	if e.Detail == "" {
		return "daf: " + e.Kind.Error()
	}
	return fmt.Sprintf("daf: %v: %s", e.Kind, e.Detail)
}

func (e *FormatError) Unwrap() error {
	return e.Kind
}

func formatErr(kind error, format string, args ...any) error {
	return &FormatError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
