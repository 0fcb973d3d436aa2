// Package voxerr implements the typed error taxonomy from spec.md §7: codec
// and CLI failures carry a Kind so callers can branch on failure category
// without string matching, while still composing with the standard errors
// package via Unwrap.
package voxerr

import "fmt"

// Kind names a failure category. These are taxonomy labels, not distinct Go
// types, so a single *Error can be tested with errors.Is/Kind comparisons.
type Kind int

const (
	// FormatUnknown: signature mismatch or unregistered extension.
	FormatUnknown Kind = iota
	// VersionUnsupported: file version outside the accepted range.
	VersionUnsupported
	// Parse: truncated or malformed chunk, dictionary, or numeric field.
	Parse
	// Io: underlying stream read/write failure.
	Io
	// InvalidArgument: bad CLI flag combinations, missing required options.
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case FormatUnknown:
		return "FormatUnknown"
	case VersionUnsupported:
		return "VersionUnsupported"
	case Parse:
		return "Parse"
	case Io:
		return "Io"
	case InvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Error is a taxonomy-tagged error that wraps an optional cause.
type Error struct {
	Kind    Kind
	Op      string // the operation that failed, e.g. "vox.Load"
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no wrapped cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap builds an *Error around an existing cause.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// Is reports whether err is a *Error of the given kind, so callers can
// write `if voxerr.Is(err, voxerr.Parse) { ... }` without a type assertion.
func Is(err error, kind Kind) bool {
	var ve *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			ve = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return ve != nil && ve.Kind == kind
}
