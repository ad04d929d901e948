package emailaddr

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by the typed errors below.
var (
	ErrInvalidSyntax   = errors.New("invalid email address syntax")
	ErrTooLong         = errors.New("email address too long")
	ErrCorruptEncoding = errors.New("corrupt email address encoding")
	ErrZeroAddress     = errors.New("zero email address")
)

// Reason distinguishes the two ways input text can fail validation.
type Reason string

const (
	ReasonSyntax  Reason = "syntax"
	ReasonTooLong Reason = "too long"
)

// ValidationError is returned by Parse when the input is rejected.
// Input is the offending text exactly as given.
type ValidationError struct {
	Input  string
	Reason Reason
}

func (e *ValidationError) Error() string {
	if e.Reason == ReasonTooLong {
		return fmt.Sprintf("email address exceeds maximum length of %d bytes (got %d)", MaxLength, len(e.Input))
	}
	return fmt.Sprintf("invalid input syntax for email address: %q", e.Input)
}

// Unwrap returns ErrTooLong or ErrInvalidSyntax for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error {
	if e.Reason == ReasonTooLong {
		return ErrTooLong
	}
	return ErrInvalidSyntax
}

// CorruptEncodingError is returned by Decode when the bytes are not a
// well-formed encoding. It is a data integrity fault; retrying cannot help.
type CorruptEncodingError struct {
	Details string
}

func (e *CorruptEncodingError) Error() string {
	return "corrupt email address encoding: " + e.Details
}

// Unwrap returns ErrCorruptEncoding for errors.Is() compatibility.
func (e *CorruptEncodingError) Unwrap() error { return ErrCorruptEncoding }

func corrupt(format string, args ...any) error {
	return &CorruptEncodingError{Details: fmt.Sprintf(format, args...)}
}
