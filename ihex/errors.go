package ihex

import (
	"errors"
	"fmt"
)

// Parse error causes. Use errors.Is against a returned error.
var (
	// ErrMalformedRecord indicates a missing ':' prefix, a non-hex digit or
	// a line too short for its declared length.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrChecksumMismatch indicates that the record bytes do not sum to zero.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrAddressOverflow indicates a record extending past MaxMemorySize.
	ErrAddressOverflow = errors.New("address overflow")
)

// ParseError describes why a line of a hex file was rejected.
type ParseError struct {
	// Line is the 1-based line number, or 0 when parsing a single line
	Line int

	// Err is one of ErrMalformedRecord, ErrChecksumMismatch, ErrAddressOverflow
	Err error

	// Detail gives the specific reason
	Detail string
}

func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...interface{}) *ParseError {
	return &ParseError{Err: ErrMalformedRecord, Detail: fmt.Sprintf(format, args...)}
}
