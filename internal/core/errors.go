package core

import (
	"errors"
	"fmt"
	"strings"
)

// Reasons carried by SchemaMismatchError.
const (
	ReasonNoColumns      = "input table has no columns"
	ReasonMissingSources = "no source column for required columns"
	ReasonMissingAliases = "descriptor has no alias for required columns"
	ReasonMissingCode    = "descriptor has no institution code"
)

// CodedError attaches a user-facing error code (see MapError) to an error.
type CodedError struct {
	Code string
	Err  error
}

func (e *CodedError) Error() string {
	return e.Err.Error()
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

// WithCode wraps err with a user-facing code. Returns nil if err is nil.
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Err: err}
}

// NewCodedError returns a sentinel error carrying code.
func NewCodedError(code, text string) error {
	return &CodedError{Code: code, Err: errors.New(text)}
}

// UnknownFormatError is returned when an institution code is not registered.
// It is raised before any input is read or transformed.
type UnknownFormatError struct {
	Code  string
	Known []string
}

func (e *UnknownFormatError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown format %q", e.Code)
	}
	return fmt.Sprintf("unknown format %q (known: %s)", e.Code, strings.Join(e.Known, ", "))
}

// SchemaMismatchError is returned when a raw table cannot feed the canonical
// schema: it has no columns, or a required column has no source.
type SchemaMismatchError struct {
	Code    string
	Reason  string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("schema mismatch")
	if e.Code != "" {
		b.WriteString(" for format ")
		b.WriteString(e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if len(e.Missing) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	return b.String()
}

// DateFormatError is returned in strict date mode when a non-empty Date value
// does not match the descriptor's pattern. Row is 1-based over data rows.
type DateFormatError struct {
	Row     int
	Value   string
	Pattern string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("date format mismatch at row %d: %q does not match %s", e.Row, e.Value, e.Pattern)
}
