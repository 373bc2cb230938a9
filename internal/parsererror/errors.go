// Package parsererror defines the error taxonomy of statement ingestion.
package parsererror

import (
	"errors"
	"fmt"
	"strings"
)

// Location is the position of a row inside a statement file.
type Location struct {
	File string
	Line int
}

// Locate fills in the row position once the caller knows it.
func (l *Location) Locate(file string, line int) {
	l.File = file
	l.Line = line
}

func (l Location) prefix() string {
	if l.File == "" {
		return ""
	}
	if l.Line <= 0 {
		return l.File + ": "
	}
	return fmt.Sprintf("%s:%d: ", l.File, l.Line)
}

// Locator is implemented by row-level errors.
type Locator interface {
	error
	Locate(file string, line int)
}

// FileAccessError reports a statement file that could not be opened or read.
type FileAccessError struct {
	File     string
	NotFound bool
	Err      error
}

func (e *FileAccessError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("%s wasn't found!", e.File)
	}
	return fmt.Sprintf("I/O error when opening %s to read: %v", e.File, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// MalformedRowError reports a row with too few fields to normalize.
type MalformedRowError struct {
	Location
	Tokens int
	Want   int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("%smalformed row: expected at least %d fields, got %d", e.prefix(), e.Want, e.Tokens)
}

// ParseKind tells which sub-field of a row failed to parse.
type ParseKind int

const (
	BadDate ParseKind = iota + 1
	BadAmount
	WrongFieldCount
	MissingField
)

func (k ParseKind) String() string {
	switch k {
	case BadDate:
		return "bad date"
	case BadAmount:
		return "bad amount"
	case WrongFieldCount:
		return "wrong field count"
	case MissingField:
		return "missing value"
	default:
		return "parse error"
	}
}

// FieldParseError reports a field of a normalized row that failed strict parsing.
type FieldParseError struct {
	Location
	Kind  ParseKind
	Field string
	Value string
	Err   error
}

func (e *FieldParseError) Error() string {
	msg := fmt.Sprintf("%s%s in %s '%s'", e.prefix(), e.Kind, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FieldParseError) Unwrap() error {
	return e.Err
}

// CategorizationError represents a categorization strategy failure
type CategorizationError struct {
	Record   string
	Strategy string
	Err      error
}

func (e *CategorizationError) Error() string {
	return fmt.Sprintf("categorization failed for %s using %s: %v",
		e.Record, e.Strategy, e.Err)
}

func (e *CategorizationError) Unwrap() error {
	return e.Err
}

// IngestionError aggregates every file and row failure of one ingestion run,
// in input file order and then row order.
type IngestionError struct {
	Errors []error
}

// Error joins the individual messages with a newline.
func (e *IngestionError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

func (e *IngestionError) Unwrap() []error {
	return e.Errors
}

// Len returns the number of collected failures.
func (e *IngestionError) Len() int {
	return len(e.Errors)
}

// Join returns nil when errs is empty and an *IngestionError otherwise.
func Join(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &IngestionError{Errors: errs}
}

// IsRowError reports whether err is a row-level failure.
func IsRowError(err error) bool {
	var malformed *MalformedRowError
	var field *FieldParseError
	return errors.As(err, &malformed) || errors.As(err, &field)
}
