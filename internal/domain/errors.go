// Package domain contains business logic types and errors.
// Domain errors represent ingestion and lookup failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/gRPC/etc by adapters.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates business rule validation failed.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates a required dependency is unavailable.
	ErrUnavailable = errors.New("unavailable")

	// ErrUnsupportedFormat indicates no decoder claims a path.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrSourceUnavailable indicates a file or extraction tool could not be read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedLine indicates decoded text did not contain a parseable record.
	ErrMalformedLine = errors.New("malformed line")

	// ErrSchemaMismatch indicates a tabular source lacks the expected columns.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrExtractionTimeout indicates the external extraction tool exceeded its deadline.
	ErrExtractionTimeout = errors.New("extraction timeout")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the invalid value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// MalformedLineError describes a record that could not be split into body and author.
type MalformedLineError struct {
	// Line is the 1-based line, paragraph or row number. Zero when unknown.
	Line   int
	Text   string
	Reason string
}

// Error implements the error interface.
func (e *MalformedLineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed line %d %q: %s", e.Line, e.Text, e.Reason)
	}

	return fmt.Sprintf("malformed line %q: %s", e.Text, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *MalformedLineError) Unwrap() error {
	return ErrMalformedLine
}

// NewMalformedLineError creates a malformed line error without position information.
func NewMalformedLineError(text, reason string) error {
	return &MalformedLineError{Text: text, Reason: reason}
}

// AtLine returns a copy of err positioned at line when err is a *MalformedLineError.
// Other errors are returned unchanged.
func AtLine(err error, line int) error {
	var mle *MalformedLineError
	if !errors.As(err, &mle) {
		return err
	}

	positioned := *mle
	positioned.Line = line

	return &positioned
}

// SchemaMismatchError lists the columns a tabular source is missing.
type SchemaMismatchError struct {
	Missing []string
}

// Error implements the error interface.
func (e *SchemaMismatchError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// NewSchemaMismatchError creates a schema mismatch error for the missing columns.
func NewSchemaMismatchError(missing ...string) error {
	return &SchemaMismatchError{Missing: missing}
}

// ExtractionReason classifies why the external extraction tool failed.
type ExtractionReason string

const (
	ExtractionNotFound    ExtractionReason = "not_found"
	ExtractionExitStatus  ExtractionReason = "exit_status"
	ExtractionTimeout     ExtractionReason = "timeout"
	ExtractionCircuitOpen ExtractionReason = "circuit_open"
	ExtractionCanceled    ExtractionReason = "canceled"
)

// ExtractionError reports a failed run of the external text extraction tool.
type ExtractionError struct {
	Tool     string
	Path     string
	Reason   ExtractionReason
	ExitCode int
	Stderr   string
	Cause    error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("%s on %s: %s", e.Tool, e.Path, e.Reason)
	if e.Reason == ExtractionExitStatus {
		msg += fmt.Sprintf(" %d", e.ExitCode)
	}

	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}

	return msg
}

// Unwrap exposes the source-unavailable sentinel and the underlying cause.
func (e *ExtractionError) Unwrap() []error {
	errs := []error{ErrSourceUnavailable}
	if e.Reason == ExtractionTimeout {
		errs = append(errs, ErrExtractionTimeout)
	}

	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}

	return errs
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsUnsupportedFormat checks if an error is an unsupported format error.
func IsUnsupportedFormat(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}

// IsSourceUnavailable checks if an error is a source unavailable error.
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsMalformedLine checks if an error is a malformed line error.
func IsMalformedLine(err error) bool {
	return errors.Is(err, ErrMalformedLine)
}

// IsSchemaMismatch checks if an error is a schema mismatch error.
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsExtractionTimeout checks if an error is an extraction timeout.
func IsExtractionTimeout(err error) bool {
	return errors.Is(err, ErrExtractionTimeout)
}
