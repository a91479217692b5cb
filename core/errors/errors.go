// Package errors provides standardized error types and helpers for the Redline codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrSerialization indicates a document could not be serialized
	ErrSerialization = errors.New("serialization failure")
	// ErrUnauthorized indicates insufficient permissions
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
	// ErrTooLarge indicates input exceeding a configured size limit
	ErrTooLarge = errors.New("too large")
	// ErrUnavailable indicates a required collaborator is not reachable
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "document", "style guide", "session")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation (may be redacted)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// SerializationError represents a failure to produce serialized document bytes.
// The document pipeline must always surface this as a typed error; an empty
// byte stream is never returned as success.
type SerializationError struct {
	Stage   string // Stage that failed (e.g., "zip", "document.xml", "settings.xml")
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *SerializationError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("serialization failed at %s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("serialization failed: %s", e.Message)
}

func (e *SerializationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrSerialization
}

// ExtractionError represents a failure to pull plain text out of an
// uploaded document container.
type ExtractionError struct {
	Part    string // Container part involved (e.g., "word/document.xml")
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ExtractionError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("extraction failed for %s: %s", e.Part, e.Message)
	}
	return fmt.Sprintf("extraction failed: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "JSON", "assistant response", "citation")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// TooLargeError represents input exceeding a configured size limit.
type TooLargeError struct {
	Resource string // What was too large (e.g., "upload", "text")
	Limit    int64  // Configured limit in bytes
	Actual   int64  // Observed size in bytes, if known
}

func (e *TooLargeError) Error() string {
	if e.Actual > 0 {
		return fmt.Sprintf("%s too large: %d bytes exceeds limit of %d", e.Resource, e.Actual, e.Limit)
	}
	return fmt.Sprintf("%s too large: exceeds limit of %d bytes", e.Resource, e.Limit)
}

func (e *TooLargeError) Unwrap() error {
	return ErrTooLarge
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewSerialization creates a SerializationError
func NewSerialization(stage, message string, err error) *SerializationError {
	return &SerializationError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}

// NewExtraction creates an ExtractionError
func NewExtraction(part, message string, err error) *ExtractionError {
	return &ExtractionError{
		Part:    part,
		Message: message,
		Err:     err,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// NewTooLarge creates a TooLargeError
func NewTooLarge(resource string, limit, actual int64) *TooLargeError {
	return &TooLargeError{
		Resource: resource,
		Limit:    limit,
		Actual:   actual,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
