// Package errors provides custom error types for the openshelf system.
// These errors enable programmatic error checking across the import
// pipeline: parse failures, normalization failures, and store failures
// each carry a distinct type so callers can decide what is retryable.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the openshelf system
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrBadRecord indicates a structurally malformed MARC record
	ErrBadRecord = errors.New("bad record")

	// ErrBadLength indicates a record whose declared length disagrees
	// with its actual byte count
	ErrBadLength = errors.New("bad record length")

	// ErrMissingTitle indicates a record with no usable title field
	ErrMissingTitle = errors.New("missing title")

	// ErrStoreUnavailable indicates the catalog store could not be reached
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStoreRejected indicates the catalog store refused a commit
	ErrStoreRejected = errors.New("store rejected commit")

	// ErrRedirectLoop indicates redirect resolution exceeded the hop bound
	ErrRedirectLoop = errors.New("redirect loop")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrReadOnly indicates an attempt to modify a read-only store
	ErrReadOnly = errors.New("read only")
)

// ParseError represents a failure to decode a binary MARC record.
// It is always fatal to the import call and never retried.
type ParseError struct {
	Reason  string // "length", "directory", "terminator", "charset"
	Offset  int    // byte offset where decoding failed, -1 if unknown
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("marc parse error (%s) at byte %d: %s", e.Reason, e.Offset, e.Message)
	}
	return fmt.Sprintf("marc parse error (%s): %s", e.Reason, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	if e.Reason == "length" {
		return target == ErrBadLength || target == ErrBadRecord
	}
	return target == ErrBadRecord
}

// NewParseError creates a new ParseError
func NewParseError(reason string, offset int, message string) *ParseError {
	return &ParseError{Reason: reason, Offset: offset, Message: message}
}

// MissingFieldError represents a record lacking a required field.
// Raised before any store access occurs.
type MissingFieldError struct {
	Field string
}

// Error implements the error interface
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record has no usable %s field", e.Field)
}

// Is implements errors.Is support
func (e *MissingFieldError) Is(target error) bool {
	if e.Field == "title" {
		return target == ErrMissingTitle
	}
	return target == ErrInvalidInput
}

// NewMissingFieldError creates a new MissingFieldError
func NewMissingFieldError(field string) *MissingFieldError {
	return &MissingFieldError{Field: field}
}

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Kind string
	ID   string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// StoreError represents a failure in the catalog store collaborator.
// The caller decides whether to retry the whole import call; the core
// performs no automatic retry.
type StoreError struct {
	Operation string // "lookup", "get", "commit", "new-identifier"
	Kind      string // entity kind involved, if any
	Message   string
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("store %s failed for %s: %s", e.Operation, e.Kind, e.Message)
	}
	return fmt.Sprintf("store %s failed: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, kind string, err error) *StoreError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &StoreError{Operation: operation, Kind: kind, Message: message, Err: err}
}

// CommitError represents a rejected multi-entity commit. A rejected
// commit leaves no partial state behind.
type CommitError struct {
	Mutations int
	Message   string
	Err       error
}

// Error implements the error interface
func (e *CommitError) Error() string {
	return fmt.Sprintf("commit of %d mutations rejected: %s", e.Mutations, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *CommitError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *CommitError) Is(target error) bool {
	return target == ErrStoreRejected
}

// NewCommitError creates a new CommitError
func NewCommitError(mutations int, err error) *CommitError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &CommitError{Mutations: mutations, Message: message, Err: err}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{Operation: operation, Path: path, Message: message, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBadRecord checks if an error indicates a malformed MARC record
func IsBadRecord(err error) bool {
	return errors.Is(err, ErrBadRecord)
}

// IsMissingTitle checks if an error indicates a record without a title
func IsMissingTitle(err error) bool {
	return errors.Is(err, ErrMissingTitle)
}

// IsStoreRejected checks if an error indicates a rejected commit
func IsStoreRejected(err error) bool {
	return errors.Is(err, ErrStoreRejected)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// Helper wrapping functions for common patterns

// WrapStore wraps an error as a StoreError
func WrapStore(operation, kind string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(operation, kind, err)
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}
