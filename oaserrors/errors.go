package oaserrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrParse indicates a document could not be loaded or decoded.
	ErrParse = errors.New("parse error")

	// ErrReference indicates a reference resolution failure.
	ErrReference = errors.New("reference error")

	// ErrConflict indicates a structural path conflict between documents.
	ErrConflict = errors.New("conflict error")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ParseError represents a failure to load an input document.
// This includes file and network errors as well as JSON/YAML decoding errors.
type ParseError struct {
	// Path is the file path or URL of the document
	Path string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Column is the column number where the error occurred (0 if unknown)
	Column int
	// StatusCode is the HTTP status of a failed remote fetch (0 if not applicable)
	StatusCode int
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ReferenceError represents a failure to resolve a $ref.
type ReferenceError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// Document is the document the reference points into, if it is an outer reference
	Document string
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Document != "" && !strings.HasPrefix(e.Ref, e.Document) {
		msg += " in " + e.Document
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ReferenceError) Is(target error) bool {
	return target == ErrReference
}

// ConflictError reports the same HTTP method defined on the same path by
// more than one input document.
type ConflictError struct {
	// Source is the document that introduced the conflicting operations
	Source string
	// Methods maps each conflicting path to its conflicting methods
	Methods map[string][]string
}

// Paths returns the conflicting paths in sorted order.
func (e *ConflictError) Paths() []string {
	paths := make([]string, 0, len(e.Methods))
	for p := range e.Methods {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Error returns a human-readable error message.
func (e *ConflictError) Error() string {
	paths := e.Paths()
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		parts = append(parts, fmt.Sprintf("%s (%s)", p, strings.Join(e.Methods[p], ", ")))
	}

	noun, verb := "path", "is"
	if len(paths) > 1 {
		noun, verb = "paths", "are"
	}
	msg := fmt.Sprintf("conflict error: the %s %s %s conflicting", noun, strings.Join(parts, ", "), verb)
	if e.Source != "" {
		msg += " in " + e.Source
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, missing required inputs, and conflicting settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
