package manifest

import (
	"fmt"
	"strings"
)

// Position is a location in a declaration file.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Line == 0 {
		return p.Filename
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// ParseError is returned when a declaration file is not syntactically valid.
type ParseError struct {
	Pos     Position
	Message string
	Wrapped error
}

func (e *ParseError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	if e.Pos.Filename != "" {
		return fmt.Sprintf("%s: %s", e.Pos.Filename, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}

// FieldError represents a problem with a single declared field.
type FieldError struct {
	Pos     Position // zero if the format has no positions for this field
	Field   string   // Field path (e.g., "sources[0].version")
	Message string   // Human-readable error message
}

func (e *FieldError) Error() string {
	var b strings.Builder
	if e.Pos.Filename != "" || e.Pos.Line > 0 {
		b.WriteString(e.Pos.String())
		b.WriteString(": ")
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// ValidationErrors collects multiple field errors.
type ValidationErrors struct {
	Errors []*FieldError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&b, "\n  - %s", err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying errors for errors.Is/As compatibility.
func (e *ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Add appends a field error.
func (e *ValidationErrors) Add(pos Position, field, message string) {
	e.Errors = append(e.Errors, &FieldError{Pos: pos, Field: field, Message: message})
}

// HasErrors returns true if any errors were collected.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil if no errors, otherwise returns self.
func (e *ValidationErrors) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}
