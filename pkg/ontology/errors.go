package ontology

import (
	"errors"
	"fmt"
	"strings"
)

// ErrImportCancelled is raised when a cooperative cancellation check fires
// during a long bulk operation. Batches already flushed stay committed.
var ErrImportCancelled = errors.New("ontology: import cancelled")

// NotFoundError indicates a caller referenced a domain, property, or object
// URI that does not exist. Distinct from validation failure: it signals an
// integration bug, not bad row data.
type NotFoundError struct {
	Kind string // "domain", "property", "object"
	URI  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ontology: %s %q not found", e.Kind, e.URI)
}

// TypeConflictError reports an attempt to change a property's
// storage-affecting type while values exist for it.
type TypeConflictError struct {
	PropertyURI string
	OldRangeURI string
	NewRangeURI string
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("ontology: property %q: cannot change range %q to %q while values exist",
		e.PropertyURI, e.OldRangeURI, e.NewRangeURI)
}

// FieldError is one per-row, per-property validation problem.
type FieldError struct {
	Row      int
	Property string
	Message  string
}

func (e FieldError) Error() string {
	var b strings.Builder
	if e.Row > 0 {
		fmt.Fprintf(&b, "row %d: ", e.Row)
	}
	if e.Property != "" {
		fmt.Fprintf(&b, "%s: ", e.Property)
	}
	b.WriteString(e.Message)
	return b.String()
}

// ValidationError aggregates every field error found in a batch. Bulk paths
// collect rather than fail fast so the caller can surface all problems in one
// pass.
type ValidationError struct {
	Errors []FieldError
}

// Add appends a field error.
func (e *ValidationError) Add(row int, property, message string) {
	e.Errors = append(e.Errors, FieldError{Row: row, Property: property, Message: message})
}

// HasErrors reports whether any field error was collected.
func (e *ValidationError) HasErrors() bool { return e != nil && len(e.Errors) > 0 }

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "ontology: validation failed"
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("ontology: %d validation error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// AsValidationError unwraps err to a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
