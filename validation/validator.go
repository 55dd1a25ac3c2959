package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/flowgraph/errors"
)

// FieldError is one problem found on one field of a document.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field problems so a document reports all of them
// at once. Its checks chain:
//
//	v := validation.New().Required("name", s.Name).Name("name", s.Name)
//	if appErr := v.Validate(); appErr != nil { ... }
type Validator struct {
	errors []FieldError
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a problem on field.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

func (v *Validator) check(ok bool, field, format string, args ...any) *Validator {
	if !ok {
		v.AddError(field, fmt.Sprintf(format, args...))
	}
	return v
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

// Errors returns the recorded problems in the order they were found.
func (v *Validator) Errors() []FieldError { return v.errors }

// Validate returns nil when every check passed. Otherwise it returns one
// INVALID_INPUT error whose message lists every problem and whose "fields"
// detail holds them as []FieldError.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	parts := make([]string, 0, len(v.errors))
	for _, e := range v.errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", v.errors)
}

// Required rejects blank values.
func (v *Validator) Required(field, value string) *Validator {
	return v.check(strings.TrimSpace(value) != "", field, "is required")
}

// Name rejects values that cannot be node or graph names: '.' separates a
// node from an attribute in a reference, and whitespace never appears in
// one. Empty values pass; pair with Required.
func (v *Validator) Name(field, value string) *Validator {
	return v.check(!strings.ContainsAny(value, ". \t\r\n"), field, "must not contain '.' or whitespace")
}

// Unique records one problem per repeated value. Empty values are skipped.
func (v *Validator) Unique(field string, values []string) *Validator {
	seen := make(map[string]bool, len(values))
	for _, s := range values {
		if s == "" {
			continue
		}
		v.check(!seen[s], field, "duplicate value %q", s)
		seen[s] = true
	}
	return v
}

// Min rejects numbers below floor.
func (v *Validator) Min(field string, value, floor int) *Validator {
	return v.check(value >= floor, field, "must be at least %d", floor)
}

// Check records message on field when ok is false.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	return v.check(ok, field, "%s", message)
}
