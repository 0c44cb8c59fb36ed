// Package validation checks raw form input before it reaches the services.
package validation

import (
	"fmt"
	"unicode/utf8"
)

// Validator is a function that validates a string value and returns an error message if invalid.
type Validator func(v string) string

// MaxLen validates that a field does not exceed maxLen characters.
// Values are checked as submitted, without trimming, and length is counted in runes.
func MaxLen(fieldName string, maxLen int) Validator {
	return func(v string) string {
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s cannot exceed %d characters.", fieldName, maxLen)
		}
		return ""
	}
}

// Printable rejects control characters, which never appear in sheet cells.
func Printable(fieldName string) Validator {
	return func(v string) string {
		for _, r := range v {
			if r < 0x20 || r == 0x7f {
				return fieldName + " contains invalid characters."
			}
		}
		return ""
	}
}

// FieldValidator provides a fluent API for validating multiple fields.
type FieldValidator struct {
	errors map[string]string
	order  []string
}

// New creates a new FieldValidator instance.
func New() *FieldValidator {
	return &FieldValidator{errors: make(map[string]string)}
}

// Validate validates a field with one or more validators.
// It stops at the first error for each field.
func (fv *FieldValidator) Validate(field, value string, validators ...Validator) *FieldValidator {
	for _, v := range validators {
		if err := v(value); err != "" {
			if _, seen := fv.errors[field]; !seen {
				fv.order = append(fv.order, field)
			}
			fv.errors[field] = err
			break
		}
	}
	return fv
}

// Errors returns the accumulated validation errors.
func (fv *FieldValidator) Errors() map[string]string {
	return fv.errors
}

// First returns the first failing field and its message, in validation order.
func (fv *FieldValidator) First() (field, msg string, ok bool) {
	if len(fv.order) == 0 {
		return "", "", false
	}
	field = fv.order[0]
	return field, fv.errors[field], true
}
