package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEntity is returned when validating against an undeclared kind
var ErrUnknownEntity = errors.New("unknown entity kind")

// ErrorCode classifies a field validation failure
type ErrorCode string

const (
	MissingField        ErrorCode = "missing_field"
	TypeMismatch        ErrorCode = "type_mismatch"
	ConstraintViolation ErrorCode = "constraint_violation"
)

// FieldError is one field-level validation failure
type FieldError struct {
	Code       ErrorCode   `json:"code"`
	Field      string      `json:"field"`
	Expected   FieldKind   `json:"expected,omitempty"`
	Constraint *Constraint `json:"constraint,omitempty"`
	Value      any         `json:"value,omitempty"`
	Message    string      `json:"message"`
}

func (e FieldError) Error() string {
	return e.Message
}

func missingField(name string) FieldError {
	return FieldError{
		Code:    MissingField,
		Field:   name,
		Message: fmt.Sprintf("%s is required", name),
	}
}

func typeMismatch(name string, expected FieldKind, value any) FieldError {
	return FieldError{
		Code:     TypeMismatch,
		Field:    name,
		Expected: expected,
		Value:    value,
		Message:  fmt.Sprintf("%s must be a %s", name, expected),
	}
}

func constraintViolation(name string, c *Constraint, value any) FieldError {
	return FieldError{
		Code:       ConstraintViolation,
		Field:      name,
		Constraint: c,
		Value:      value,
		Message:    fmt.Sprintf("%s must satisfy %s, got %v", name, c, value),
	}
}

// ErrorList collects every field failure of one validation pass
type ErrorList []FieldError

func (l ErrorList) Error() string {
	msgs := make([]string, 0, len(l))
	for _, e := range l {
		msgs = append(msgs, e.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Fields returns the names of the offending fields in report order
func (l ErrorList) Fields() []string {
	names := make([]string, 0, len(l))
	for _, e := range l {
		names = append(names, e.Field)
	}
	return names
}

// For returns the error reported for a field, if any
func (l ErrorList) For(field string) (FieldError, bool) {
	for _, e := range l {
		if e.Field == field {
			return e, true
		}
	}
	return FieldError{}, false
}
