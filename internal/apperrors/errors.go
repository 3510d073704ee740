// Package apperrors holds the error taxonomy shared by the stores, the
// services and the HTTP layer. Every error here is a per-request outcome.
package apperrors

import (
	"fmt"
	"strings"
)

// FieldError is a single labeled validation failure, e.g.
// {Field: "Title", Message: "is too short (minimum is 5 characters)"}.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FullMessage joins the label and the message.
func (f FieldError) FullMessage() string {
	return f.Field + " " + f.Message
}

// ValidationError collects field-level failures for one record.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Count is the number of field failures.
func (e *ValidationError) Count() int {
	return len(e.Fields)
}

// Messages returns the full message of every failure, in order.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.FullMessage())
	}

	return msgs
}

// ByField groups the messages under their field label.
func (e *ValidationError) ByField() map[string][]string {
	out := make(map[string][]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = append(out[f.Field], f.Message)
	}

	return out
}

func (e *ValidationError) Error() string {
	return "Validation failed: " + strings.Join(e.Messages(), ", ")
}

// NotFoundError means an identifier does not resolve to a record the caller
// may see.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found."
}

// NotFound builds a NotFoundError for any printable identifier.
func NotFound(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// Reason tells apart the two ways an authorization check fails.
type Reason int

const (
	Unauthenticated Reason = iota + 1
	Forbidden
)

// AuthorizationError is returned when the caller is not signed in, or is
// signed in without admin privileges.
type AuthorizationError struct {
	Reason    Reason
	Operation string
}

func (e *AuthorizationError) Error() string {
	if e.Reason == Unauthenticated {
		return "You need to sign in or sign up before continuing."
	}

	return "Access denied. Admin privileges required."
}

// TransitionError is a publish or unpublish that was rejected when its write
// was validated. The persisted article is unchanged.
type TransitionError struct {
	Transition string
	Err        error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Unable to %s article: %v", e.Transition, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Pluralize renders a count with its noun, "1 error" or "3 errors".
func Pluralize(n int, singular string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}

	return fmt.Sprintf("%d %ss", n, singular)
}
