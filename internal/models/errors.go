package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDraftTerminal is returned when a mutation reaches a draft that has
// already been submitted or cancelled.
var ErrDraftTerminal = errors.New("draft is in a terminal state")

// ErrLegNotFound is returned by leg-addressed strategy operations when no
// leg carries the given id.
var ErrLegNotFound = errors.New("leg not found")

// InvalidFieldError reports a single field value that fails its local
// constraint. The mutation is rejected as a whole and the caller's value
// is left unchanged.
type InvalidFieldError struct {
	Value   interface{}
	Field   string
	Message string
}

func (e *InvalidFieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewInvalidField builds an InvalidFieldError for a field and the value
// that was rejected. Message is the text the UI renders inline.
func NewInvalidField(field string, value interface{}, message string) *InvalidFieldError {
	return &InvalidFieldError{Field: field, Value: value, Message: message}
}

// PreconditionFailedError reports an attempt to enable a dependent setting
// or take a wizard step while its prerequisite is not satisfied. Message
// is human-readable and safe to surface directly.
type PreconditionFailedError struct {
	Op      string
	Message string
}

func (e *PreconditionFailedError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// SubmissionBlockedError aggregates every reason a strategy cannot be
// submitted, in the order SubmissionBlockers reports them.
type SubmissionBlockedError struct {
	Reasons []string
}

func (e *SubmissionBlockedError) Error() string {
	if len(e.Reasons) == 0 {
		return "submission blocked"
	}
	return fmt.Sprintf("submission blocked: %s", strings.Join(e.Reasons, "; "))
}

// IsInvalidField reports whether err is (or wraps) an InvalidFieldError.
func IsInvalidField(err error) bool {
	var target *InvalidFieldError
	return errors.As(err, &target)
}

// IsPreconditionFailed reports whether err is (or wraps) a
// PreconditionFailedError.
func IsPreconditionFailed(err error) bool {
	var target *PreconditionFailedError
	return errors.As(err, &target)
}

// IsSubmissionBlocked reports whether err is (or wraps) a
// SubmissionBlockedError.
func IsSubmissionBlocked(err error) bool {
	var target *SubmissionBlockedError
	return errors.As(err, &target)
}
