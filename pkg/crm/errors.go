package crm

import "fmt"

// Detail messages surfaced verbatim in API responses. Client code and
// tests key off these strings, so they must not change.
const (
	DetailConvertedClientStatus = "Cannot change status of converted client."
	DetailSignedContract        = "Cannot update a signed contract."
	DetailFinishedEvent         = "Cannot update a finished event."
	DetailRelatedContract       = "Cannot change the related contract."
	DetailNotFound              = "Not found."
)

// ValidationError marks input that is malformed or inconsistent with
// the current entity state. Maps to HTTP 400.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

// NewValidationError builds a ValidationError with a formatted detail.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// PermissionError marks an actor that lacks rights under the team or
// ownership rules. Maps to HTTP 403.
type PermissionError struct {
	Detail string
}

func (e *PermissionError) Error() string { return e.Detail }

// NewPermissionError builds a PermissionError with a formatted detail.
func NewPermissionError(format string, args ...interface{}) *PermissionError {
	return &PermissionError{Detail: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a reference that does not resolve. Maps to HTTP 404.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// StateLockedError marks a mutation attempt against an entity in a
// terminal state (signed contract, finished event). It renders as HTTP
// 403 like PermissionError, but the rule is state-triggered rather than
// identity-triggered, so the two stay distinguishable to callers.
type StateLockedError struct {
	Detail string
}

func (e *StateLockedError) Error() string { return e.Detail }

// ErrSignedContract is the canonical rejection for any update attempt
// against a signed contract.
func ErrSignedContract() *StateLockedError {
	return &StateLockedError{Detail: DetailSignedContract}
}

// ErrFinishedEvent is the canonical rejection for any update attempt
// against a completed event.
func ErrFinishedEvent() *StateLockedError {
	return &StateLockedError{Detail: DetailFinishedEvent}
}
