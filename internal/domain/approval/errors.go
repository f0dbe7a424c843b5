package approval

import (
	"errors"
	"fmt"
)

var (
	ErrTemplateNotFound = errors.New("approval template not found")
	ErrRequestNotFound  = errors.New("approval request not found")
	ErrNotAuthorized    = errors.New("not authorized for this approval request")
	ErrNotPending       = errors.New("approval request is not pending")
)

// AuthorizationError is a definitive denial of an action.
type AuthorizationError struct {
	Action  string
	ActorID string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s is not authorized to %s this request", e.ActorID, e.Action)
}

func (e *AuthorizationError) Unwrap() error {
	return ErrNotAuthorized
}

// StateConflictError reports a transition attempted on a non-pending request.
type StateConflictError struct {
	RequestID string
	Status    Status
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("approval request %s is %s", e.RequestID, e.Status)
}

func (e *StateConflictError) Unwrap() error {
	return ErrNotPending
}
