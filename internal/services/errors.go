package services

import (
	"errors"
	"fmt"
)

// Fatal errors: entry into a session is refused.
var (
	ErrNotAuthenticated   = errors.New("no authenticated user")
	ErrOwnershipViolation = errors.New("saved progress belongs to another user")
)

// Recoverable errors: the in-memory session survives and the caller may
// retry.
var (
	ErrLoadFailure   = errors.New("failed to load session data")
	ErrSaveFailure   = errors.New("failed to save progress")
	ErrSubmitFailure = errors.New("failed to submit session")
)

var (
	// ErrNoEligibleQuestions means the quota table produced zero sections;
	// there is nothing to take, but nothing crashed either.
	ErrNoEligibleQuestions = errors.New("no eligible questions for any quota cell")

	ErrSessionNotFound  = errors.New("no active session")
	ErrSessionNotActive = errors.New("session is not active")
	ErrSaveInProgress   = errors.New("a save is already in flight")
	ErrSessionExists    = errors.New("session already active for this assessment")
)

// PermissionError carries the denied subject/action for logging without
// leaking it to the caller.
type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s (%s)", e.UserID, e.Action, e.Resource, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrOwnershipViolation
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}
