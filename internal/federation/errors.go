package federation

import (
	"errors"
	"fmt"
)

// ErrDelegationRejected matches every DelegationError.
var ErrDelegationRejected = errors.New("delegation rejected")

// DelegationError reports that a remote owner did not acknowledge its
// item set.
type DelegationError struct {
	OwnerID string
	Err     error
}

// Error implements the error interface.
func (e *DelegationError) Error() string {
	return fmt.Sprintf("delegation to %s failed: %v", e.OwnerID, e.Err)
}

// Unwrap returns the underlying error.
func (e *DelegationError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match ErrDelegationRejected.
func (e *DelegationError) Is(target error) bool {
	return target == ErrDelegationRejected
}

// ResetError reports that the host surface could not be cleared. No owner
// is materialized in a pass that fails this way.
type ResetError struct {
	Err error
}

// Error implements the error interface.
func (e *ResetError) Error() string {
	return "resetting menu surface: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ResetError) Unwrap() error {
	return e.Err
}
