package script

import (
	"errors"
	"fmt"
)

// Errors for script execution.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutorClosed is returned when attempting to use a closed executor.
	ErrExecutorClosed = errors.New("lua executor is closed")

	// ErrQueueFull is returned when a deferred run cannot be queued.
	ErrQueueFull = errors.New("lua executor queue full")

	// ErrCapturedLocals is returned for closures that reference locals of
	// an enclosing function.
	ErrCapturedLocals = errors.New("closure references enclosing locals")

	// ErrBadClosure is returned when a closure descriptor does not name a
	// function prototype of its chunk.
	ErrBadClosure = errors.New("invalid closure descriptor")

	// ErrGoFunction is returned when a Go function is handed to runAs.
	ErrGoFunction = errors.New("go functions cannot be transported")
)

// RunError wraps a failure of user code with the chunk it came from.
type RunError struct {
	Chunk string
	Err   error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("running %s: %v", e.Chunk, e.Err)
}

// Unwrap returns the underlying error.
func (e *RunError) Unwrap() error {
	return e.Err
}
