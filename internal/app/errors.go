package app

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Start on a started application.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning is returned by Run before Start.
	ErrNotRunning = errors.New("application not running")

	// ErrUnknownHelper is returned for helper ids not in Options.Helpers.
	ErrUnknownHelper = errors.New("unknown helper agent")
)

// ComponentError is a failure to set up or stop one component.
type ComponentError struct {
	Component string
	Action    string
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}
