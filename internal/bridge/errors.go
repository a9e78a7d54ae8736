package bridge

import (
	"errors"
	"fmt"
)

// Sentinel errors for the bridge.
var (
	// ErrUnrecognizedScope matches every ConfigurationError.
	ErrUnrecognizedScope = errors.New("unrecognized scope")

	// ErrUnknownItem matches every UnknownItemError.
	ErrUnknownItem = errors.New("unknown menu item")

	// ErrNoTab is returned when content delivery has no target tab.
	ErrNoTab = errors.New("message has no tab")

	// ErrNotSerializable is returned when a message cannot be encoded.
	ErrNotSerializable = errors.New("message is not serializable")
)

// ConfigurationError reports a scope value outside background/content.
// It is fatal for the dispatch that raised it.
type ConfigurationError struct {
	Scope string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unrecognized scope %q", e.Scope)
}

// Is allows errors.Is to match ErrUnrecognizedScope.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrUnrecognizedScope
}

// UnknownItemError reports a click on an id with no matching definition.
// HandleClick recovers it silently; the menu may be stale relative to the
// configuration.
type UnknownItemError struct {
	ID string
}

// Error implements the error interface.
func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("no item with id %q", e.ID)
}

// Is allows errors.Is to match ErrUnknownItem.
func (e *UnknownItemError) Is(target error) bool {
	return target == ErrUnknownItem
}
