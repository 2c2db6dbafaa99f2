package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrClosed indicates the application or project has been closed.
	ErrClosed = errors.New("closed")

	// ErrProjectOpen indicates the project file is already open.
	ErrProjectOpen = errors.New("project already open")

	// ErrSnapshotMissing indicates the property snapshot file is gone.
	ErrSnapshotMissing = errors.New("property snapshot missing")
)

// ComponentError is a failure of one project component.
type ComponentError struct {
	Component string // Component name (e.g., "runtime-references")
	Action    string // Action being performed (e.g., "load")
	Err       error  // Underlying error
}

// NewComponentError creates a new ComponentError.
func NewComponentError(component, action string, err error) *ComponentError {
	return &ComponentError{
		Component: component,
		Action:    action,
		Err:       err,
	}
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}

	if e.Action != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Component, e.Action)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Component, e.Err)
	}

	return e.Component
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RecoveredPanicError wraps a panic raised by a component.
// The stack is kept for logging and left out of Error().
type RecoveredPanicError struct {
	Value any
	Stack string
}

func (e *RecoveredPanicError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("panic: %v", e.Value)
}
