package property

import (
	"errors"
	"fmt"
)

// Errors returned by the property store.
var (
	// ErrProjectNotLoaded indicates no snapshot is loaded for the project.
	ErrProjectNotLoaded = errors.New("no evaluated properties loaded for project")

	// ErrInvalidSnapshot indicates the snapshot is not a JSON object.
	ErrInvalidSnapshot = errors.New("invalid property snapshot")
)

// Error records a failed property access.
type Error struct {
	Op       string // get or set
	Project  string // project path
	Property string // property name, empty for whole-snapshot operations
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Property == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Project, e.Err)
	}
	return fmt.Sprintf("%s %s of %s: %v", e.Op, e.Property, e.Project, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
