package build

import "errors"

// Errors returned by the build package.
var (
	// ErrSubscriptionNotFound indicates an unsubscribe of a subscription the
	// table does not hold.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrSourceExists indicates a table was added to a manager twice.
	ErrSourceExists = errors.New("table source already added")

	// ErrSourceNotFound indicates removal of a table the manager does not hold.
	ErrSourceNotFound = errors.New("table source not found")

	// ErrInvalidEvent indicates a malformed serialized build event.
	ErrInvalidEvent = errors.New("invalid build event")
)
