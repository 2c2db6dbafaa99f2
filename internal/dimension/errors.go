package dimension

import "errors"

// Errors returned by providers and the resolver.
var (
	// ErrDuplicateDimension indicates two providers serve the same dimension.
	ErrDuplicateDimension = errors.New("dimension provided more than once")

	// ErrReadOnlyProperties indicates an editable dimension was given an
	// accessor that cannot write.
	ErrReadOnlyProperties = errors.New("property accessor is read-only")
)
