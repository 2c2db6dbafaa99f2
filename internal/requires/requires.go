// Package requires provides constructor argument checks.
//
// Components in this module take their collaborators through constructors.
// A missing collaborator is a programming error on the caller's side, so the
// checks here fail fast with an *ArgumentError naming the offending argument.
package requires

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNilArgument is matched by every *ArgumentError produced by NotNil.
var ErrNilArgument = errors.New("argument must not be nil")

// ArgumentError reports an invalid constructor or method argument.
type ArgumentError struct {
	Name string // Parameter name
	Err  error  // Underlying reason
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// NotNil returns an *ArgumentError if value is nil, including typed nil
// pointers stored in an interface.
func NotNil(value any, name string) error {
	if isNil(value) {
		return &ArgumentError{Name: name, Err: ErrNilArgument}
	}
	return nil
}

// NotNilAll checks pairs of (value, name) in order and returns the first failure.
func NotNilAll(args ...any) error {
	for i := 0; i+1 < len(args); i += 2 {
		name, _ := args[i+1].(string)
		if err := NotNil(args[i], name); err != nil {
			return err
		}
	}
	return nil
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
