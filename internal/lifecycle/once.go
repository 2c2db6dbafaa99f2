// Package lifecycle provides the one-shot initialize / idempotent dispose
// state machine shared by project-system components.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrDisposed is returned when work is requested from a disposed component.
var ErrDisposed = errors.New("component is disposed")

// State represents the lifecycle state of a component.
type State int32

// Lifecycle states.
const (
	// StateUninitialized - Initialize has not been called yet.
	StateUninitialized State = iota

	// StateInitializing - the first Initialize call is running.
	StateInitializing

	// StateInitialized - initialization finished, successfully or not.
	StateInitialized

	// StateDisposed - Dispose has been called. Terminal.
	StateDisposed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// InitFunc performs a component's one-time initialization.
type InitFunc func(ctx context.Context) error

// DisposeFunc releases a component. initialized reports whether
// initialization ran before disposal.
type DisposeFunc func(ctx context.Context, initialized bool) error

// Once runs an InitFunc at most once and a DisposeFunc at most once.
//
// The first Initialize caller runs the init function on its own goroutine.
// Concurrent and later callers wait for that run and observe its result.
// Dispose may be called at any time and any number of times.
type Once struct {
	state   atomic.Int32
	init    InitFunc
	dispose DisposeFunc

	done    chan struct{} // closed when the init run finishes
	err     error         // result of the init run, valid after done
	started atomic.Bool   // set once an init run has begun

	disposeOnce sync.Once
	disposeErr  error
}

// New creates a Once. Either function may be nil.
func New(init InitFunc, dispose DisposeFunc) *Once {
	return &Once{
		init:    init,
		dispose: dispose,
		done:    make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (o *Once) State() State {
	return State(o.state.Load())
}

// IsDisposed reports whether Dispose has been called.
func (o *Once) IsDisposed() bool {
	return o.State() == StateDisposed
}

// Initialize runs the init function if no caller has done so yet, otherwise
// waits for the in-flight or completed run and returns its error.
//
// ctx bounds only this caller's wait; the first caller's ctx is the one
// handed to the init function.
func (o *Once) Initialize(ctx context.Context) error {
	if o.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		o.started.Store(true)
		var err error
		if o.init != nil {
			err = o.init(ctx)
		}
		o.err = err
		o.state.CompareAndSwap(int32(StateInitializing), int32(StateInitialized))
		close(o.done)
		return err
	}

	if o.IsDisposed() && !o.started.Load() {
		// Disposed before anyone initialized.
		return ErrDisposed
	}

	select {
	case <-o.done:
		if o.IsDisposed() && o.err == nil {
			return ErrDisposed
		}
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispose moves the component to StateDisposed and runs the dispose function
// once. An in-flight initialization is awaited first. Later calls return the
// first call's result.
func (o *Once) Dispose(ctx context.Context) error {
	o.disposeOnce.Do(func() {
		prev := State(o.state.Swap(int32(StateDisposed)))
		initialized := false
		switch prev {
		case StateInitializing:
			select {
			case <-o.done:
			case <-ctx.Done():
				o.disposeErr = ctx.Err()
				return
			}
			initialized = true
		case StateInitialized:
			initialized = true
		}
		if o.dispose != nil {
			o.disposeErr = o.dispose(ctx, initialized)
		}
	})
	return o.disposeErr
}
