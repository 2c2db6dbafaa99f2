package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestOnce_InitializeRunsOnce(t *testing.T) {
	var calls atomic.Int32
	o := New(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, nil)

	for i := 0; i < 3; i++ {
		if err := o.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("init ran %d times, want 1", calls.Load())
	}
	if o.State() != StateInitialized {
		t.Errorf("State() = %v, want initialized", o.State())
	}
}

func TestOnce_ConcurrentCallersShareResult(t *testing.T) {
	release := make(chan struct{})
	wantErr := errors.New("boom")
	var calls atomic.Int32
	o := New(func(ctx context.Context) error {
		calls.Add(1)
		<-release
		return wantErr
	}, nil)

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- o.Initialize(context.Background())
		}()
	}

	// Let the callers pile up behind the first one.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if !errors.Is(err, wantErr) {
			t.Errorf("Initialize() error = %v, want %v", err, wantErr)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("init ran %d times, want 1", calls.Load())
	}
}

func TestOnce_WaiterHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	o := New(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}, nil)

	go func() { _ = o.Initialize(context.Background()) }()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := o.Initialize(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Initialize() error = %v, want context.Canceled", err)
	}
}

func TestOnce_DisposeIsIdempotent(t *testing.T) {
	var disposals atomic.Int32
	var sawInitialized bool
	o := New(nil, func(ctx context.Context, initialized bool) error {
		disposals.Add(1)
		sawInitialized = initialized
		return nil
	})

	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := o.Dispose(context.Background()); err != nil {
			t.Fatalf("Dispose() error = %v", err)
		}
	}
	if disposals.Load() != 1 {
		t.Errorf("dispose ran %d times, want 1", disposals.Load())
	}
	if !sawInitialized {
		t.Error("dispose saw initialized = false, want true")
	}
	if err := o.Initialize(context.Background()); !errors.Is(err, ErrDisposed) {
		t.Errorf("Initialize() after Dispose error = %v, want ErrDisposed", err)
	}
}

func TestOnce_DisposeBeforeInitialize(t *testing.T) {
	var initCalls atomic.Int32
	var sawInitialized = true
	o := New(func(ctx context.Context) error {
		initCalls.Add(1)
		return nil
	}, func(ctx context.Context, initialized bool) error {
		sawInitialized = initialized
		return nil
	})

	if err := o.Dispose(context.Background()); err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	if sawInitialized {
		t.Error("dispose saw initialized = true, want false")
	}
	if err := o.Initialize(context.Background()); !errors.Is(err, ErrDisposed) {
		t.Errorf("Initialize() error = %v, want ErrDisposed", err)
	}
	if initCalls.Load() != 0 {
		t.Errorf("init ran %d times after dispose, want 0", initCalls.Load())
	}
	if !o.IsDisposed() {
		t.Error("IsDisposed() = false")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "uninitialized"},
		{StateInitializing, "initializing"},
		{StateInitialized, "initialized"},
		{StateDisposed, "disposed"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
