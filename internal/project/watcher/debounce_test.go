package watcher

import (
	"errors"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Event, within time.Duration) (Event, bool) {
	t.Helper()
	select {
	case e, ok := <-ch:
		return e, ok
	case <-time.After(within):
		return Event{}, false
	}
}

func TestDebounceCoalescesPerFile(t *testing.T) {
	inner := newFakeWatcher()
	dw := NewDebouncedWatcher(inner, 30*time.Millisecond)
	defer dw.Close()

	inner.events <- Event{Path: "/p/a.json", Op: OpCreate}
	inner.events <- Event{Path: "/p/a.json", Op: OpWrite}
	inner.events <- Event{Path: "/p/b.json", Op: OpRemove}

	got := map[string]Op{}
	for i := 0; i < 2; i++ {
		e, ok := receive(t, dw.Events(), time.Second)
		if !ok {
			t.Fatalf("expected event %d", i)
		}
		got[e.Path] = e.Op
	}
	if got["/p/a.json"] != OpCreate|OpWrite {
		t.Errorf("a.json op = %v, want CREATE|WRITE", got["/p/a.json"])
	}
	if got["/p/b.json"] != OpRemove {
		t.Errorf("b.json op = %v, want REMOVE", got["/p/b.json"])
	}

	if _, ok := receive(t, dw.Events(), 80*time.Millisecond); ok {
		t.Error("expected no further events")
	}
}

func TestDebounceDefaultDelay(t *testing.T) {
	dw := NewDebouncedWatcher(newFakeWatcher(), 0)
	defer dw.Close()
	if dw.Delay() != DefaultDebounce {
		t.Errorf("Delay() = %v, want %v", dw.Delay(), DefaultDebounce)
	}
}

func TestDebounceFlush(t *testing.T) {
	inner := newFakeWatcher()
	dw := NewDebouncedWatcher(inner, time.Hour)
	defer dw.Close()

	inner.events <- Event{Path: "/p/a.json", Op: OpWrite}

	deadline := time.Now().Add(time.Second)
	for dw.PendingCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if dw.PendingCount() != 1 {
		t.Fatalf("PendingCount() = %d, want 1", dw.PendingCount())
	}

	dw.Flush()
	if dw.PendingCount() != 0 {
		t.Errorf("PendingCount() after Flush = %d", dw.PendingCount())
	}
	e, ok := receive(t, dw.Events(), time.Second)
	if !ok || e.Path != "/p/a.json" {
		t.Errorf("flushed event = %+v, %v", e, ok)
	}
}

func TestDebounceForwardsErrorsAndPaths(t *testing.T) {
	inner := newFakeWatcher()
	dw := NewDebouncedWatcher(inner, 10*time.Millisecond)
	defer dw.Close()

	if err := dw.Watch("/p/a.json"); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if !dw.IsWatching("/p/a.json") || len(dw.WatchedPaths()) != 1 {
		t.Error("watch should pass through to the inner watcher")
	}
	if err := dw.Unwatch("/p/a.json"); err != nil {
		t.Fatalf("Unwatch: %v", err)
	}
	if !errors.Is(dw.Unwatch("/p/a.json"), ErrNotWatching) {
		t.Error("second Unwatch should fail")
	}

	inner.errors <- errors.New("boom")
	select {
	case err := <-dw.Errors():
		if err == nil || err.Error() != "boom" {
			t.Errorf("err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("error not forwarded")
	}
}

func TestDebounceCloseDropsPending(t *testing.T) {
	inner := newFakeWatcher()
	dw := NewDebouncedWatcher(inner, time.Hour)

	inner.events <- Event{Path: "/p/a.json", Op: OpWrite}
	time.Sleep(20 * time.Millisecond)

	if err := dw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := dw.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-dw.Events(); ok {
		t.Error("events channel should be closed and empty")
	}
	if !inner.closed {
		t.Error("inner watcher should be closed")
	}
}
