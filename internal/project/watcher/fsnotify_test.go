package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T) *FSNotifyWatcher {
	t.Helper()
	w, err := NewFSNotifyWatcher(WithBufferSize(32))
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func waitFor(t *testing.T, w Watcher, path string) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-w.Events():
			if e.Path == path {
				return e
			}
			t.Errorf("unexpected event for %s", e.Path)
		case <-timeout:
			t.Fatalf("no event for %s", path)
			return Event{}
		}
	}
}

func TestFSNotifyReportsWatchedFileOnly(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "App.props.json")
	other := filepath.Join(dir, "other.txt")

	w := newTestWatcher(t)
	if err := w.Watch(snapshot); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(snapshot, []byte(`{"Properties":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	e := waitFor(t, w, snapshot)
	if !e.Op.Changed() {
		t.Errorf("op = %v, want a content change", e.Op)
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestFSNotifyWatchErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.json")
	w := newTestWatcher(t)

	if err := w.Watch(filepath.Join(dir, "missing", "a.json")); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("missing dir: err = %v, want ErrPathNotExist", err)
	}
	if err := w.Watch(file); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Watch(file); !errors.Is(err, ErrAlreadyWatching) {
		t.Errorf("second Watch: err = %v, want ErrAlreadyWatching", err)
	}
	if !w.IsWatching(file) {
		t.Error("IsWatching should be true")
	}
	if err := w.Unwatch(file); err != nil {
		t.Fatalf("Unwatch: %v", err)
	}
	if err := w.Unwatch(file); !errors.Is(err, ErrNotWatching) {
		t.Errorf("second Unwatch: err = %v, want ErrNotWatching", err)
	}
}

func TestFSNotifySharesDirectory(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	w := newTestWatcher(t)

	for _, p := range []string{b, a} {
		if err := w.Watch(p); err != nil {
			t.Fatalf("Watch(%s): %v", p, err)
		}
	}
	paths := w.WatchedPaths()
	if len(paths) != 2 || paths[0] != a || paths[1] != b {
		t.Errorf("WatchedPaths() = %v", paths)
	}

	// b stays watched after a is dropped.
	if err := w.Unwatch(a); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, w, b)
}

func TestFSNotifyClose(t *testing.T) {
	w, err := NewFSNotifyWatcher()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := w.Watch(filepath.Join(t.TempDir(), "a.json")); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Watch after Close: err = %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("events channel should be closed")
	}
}

func TestConvertOp(t *testing.T) {
	if got := convertOp(0); got != 0 {
		t.Errorf("convertOp(0) = %v", got)
	}
}
