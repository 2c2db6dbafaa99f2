package watcher

import (
	"sync"
	"time"
)

// DefaultDebounce is used when a non-positive delay is given.
const DefaultDebounce = 200 * time.Millisecond

// DebouncedWatcher wraps a Watcher and coalesces events per file. An event
// is delivered once no further event for the same file arrived within the
// delay; its Op is the union of the coalesced operations.
type DebouncedWatcher struct {
	inner Watcher
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	events  chan Event
	errors  chan error
	closed  bool
	closeCh chan struct{}
	loop    sync.WaitGroup
}

type pendingEvent struct {
	event Event
	timer *time.Timer
}

// NewDebouncedWatcher creates a debounced watcher around inner.
func NewDebouncedWatcher(inner Watcher, delay time.Duration) *DebouncedWatcher {
	if delay <= 0 {
		delay = DefaultDebounce
	}

	dw := &DebouncedWatcher{
		inner:   inner,
		delay:   delay,
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, 100),
		errors:  make(chan error, 100),
		closeCh: make(chan struct{}),
	}

	dw.loop.Add(1)
	go dw.processLoop()
	return dw
}

// Delay returns the debounce delay.
func (dw *DebouncedWatcher) Delay() time.Duration { return dw.delay }

// Watch starts watching a file.
func (dw *DebouncedWatcher) Watch(path string) error { return dw.inner.Watch(path) }

// Unwatch stops watching a file.
func (dw *DebouncedWatcher) Unwatch(path string) error { return dw.inner.Unwatch(path) }

// IsWatching reports whether the file is being watched.
func (dw *DebouncedWatcher) IsWatching(path string) bool { return dw.inner.IsWatching(path) }

// WatchedPaths returns the watched files.
func (dw *DebouncedWatcher) WatchedPaths() []string { return dw.inner.WatchedPaths() }

// Events returns the debounced event channel.
func (dw *DebouncedWatcher) Events() <-chan Event { return dw.events }

// Errors returns the error channel.
func (dw *DebouncedWatcher) Errors() <-chan error { return dw.errors }

// Close stops the pending timers and closes the inner watcher. Pending
// events are dropped.
func (dw *DebouncedWatcher) Close() error {
	dw.mu.Lock()
	if dw.closed {
		dw.mu.Unlock()
		return nil
	}
	dw.closed = true
	for path, p := range dw.pending {
		p.timer.Stop()
		delete(dw.pending, path)
	}
	close(dw.closeCh)
	dw.mu.Unlock()

	err := dw.inner.Close()
	dw.loop.Wait()

	dw.mu.Lock()
	close(dw.events)
	close(dw.errors)
	dw.mu.Unlock()
	return err
}

// Flush delivers every pending event immediately.
func (dw *DebouncedWatcher) Flush() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	for path, p := range dw.pending {
		p.timer.Stop()
		dw.emitLocked(p.event)
		delete(dw.pending, path)
	}
}

// PendingCount returns the number of files with an undelivered event.
func (dw *DebouncedWatcher) PendingCount() int {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return len(dw.pending)
}

func (dw *DebouncedWatcher) processLoop() {
	defer dw.loop.Done()

	for {
		select {
		case <-dw.closeCh:
			return
		case event, ok := <-dw.inner.Events():
			if !ok {
				return
			}
			dw.schedule(event)
		case err, ok := <-dw.inner.Errors():
			if !ok {
				return
			}
			dw.mu.Lock()
			if !dw.closed {
				select {
				case dw.errors <- err:
				default:
				}
			}
			dw.mu.Unlock()
		}
	}
}

func (dw *DebouncedWatcher) schedule(event Event) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.closed {
		return
	}

	if p, ok := dw.pending[event.Path]; ok {
		p.timer.Stop()
		p.event.Op |= event.Op
		p.event.Timestamp = event.Timestamp
		p.timer.Reset(dw.delay)
		return
	}

	p := &pendingEvent{event: event}
	p.timer = time.AfterFunc(dw.delay, func() { dw.fire(event.Path, p) })
	dw.pending[event.Path] = p
}

func (dw *DebouncedWatcher) fire(path string, p *pendingEvent) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	// A flushed or replaced entry has already been handled.
	if dw.closed || dw.pending[path] != p {
		return
	}
	delete(dw.pending, path)
	dw.emitLocked(p.event)
}

func (dw *DebouncedWatcher) emitLocked(event Event) {
	select {
	case dw.events <- event:
	default:
	}
}

// Ensure DebouncedWatcher implements Watcher.
var _ Watcher = (*DebouncedWatcher)(nil)
