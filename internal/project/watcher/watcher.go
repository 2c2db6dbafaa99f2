// Package watcher reports changes to individual files, such as the
// evaluated-property snapshots of open projects.
//
// FSNotifyWatcher watches the parent directory of each file so that
// replace-by-rename saves are seen, and reports only events for the files
// asked for. DebouncedWatcher coalesces bursts of events per file.
package watcher

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op is a set of file operations.
type Op uint32

const (
	// OpCreate indicates the file was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates the file was written to.
	OpWrite
	// OpRemove indicates the file was removed.
	OpRemove
	// OpRename indicates the file was renamed away.
	OpRename
	// OpChmod indicates file permissions were changed.
	OpChmod
)

var opNames = []struct {
	op   Op
	name string
}{
	{OpCreate, "CREATE"},
	{OpWrite, "WRITE"},
	{OpRemove, "REMOVE"},
	{OpRename, "RENAME"},
	{OpChmod, "CHMOD"},
}

// String lists the operations in the set, e.g. "CREATE|WRITE".
func (op Op) String() string {
	var parts []string
	for _, n := range opNames {
		if op.Has(n.op) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(parts, "|")
}

// Has returns true if the set includes o.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Changed reports whether the content may have changed. Chmod alone does
// not count.
func (op Op) Changed() bool {
	return op&^OpChmod != 0
}

// Event is a change to a watched file.
type Event struct {
	// Path is the absolute path of the file.
	Path string

	// Op is the operation that occurred.
	Op Op

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Watcher monitors files for changes.
type Watcher interface {
	// Watch starts watching a file. The file's directory must exist.
	Watch(path string) error

	// Unwatch stops watching a file.
	Unwatch(path string) error

	// Events returns the channel of file events. It is closed by Close.
	Events() <-chan Event

	// Errors returns the channel of watcher errors. It is closed by Close.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error

	// IsWatching returns true if the file is being watched.
	IsWatching(path string) bool

	// WatchedPaths returns the watched files.
	WatchedPaths() []string
}

// Config holds watcher configuration options.
type Config struct {
	// BufferSize is the size of the event and error channels.
	BufferSize int

	// Logger receives dropped-event and watch errors.
	Logger hclog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{BufferSize: 100}
}

// Option configures a watcher.
type Option func(*Config)

// WithBufferSize sets the channel buffer size.
func WithBufferSize(size int) Option {
	return func(c *Config) {
		c.BufferSize = size
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// Run delivers the events of w to onEvent, and its errors to onError when
// not nil, until ctx is done or w is closed.
func Run(ctx context.Context, w Watcher, onEvent func(Event), onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events():
			if !ok {
				return
			}
			onEvent(event)
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
