package build

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/projsys/internal/broadcast"
)

// EventKind discriminates build events.
type EventKind int

// Event kinds.
const (
	EventOther EventKind = iota
	EventBuildStarted
	EventBuildFinished
	EventBuildError
	EventBuildWarning
	EventMessage
)

var eventKindNames = map[EventKind]string{
	EventOther:         "Other",
	EventBuildStarted:  "BuildStarted",
	EventBuildFinished: "BuildFinished",
	EventBuildError:    "BuildError",
	EventBuildWarning:  "BuildWarning",
	EventMessage:       "Message",
}

// String returns the kind name.
func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// ParseEventKind converts a kind name, case-insensitively. Unknown names
// map to EventOther.
func ParseEventKind(s string) EventKind {
	s = strings.TrimSpace(s)
	for k, name := range eventKindNames {
		if strings.EqualFold(name, s) {
			return k
		}
	}
	switch strings.ToLower(s) {
	case "started":
		return EventBuildStarted
	case "finished":
		return EventBuildFinished
	case "error":
		return EventBuildError
	case "warning":
		return EventBuildWarning
	}
	return EventOther
}

// Event is a build event. Fields beyond Kind and Message are set only for
// the kinds that carry them.
type Event struct {
	Kind        EventKind
	Message     string
	Code        string
	File        string
	Line        int
	Column      int
	ProjectFile string
	Succeeded   bool
	Timestamp   time.Time
}

// Handler receives build events.
type Handler func(Event)

// EventSource delivers every event of a build to its subscribers.
type EventSource interface {
	// OnAnyEvent registers h and returns a function that unregisters it.
	OnAnyEvent(h Handler) (remove func())
}

// Source is an in-process EventSource.
//
// The zero value is ready for use.
type Source struct {
	handlers broadcast.Set[Handler]
}

var _ EventSource = (*Source)(nil)

// OnAnyEvent implements EventSource. The returned function is idempotent.
func (s *Source) OnAnyEvent(h Handler) func() {
	tok := s.handlers.Add(h)
	return func() { s.handlers.Remove(tok) }
}

// Raise delivers evt to the handlers registered at call time, in
// registration order. A zero Timestamp is set to the current time.
func (s *Source) Raise(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	for _, h := range s.handlers.Snapshot() {
		h(evt)
	}
}

// Len returns the number of registered handlers.
func (s *Source) Len() int {
	return s.handlers.Len()
}
