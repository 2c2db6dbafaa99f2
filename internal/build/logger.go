package build

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/dshills/projsys/internal/requires"
)

// Verbosity is a build logger's verbosity.
type Verbosity int

// Verbosities.
const (
	VerbosityQuiet Verbosity = iota
	VerbosityMinimal
	VerbosityNormal
	VerbosityDetailed
	VerbosityDiagnostic
)

// String returns the verbosity name.
func (v Verbosity) String() string {
	switch v {
	case VerbosityQuiet:
		return "quiet"
	case VerbosityMinimal:
		return "minimal"
	case VerbosityNormal:
		return "normal"
	case VerbosityDetailed:
		return "detailed"
	case VerbosityDiagnostic:
		return "diagnostic"
	default:
		return fmt.Sprintf("Verbosity(%d)", int(v))
	}
}

// Logger turns build events into error table entries.
type Logger struct {
	table  *ErrorTable
	logger hclog.Logger

	mu      sync.Mutex
	removes []func()
}

func newLogger(table *ErrorTable, logger hclog.Logger) *Logger {
	return &Logger{table: table, logger: logger}
}

// Verbosity is always VerbosityNormal.
func (l *Logger) Verbosity() Verbosity {
	return VerbosityNormal
}

// Parameters is always empty.
func (l *Logger) Parameters() string {
	return ""
}

// Initialize subscribes to every event of src. A logger may be attached to
// several builds at once.
func (l *Logger) Initialize(src EventSource) error {
	if err := requires.NotNil(src, "src"); err != nil {
		return err
	}
	remove := src.OnAnyEvent(l.handle)

	l.mu.Lock()
	l.removes = append(l.removes, remove)
	l.mu.Unlock()
	return nil
}

// Shutdown detaches the logger from every source. Calling it again does
// nothing.
func (l *Logger) Shutdown() {
	l.mu.Lock()
	removes := l.removes
	l.removes = nil
	l.mu.Unlock()

	for _, remove := range removes {
		remove()
	}
}

// Attached reports the number of sources the logger listens to.
func (l *Logger) Attached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.removes)
}

func (l *Logger) handle(evt Event) {
	switch evt.Kind {
	case EventBuildStarted:
		l.table.RemoveAllEntries()
	case EventBuildError:
		l.publish(evt, SeverityError)
	case EventBuildWarning:
		l.publish(evt, SeverityWarning)
	}
}

func (l *Logger) publish(evt Event, severity Severity) {
	if err := l.table.AddEntry(NewEntry(l.table, evt, severity)); err != nil {
		l.logger.Error("publish build diagnostic", "error", err)
	}
}
