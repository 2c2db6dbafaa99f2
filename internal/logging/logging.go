// Package logging builds the structured loggers used across the project system.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/term"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LogLevelTrace is for very detailed tracing of property reads and events.
	LogLevelTrace LogLevel = iota
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
	// LogLevelOff disables logging.
	LogLevelOff
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// hclogLevel maps a LogLevel onto hclog's levels.
func (l LogLevel) hclogLevel() hclog.Level {
	switch l {
	case LogLevelTrace:
		return hclog.Trace
	case LogLevelDebug:
		return hclog.Debug
	case LogLevelWarn:
		return hclog.Warn
	case LogLevelError:
		return hclog.Error
	case LogLevelOff:
		return hclog.Off
	default:
		return hclog.Info
	}
}

// ParseLogLevel parses a string into a LogLevel.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "trace", "TRACE":
		return LogLevelTrace
	case "debug", "DEBUG":
		return LogLevelDebug
	case "info", "INFO":
		return LogLevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LogLevelWarn
	case "error", "ERROR":
		return LogLevelError
	case "off", "OFF":
		return LogLevelOff
	default:
		return LogLevelInfo
	}
}

// Config configures the root logger.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Name is the root logger name.
	Name string
	// JSON switches to JSON-formatted lines.
	JSON bool
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LogLevelInfo,
		Output: os.Stderr,
		Name:   "projsys",
	}
}

// New creates a root logger. Colour is only enabled when writing plain text
// to a terminal.
func New(cfg Config) hclog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	color := hclog.ColorOff
	if f, ok := cfg.Output.(*os.File); ok && !cfg.JSON && term.IsTerminal(int(f.Fd())) {
		color = hclog.AutoColor
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       cfg.Name,
		Level:      cfg.Level.hclogLevel(),
		Output:     cfg.Output,
		JSONFormat: cfg.JSON,
		Color:      color,
	})
}

// WithComponent returns a sub-logger tagged with the component name.
// A nil logger yields a null logger so callers never need to check.
func WithComponent(l hclog.Logger, component string) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l.Named(component)
}

// OrNull returns l, or a null logger when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
