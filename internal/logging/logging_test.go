package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelTrace, "TRACE"},
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevelOff, "OFF"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		result := tt.level.String()
		if result != tt.expected {
			t.Errorf("LogLevel(%d).String() = '%s', expected '%s'", tt.level, result, tt.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"trace", LogLevelTrace},
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"WARNING", LogLevelWarn},
		{"error", LogLevelError},
		{"off", LogLevelOff},
		{"unknown", LogLevelInfo}, // Default
		{"", LogLevelInfo},        // Default
	}

	for _, tt := range tests {
		result := ParseLogLevel(tt.input)
		if result != tt.expected {
			t.Errorf("ParseLogLevel('%s') = %d, expected %d", tt.input, result, tt.expected)
		}
	}
}

func TestNew_WritesAtLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LogLevelWarn, Output: &buf, Name: "test"})

	logger.Info("hidden message")
	logger.Warn("visible message", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "key=value") {
		t.Errorf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "test") {
		t.Errorf("logger name missing: %q", out)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LogLevelInfo, Output: &buf, JSON: true})
	logger.Info("hello", "dimension", "TargetFramework")

	out := buf.String()
	if !strings.Contains(out, `"@message":"hello"`) {
		t.Errorf("expected JSON message, got %q", out)
	}
	if !strings.Contains(out, `"dimension":"TargetFramework"`) {
		t.Errorf("expected JSON field, got %q", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	root := New(Config{Level: LogLevelInfo, Output: &buf, Name: "root"})
	WithComponent(root, "build").Info("entry")

	if !strings.Contains(buf.String(), "root.build") {
		t.Errorf("expected component name in output, got %q", buf.String())
	}

	if WithComponent(nil, "x") == nil {
		t.Error("WithComponent(nil) returned nil")
	}
	if OrNull(nil) == nil {
		t.Error("OrNull(nil) returned nil")
	}
}
