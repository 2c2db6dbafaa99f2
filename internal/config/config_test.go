package config

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/projsys/internal/config/loader"
	"github.com/dshills/projsys/internal/logging"
)

// memFS is a map-backed loader.FileSystem.
type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(data), nil
}

func (m memFS) Stat(path string) (fs.FileInfo, error) {
	return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Watch.Debounce.Std() != 200*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.LogLevel() != logging.LogLevelInfo {
		t.Errorf("LogLevel() = %v", cfg.LogLevel())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		problem string
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad exporter", func(c *Config) { c.Telemetry.Exporter = "statsd" }, "telemetry.exporter"},
		{"unnamed dimension", func(c *Config) {
			c.Dimensions = []DimensionConfig{{Property: "Flavors"}}
		}, "dimensions[0].name: required"},
		{"built-in dimension", func(c *Config) {
			c.Dimensions = []DimensionConfig{{Name: "platform", Property: "Platforms"}}
		}, "is built in"},
		{"duplicate dimension", func(c *Config) {
			c.Dimensions = []DimensionConfig{{Name: "Flavor", Property: "A"}, {Name: "flavor", Property: "B"}}
		}, "duplicate"},
		{"missing property", func(c *Config) {
			c.Dimensions = []DimensionConfig{{Name: "Flavor"}}
		}, "dimensions[0].property"},
		{"no table", func(c *Config) { c.Build.TableID = "" }, "build.tableId"},
		{"no framework property", func(c *Config) { c.RuntimeReferences.Property = "" }, "runtimeReferences.property"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -1 }, "watch.debounce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate() error = %v, want ErrValidationFailed", err)
			}
			if !strings.Contains(err.Error(), tt.problem) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.problem)
			}
		})
	}
}

func noEnv() *loader.EnvLoader {
	return nil
}

func TestLoaderMergesFiles(t *testing.T) {
	fsys := memFS{
		"/etc/projsys.toml": `
[logging]
level = "debug"

[telemetry]
exporter = "log"
hashSalt = "base"

[[dimensions]]
name = "Flavor"
property = "Flavors"
sensitive = true
`,
		"/repo/.projsys.yaml": `
telemetry:
  hashSalt: repo
watch:
  enabled: true
  debounce: 1s
runtimeReferences:
  assemblies: [System.dll]
`,
	}

	cfg, err := NewLoader(fsys).WithEnv(noEnv()).Load(false, "/etc/projsys.toml", "/repo/.projsys.yaml", "/missing.toml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	want.Logging.Level = "debug"
	want.Telemetry = TelemetryConfig{Exporter: ExporterLog, HashSalt: "repo"}
	want.Dimensions = []DimensionConfig{{Name: "Flavor", Property: "Flavors", Sensitive: true}}
	want.Watch = WatchConfig{Enabled: true, Debounce: Duration(time.Second)}
	want.RuntimeReferences.Assemblies = []string{"System.dll"}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoaderEnvironment(t *testing.T) {
	env := loader.NewEnvLoader("PROJSYS_TEST_")
	t.Setenv("PROJSYS_TEST_LOG_LEVEL", "trace")
	t.Setenv("PROJSYS_TEST_WATCH_ENABLED", "true")

	cfg, err := NewLoader(memFS{}).WithEnv(env).Load(false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel() != logging.LogLevelTrace {
		t.Errorf("LogLevel() = %v, want trace", cfg.LogLevel())
	}
	if !cfg.Watch.Enabled {
		t.Error("watch.enabled not set from environment")
	}
}

func TestLoaderErrors(t *testing.T) {
	fsys := memFS{
		"/bad.toml":     "[logging\n",
		"/invalid.yaml": "telemetry:\n  exporter: carrier-pigeon\n",
	}
	l := NewLoader(fsys).WithEnv(noEnv())

	var perr *loader.ParseError
	if _, err := l.Load(false, "/bad.toml"); !errors.As(err, &perr) {
		t.Errorf("Load(bad) error = %v, want *loader.ParseError", err)
	}
	if _, err := l.Load(false, "/invalid.yaml"); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("Load(invalid) error = %v, want ErrValidationFailed", err)
	}
	if _, err := l.Load(true, "/missing.toml"); !IsNotExist(err) {
		t.Errorf("Load(required missing) error = %v", err)
	}
	if _, err := l.Load(false, "/config.json"); !errors.Is(err, loader.ErrUnsupportedFormat) {
		t.Errorf("Load(json) error = %v", err)
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"250ms", 250 * time.Millisecond, false},
		{"2s", 2 * time.Second, false},
		{"1000", 1000, false},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		var d Duration
		err := d.UnmarshalText([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalText(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && d.Std() != tt.want {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.in, d, tt.want)
		}
	}
}
