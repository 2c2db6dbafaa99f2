package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/dshills/projsys/internal/config/loader"
	"github.com/dshills/projsys/internal/logging"
)

// Telemetry exporters.
const (
	ExporterNone = "none"
	ExporterLog  = "log"
	ExporterOTel = "otel"
)

// Config is the complete projsys configuration.
type Config struct {
	Logging           LoggingConfig           `toml:"logging"`
	Telemetry         TelemetryConfig         `toml:"telemetry"`
	Dimensions        []DimensionConfig       `toml:"dimensions"`
	Build             BuildConfig             `toml:"build"`
	RuntimeReferences RuntimeReferencesConfig `toml:"runtimeReferences"`
	Watch             WatchConfig             `toml:"watch"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// TelemetryConfig selects where telemetry events go.
type TelemetryConfig struct {
	// Exporter is one of "none", "log" or "otel".
	Exporter string `toml:"exporter"`

	// HashSalt salts hashed sensitive values.
	HashSalt string `toml:"hashSalt"`
}

// DimensionConfig declares a dimension beyond the built-in three.
type DimensionConfig struct {
	Name      string `toml:"name"`
	Property  string `toml:"property"`
	Sensitive bool   `toml:"sensitive"`
	Editable  bool   `toml:"editable"`
}

// BuildConfig configures design-time build diagnostics.
type BuildConfig struct {
	// TableID is the error table the project tables join.
	TableID string `toml:"tableId"`
}

// RuntimeReferencesConfig configures the runtime reference synchronizer.
type RuntimeReferencesConfig struct {
	Property   string   `toml:"property"`
	Assemblies []string `toml:"assemblies"`
}

// WatchConfig configures snapshot watching.
type WatchConfig struct {
	Enabled  bool     `toml:"enabled"`
	Debounce Duration `toml:"debounce"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			Exporter: ExporterNone,
		},
		Build: BuildConfig{TableID: "ErrorsTable"},
		RuntimeReferences: RuntimeReferencesConfig{
			Property:   "FrameworkPathOverride",
			Assemblies: []string{"mscorlib.dll", "Microsoft.VisualBasic.dll"},
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: Duration(200 * time.Millisecond),
		},
	}
}

var knownLevels = []string{"trace", "debug", "info", "warn", "warning", "error", "off"}

// builtinDimensions cannot be redeclared.
var builtinDimensions = []string{"TargetFramework", "Platform", "Configuration"}

// Validate checks the configuration and reports every problem at once.
func (c Config) Validate() error {
	var problems []string

	if lvl := strings.ToLower(c.Logging.Level); lvl != "" && !slices.Contains(knownLevels, lvl) {
		problems = append(problems, fmt.Sprintf("logging.level: unknown level %q", c.Logging.Level))
	}

	switch c.Telemetry.Exporter {
	case ExporterNone, ExporterLog, ExporterOTel, "":
	default:
		problems = append(problems, fmt.Sprintf("telemetry.exporter: unknown exporter %q", c.Telemetry.Exporter))
	}

	seen := make(map[string]bool)
	for i, d := range c.Dimensions {
		key := strings.ToLower(d.Name)
		switch {
		case d.Name == "":
			problems = append(problems, fmt.Sprintf("dimensions[%d].name: required", i))
		case slices.ContainsFunc(builtinDimensions, func(b string) bool { return strings.EqualFold(b, d.Name) }):
			problems = append(problems, fmt.Sprintf("dimensions[%d].name: %q is built in", i, d.Name))
		case seen[key]:
			problems = append(problems, fmt.Sprintf("dimensions[%d].name: duplicate %q", i, d.Name))
		}
		seen[key] = true
		if d.Property == "" {
			problems = append(problems, fmt.Sprintf("dimensions[%d].property: required", i))
		}
	}

	if c.Build.TableID == "" {
		problems = append(problems, "build.tableId: required")
	}
	if c.RuntimeReferences.Property == "" {
		problems = append(problems, "runtimeReferences.property: required")
	}
	if c.Watch.Debounce < 0 {
		problems = append(problems, "watch.debounce: must not be negative")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// LogLevel returns the configured level.
func (c Config) LogLevel() logging.LogLevel {
	return logging.ParseLogLevel(strings.ToLower(c.Logging.Level))
}

// Loader assembles a Config from files and the environment.
type Loader struct {
	fs  loader.FileSystem
	env *loader.EnvLoader
}

// NewLoader creates a loader reading through fsys. A nil fsys uses the OS.
func NewLoader(fsys loader.FileSystem) *Loader {
	if fsys == nil {
		fsys = loader.DefaultFS()
	}
	return &Loader{fs: fsys, env: loader.NewEnvLoader(loader.EnvPrefix)}
}

// WithEnv replaces the environment loader; nil disables the environment.
func (l *Loader) WithEnv(env *loader.EnvLoader) *Loader {
	l.env = env
	return l
}

// Load merges the defaults, every file in paths (in order) and the
// environment, then validates the result. Missing files are skipped unless
// required is set.
func (l *Loader) Load(required bool, paths ...string) (Config, error) {
	merged := map[string]any{}
	for _, path := range paths {
		fl, err := loader.ForPath(l.fs, path)
		if err != nil {
			return Config{}, err
		}
		m, err := fl.Load()
		if err != nil {
			return Config{}, err
		}
		if m == nil {
			if required {
				return Config{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			continue
		}
		merged = loader.DeepMerge(merged, m)
	}

	if l.env != nil {
		env, err := l.env.Load()
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, env)
	}

	cfg := Default()
	if err := loader.Decode(merged, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration from the OS file system and environment.
func Load(paths ...string) (Config, error) {
	return NewLoader(nil).Load(false, paths...)
}

// IsNotExist reports whether err means a required file was missing.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrFileNotFound) || errors.Is(err, fs.ErrNotExist)
}
