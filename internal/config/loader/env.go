package loader

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of configuration environment variables.
const EnvPrefix = "PROJSYS_"

// EnvLoader loads configuration from environment variables.
//
// Mapped variables are set at their configured path. Other prefixed
// variables are converted by name: PROJSYS_WATCH_DEBOUNCE becomes
// watch.debounce.
type EnvLoader struct {
	prefix  string
	mapping map[string]string
	environ func() []string
}

// NewEnvLoader creates a loader for variables starting with prefix.
// The prefix should include the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		environ: os.Environ,
	}
}

func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL":          "logging.level",
		prefix + "LOG_JSON":           "logging.json",
		prefix + "TELEMETRY_EXPORTER": "telemetry.exporter",
		prefix + "HASH_SALT":          "telemetry.hashSalt",
		prefix + "TABLE_ID":           "build.tableId",
		prefix + "FRAMEWORK_PROPERTY": "runtimeReferences.property",
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	l.mapping[envVar] = configPath
}

// Load reads environment variables and returns a configuration map.
// Empty values are treated as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		setByPath(config, path, parseValue(value))
	}
	return config, nil
}

// envToPath converts PROJSYS_RUNTIME_REFERENCES to runtime.references:
// the first word names the section, the rest form a camelCase key.
func (l *EnvLoader) envToPath(env string) string {
	parts := strings.Split(strings.TrimPrefix(env, l.prefix), "_")
	section := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return section
	}

	key := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if part != "" {
			key += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return section + "." + key
}

// parseValue converts booleans and integers; everything else stays a string.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
