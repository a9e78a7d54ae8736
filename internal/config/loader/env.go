package loader

import (
	"os"
	"strconv"
	"strings"
)

// EnvLoader loads setting overrides from environment variables.
type EnvLoader struct {
	mapping map[string]string // Env var -> top-level setting
	lookup  func(string) (string, bool)
}

// NewEnvLoader creates a loader for the given env var to setting mapping.
func NewEnvLoader(mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		mapping: mapping,
		lookup:  os.LookupEnv,
	}
}

// WithLookup replaces the environment lookup, for tests.
func (l *EnvLoader) WithLookup(lookup func(string) (string, bool)) *EnvLoader {
	l.lookup = lookup
	return l
}

// Load returns the settings whose variables are set.
// Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for env, key := range l.mapping {
		if val, ok := l.lookup(env); ok {
			config[key] = parseValue(val)
		}
	}
	return config, nil
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true
	case "false", "no", "off", "0":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return s
}
