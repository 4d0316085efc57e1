package siteconfig

import (
	"os"
	"strings"
)

// Environment variables read during resolution.
const (
	EnvRepositoryName = "PRISMIC_REPOSITORY_NAME"
	EnvAccessToken    = "PRISMIC_ACCESS_TOKEN"
)

// Environment is a read-only view of override variables.
type Environment interface {
	Lookup(key string) (string, bool)
}

// MapEnvironment is an Environment backed by a map.
type MapEnvironment map[string]string

// Lookup implements Environment.
func (m MapEnvironment) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// OSEnvironment snapshots the process environment. Later changes to the
// process environment are not observed.
func OSEnvironment() MapEnvironment {
	env := make(MapEnvironment)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}
	return env
}

// override returns the variable when it is present and not blank.
func override(env Environment, key string) (string, bool) {
	if env == nil {
		return "", false
	}
	v, ok := env.Lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}
