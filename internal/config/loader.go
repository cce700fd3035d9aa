package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// envRef matches ${VAR} and ${VAR:-fallback} references.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads the YAML config at path. ${VAR} references are expanded
// from the environment before parsing; ${VAR:-fallback} supplies a
// fallback for unset variables.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return parse(raw, path)
}

func parse(raw []byte, origin string) (*Config, error) {
	expanded, err := interpolate(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", origin, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", origin, err)
	}
	return &cfg, nil
}

// interpolate substitutes environment references in the raw document.
// Unset variables without a fallback are collected into a single error
// so a broken config reports every missing name at once.
func interpolate(raw []byte) ([]byte, error) {
	var missing []error

	out := envRef.ReplaceAllFunc(raw, func(ref []byte) []byte {
		name, fallback, hasFallback := splitRef(ref)
		if v, ok := os.LookupEnv(name); ok {
			return []byte(v)
		}
		if hasFallback {
			return []byte(fallback)
		}
		missing = append(missing, fmt.Errorf("unresolved variable: %s", name))
		return ref
	})

	return out, errors.Join(missing...)
}

func splitRef(ref []byte) (name, fallback string, hasFallback bool) {
	sub := envRef.FindSubmatch(ref)
	name = string(sub[1])
	if len(sub) > 2 && sub[2] != nil {
		return name, string(sub[2]), true
	}
	return name, "", false
}
