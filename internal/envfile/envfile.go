// Package envfile reads build environment overrides from a YAML mapping.
// Key order in the file is the order the overrides are sent to the build.
package envfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/codebuilder/internal/event"
)

// Load reads and parses an env file.
func Load(path string) ([]event.EnvVar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	env, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing env file %s: %w", path, err)
	}
	return env, nil
}

// Parse converts a YAML mapping of NAME: value into overrides. Values must be
// scalars; numbers and booleans are passed as their literal text.
func Parse(data []byte) ([]event.EnvVar, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return []event.EnvVar{}, nil
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of NAME: value", root.Line)
	}

	env := make([]event.EnvVar, 0, len(root.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: value of %s must be a scalar", v.Line, k.Value)
		}
		if k.Value == "" {
			return nil, fmt.Errorf("line %d: empty variable name", k.Line)
		}
		if seen[k.Value] {
			return nil, fmt.Errorf("line %d: duplicate variable %s", k.Line, k.Value)
		}
		seen[k.Value] = true
		env = append(env, event.EnvVar{Name: k.Value, Value: v.Value})
	}
	return env, nil
}

// Get returns the value of name.
func Get(env []event.EnvVar, name string) (string, bool) {
	for _, v := range env {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Set overrides name in place, or appends it when absent.
func Set(env []event.EnvVar, name, value string) []event.EnvVar {
	for i := range env {
		if env[i].Name == name {
			env[i].Value = value
			return env
		}
	}
	return append(env, event.EnvVar{Name: name, Value: value})
}
