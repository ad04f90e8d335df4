package config

import (
	"fmt"
	"sort"
	"strings"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeInt ConfigValueType = iota
	TypeFloat
	TypeDuration
	TypeString
	TypeEnum
)

func (t ConfigValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ConfigKeySchema describes a configuration key for `codebuilder config keys`.
type ConfigKeySchema struct {
	Path          string
	Type          ConfigValueType
	AllowedValues []string
	Description   string
}

// EnvVar returns the environment variable that overrides the key.
func (s ConfigKeySchema) EnvVar() string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(s.Path, ".", "__"))
}

// KnownKeys is the registry of all configuration keys.
var KnownKeys = map[string]ConfigKeySchema{
	"region":              {Path: "region", Type: TypeString, Description: "AWS region of the pipeline resources"},
	"account":             {Path: "account", Type: TypeString, Description: "AWS account id owning the state machine"},
	"project_name":        {Path: "project_name", Type: TypeString, Description: "CodeBuild project and Lambda function name"},
	"state_machine_name":  {Path: "state_machine_name", Type: TypeString, Description: "Step Functions state machine name"},
	"bucket":              {Path: "bucket", Type: TypeString, Description: "Deploy bucket passed to the build as BUCKET"},
	"log_level":           {Path: "log_level", Type: TypeEnum, AllowedValues: []string{"debug", "info", "warn", "error"}, Description: "Minimum log level"},
	"state_dir":           {Path: "state_dir", Type: TypeString, Description: "Directory holding history.yml"},
	"max_history_entries": {Path: "max_history_entries", Type: TypeInt, Description: "Recorded runs to retain (0 = unlimited)"},

	"retry.interval_seconds": {Path: "retry.interval_seconds", Type: TypeInt, Description: "Seconds between build status polls"},
	"retry.max_attempts":     {Path: "retry.max_attempts", Type: TypeInt, Description: "Polls before the run is treated as failed"},
	"retry.backoff_rate":     {Path: "retry.backoff_rate", Type: TypeFloat, Description: "Multiplier applied to the poll interval"},

	"launch.max_tries": {Path: "launch.max_tries", Type: TypeInt, Description: "Execution history lookups while waiting for the build id"},
	"launch.interval":  {Path: "launch.interval", Type: TypeDuration, Description: "Wait between execution history lookups"},

	"notifications.timeout": {Path: "notifications.timeout", Type: TypeDuration, Description: "Timeout for one Slack delayed reply"},
}

// SortedKeys returns the key schemas ordered by path.
func SortedKeys() []ConfigKeySchema {
	keys := make([]ConfigKeySchema, 0, len(KnownKeys))
	for _, k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Path < keys[j].Path })
	return keys
}

// ErrUnknownKey is returned for a key path that is not in KnownKeys.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return fmt.Sprintf("unknown configuration key: %s", e.Key)
}

// GetKeySchema looks up a key.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	s, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return s, nil
}
