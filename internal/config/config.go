// Package config provides layered configuration for codebuilder using koanf.
// Values are loaded with priority: environment variables (CODEBUILDER_*) >
// config file (--config, default ~/.config/codebuilder/config.yml) > defaults.
// Both binaries load the same struct; the Lambda normally has no file and is
// configured entirely from its environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	cberrors "github.com/ariel-frischer/codebuilder/internal/errors"
	"github.com/ariel-frischer/codebuilder/internal/notify"
	"github.com/ariel-frischer/codebuilder/internal/statemachine"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nested keys: CODEBUILDER_RETRY__MAX_ATTEMPTS -> retry.max_attempts.
const EnvPrefix = "CODEBUILDER_"

// Sample values shipped in the example config that must be replaced before
// anything is launched.
const (
	PlaceholderAccount = "12345678910"
	PlaceholderBucket  = "sample-create-react-app"
)

// Configuration is the codebuilder configuration.
type Configuration struct {
	Region           string `koanf:"region" validate:"required"`
	ProjectName      string `koanf:"project_name" validate:"required"`
	Account          string `koanf:"account" validate:"omitempty,numeric"`
	StateMachineName string `koanf:"state_machine_name" validate:"required"`
	// Bucket is passed to the build as BUCKET when set.
	Bucket   string `koanf:"bucket"`
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	StateDir          string `koanf:"state_dir"`
	MaxHistoryEntries int    `koanf:"max_history_entries" validate:"min=0"`

	Retry         statemachine.RetryPolicy `koanf:"retry"`
	Launch        LaunchConfig             `koanf:"launch"`
	Notifications notify.Config            `koanf:"notifications"`
}

// LaunchConfig controls how long `run` waits for the build id.
type LaunchConfig struct {
	MaxTries int           `koanf:"max_tries" validate:"min=1"`
	Interval time.Duration `koanf:"interval" validate:"min=0"`
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ConfigPath overrides the config file path. A missing file is not an error
	// unless the path was given explicitly.
	ConfigPath string
	// Environ overrides os.Environ for tests.
	Environ []string
}

// Load loads configuration from the file at path (or the default location)
// and the environment.
func Load(path string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ConfigPath: path})
}

// LoadWithOptions loads configuration with custom options.
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k, path, err := load(opts)
	if err != nil {
		return nil, err
	}
	return finalizeConfig(k, path)
}

// Effective returns the merged key/value map after all layers are applied,
// for `codebuilder config show`.
func Effective(opts LoadOptions) (map[string]interface{}, error) {
	k, _, err := load(opts)
	if err != nil {
		return nil, err
	}
	return k.Raw(), nil
}

func load(opts LoadOptions) (*koanf.Koanf, string, error) {
	k := koanf.New(".")
	loadDefaults(k)

	path, err := loadFileConfig(k, opts.ConfigPath)
	if err != nil {
		return nil, path, err
	}

	if err := loadEnvironmentConfig(k, opts.Environ); err != nil {
		return nil, path, err
	}
	return k, path, nil
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

func loadFileConfig(k *koanf.Koanf, customPath string) (string, error) {
	path := customPath
	if path == "" {
		p, err := UserConfigPath()
		if err != nil {
			return "", nil
		}
		path = p
	}

	if !fileExists(path) {
		if customPath != "" {
			return path, cberrors.NewConfigError(
				fmt.Sprintf("config file not found: %s", path),
				"Check the --config path",
				"Or omit --config to use "+displayUserConfigPath(),
			)
		}
		return path, nil
	}

	// JSON files are accepted as-is, e.g. written from infrastructure outputs.
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return path, cberrors.ConfigParseError(path, err)
		}
		return path, nil
	}

	if err := ValidateYAMLSyntax(path); err != nil {
		return path, cberrors.ConfigParseError(path, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return path, cberrors.ConfigParseError(path, err)
	}
	return path, nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf, environ []string) error {
	if environ == nil {
		if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
			return fmt.Errorf("failed to load environment config: %w", err)
		}
		return nil
	}

	// koanf's env provider only reads the process environment.
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		if err := k.Set(envTransform(name), value); err != nil {
			return fmt.Errorf("failed to load environment config: %w", err)
		}
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf, path string) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, cberrors.WrapWithMessage(err, cberrors.Configuration, "failed to unmarshal config")
	}

	source := path
	if source == "" || !fileExists(source) {
		source = "config"
	}
	if err := ValidateConfigValues(&cfg, source); err != nil {
		return nil, cberrors.WrapWithMessage(err, cberrors.Configuration, "config validation failed",
			"Show the effective configuration with: codebuilder config show")
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	return &cfg, nil
}

// envTransform converts environment variable names to config keys.
// Example: CODEBUILDER_LAUNCH__MAX_TRIES -> launch.max_tries
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// StateMachineARN is the ARN of the pipeline state machine.
func (c *Configuration) StateMachineARN() string {
	return fmt.Sprintf("arn:aws:states:%s:%s:stateMachine:%s", c.Region, c.Account, c.StateMachineName)
}

// LambdaARN is the ARN of the dispatcher function, named after the project.
func (c *Configuration) LambdaARN() string {
	return fmt.Sprintf("arn:aws:lambda:%s:%s:function:%s", c.Region, c.Account, c.ProjectName)
}

// ValidateLaunch checks the settings needed to start an execution. It
// rejects the sample placeholders so a copied example config fails fast.
func (c *Configuration) ValidateLaunch() error {
	switch {
	case c.Account == "":
		return cberrors.MissingSetting("account")
	case c.Account == PlaceholderAccount:
		return cberrors.PlaceholderAccount(c.Account)
	case c.Bucket == PlaceholderBucket:
		return cberrors.PlaceholderBucket(c.Bucket)
	}
	return nil
}
