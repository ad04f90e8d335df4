// Package history records pipeline runs started from the CLI so their build
// links can be found again later.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the history file inside the state directory.
const FileName = "history.yml"

// RunEntry is one recorded `codebuilder run`.
type RunEntry struct {
	Timestamp    time.Time `yaml:"timestamp"`
	ExecutionARN string    `yaml:"execution_arn"`
	BuildID      string    `yaml:"build_id,omitempty"`
	BuildLink    string    `yaml:"build_link,omitempty"`
	Commit       string    `yaml:"commit,omitempty"`
	// Error is set when the run started but its build could not be resolved.
	Error string `yaml:"error,omitempty"`
}

// HistoryFile is the on-disk layout of history.yml.
type HistoryFile struct {
	Entries []RunEntry `yaml:"entries"`
}

// Path returns the history file path for stateDir.
func Path(stateDir string) string {
	return filepath.Join(stateDir, FileName)
}

// LoadHistory reads the history file. A missing file is an empty history.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	data, err := os.ReadFile(Path(stateDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &HistoryFile{}, nil
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}

	var h HistoryFile
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", Path(stateDir), err)
	}
	return &h, nil
}

// SaveHistory writes the history file atomically, creating stateDir if needed.
func SaveHistory(stateDir string, h *HistoryFile) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	data, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	tmp, err := os.CreateTemp(stateDir, FileName+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return os.Rename(tmp.Name(), Path(stateDir))
}

// ClearHistory removes the history file.
func ClearHistory(stateDir string) error {
	if err := os.Remove(Path(stateDir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing history: %w", err)
	}
	return nil
}
