package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the wandr home directory.
	DefaultDirName = ".wandr"

	// ResultsDirName is the subdirectory for run result documents.
	ResultsDirName = "results"

	// ScratchDirName is the subdirectory for per-run working files.
	ScratchDirName = "scratch"

	// PromptsDirName is the subdirectory for prompt overrides.
	PromptsDirName = "prompts"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// CallLogFileName is the provider call log.
	CallLogFileName = "calls.jsonl"
)

// Dir represents the wandr home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.wandr).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ResultsPath returns the directory for run result documents.
func (d *Dir) ResultsPath() string {
	return filepath.Join(d.path, ResultsDirName)
}

// ScratchPath returns the root of the per-run scratch area.
func (d *Dir) ScratchPath() string {
	return filepath.Join(d.path, ScratchDirName)
}

// RunScratchPath returns the scratch directory for one run.
func (d *Dir) RunScratchPath(runID string) string {
	return filepath.Join(d.ScratchPath(), runID)
}

// PromptsPath returns the prompt override directory.
func (d *Dir) PromptsPath() string {
	return filepath.Join(d.path, PromptsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// CallLogPath returns the path to the provider call log.
func (d *Dir) CallLogPath() string {
	return filepath.Join(d.path, CallLogFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.ResultsPath(), d.ScratchPath(), d.PromptsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
