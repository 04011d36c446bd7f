package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the mitnm home directory.
	DefaultDirName = ".mitnm"

	// OutputsDirName is the subdirectory for signature files written
	// without an explicit output directory in single-file mode.
	OutputsDirName = "outputs"

	// TracesDirName is the subdirectory for inference call traces.
	TracesDirName = "traces"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// TraceFileName is the JSON lines file inference calls are appended to.
	TraceFileName = "calls.jsonl"
)

// Dir represents the mitnm home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.mitnm).
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

// OutputsDir returns the path to the default outputs directory.
func (d *Dir) OutputsDir() string {
	return filepath.Join(d.path, OutputsDirName)
}

// TracesDir returns the path to the traces directory.
func (d *Dir) TracesDir() string {
	return filepath.Join(d.path, TracesDirName)
}

// TracePath returns the path to the inference call trace file.
func (d *Dir) TracePath() string {
	return filepath.Join(d.TracesDir(), TraceFileName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.OutputsDir(), d.TracesDir()} {
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
