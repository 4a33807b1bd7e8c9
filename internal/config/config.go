package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input, output and state locations.
type Paths struct {
	DumpPath   string `toml:"dump_path"`
	OutputPath string `toml:"output_path"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Extract controls how the dump is decoded and which pages are kept.
type Extract struct {
	// Namespace is the page namespace to export (0 = main article namespace).
	Namespace int `toml:"namespace"`
	// Compression selects the input decoder: auto, bzip2, gzip, zstd or none.
	Compression string `toml:"compression"`
}

// Pipeline sizes the worker pool and inter-stage buffers.
type Pipeline struct {
	// Workers is the filter pool size. Zero means available cores minus one.
	Workers      int `toml:"workers"`
	EntryBuffer  int `toml:"entry_buffer"`
	RecordBuffer int `toml:"record_buffer"`
	TickBuffer   int `toml:"tick_buffer"`
	// WriterInterlock selects the signal writers watch before exiting:
	// "workers" waits for every filter worker, "extraction" reproduces the
	// legacy behaviour of watching only the extractor.
	WriterInterlock string `toml:"writer_interlock"`
}

// Output controls sink fan-out.
type Output struct {
	Sinks int `toml:"sinks"`
}

// Progress controls the periodic status lines.
type Progress struct {
	Interval      int   `toml:"interval"`
	ExpectedTotal int64 `toml:"expected_total"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for wikistream.
//
// Configuration sections by subsystem:
//   - Paths: dump input, JSONL output base name, run ledger and log directories
//   - Extract: namespace filter and input decompression
//   - Pipeline: filter pool size, buffer capacities, writer shutdown interlock
//   - Output: number of output sinks
//   - Progress: reporting interval and expected page total for ETA
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Extract  Extract  `toml:"extract"`
	Pipeline Pipeline `toml:"pipeline"`
	Output   Output   `toml:"output"`
	Progress Progress `toml:"progress"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/wikistream/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("wikistream.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories plus the parent of
// the output base path.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.OutputPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.OutputPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RunLedgerPath returns the SQLite path used to record run history.
func (c *Config) RunLedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// ApplyOverrides replaces paths and sizing knobs with command-line values.
// Zero values leave the configured setting untouched.
func (c *Config) ApplyOverrides(o Overrides) error {
	if strings.TrimSpace(o.DumpPath) != "" {
		c.Paths.DumpPath = o.DumpPath
	}
	if strings.TrimSpace(o.OutputPath) != "" {
		c.Paths.OutputPath = o.OutputPath
	}
	if o.Sinks != 0 {
		c.Output.Sinks = o.Sinks
	}
	if o.Workers != 0 {
		c.Pipeline.Workers = o.Workers
	}
	if o.Namespace != nil {
		c.Extract.Namespace = *o.Namespace
	}
	if strings.TrimSpace(o.WriterInterlock) != "" {
		c.Pipeline.WriterInterlock = o.WriterInterlock
	}
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

// Overrides carries flag values that take precedence over the config file.
type Overrides struct {
	DumpPath        string
	OutputPath      string
	Sinks           int
	Workers         int
	Namespace       *int
	WriterInterlock string
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
