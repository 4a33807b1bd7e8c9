package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtract()
	c.normalizePipeline()
	c.normalizeOutput()
	c.normalizeProgress()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("WIKISTREAM_DUMP_PATH"); ok && strings.TrimSpace(c.Paths.DumpPath) == defaultDumpPath {
		c.Paths.DumpPath = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("WIKISTREAM_OUTPUT_PATH"); ok && strings.TrimSpace(c.Paths.OutputPath) == defaultOutputPath {
		c.Paths.OutputPath = strings.TrimSpace(value)
	}

	var err error
	if c.Paths.DumpPath, err = expandPath(strings.TrimSpace(c.Paths.DumpPath)); err != nil {
		return fmt.Errorf("paths.dump_path: %w", err)
	}
	if c.Paths.OutputPath, err = expandPath(strings.TrimSpace(c.Paths.OutputPath)); err != nil {
		return fmt.Errorf("paths.output_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtract() {
	c.Extract.Compression = strings.ToLower(strings.TrimSpace(c.Extract.Compression))
	switch c.Extract.Compression {
	case "":
		c.Extract.Compression = defaultCompression
	case "bz2":
		c.Extract.Compression = CompressionBzip2
	case "gz":
		c.Extract.Compression = CompressionGzip
	case "zst":
		c.Extract.Compression = CompressionZstd
	case "plain", "xml":
		c.Extract.Compression = CompressionNone
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = DefaultWorkers()
	}
	if c.Pipeline.EntryBuffer <= 0 {
		c.Pipeline.EntryBuffer = defaultEntryBuffer
	}
	if c.Pipeline.RecordBuffer <= 0 {
		c.Pipeline.RecordBuffer = defaultRecordBuffer
	}
	if c.Pipeline.TickBuffer <= 0 {
		c.Pipeline.TickBuffer = defaultTickBuffer
	}
	c.Pipeline.WriterInterlock = strings.ToLower(strings.TrimSpace(c.Pipeline.WriterInterlock))
	if c.Pipeline.WriterInterlock == "" {
		c.Pipeline.WriterInterlock = defaultWriterInterlock
	}
}

// normalizeOutput coerces a non-positive sink count to one; at least a single
// output file is always written.
func (c *Config) normalizeOutput() {
	if c.Output.Sinks < 1 {
		c.Output.Sinks = defaultSinks
	}
}

func (c *Config) normalizeProgress() {
	if c.Progress.Interval <= 0 {
		c.Progress.Interval = defaultProgressEvery
	}
	if c.Progress.ExpectedTotal < 0 {
		c.Progress.ExpectedTotal = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
