package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DumpPath) == "" {
		return errors.New("paths.dump_path must be set (or set WIKISTREAM_DUMP_PATH)")
	}
	if strings.TrimSpace(c.Paths.OutputPath) == "" {
		return errors.New("paths.output_path must be set")
	}
	if c.Paths.DumpPath == c.Paths.OutputPath {
		return errors.New("paths.output_path must differ from paths.dump_path")
	}
	return nil
}

func (c *Config) validateExtract() error {
	switch c.Extract.Compression {
	case CompressionAuto, CompressionBzip2, CompressionGzip, CompressionZstd, CompressionNone:
	default:
		return fmt.Errorf("extract.compression: unsupported value %q", c.Extract.Compression)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if err := ensurePositiveMap(map[string]int{
		"pipeline.workers":       c.Pipeline.Workers,
		"pipeline.entry_buffer":  c.Pipeline.EntryBuffer,
		"pipeline.record_buffer": c.Pipeline.RecordBuffer,
		"pipeline.tick_buffer":   c.Pipeline.TickBuffer,
		"output.sinks":           c.Output.Sinks,
		"progress.interval":      c.Progress.Interval,
	}); err != nil {
		return err
	}
	switch c.Pipeline.WriterInterlock {
	case InterlockWorkers, InterlockExtraction:
	default:
		return fmt.Errorf("pipeline.writer_interlock: unsupported value %q (want %q or %q)",
			c.Pipeline.WriterInterlock, InterlockWorkers, InterlockExtraction)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
