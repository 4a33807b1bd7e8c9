package testsupport

import (
	"path/filepath"
	"testing"

	"wikistream/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DumpPath = filepath.Join(base, "input", "dump.xml")
	cfgVal.Paths.OutputPath = filepath.Join(base, "output", "pages.json")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Pipeline.Workers = 2
	cfgVal.Pipeline.EntryBuffer = 8
	cfgVal.Pipeline.RecordBuffer = 8
	cfgVal.Pipeline.TickBuffer = 8
	cfgVal.Progress.Interval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDump writes pages as a plain XML dump and points the config at it.
func WithDump(pages ...Page) ConfigOption {
	return func(b *configBuilder) {
		WriteDump(b.t, b.cfg.Paths.DumpPath, pages...)
	}
}

// WithSinks overrides the output fan-out.
func WithSinks(count int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Sinks = count
	}
}

// WithWorkers overrides the filter pool size.
func WithWorkers(count int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Workers = count
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
