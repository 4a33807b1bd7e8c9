package config

import "runtime"

const (
	defaultDumpPath        = "./enwiki-latest-pages-articles-multistream.xml.bz2"
	defaultOutputPath      = "./parsed_wikipedia_dump.json"
	defaultStateDir        = "~/.local/share/wikistream"
	defaultLogDir          = "~/.local/share/wikistream/logs"
	defaultNamespace       = 0
	defaultCompression     = CompressionAuto
	defaultEntryBuffer     = 2000
	defaultRecordBuffer    = 2000
	defaultTickBuffer      = 1000
	defaultSinks           = 1
	defaultProgressEvery   = 10_000
	defaultExpectedTotal   = 20_620_000
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultWriterInterlock = InterlockWorkers
)

// Supported input decoders.
const (
	CompressionAuto  = "auto"
	CompressionBzip2 = "bzip2"
	CompressionGzip  = "gzip"
	CompressionZstd  = "zstd"
	CompressionNone  = "none"
)

// Writer shutdown interlocks.
const (
	InterlockWorkers    = "workers"
	InterlockExtraction = "extraction"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DumpPath:   defaultDumpPath,
			OutputPath: defaultOutputPath,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Extract: Extract{
			Namespace:   defaultNamespace,
			Compression: defaultCompression,
		},
		Pipeline: Pipeline{
			Workers:         0,
			EntryBuffer:     defaultEntryBuffer,
			RecordBuffer:    defaultRecordBuffer,
			TickBuffer:      defaultTickBuffer,
			WriterInterlock: defaultWriterInterlock,
		},
		Output: Output{
			Sinks: defaultSinks,
		},
		Progress: Progress{
			Interval:      defaultProgressEvery,
			ExpectedTotal: defaultExpectedTotal,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// DefaultWorkers mirrors the pool size used when pipeline.workers is zero:
// one worker per core, leaving a core for extraction.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()-1)
}
