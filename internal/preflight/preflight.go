package preflight

import (
	"os"
	"path/filepath"

	"wikistream/internal/config"
	"wikistream/internal/sink"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check for cfg. Directories are expected to exist
// already (see config.EnsureDirectories).
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	outputDir := filepath.Dir(cfg.Paths.OutputPath)
	results := []Result{
		CheckInput("Dump file", cfg.Paths.DumpPath),
		CheckDirectoryAccess("Output directory", outputDir),
		CheckOutputFiles("Output files", sink.OutputPaths(cfg.Paths.OutputPath, cfg.Output.Sinks)),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	var need int64
	if info, err := os.Stat(cfg.Paths.DumpPath); err == nil {
		need = info.Size()
	}
	results = append(results, CheckFreeSpace("Free space", outputDir, need))
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
