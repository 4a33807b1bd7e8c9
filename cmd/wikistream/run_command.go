package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"wikistream/internal/config"
	"wikistream/internal/dump"
	"wikistream/internal/logging"
	"wikistream/internal/pipeline"
	"wikistream/internal/preflight"
	"wikistream/internal/runlog"
	"wikistream/internal/sink"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		overrides config.Overrides
		namespace int
		noLedger  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract articles from a dump into JSON lines",
		Long: "Stream the configured dump through the extraction pipeline.\n\n" +
			"Redirect pages and pages outside the target namespace are skipped. With more\n" +
			"than one sink the output base name gets a _N suffix per file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("namespace") {
				overrides.Namespace = &namespace
			}
			if err := cfg.ApplyOverrides(overrides); err != nil {
				return fmt.Errorf("apply flags: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if cmd.Flags().Changed("sinks") && overrides.Sinks < 1 {
				logging.WarnWithContext(logger, "sink count below one, writing a single file", "sink_count_coerced",
					logging.Int("requested", overrides.Sinks),
					logging.String(logging.FieldImpact, "output is not split"),
				)
			}
			return runExtraction(cmd.Context(), cmd, cfg, logger, !noLedger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&overrides.DumpPath, "dump", "", "Path to the dump file (overrides paths.dump_path)")
	flags.StringVarP(&overrides.OutputPath, "out", "o", "", "Output base path (overrides paths.output_path)")
	flags.IntVar(&overrides.Sinks, "sinks", 0, "Number of output files")
	flags.IntVarP(&overrides.Workers, "workers", "w", 0, "Number of filter workers")
	flags.IntVar(&namespace, "namespace", 0, "Page namespace to export")
	flags.StringVar(&overrides.WriterInterlock, "writer-interlock", "", "Writer shutdown signal: workers or extraction")
	flags.BoolVar(&noLedger, "no-ledger", false, "Do not record this run in the run history")
	return cmd
}

func runExtraction(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, useLedger bool) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
		colorize := shouldColorize(errOut)
		for _, result := range failed {
			fmt.Fprintln(errOut, renderStatusLine(result.Name, statusError, result.Detail, colorize))
		}
		return fmt.Errorf("preflight failed: %d check(s) did not pass", len(failed))
	}

	src, err := dump.Open(cfg.Paths.DumpPath, cfg.Extract.Compression)
	if err != nil {
		return err
	}
	defer src.Close()

	sinks, err := sink.OpenFiles(cfg.Paths.OutputPath, cfg.Output.Sinks)
	if err != nil {
		return fmt.Errorf("open outputs: %w", err)
	}
	outputs := make([]string, len(sinks))
	for i, s := range sinks {
		outputs[i] = s.Name()
	}

	var (
		ledger *runlog.Store
		run    *runlog.Run
	)
	if useLedger {
		ledger, err = runlog.Open(cfg.RunLedgerPath())
		if err != nil {
			closeSinks(sinks)
			return fmt.Errorf("open run ledger: %w", err)
		}
		defer ledger.Close()
		run, err = ledger.Begin(ctx, runlog.RunStart{
			DumpPath:        cfg.Paths.DumpPath,
			Outputs:         outputs,
			Namespace:       cfg.Extract.Namespace,
			Workers:         cfg.Pipeline.Workers,
			WriterInterlock: cfg.Pipeline.WriterInterlock,
		})
		if err != nil {
			closeSinks(sinks)
			return fmt.Errorf("record run start: %w", err)
		}
		ctx = logging.WithRunID(ctx, run.ID)
	}
	logger = logging.WithContext(ctx, logger)

	logger.Info("extraction starting",
		logging.String("dump", cfg.Paths.DumpPath),
		logging.String("compression", src.Compression()),
		logging.String("dump_size", humanize.IBytes(uint64(src.Size()))),
		logging.Int("sinks", len(sinks)),
	)

	summary, runErr := pipeline.Run(ctx, pipeline.Options{
		Namespace:        cfg.Extract.Namespace,
		Workers:          cfg.Pipeline.Workers,
		EntryBuffer:      cfg.Pipeline.EntryBuffer,
		RecordBuffer:     cfg.Pipeline.RecordBuffer,
		TickBuffer:       cfg.Pipeline.TickBuffer,
		Interlock:        pipeline.Interlock(cfg.Pipeline.WriterInterlock),
		ProgressInterval: int64(cfg.Progress.Interval),
		ExpectedTotal:    cfg.Progress.ExpectedTotal,
		Reporter:         newProgressReporter(errOut),
		Logger:           logger,
	}, src, sinks)

	if ledger != nil {
		// The run context may already be cancelled; the ledger update must still land.
		if err := ledger.Finish(context.WithoutCancel(ctx), run.ID, ledgerResult(summary), runErr); err != nil {
			logging.WarnWithContext(logger, "run ledger update failed", "ledger_update_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run history shows this run as running"),
			)
		}
	}

	printSummary(out, summary, run)
	if runErr != nil {
		var stageErr *pipeline.StageError
		if errors.As(runErr, &stageErr) {
			logging.ErrorWithContext(logger, "extraction failed", "run_failed",
				logging.String(logging.FieldStage, stageErr.Stage),
				logging.Error(stageErr.Err),
			)
		}
		return runErr
	}
	return nil
}

func ledgerResult(s pipeline.Summary) runlog.RunResult {
	return runlog.RunResult{
		PagesSeen:    s.Extract.PagesSeen,
		PagesEmitted: s.Extract.PagesEmitted,
		Redirects:    s.Redirects,
		Invalid:      s.Invalid,
		Written:      s.Written,
		Lost:         s.Lost,
		BytesRead:    s.Extract.BytesRead,
	}
}

func printSummary(out io.Writer, s pipeline.Summary, run *runlog.Run) {
	rows := [][2]string{
		{"Pages seen", humanize.Comma(s.Extract.PagesSeen)},
		{"Other namespaces", humanize.Comma(s.Extract.SkippedNamespace)},
		{"Redirects", humanize.Comma(s.Redirects)},
		{"Invalid", humanize.Comma(s.Invalid)},
		{"Written", humanize.Comma(s.Written)},
		{"Lost", humanize.Comma(s.Lost)},
		{"Bytes read", humanize.IBytes(uint64(s.Extract.BytesRead))},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
	}
	if run != nil {
		rows = append([][2]string{{"Run", run.ID}}, rows...)
	}
	fmt.Fprintln(out, renderKeyValues(rows))

	if len(s.Sinks) > 1 {
		sinkRows := make([][]string, 0, len(s.Sinks))
		for _, ss := range s.Sinks {
			status := "ok"
			if ss.Err != nil {
				status = ss.Err.Error()
			}
			sinkRows = append(sinkRows, []string{ss.Name, strconv.FormatInt(ss.Written, 10), status})
		}
		fmt.Fprintln(out, renderTable([]column{{title: "Sink"}, {title: "Written", numeric: true}, {title: "Status"}}, sinkRows))
	}
}

func closeSinks(sinks []sink.Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}
