package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"wikistream/internal/dump"
	"wikistream/internal/logging"
	"wikistream/internal/sink"
)

// Interlock selects the flag writers watch before exiting.
type Interlock string

const (
	// InterlockWorkers waits until every filter worker has exited.
	InterlockWorkers Interlock = "workers"
	// InterlockExtraction only waits for the extractor and can lose records.
	InterlockExtraction Interlock = "extraction"
)

// Stage names used in StageError and logs.
const (
	StageExtract  = "extract"
	StageFilter   = "filter"
	StageWrite    = "write"
	StageProgress = "progress"
)

// Buffer sizes used when Options leaves them at zero.
const (
	DefaultEntryBuffer  = 2000
	DefaultRecordBuffer = 2000
	DefaultTickBuffer   = 1000
)

// ErrNoSinks is returned when Run is called without any sink.
var ErrNoSinks = errors.New("at least one sink is required")

// StageError names the stage that aborted the run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options configures a run.
type Options struct {
	Namespace    int
	Workers      int
	EntryBuffer  int
	RecordBuffer int
	TickBuffer   int
	Interlock    Interlock

	ProgressInterval int64
	ExpectedTotal    int64
	Reporter         Reporter

	Logger *slog.Logger
	// Signals may be supplied to observe stage completion from outside.
	Signals *Signals
}

// SinkSummary reports one writer's outcome.
type SinkSummary struct {
	Name    string
	Written int64
	Err     error
}

// Summary describes a finished run.
type Summary struct {
	Extract   dump.Stats
	Redirects int64
	Invalid   int64
	Encoded   int64
	Written   int64
	// Lost counts records that were encoded but never reached a sink.
	Lost    int64
	Sinks   []SinkSummary
	Elapsed time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = max(1, runtime.NumCPU()-1)
	}
	if o.EntryBuffer <= 0 {
		o.EntryBuffer = DefaultEntryBuffer
	}
	if o.RecordBuffer <= 0 {
		o.RecordBuffer = DefaultRecordBuffer
	}
	if o.TickBuffer <= 0 {
		o.TickBuffer = DefaultTickBuffer
	}
	if o.Interlock == "" {
		o.Interlock = InterlockWorkers
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Signals == nil {
		signals := NewSignals()
		o.Signals = &signals
	}
	return o
}

// Run streams src through every stage into sinks. It returns once all stages
// have stopped. Every sink is closed exactly once; src is not closed.
func Run(ctx context.Context, opts Options, src io.Reader, sinks []sink.Sink) (Summary, error) {
	started := time.Now()
	var summary Summary
	if len(sinks) == 0 {
		return summary, ErrNoSinks
	}
	opts = opts.withDefaults()
	switch opts.Interlock {
	case InterlockWorkers, InterlockExtraction:
	default:
		return summary, fmt.Errorf("unknown writer interlock %q", opts.Interlock)
	}

	logger := logging.NewComponentLogger(opts.Logger, "pipeline")
	if opts.Interlock == InterlockExtraction {
		logging.WarnWithContext(logger, "writers watch extraction only", "legacy_interlock",
			logging.String(logging.FieldErrorHint, "set pipeline.writer_interlock = \"workers\""),
			logging.String(logging.FieldImpact, "records still in flight at shutdown may be lost"),
		)
	}

	sig := opts.Signals
	entries := NewBuffer[dump.RawEntry](opts.EntryBuffer)
	records := NewBuffer[[]byte](opts.RecordBuffer)
	ticks := NewBuffer[int](opts.TickBuffer)

	writerFlag := sig.FilteringDone
	if opts.Interlock == InterlockExtraction {
		writerFlag = sig.ExtractionDone
	}

	logger.Info("pipeline starting",
		logging.Int("workers", opts.Workers),
		logging.Int("sinks", len(sinks)),
		logging.Int("namespace", opts.Namespace),
		logging.String("writer_interlock", string(opts.Interlock)),
	)

	group, gctx := errgroup.WithContext(ctx)

	extractor := dump.NewExtractor(opts.Namespace, opts.Logger)
	group.Go(func() error {
		stats, err := extractor.Extract(gctx, src, entries.Push)
		summary.Extract = stats
		if err != nil {
			return &StageError{Stage: StageExtract, Err: err}
		}
		sig.ExtractionDone.Set()
		return nil
	})

	filterStats := &FilterStats{}
	filterLatch := NewLatch(opts.Workers, sig.FilteringDone)
	filterLogger := logging.NewComponentLogger(opts.Logger, "filter")
	for i := range opts.Workers {
		worker := &FilterWorker{
			Index:     i,
			In:        entries,
			Out:       records,
			InputDone: sig.ExtractionDone,
			Abandoned: sig.WritingDone,
			Stats:     filterStats,
			Logger:    filterLogger,
		}
		group.Go(func() error {
			defer filterLatch.CountDown()
			if err := worker.Run(gctx); err != nil {
				return &StageError{Stage: StageFilter, Err: err}
			}
			return nil
		})
	}

	writers := make([]*RecordWriter, len(sinks))
	writerLatch := NewLatch(len(sinks), sig.WritingDone)
	writerLogger := logging.NewComponentLogger(opts.Logger, "writer")
	var failedWriters atomic.Int64
	sinkErrs := make([]error, len(sinks))
	for i, s := range sinks {
		writer := &RecordWriter{
			Index:     i,
			Sink:      s,
			In:        records,
			InputDone: writerFlag,
			Ticks:     ticks,
			Logger:    writerLogger,
		}
		writers[i] = writer
		group.Go(func() error {
			defer writerLatch.CountDown()
			err := writer.Run(gctx)
			if err == nil {
				return nil
			}
			sinkErrs[i] = err
			if errors.Is(err, sink.ErrWrite) {
				logging.ErrorWithContext(writerLogger, "sink failed", "sink_failed",
					logging.String(logging.FieldSink, s.Name()),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check free space and permissions on the output directory"),
				)
				if failedWriters.Add(1) < int64(len(sinks)) {
					return nil
				}
				return &StageError{Stage: StageWrite, Err: fmt.Errorf("all %d sinks failed: %w", len(sinks), err)}
			}
			return &StageError{Stage: StageWrite, Err: err}
		})
	}

	aggregator := &Aggregator{
		In:        ticks,
		InputDone: sig.WritingDone,
		Interval:  opts.ProgressInterval,
		Expected:  opts.ExpectedTotal,
		Reporter:  opts.Reporter,
		Logger:    logging.NewComponentLogger(opts.Logger, "progress"),
	}
	group.Go(func() error {
		if err := aggregator.Run(gctx); err != nil {
			return &StageError{Stage: StageProgress, Err: err}
		}
		return nil
	})

	err := group.Wait()

	// Whatever is still queued was encoded but will never be written.
	var stranded int64
	for {
		if _, ok := records.TryPop(); !ok {
			break
		}
		stranded++
	}

	summary.Redirects = filterStats.Redirects.Load()
	summary.Invalid = filterStats.Invalid.Load()
	summary.Encoded = filterStats.Encoded.Load()
	summary.Lost = filterStats.Lost.Load() + stranded
	summary.Sinks = make([]SinkSummary, len(writers))
	for i, w := range writers {
		summary.Written += w.Written()
		if w.Failed() {
			summary.Lost++
		}
		summary.Sinks[i] = SinkSummary{Name: sinks[i].Name(), Written: w.Written(), Err: sinkErrs[i]}
	}
	summary.Elapsed = time.Since(started)

	if err == nil && summary.Lost > 0 {
		logging.WarnWithContext(logger, "records lost during shutdown", "records_lost",
			logging.Int64("lost", summary.Lost),
			logging.String(logging.FieldImpact, "output is incomplete"),
		)
	}
	logger.Info("pipeline finished",
		logging.Int64("pages_seen", summary.Extract.PagesSeen),
		logging.Int64("written", summary.Written),
		logging.Int64("redirects", summary.Redirects),
		logging.Int64("lost", summary.Lost),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, err
}
