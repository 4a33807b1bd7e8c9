package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wikistream/internal/logging"
	"wikistream/internal/sink"
)

// RecordWriter drains the shared record buffer into its own sink.
type RecordWriter struct {
	Index int
	Sink  sink.Sink
	In    *Buffer[[]byte]
	// InputDone is the flag this writer watches before exiting on an empty buffer.
	InputDone *Flag
	Ticks     *Buffer[int]
	Logger    *slog.Logger

	written int64
	failed  bool
}

// Run appends records until InputDone is set and In is empty, then closes
// the sink. A sink failure stops this writer only and wraps sink.ErrWrite.
func (w *RecordWriter) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldSink, w.Sink.Name()))

	err := w.consume(ctx)
	if closeErr := w.Sink.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("%w: close %s: %v", sink.ErrWrite, w.Sink.Name(), closeErr)
	}
	logger.Debug("writer stopped", logging.Int64("written", w.written), logging.Bool("failed", w.failed))
	return err
}

func (w *RecordWriter) consume(ctx context.Context) error {
	for {
		line, err := w.In.Pop(ctx, w.InputDone)
		if errors.Is(err, ErrDrained) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := w.Sink.Append(line); err != nil {
			w.failed = true
			if !errors.Is(err, sink.ErrWrite) {
				err = fmt.Errorf("%w: %s: %v", sink.ErrWrite, w.Sink.Name(), err)
			}
			return err
		}
		w.written++
		if err := w.Ticks.Push(ctx, 1); err != nil {
			return err
		}
	}
}

// Written reports appended records. Read it only after Run returns.
func (w *RecordWriter) Written() int64 { return w.written }

// Failed reports whether the sink rejected a record, which is then lost.
func (w *RecordWriter) Failed() bool { return w.failed }
