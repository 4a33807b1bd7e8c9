package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"wikistream/internal/dump"
	"wikistream/internal/logging"
	"wikistream/internal/record"
)

// FilterStats is shared by every worker in the pool.
type FilterStats struct {
	Redirects atomic.Int64
	Invalid   atomic.Int64
	Encoded   atomic.Int64
	// Lost counts records encoded after every writer had exited.
	Lost atomic.Int64
}

// FilterWorker drops redirects and serializes the remaining entries.
type FilterWorker struct {
	Index int
	In    *Buffer[dump.RawEntry]
	Out   *Buffer[[]byte]
	// InputDone is set when no more entries will be pushed to In.
	InputDone *Flag
	// Abandoned is set when nothing will ever pop Out again.
	Abandoned *Flag
	Stats     *FilterStats
	Logger    *slog.Logger
}

// Run processes entries until InputDone is set and In is empty.
func (w *FilterWorker) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.Int(logging.FieldWorker, w.Index))
	if w.Stats == nil {
		w.Stats = &FilterStats{}
	}
	if w.Abandoned == nil {
		w.Abandoned = NewFlag()
	}

	for {
		entry, err := w.In.Pop(ctx, w.InputDone)
		if errors.Is(err, ErrDrained) {
			return nil
		}
		if err != nil {
			return err
		}

		if record.IsRedirect(entry.Body) {
			w.Stats.Redirects.Add(1)
			continue
		}

		line, err := record.Encode(record.FromEntry(entry))
		if err != nil {
			w.drop(logger, entry, err)
			continue
		}
		w.Stats.Encoded.Add(1)

		beforeRecordPush(w.Index)
		if err := w.push(ctx, logger, entry, line); err != nil {
			return err
		}
	}
}

func (w *FilterWorker) drop(logger *slog.Logger, entry dump.RawEntry, err error) {
	w.Stats.Invalid.Add(1)
	logging.WarnWithContext(logger, "entry dropped", "invalid_entry",
		pageIDAttr(entry.ID),
		logging.String("title", entry.Title),
		logging.Error(err),
		logging.String(logging.FieldImpact, "page missing from output"),
	)
}

func (w *FilterWorker) push(ctx context.Context, logger *slog.Logger, entry dump.RawEntry, line []byte) error {
	pushed, err := w.Out.PushUnless(ctx, line, w.Abandoned)
	if err != nil {
		return err
	}
	if !pushed {
		w.Stats.Lost.Add(1)
		logging.WarnWithContext(logger, "record lost after writers exited", "record_lost",
			pageIDAttr(entry.ID),
			logging.String("title", entry.Title),
			logging.String(logging.FieldErrorHint, "use writer_interlock = \"workers\""),
			logging.String(logging.FieldImpact, "page missing from output"),
		)
	}
	return nil
}

func pageIDAttr(id *int64) logging.Attr {
	if id == nil {
		return logging.String(logging.FieldPageID, "none")
	}
	return logging.Int64(logging.FieldPageID, *id)
}
