package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"wikistream/internal/logging"
)

// Snapshot is a point-in-time view of write throughput.
type Snapshot struct {
	Written   int64
	Expected  int64
	Elapsed   time.Duration
	Rate      float64
	Remaining time.Duration
	Final     bool
}

// Reporter receives snapshots. It runs on the aggregator goroutine.
type Reporter interface {
	Report(Snapshot)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Snapshot)

func (f ReporterFunc) Report(s Snapshot) { f(s) }

var printer = message.NewPrinter(language.English)

// FormatSnapshot renders s as a single status line.
func FormatSnapshot(s Snapshot) string {
	elapsed := s.Elapsed.Round(time.Second)
	if s.Final {
		return printer.Sprintf("%d pages written in %s (%.0f pages/s)", s.Written, elapsed, s.Rate)
	}
	return printer.Sprintf("%d pages are written to file in %s, expected remaining time %s",
		s.Written, elapsed, s.Remaining.Round(time.Second))
}

// Aggregator sums writer ticks and reports every Interval records.
type Aggregator struct {
	In        *Buffer[int]
	InputDone *Flag
	Interval  int64
	Expected  int64
	Reporter  Reporter
	Logger    *slog.Logger
	Clock     func() time.Time

	total int64
	start time.Time
}

// Run consumes ticks until InputDone is set and In is empty, then reports a
// final snapshot.
func (a *Aggregator) Run(ctx context.Context) error {
	if a.Clock == nil {
		a.Clock = time.Now
	}
	if a.Logger == nil {
		a.Logger = logging.NewNop()
	}
	a.start = a.Clock()

	for {
		n, err := a.In.Pop(ctx, a.InputDone)
		if errors.Is(err, ErrDrained) {
			break
		}
		if err != nil {
			return err
		}
		previous := a.total
		a.total += int64(n)
		if a.Interval > 0 && previous/a.Interval != a.total/a.Interval {
			a.report(a.snapshot(false))
		}
	}
	a.report(a.snapshot(true))
	return nil
}

// Total reports the ticks counted so far. Read it only after Run returns.
func (a *Aggregator) Total() int64 { return a.total }

func (a *Aggregator) snapshot(final bool) Snapshot {
	s := Snapshot{
		Written:  a.total,
		Expected: a.Expected,
		Elapsed:  a.Clock().Sub(a.start),
		Final:    final,
	}
	if seconds := s.Elapsed.Seconds(); seconds > 0 {
		s.Rate = float64(s.Written) / seconds
	}
	if s.Rate > 0 && s.Expected > s.Written {
		s.Remaining = time.Duration(float64(s.Expected-s.Written) / s.Rate * float64(time.Second))
	}
	return s
}

func (a *Aggregator) report(s Snapshot) {
	if a.Reporter == nil {
		a.Logger.Info(FormatSnapshot(s), logging.Int64("written", s.Written))
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.WarnWithContext(a.Logger, "progress reporter panicked", "reporter_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldImpact, "progress line skipped"),
			)
		}
	}()
	a.Reporter.Report(s)
}
