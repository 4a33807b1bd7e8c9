package pipeline_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"wikistream/internal/pipeline"
)

func TestAggregatorSnapshotsAndETA(t *testing.T) {
	ticks := pipeline.NewBuffer[int](16)
	done := pipeline.NewFlag()
	ctx := context.Background()
	for range 4 {
		_ = ticks.Push(ctx, 1)
	}
	done.Set()

	now := time.Unix(0, 0)
	var snapshots []pipeline.Snapshot
	agg := &pipeline.Aggregator{
		In:        ticks,
		InputDone: done,
		Interval:  2,
		Expected:  10,
		Reporter:  pipeline.ReporterFunc(func(s pipeline.Snapshot) { snapshots = append(snapshots, s) }),
		Clock: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
	}
	if err := agg.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if agg.Total() != 4 {
		t.Fatalf("expected total 4, got %d", agg.Total())
	}
	if len(snapshots) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snapshots))
	}
	// start at t=1s, first report at t=2s: 2 records in 1s, 8 left → 4s.
	first := snapshots[0]
	if first.Written != 2 || first.Rate != 2 || first.Remaining != 4*time.Second {
		t.Fatalf("unexpected first snapshot %+v", first)
	}
}

func TestFormatSnapshotGroupsDigits(t *testing.T) {
	line := pipeline.FormatSnapshot(pipeline.Snapshot{Written: 1_230_000, Elapsed: 90 * time.Second, Remaining: time.Hour})
	if !strings.Contains(line, "1,230,000 pages") {
		t.Fatalf("expected grouped count in %q", line)
	}
	if !strings.Contains(line, "1h0m0s") {
		t.Fatalf("expected remaining time in %q", line)
	}
	final := pipeline.FormatSnapshot(pipeline.Snapshot{Written: 5, Rate: 2.5, Final: true})
	if !strings.Contains(final, "5 pages written") {
		t.Fatalf("unexpected final line %q", final)
	}
}
