package runlog_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"wikistream/internal/runlog"
	"wikistream/internal/testsupport"
)

func TestBeginAndFinishCompleted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	run, err := store.Begin(ctx, runlog.RunStart{
		DumpPath:        cfg.Paths.DumpPath,
		Outputs:         []string{"a_0.json", "a_1.json"},
		Namespace:       0,
		Workers:         3,
		WriterInterlock: "workers",
	})
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if run.ID == "" || run.Status != runlog.StatusRunning {
		t.Fatalf("unexpected run %+v", run)
	}

	result := runlog.RunResult{PagesSeen: 5, PagesEmitted: 4, Redirects: 2, Written: 2, BytesRead: 1024}
	if err := store.Finish(ctx, run.ID, result, nil); err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Status != runlog.StatusCompleted {
		t.Fatalf("expected completed status, got %q", got.Status)
	}
	if got.Result != result {
		t.Fatalf("unexpected result %+v", got.Result)
	}
	if len(got.Outputs) != 2 || got.Outputs[1] != "a_1.json" {
		t.Fatalf("unexpected outputs %v", got.Outputs)
	}
	if got.FinishedAt == nil || got.Duration() < 0 {
		t.Fatalf("expected finished timestamp, got %v", got.FinishedAt)
	}
}

func TestFinishFailedRecordsMessage(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()

	run, err := store.Begin(ctx, runlog.RunStart{DumpPath: "dump.xml.bz2", WriterInterlock: "workers"})
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if err := store.Finish(ctx, run.ID, runlog.RunResult{PagesSeen: 1}, errors.New("extract stage: malformed dump input")); err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}
	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Status != runlog.StatusFailed || got.ErrorMessage == "" {
		t.Fatalf("expected failed run with message, got %+v", got)
	}
	if got.Outputs == nil {
		t.Fatal("expected empty outputs slice, got nil")
	}
}

func TestListNewestFirst(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()

	var ids []string
	for range 3 {
		run, err := store.Begin(ctx, runlog.RunStart{DumpPath: "dump", WriterInterlock: "workers"})
		if err != nil {
			t.Fatalf("Begin returned error: %v", err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestUnknownRun(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, runlog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Get, got %v", err)
	}
	if err := store.Finish(ctx, "missing", runlog.RunResult{}, nil); !errors.Is(err, runlog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Finish, got %v", err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.RunLedgerPath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := runlog.Open(cfg.RunLedgerPath()); !errors.Is(err, runlog.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
