package sink_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"wikistream/internal/sink"
)

func TestOutputPaths(t *testing.T) {
	base := filepath.Join("out", "parsed_wikipedia_dump.json")
	if got := sink.OutputPaths(base, 1); !reflect.DeepEqual(got, []string{base}) {
		t.Fatalf("single sink: got %v", got)
	}
	if got := sink.OutputPaths(base, 0); !reflect.DeepEqual(got, []string{base}) {
		t.Fatalf("zero sinks should collapse to base, got %v", got)
	}
	want := []string{
		filepath.Join("out", "parsed_wikipedia_dump_0.json"),
		filepath.Join("out", "parsed_wikipedia_dump_1.json"),
		filepath.Join("out", "parsed_wikipedia_dump_2.json"),
	}
	if got := sink.OutputPaths(base, 3); !reflect.DeepEqual(got, want) {
		t.Fatalf("three sinks: got %v want %v", got, want)
	}
	if got := sink.OutputPaths("pages", 2); !reflect.DeepEqual(got, []string{"pages_0", "pages_1"}) {
		t.Fatalf("no extension: got %v", got)
	}
}

func TestFileSinkWritesAndClosesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.json")
	s, err := sink.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile returned error: %v", err)
	}
	for _, line := range []string{"{\"a\":1}\n", "{\"b\":2}\n"} {
		if err := s.Append([]byte(line)); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if err := s.Append([]byte("late\n")); !errors.Is(err, sink.ErrClosed) {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "{\"a\":1}\n{\"b\":2}\n" {
		t.Fatalf("unexpected contents %q", data)
	}
	if s.Records() != 2 || s.Bytes() != int64(len(data)) {
		t.Fatalf("unexpected counters records=%d bytes=%d", s.Records(), s.Bytes())
	}
	if _, err := os.Stat(path + ".lock"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected lock file to be removed, stat err=%v", err)
	}
}

func TestFileSinkTruncatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.json")
	if err := os.WriteFile(path, []byte("stale contents\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	s, err := sink.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("expected truncated file, size %d", info.Size())
	}
}

func TestOpenFileRefusesLockedOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.json")
	first, err := sink.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile returned error: %v", err)
	}
	defer first.Close()

	if _, err := sink.OpenFile(path); !errors.Is(err, sink.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestOpenFilesClosesOnFailure(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "pages.json")
	blocker, err := sink.OpenFile(filepath.Join(dir, "pages_1.json"))
	if err != nil {
		t.Fatalf("OpenFile returned error: %v", err)
	}
	defer blocker.Close()

	if _, err := sink.OpenFiles(base, 3); !errors.Is(err, sink.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	// The first sink must have been released again.
	again, err := sink.OpenFile(filepath.Join(dir, "pages_0.json"))
	if err != nil {
		t.Fatalf("expected pages_0 to be unlocked, got %v", err)
	}
	_ = again.Close()
}

func TestOpenFilesCreatesEachSink(t *testing.T) {
	base := filepath.Join(t.TempDir(), "pages.json")
	sinks, err := sink.OpenFiles(base, 2)
	if err != nil {
		t.Fatalf("OpenFiles returned error: %v", err)
	}
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			t.Fatalf("Close returned error: %v", err)
		}
		if _, err := os.Stat(s.Name()); err != nil {
			t.Fatalf("expected %s to exist: %v", s.Name(), err)
		}
	}
}

func TestMemoryFailAfter(t *testing.T) {
	m := sink.NewMemory("mem")
	m.FailAfter = 2
	if err := m.Append([]byte("one\n")); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := m.Append([]byte("two\n")); !errors.Is(err, sink.ErrWrite) {
		t.Fatalf("expected ErrWrite on second append, got %v", err)
	}
	if len(m.Lines()) != 1 {
		t.Fatalf("expected 1 stored line, got %d", len(m.Lines()))
	}
}

func TestMemoryCopiesLinesAndRejectsAfterClose(t *testing.T) {
	m := sink.NewMemory("scratch")
	if m.Name() != "scratch" {
		t.Fatalf("unexpected name %q", m.Name())
	}
	line := []byte("one\n")
	if err := m.Append(line); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	line[0] = 'X'
	if got := string(m.Lines()[0]); got != "one\n" {
		t.Fatalf("expected stored copy, got %q", got)
	}

	for range 2 {
		if err := m.Close(); err != nil {
			t.Fatalf("Close returned error: %v", err)
		}
	}
	if m.Closes() != 2 {
		t.Fatalf("expected 2 counted closes, got %d", m.Closes())
	}
	if err := m.Append([]byte("late\n")); !errors.Is(err, sink.ErrClosed) {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}
}
