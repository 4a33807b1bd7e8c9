package dump_test

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"wikistream/internal/dump"
	"wikistream/internal/testsupport"
)

func pagesFixture() []testsupport.Page {
	return []testsupport.Page{
		{ID: testsupport.ID(10), Title: "Gamma", Text: "compressed body"},
		{ID: testsupport.ID(11), Title: "Delta", Text: "#REDIRECT [[Gamma]]"},
	}
}

func readAll(t *testing.T, path, compression string) (string, string) {
	t.Helper()
	src, err := dump.Open(path, compression)
	if err != nil {
		t.Fatalf("Open(%s) returned error: %v", path, err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data), src.Compression()
}

func TestOpenGzipByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.xml.gz")
	testsupport.WriteGzipDump(t, path, pagesFixture()...)

	data, kind := readAll(t, path, dump.CompressionAuto)
	if kind != dump.CompressionGzip {
		t.Fatalf("expected gzip, got %q", kind)
	}
	if data != testsupport.DumpXML(pagesFixture()...) {
		t.Fatal("gzip round trip mismatch")
	}
}

func TestOpenZstdByMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.bin")
	testsupport.WriteZstdDump(t, path, pagesFixture()...)

	data, kind := readAll(t, path, "")
	if kind != dump.CompressionZstd {
		t.Fatalf("expected zstd, got %q", kind)
	}
	if data != testsupport.DumpXML(pagesFixture()...) {
		t.Fatal("zstd round trip mismatch")
	}
}

func TestOpenPlainXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.xml")
	testsupport.WriteDump(t, path, pagesFixture()...)

	src, err := dump.Open(path, dump.CompressionAuto)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer src.Close()
	if src.Compression() != dump.CompressionNone {
		t.Fatalf("expected plain input, got %q", src.Compression())
	}
	if src.Size() == 0 {
		t.Fatal("expected file size to be recorded")
	}

	var titles []string
	_, err = dump.NewExtractor(0, nil).Extract(context.Background(), src, func(_ context.Context, e dump.RawEntry) error {
		titles = append(titles, e.Title)
		return nil
	})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(titles) != 2 {
		t.Fatalf("expected 2 titles, got %v", titles)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}

func TestOpenRejectsUnknownCompression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.xml")
	testsupport.WriteDump(t, path)
	if _, err := dump.Open(path, "lzma"); err == nil {
		t.Fatal("expected error for unsupported compression")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := dump.Open(filepath.Join(t.TempDir(), "absent.xml.bz2"), dump.CompressionAuto); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestDetectCompressionByMagic(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		want string
	}{
		{name: "bzip2", head: []byte("BZh91AY"), want: dump.CompressionBzip2},
		{name: "gzip", head: []byte{0x1f, 0x8b, 0x08, 0x00}, want: dump.CompressionGzip},
		{name: "zstd", head: []byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}, want: dump.CompressionZstd},
		{name: "xml", head: []byte("<mediawiki>"), want: dump.CompressionNone},
		{name: "short", head: []byte("<"), want: dump.CompressionNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := dump.DetectCompression("stream", bufio.NewReader(bytes.NewReader(tc.head)))
			if got != tc.want {
				t.Fatalf("DetectCompression = %q, want %q", got, tc.want)
			}
		})
	}
	if got := dump.DetectCompression("enwiki.xml.bz2", nil); got != dump.CompressionBzip2 {
		t.Fatalf("expected bzip2 by extension, got %q", got)
	}
}

func TestOpenMultistreamBzip2(t *testing.T) {
	src, err := dump.Open(filepath.Join("testdata", "multistream.xml.bz2"), dump.CompressionAuto)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer src.Close()
	if src.Compression() != dump.CompressionBzip2 {
		t.Fatalf("expected bzip2, got %q", src.Compression())
	}

	var entries []dump.RawEntry
	_, err = dump.NewExtractor(0, nil).Extract(context.Background(), src, func(_ context.Context, e dump.RawEntry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected entries from both streams, got %d", len(entries))
	}
	if entries[1].ID == nil || *entries[1].ID != 13 {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
}
