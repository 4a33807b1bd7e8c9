package dump

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression names accepted by Open.
const (
	CompressionAuto  = "auto"
	CompressionBzip2 = "bzip2"
	CompressionGzip  = "gzip"
	CompressionZstd  = "zstd"
	CompressionNone  = "none"
)

var (
	magicBzip2 = []byte("BZh")
	magicGzip  = []byte{0x1f, 0x8b}
	magicZstd  = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Source is a decompressed view of a dump file.
type Source struct {
	compression string
	size        int64
	reader      io.Reader
	closers     []func() error

	closeOnce sync.Once
	closeErr  error
}

// Open opens path and wraps it in the decoder for compression. "auto" picks by
// file extension and falls back to the leading magic bytes.
func Open(path, compression string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	var size int64
	if info, statErr := file.Stat(); statErr == nil {
		size = info.Size()
	}

	src, err := wrap(file, path, compression)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	src.size = size
	src.closers = append(src.closers, file.Close)
	return src, nil
}

// NewSource wraps an already open stream. The caller keeps ownership of r.
func NewSource(r io.Reader, compression string) (*Source, error) {
	return wrap(r, "", compression)
}

func wrap(r io.Reader, name, compression string) (*Source, error) {
	buffered := bufio.NewReaderSize(r, 1<<20)
	kind := strings.ToLower(strings.TrimSpace(compression))
	if kind == "" || kind == CompressionAuto {
		kind = DetectCompression(name, buffered)
	}

	src := &Source{compression: kind}
	switch kind {
	case CompressionNone:
		src.reader = buffered
	case CompressionBzip2:
		src.reader = bzip2.NewReader(buffered)
	case CompressionGzip:
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip header: %v", ErrMalformedInput, err)
		}
		src.reader = gz
		src.closers = append(src.closers, gz.Close)
	case CompressionZstd:
		dec, err := zstd.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("open zstd decoder: %w", err)
		}
		src.reader = dec
		src.closers = append(src.closers, func() error {
			dec.Close()
			return nil
		})
	default:
		return nil, fmt.Errorf("unsupported compression %q", compression)
	}
	return src, nil
}

// DetectCompression guesses the container format from the file name, then from
// the first bytes available in peek. Unknown input is treated as plain XML.
func DetectCompression(name string, peek *bufio.Reader) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".bz2":
		return CompressionBzip2
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".xml":
		return CompressionNone
	}
	if peek == nil {
		return CompressionNone
	}
	head, _ := peek.Peek(4)
	switch {
	case bytes.HasPrefix(head, magicZstd):
		return CompressionZstd
	case bytes.HasPrefix(head, magicGzip):
		return CompressionGzip
	case bytes.HasPrefix(head, magicBzip2):
		return CompressionBzip2
	}
	return CompressionNone
}

func (s *Source) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Compression reports the decoder actually used.
func (s *Source) Compression() string { return s.compression }

// Size is the on-disk size of the compressed file, zero when unknown.
func (s *Source) Size() int64 { return s.size }

// Close releases the decoder and the underlying file. Safe to call repeatedly.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		for _, closeFn := range s.closers {
			if err := closeFn(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
