package sink

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

var (
	// ErrWrite wraps any failure to persist a record.
	ErrWrite = errors.New("sink write failed")
	// ErrLocked means another process holds the output file.
	ErrLocked = errors.New("output file is locked by another run")
	// ErrClosed is returned by Append after Close.
	ErrClosed = errors.New("sink closed")
)

// Sink receives newline-terminated record lines from exactly one writer.
type Sink interface {
	Name() string
	Append(line []byte) error
	Close() error
}

const writeBufferSize = 1 << 20

// FileSink is a buffered, lock-protected output file.
type FileSink struct {
	path string
	file *os.File
	buf  *bufio.Writer
	lock *flock.Flock

	mu       sync.Mutex
	closed   bool
	records  int64
	bytes    int64
	closeErr error
}

// OpenFile truncates path and takes an exclusive lock on path+".lock".
func OpenFile(path string) (*FileSink, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("create output %s: %w", path, err)
	}
	return &FileSink{
		path: path,
		file: file,
		buf:  bufio.NewWriterSize(file, writeBufferSize),
		lock: lock,
	}, nil
}

// Name returns the file path.
func (s *FileSink) Name() string { return s.path }

// Append writes one line. The line must already end in a newline.
func (s *FileSink) Append(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: %s", ErrClosed, s.path)
	}
	n, err := s.buf.Write(line)
	s.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, s.path, err)
	}
	s.records++
	return nil
}

// Records reports the number of appended lines.
func (s *FileSink) Records() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

// Bytes reports the number of bytes handed to the file.
func (s *FileSink) Bytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// Close flushes, closes and unlocks. Only the first call does any work.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closeErr
	}
	s.closed = true

	var errs []error
	if err := s.buf.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("%w: flush %s: %v", ErrWrite, s.path, err))
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", s.path, err))
	}
	if err := s.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("unlock %s: %w", s.path, err))
	}
	_ = os.Remove(s.lock.Path())
	s.closeErr = errors.Join(errs...)
	return s.closeErr
}

// OutputPaths names the files for count sinks. A single sink uses base as
// is; otherwise a zero-based index is inserted before the extension.
func OutputPaths(base string, count int) []string {
	if count <= 1 {
		return []string{base}
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	paths := make([]string, count)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	return paths
}

// OpenFiles opens one FileSink per output path. On failure every sink opened
// so far is closed again.
func OpenFiles(base string, count int) ([]Sink, error) {
	paths := OutputPaths(base, count)
	sinks := make([]Sink, 0, len(paths))
	for _, path := range paths {
		s, err := OpenFile(path)
		if err != nil {
			for _, opened := range sinks {
				_ = opened.Close()
			}
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}
