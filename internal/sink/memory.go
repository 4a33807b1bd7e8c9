package sink

import (
	"bytes"
	"fmt"
	"sync"
)

// Memory keeps lines in memory. FailAfter > 0 makes the n-th and later
// appends fail, which tests use to simulate a full disk.
type Memory struct {
	name      string
	FailAfter int

	mu     sync.Mutex
	lines  [][]byte
	closes int
}

// NewMemory returns an empty in-memory sink.
func NewMemory(name string) *Memory {
	return &Memory{name: name}
}

// Name returns the label given to NewMemory.
func (m *Memory) Name() string { return m.name }

// Append stores a copy of line. It fails after Close or once FailAfter is reached.
func (m *Memory) Append(line []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closes > 0 {
		return fmt.Errorf("%w: %s", ErrClosed, m.name)
	}
	if m.FailAfter > 0 && len(m.lines)+1 >= m.FailAfter {
		return fmt.Errorf("%w: %s: simulated failure", ErrWrite, m.name)
	}
	m.lines = append(m.lines, bytes.Clone(line))
	return nil
}

// Close marks the sink closed. Calls are counted, not rejected.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

// Lines returns a copy of the appended lines.
func (m *Memory) Lines() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.lines))
	copy(out, m.lines)
	return out
}

// Closes reports how many times Close was called.
func (m *Memory) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}
