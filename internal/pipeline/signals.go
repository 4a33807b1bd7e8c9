package pipeline

import (
	"sync"
	"sync/atomic"
)

// Flag is a one-way completion signal.
type Flag struct {
	once sync.Once
	done chan struct{}
}

// NewFlag returns an unset flag.
func NewFlag() *Flag {
	return &Flag{done: make(chan struct{})}
}

// Set marks the flag. Later calls are no-ops.
func (f *Flag) Set() {
	f.once.Do(func() { close(f.done) })
}

// IsSet reports whether Set has been called.
func (f *Flag) IsSet() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done is closed once the flag is set.
func (f *Flag) Done() <-chan struct{} {
	return f.done
}

// Latch sets its flag when CountDown has been called n times.
type Latch struct {
	remaining atomic.Int64
	flag      *Flag
}

// NewLatch returns a latch over flag. A latch of zero sets the flag at once.
func NewLatch(n int, flag *Flag) *Latch {
	l := &Latch{flag: flag}
	l.remaining.Store(int64(n))
	if n <= 0 {
		flag.Set()
	}
	return l
}

// CountDown records one participant finishing.
func (l *Latch) CountDown() {
	if l.remaining.Add(-1) == 0 {
		l.flag.Set()
	}
}

// Remaining reports how many participants have not finished.
func (l *Latch) Remaining() int64 {
	if n := l.remaining.Load(); n > 0 {
		return n
	}
	return 0
}

// Signals groups the stage completion flags of one run.
type Signals struct {
	ExtractionDone *Flag
	FilteringDone  *Flag
	WritingDone    *Flag
}

// NewSignals returns a fresh, unset set of flags.
func NewSignals() Signals {
	return Signals{
		ExtractionDone: NewFlag(),
		FilteringDone:  NewFlag(),
		WritingDone:    NewFlag(),
	}
}
