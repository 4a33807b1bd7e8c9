package pipeline

import (
	"context"
	"errors"
)

// ErrDrained is returned by Pop once upstream is done and the buffer is empty.
var ErrDrained = errors.New("buffer drained")

// Buffer is a bounded FIFO shared by one producing and one consuming stage.
type Buffer[T any] struct {
	items chan T
}

// NewBuffer returns a buffer holding at most capacity items.
func NewBuffer[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make(chan T, capacity)}
}

// Push blocks while the buffer is full.
func (b *Buffer[T]) Push(ctx context.Context, item T) error {
	select {
	case b.items <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PushUnless behaves like Push but gives up once abandon is set, reporting
// false. An already set flag wins over free capacity.
func (b *Buffer[T]) PushUnless(ctx context.Context, item T, abandon *Flag) (bool, error) {
	if abandon.IsSet() {
		return false, nil
	}
	select {
	case b.items <- item:
		return true, nil
	case <-abandon.Done():
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Pop blocks until an item arrives. Once upstream is set it drains what is
// left and then returns ErrDrained.
func (b *Buffer[T]) Pop(ctx context.Context, upstream *Flag) (T, error) {
	var zero T
	select {
	case item := <-b.items:
		return item, nil
	case <-upstream.Done():
		// Items pushed before the flag was set are still queued.
		select {
		case item := <-b.items:
			return item, nil
		default:
			return zero, ErrDrained
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// TryPop returns an item if one is queued.
func (b *Buffer[T]) TryPop() (T, bool) {
	select {
	case item := <-b.items:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// Len reports the number of queued items.
func (b *Buffer[T]) Len() int { return len(b.items) }

// Cap reports the buffer capacity.
func (b *Buffer[T]) Cap() int { return cap(b.items) }
