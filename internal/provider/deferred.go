package provider

import (
	"context"
	"sync"
)

// Deferred is a value that is assigned exactly once and can be awaited.
type Deferred[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
}

func NewDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{done: make(chan struct{})}
}

// Resolve stores v and releases every waiter. Only the first call wins; it
// reports whether this call was that one.
func (d *Deferred[T]) Resolve(v T) bool {
	won := false
	d.once.Do(func() {
		d.value = v
		close(d.done)
		won = true
	})
	return won
}

// Done is closed once the value is set.
func (d *Deferred[T]) Done() <-chan struct{} {
	return d.done
}

// Value returns the value without blocking.
func (d *Deferred[T]) Value() (T, bool) {
	select {
	case <-d.done:
		return d.value, true
	default:
		var zero T
		return zero, false
	}
}

// Wait blocks until the value is set or ctx ends.
func (d *Deferred[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
