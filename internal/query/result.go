package query

import (
	"context"
	"errors"
)

// ErrResultConsumed is returned by Await for a result channel that was
// already read.
var ErrResultConsumed = errors.New("query result already consumed")

// Result carries the outcome of an asynchronous query.
type Result[T any] struct {
	Value T
	Err   error
}

// Get returns the value and error.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

// Await blocks until ch delivers a result or ctx is done.
func Await[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	select {
	case r, ok := <-ch:
		if !ok {
			var zero T
			return zero, ErrResultConsumed
		}
		return r.Get()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// async runs fn in its own goroutine and delivers its outcome exactly once.
// The channel is buffered so a caller that walks away leaks nothing.
func async[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}
