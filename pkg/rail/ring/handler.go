package ring

import (
	"context"
	"sync/atomic"
)

// Handler processes the items a Channel dispatches to it. seq is the sequence
// the item was published at.
type Handler[T any] interface {
	Handle(ctx context.Context, item T, seq int64) error
}

type HandlerFunc[T any] func(ctx context.Context, item T, seq int64) error

func (f HandlerFunc[T]) Handle(ctx context.Context, item T, seq int64) error {
	return f(ctx, item, seq)
}

// HandlerFactory builds the handler for slot index of count.
type HandlerFactory[T any] func(index, count int) Handler[T]

// Shared returns a factory that hands the same handler to every worker.
func Shared[T any](h Handler[T]) HandlerFactory[T] {
	return func(int, int) Handler[T] { return h }
}

type worker[T any] struct {
	index    int
	handler  Handler[T]
	dispatch dispatcher

	//lint:ignore U1000 keeps neighbouring cursors on separate cache-lines
	_pad   [64]byte
	cursor atomic.Int64 // last sequence this worker walked past
}
