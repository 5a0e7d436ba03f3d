package solo

import (
	"context"
	"sync"
)

type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Reducer folds every item into a running aggregate and emits it once, when
// the stage is flushed at shutdown. It is safe to share between handlers.
type Reducer[In, Acc any] struct {
	mu   sync.Mutex
	acc  Acc
	seen bool
	step func(acc Acc, in In) Acc
}

func Reduce[In, Acc any](initial Acc, step func(acc Acc, in In) Acc) *Reducer[In, Acc] {
	return &Reducer[In, Acc]{acc: initial, step: step}
}

func Sum[T Number]() *Reducer[T, T] {
	return Reduce(T(0), func(acc T, in T) T { return acc + in })
}

func Count[T any]() *Reducer[T, int64] {
	return Reduce(int64(0), func(acc int64, _ T) int64 { return acc + 1 })
}

func (r *Reducer[In, Acc]) Process(_ context.Context, in In, _ func(Acc)) error {
	r.mu.Lock()
	r.acc = r.step(r.acc, in)
	r.seen = true
	r.mu.Unlock()
	return nil
}

// Flush emits the aggregate. A reducer that has seen no items emits nothing.
func (r *Reducer[In, Acc]) Flush(_ context.Context, emit func(Acc)) error {
	r.mu.Lock()
	acc, seen := r.acc, r.seen
	r.mu.Unlock()

	if seen {
		emit(acc)
	}
	return nil
}

// Value returns the current aggregate.
func (r *Reducer[In, Acc]) Value() Acc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acc
}

// Collector keeps every item it receives. It is meant to be the tail of a
// chain and emits nothing.
type Collector[T any] struct {
	mu    sync.Mutex
	items []T
}

func Collect[T any]() *Collector[T] {
	return &Collector[T]{}
}

func (c *Collector[T]) Process(_ context.Context, in T, _ func(T)) error {
	c.mu.Lock()
	c.items = append(c.items, in)
	c.mu.Unlock()
	return nil
}

// Items returns a snapshot of the collected items in arrival order.
func (c *Collector[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func (c *Collector[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
