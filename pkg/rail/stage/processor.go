package stage

import "context"

// Processor transforms one input into zero or more outputs by calling emit.
// A returned error or a panic is logged and the item counts as processed with
// no output.
type Processor[A, B any] interface {
	Process(ctx context.Context, in A, emit func(B)) error
}

type ProcessorFunc[A, B any] func(ctx context.Context, in A, emit func(B)) error

func (f ProcessorFunc[A, B]) Process(ctx context.Context, in A, emit func(B)) error {
	return f(ctx, in, emit)
}

// Flusher is implemented by processors that keep state across items. Flush is
// called once, after the stage has drained, and may emit a final output.
type Flusher[B any] interface {
	Flush(ctx context.Context, emit func(B)) error
}
