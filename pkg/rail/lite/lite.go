package lite

import (
	"cmp"
	"context"
	"slices"

	"github.com/ib-77/ringrail/pkg/rail/ring"
	"github.com/ib-77/ringrail/pkg/rail/solo"
	"github.com/ib-77/ringrail/pkg/rail/stage"
)

// Run pushes items through p on lines handlers and returns every output in
// completion order. It stops submitting once ctx is done and returns ctx's
// error together with the outputs produced so far.
func Run[In, Out any](ctx context.Context, items []In,
	p stage.Processor[In, Out],
	lines int) ([]Out, error) {

	sink := solo.Collect[Out]()
	head := stage.New[In, Out]("lite", p, stage.WithHandlers(lines), stage.WithContext(ctx))
	tail := stage.New[Out, Out]("lite-collect", sink, stage.WithContext(ctx))

	if err := stage.Link(head, tail); err != nil {
		return nil, err
	}
	if err := head.Open(); err != nil {
		return nil, err
	}

	err := submitAll[In](ctx, head, items)
	head.Shutdown()
	return sink.Items(), err
}

type indexed[T any] struct {
	seq int
	v   T
}

// RunOrdered is Run with outputs sorted back into input order. Outputs emitted
// for the same input keep their emission order.
func RunOrdered[In, Out any](ctx context.Context, items []In,
	p stage.Processor[In, Out],
	lines int) ([]Out, error) {

	tagged := stage.ProcessorFunc[indexed[In], indexed[Out]](
		func(ctx context.Context, in indexed[In], emit func(indexed[Out])) error {
			return p.Process(ctx, in.v, func(out Out) {
				emit(indexed[Out]{seq: in.seq, v: out})
			})
		})

	sink := solo.Collect[indexed[Out]]()
	head := stage.New[indexed[In], indexed[Out]]("lite-ordered", tagged,
		stage.WithHandlers(lines),
		stage.WithDiscipline(ring.RoundRobin),
		stage.WithContext(ctx))
	tail := stage.New[indexed[Out], indexed[Out]]("lite-collect", sink, stage.WithContext(ctx))

	if err := stage.Link(head, tail); err != nil {
		return nil, err
	}
	if err := head.Open(); err != nil {
		return nil, err
	}

	wrapped := make([]indexed[In], len(items))
	for i, item := range items {
		wrapped[i] = indexed[In]{seq: i, v: item}
	}

	err := submitAll[indexed[In]](ctx, head, wrapped)
	head.Shutdown()

	collected := sink.Items()
	slices.SortStableFunc(collected, func(a, b indexed[Out]) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]Out, len(collected))
	for i, c := range collected {
		out[i] = c.v
	}
	return out, err
}

// Turnout runs p on lines handlers over a stream. The returned channel is
// closed once in is closed and every output was delivered, or once ctx is
// done; outputs nobody reads after ctx is done are dropped.
func Turnout[In, Out any](ctx context.Context, in <-chan In,
	p stage.Processor[In, Out],
	lines int) <-chan Out {

	out := make(chan Out)

	deliver := stage.ProcessorFunc[Out, Out](func(ctx context.Context, v Out, _ func(Out)) error {
		select {
		case out <- v:
		case <-ctx.Done():
		}
		return nil
	})

	head := stage.New[In, Out]("turnout", p, stage.WithHandlers(lines), stage.WithContext(ctx))
	tail := stage.New[Out, Out]("turnout-out", deliver, stage.WithContext(ctx))

	go func() {
		defer close(out)

		if err := stage.Link(head, tail); err != nil {
			return
		}
		if err := head.Open(); err != nil {
			return
		}
		defer head.Shutdown()

		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				if err := head.Submit(v); err != nil {
					return
				}
			}
		}
	}()

	return out
}

func submitAll[T any](ctx context.Context, to stage.Inlet[T], items []T) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := to.Submit(item); err != nil {
			return err
		}
	}
	return nil
}
