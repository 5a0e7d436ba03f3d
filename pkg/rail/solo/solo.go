package solo

import (
	"context"
	"errors"

	"github.com/ib-77/ringrail/pkg/rail"
	"github.com/ib-77/ringrail/pkg/rail/stage"
)

func Map[In any, Out any](
	onItem func(ctx context.Context, in In) Out) stage.Processor[In, Out] {

	return stage.ProcessorFunc[In, Out](func(ctx context.Context, in In, emit func(Out)) error {
		emit(onItem(ctx, in))
		return nil
	})
}

// Try emits the value returned by onTryExecute. A returned error is reported
// as a processing error and nothing is emitted.
func Try[In any, Out any](
	onTryExecute func(ctx context.Context, in In) (Out, error)) stage.Processor[In, Out] {

	return stage.ProcessorFunc[In, Out](func(ctx context.Context, in In, emit func(Out)) error {
		out, err := onTryExecute(ctx, in)
		if err != nil {
			return err
		}
		emit(out)
		return nil
	})
}

func Filter[T any](
	keep func(ctx context.Context, in T) bool) stage.Processor[T, T] {

	return stage.ProcessorFunc[T, T](func(ctx context.Context, in T, emit func(T)) error {
		if keep(ctx, in) {
			emit(in)
		}
		return nil
	})
}

// FlatMap emits every element returned by onItem, in order.
func FlatMap[In any, Out any](
	onItem func(ctx context.Context, in In) []Out) stage.Processor[In, Out] {

	return stage.ProcessorFunc[In, Out](func(ctx context.Context, in In, emit func(Out)) error {
		for _, out := range onItem(ctx, in) {
			emit(out)
		}
		return nil
	})
}

func Tee[T any](
	sideEffect func(ctx context.Context, in T)) stage.Processor[T, T] {

	return stage.ProcessorFunc[T, T](func(ctx context.Context, in T, emit func(T)) error {
		sideEffect(ctx, in)
		emit(in)
		return nil
	})
}

// Lift wraps every item into a successful rail.Result so that the railway
// processors below can be chained after it.
func Lift[T any]() stage.Processor[T, rail.Result[T]] {
	return stage.ProcessorFunc[T, rail.Result[T]](func(_ context.Context, in T, emit func(rail.Result[T])) error {
		emit(rail.Success(in))
		return nil
	})
}

func Validate[T any](
	validate func(ctx context.Context, in T) (valid bool, errMsg string)) stage.Processor[rail.Result[T], rail.Result[T]] {

	return stage.ProcessorFunc[rail.Result[T], rail.Result[T]](
		func(ctx context.Context, input rail.Result[T], emit func(rail.Result[T])) error {
			if !input.IsSuccess() {
				emit(input)
				return nil
			}

			if isValid, errMsg := validate(ctx, input.Result()); isValid {
				emit(input)
			} else {
				emit(rail.Fail[T](errors.New(errMsg)))
			}
			return nil
		})
}

// ValidateAll runs every validator against a successful result and fails it
// with all collected messages joined. With breakOnError it stops at the first
// failing validator.
func ValidateAll[T any](breakOnError bool,
	validators ...func(ctx context.Context, in T) (valid bool, errMsg string)) stage.Processor[rail.Result[T], rail.Result[T]] {

	return stage.ProcessorFunc[rail.Result[T], rail.Result[T]](
		func(ctx context.Context, input rail.Result[T], emit func(rail.Result[T])) error {
			if !input.IsSuccess() {
				emit(input)
				return nil
			}

			var err error
			for _, validate := range validators {
				if ok, errMsg := validate(ctx, input.Result()); !ok {
					err = errors.Join(append(rail.GetErrors(err), errors.New(errMsg))...)
					if breakOnError {
						break
					}
				}
			}

			if rail.IsNil(err) {
				emit(input)
			} else {
				emit(rail.Fail[T](err))
			}
			return nil
		})
}

// Switch moves a successful Result[In] onto the track returned by onSuccess.
// Failures and cancellations pass through unchanged.
func Switch[In any, Out any](
	onSuccess func(ctx context.Context, r In) rail.Result[Out]) stage.Processor[rail.Result[In], rail.Result[Out]] {

	return stage.ProcessorFunc[rail.Result[In], rail.Result[Out]](
		func(ctx context.Context, input rail.Result[In], emit func(rail.Result[Out])) error {
			if input.IsSuccess() {
				emit(onSuccess(ctx, input.Result()))
			} else {
				emit(rail.FailFrom[In, Out](input))
			}
			return nil
		})
}

// TryResult is Try on the railway: an error from onTryExecute becomes a
// failed result instead of a processing error.
func TryResult[In any, Out any](
	onTryExecute func(ctx context.Context, r In) (Out, error)) stage.Processor[rail.Result[In], rail.Result[Out]] {

	return stage.ProcessorFunc[rail.Result[In], rail.Result[Out]](
		func(ctx context.Context, input rail.Result[In], emit func(rail.Result[Out])) error {
			if !input.IsSuccess() {
				emit(rail.FailFrom[In, Out](input))
				return nil
			}

			out, err := onTryExecute(ctx, input.Result())
			if err != nil {
				emit(rail.Fail[Out](err))
				return nil
			}
			emit(rail.Keep(input, out))
			return nil
		})
}

// Finally collapses each result into a plain value.
func Finally[In, Out any](
	onSuccess func(ctx context.Context, r In) Out,
	onError func(ctx context.Context, err error) Out,
	onCancel func(ctx context.Context, err error) Out) stage.Processor[rail.Result[In], Out] {

	return stage.ProcessorFunc[rail.Result[In], Out](
		func(ctx context.Context, input rail.Result[In], emit func(Out)) error {
			if input.IsSuccess() {
				emit(onSuccess(ctx, input.Result()))
			} else if input.IsCancel() {
				emit(onCancel(ctx, input.Err()))
			} else {
				emit(onError(ctx, input.Err()))
			}
			return nil
		})
}
