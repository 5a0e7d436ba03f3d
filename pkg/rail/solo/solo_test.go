package solo

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/ringrail/pkg/rail"
	"github.com/ib-77/ringrail/pkg/rail/stage"
)

func run[In, Out any](t *testing.T, p stage.Processor[In, Out], in In) ([]Out, error) {
	t.Helper()
	var out []Out
	err := p.Process(context.Background(), in, func(v Out) { out = append(out, v) })
	return out, err
}

func TestMap(t *testing.T) {
	t.Parallel()

	out, err := run(t, Map(func(_ context.Context, in int) string { return strconv.Itoa(in * 2) }), 21)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, out)
}

func TestTry(t *testing.T) {
	t.Parallel()

	p := Try(func(_ context.Context, in string) (int, error) { return strconv.Atoi(in) })

	out, err := run(t, p, "7")
	require.NoError(t, err)
	assert.Equal(t, []int{7}, out)

	out, err = run(t, p, "seven")
	assert.Error(t, err)
	assert.Empty(t, out)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	even := Filter(func(_ context.Context, in int) bool { return in%2 == 0 })

	out, _ := run(t, even, 4)
	assert.Equal(t, []int{4}, out)
	out, _ = run(t, even, 3)
	assert.Empty(t, out)
}

func TestFlatMap(t *testing.T) {
	t.Parallel()

	p := FlatMap(func(_ context.Context, in int) []int {
		out := make([]int, in)
		for i := range out {
			out[i] = i
		}
		return out
	})

	out, err := run(t, p, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, out)

	out, _ = run(t, p, 0)
	assert.Empty(t, out)
}

func TestTee(t *testing.T) {
	t.Parallel()

	var seen []string
	out, err := run(t, Tee(func(_ context.Context, in string) { seen = append(seen, in) }), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, out)
	assert.Equal(t, []string{"x"}, seen)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	p := Validate(func(_ context.Context, in int) (bool, string) {
		if in < 0 {
			return false, "negative"
		}
		return true, ""
	})

	out, _ := run(t, p, rail.Success(5))
	require.Len(t, out, 1)
	assert.True(t, out[0].IsSuccess())
	assert.Equal(t, 5, out[0].Result())

	out, _ = run(t, p, rail.Success(-5))
	require.Len(t, out, 1)
	assert.True(t, out[0].IsFailure())
	assert.EqualError(t, out[0].Err(), "negative")

	cancelled := rail.Cancel[int](context.Canceled)
	out, _ = run(t, p, cancelled)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsCancel())
	assert.Equal(t, cancelled.Id(), out[0].Id())
}

func TestValidateAll(t *testing.T) {
	t.Parallel()

	positive := func(_ context.Context, in int) (bool, string) { return in > 0, "not positive" }
	even := func(_ context.Context, in int) (bool, string) { return in%2 == 0, "odd" }

	out, _ := run(t, ValidateAll(false, positive, even), rail.Success(4))
	require.Len(t, out, 1)
	assert.True(t, out[0].IsSuccess())

	out, _ = run(t, ValidateAll(false, positive, even), rail.Success(-3))
	require.Len(t, out, 1)
	require.True(t, out[0].IsFailure())
	assert.Len(t, rail.GetErrors(out[0].Err()), 2)
	assert.EqualError(t, out[0].Err(), "not positive\nodd")

	out, _ = run(t, ValidateAll(true, positive, even), rail.Success(-3))
	require.Len(t, out, 1)
	require.True(t, out[0].IsFailure())
	assert.Len(t, rail.GetErrors(out[0].Err()), 1)
	assert.EqualError(t, out[0].Err(), "not positive")

	failed := rail.Fail[int](errors.New("upstream"))
	out, _ = run(t, ValidateAll(false, positive), failed)
	require.Len(t, out, 1)
	assert.Equal(t, failed.Id(), out[0].Id())
	assert.EqualError(t, out[0].Err(), "upstream")
}

func TestSwitch(t *testing.T) {
	t.Parallel()

	p := Switch(func(_ context.Context, in int) rail.Result[string] {
		return rail.Success(strconv.Itoa(in))
	})

	out, _ := run(t, p, rail.Success(9))
	require.Len(t, out, 1)
	assert.Equal(t, "9", out[0].Result())

	boom := errors.New("boom")
	failed := rail.Fail[int](boom)
	out, _ = run(t, p, failed)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsFailure())
	assert.ErrorIs(t, out[0].Err(), boom)
	assert.Equal(t, failed.Id(), out[0].Id())
}

func TestTryResult(t *testing.T) {
	t.Parallel()

	p := TryResult(func(_ context.Context, in string) (int, error) { return strconv.Atoi(in) })

	in := rail.Success("12")
	out, err := run(t, p, in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 12, out[0].Result())
	assert.Equal(t, in.Id(), out[0].Id())

	out, err = run(t, p, rail.Success("twelve"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsFailure())

	out, _ = run(t, p, rail.Cancel[string](context.DeadlineExceeded))
	require.Len(t, out, 1)
	assert.True(t, out[0].IsCancel())
}

func TestFinally(t *testing.T) {
	t.Parallel()

	p := Finally(
		func(_ context.Context, in int) string { return "val:" + strconv.Itoa(in) },
		func(_ context.Context, err error) string { return "err" },
		func(_ context.Context, err error) string { return "cancel" },
	)

	for _, tc := range []struct {
		in   rail.Result[int]
		want string
	}{
		{rail.Success(3), "val:3"},
		{rail.Fail[int](errors.New("x")), "err"},
		{rail.Cancel[int](context.Canceled), "cancel"},
	} {
		out, err := run(t, p, tc.in)
		require.NoError(t, err)
		assert.Equal(t, []string{tc.want}, out)
	}
}

func TestReduce_ConcurrentAndFlushOnce(t *testing.T) {
	t.Parallel()

	sum := Sum[int]()
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 1; i <= 100; i++ {
				_ = sum.Process(context.Background(), i, nil)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4*5050, sum.Value())

	var flushed []int
	require.NoError(t, sum.Flush(context.Background(), func(v int) { flushed = append(flushed, v) }))
	assert.Equal(t, []int{4 * 5050}, flushed)
}

func TestReduce_EmptyEmitsNothing(t *testing.T) {
	t.Parallel()

	count := Count[string]()
	called := false
	require.NoError(t, count.Flush(context.Background(), func(int64) { called = true }))
	assert.False(t, called)

	_ = count.Process(context.Background(), "a", nil)
	_ = count.Process(context.Background(), "b", nil)
	var got int64
	require.NoError(t, count.Flush(context.Background(), func(v int64) { got = v }))
	assert.EqualValues(t, 2, got)
}

func TestReduce_Custom(t *testing.T) {
	t.Parallel()

	longest := Reduce("", func(acc string, in string) string {
		if len(in) > len(acc) {
			return in
		}
		return acc
	})
	for _, s := range []string{"a", "abc", "ab"} {
		_ = longest.Process(context.Background(), s, nil)
	}
	assert.Equal(t, "abc", longest.Value())
}

func TestReduce_InStage(t *testing.T) {
	t.Parallel()

	sink := Collect[float64]()
	sum := stage.New[float64, float64]("sum", Sum[float64](), stage.WithHandlers(3))
	tail := stage.New[float64, float64]("collect", sink)
	require.NoError(t, stage.Link(sum, tail))
	require.NoError(t, sum.Open())

	for i := 0; i < 10; i++ {
		require.NoError(t, sum.Submit(0.5))
	}
	sum.Shutdown()

	assert.Equal(t, []float64{5}, sink.Items())
	assert.Equal(t, 1, sink.Len())
}
