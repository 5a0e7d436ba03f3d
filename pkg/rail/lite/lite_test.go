package lite

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/ringrail/pkg/rail/core"
	"github.com/ib-77/ringrail/pkg/rail/solo"
)

func TestRun_AllItemsOnce(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	source := make([]int, 500)
	for i := range source {
		source[i] = i
	}

	out, err := Run(ctx, source, solo.Map(func(_ context.Context, in int) int { return in + 1000 }), 4)
	require.NoError(t, err)

	sort.Ints(out)
	require.Len(t, out, len(source))
	for i, v := range out {
		assert.Equal(t, i+1000, v)
	}
}

func TestRun_WorkersFromContext(t *testing.T) {
	t.Parallel()

	ctx := core.WithWorkerOptions(context.Background(), 3)
	out, err := Run(ctx, []string{"a", "b", "c"}, solo.Map(func(_ context.Context, in string) int { return len(in) }), 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, out)
}

func TestRun_FailuresAreSkipped(t *testing.T) {
	t.Parallel()

	out, err := Run(context.Background(), []string{"1", "bad", "3"},
		solo.Try(func(_ context.Context, in string) (int, error) { return strconv.Atoi(in) }), 2)
	require.NoError(t, err)

	sort.Ints(out)
	assert.Equal(t, []int{1, 3}, out)
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Run(ctx, []int{1, 2, 3}, solo.Tee(func(context.Context, int) {}), 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out)
}

func TestRunOrdered_KeepsInputOrder(t *testing.T) {
	t.Parallel()

	source := make([]int, 300)
	for i := range source {
		source[i] = i
	}

	// uneven work so that handlers finish out of order
	p := solo.Map(func(_ context.Context, in int) string {
		if in%7 == 0 {
			time.Sleep(time.Millisecond)
		}
		return strconv.Itoa(in)
	})

	out, err := RunOrdered(context.Background(), source, p, 3)
	require.NoError(t, err)
	require.Len(t, out, len(source))
	for i, v := range out {
		assert.Equal(t, strconv.Itoa(i), v)
	}
}

func TestRunOrdered_FanOutKeepsEmissionOrder(t *testing.T) {
	t.Parallel()

	p := solo.FlatMap(func(_ context.Context, in int) []int { return []int{in * 10, in*10 + 1} })

	out, err := RunOrdered(context.Background(), []int{1, 2, 3}, p, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11, 20, 21, 30, 31}, out)
}

func TestTurnout_Stream(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := core.ToChanMany(ctx, []int{1, 2, 3, 4, 5})
	out := Turnout(ctx, in, solo.Map(func(_ context.Context, v int) int { return v * v }), 2)

	got := core.FromChanMany(ctx, out)
	sort.Ints(got)
	assert.Equal(t, []int{1, 4, 9, 16, 25}, got)
}

func TestTurnout_RailwayComposition(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	urls := []string{
		"https://www.example.com",
		"https://www.test.org",
		"invalid-url",
		"ftp://invalid-protocol.com",
	}

	validated := Turnout(ctx,
		Turnout(ctx, core.ToChanMany(ctx, urls), solo.Lift[string](), 2),
		solo.Validate(func(_ context.Context, url string) (bool, string) {
			if len(url) < 8 || url[:8] != "https://" {
				return false, "URL must start with https://"
			}
			return true, ""
		}), 2)

	lengths := Turnout(ctx, validated,
		solo.TryResult(func(_ context.Context, url string) (int, error) {
			if url == "https://www.test.org" {
				return 0, errors.New("unreachable")
			}
			return len(url), nil
		}), 2)

	final := Turnout(ctx, lengths, solo.Finally(
		func(_ context.Context, n int) string { return "length:" + strconv.Itoa(n) },
		func(_ context.Context, err error) string { return "invalid" },
		func(_ context.Context, err error) string { return "cancelled" },
	), 2)

	got := core.FromChanMany(ctx, final)
	sort.Strings(got)
	assert.Equal(t, []string{"invalid", "invalid", "invalid", "length:23"}, got)
}

func TestTurnout_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan int)
	out := Turnout(ctx, in, solo.Tee(func(context.Context, int) {}), 1)

	in <- 1
	cancel()

	select {
	case <-drain(out):
	case <-time.After(2 * time.Second):
		t.Fatalf("turnout did not close its output after cancel")
	}
}

func drain[T any](ch <-chan T) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range ch {
		}
	}()
	return done
}
