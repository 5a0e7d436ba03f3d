package rail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_KindAndCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("strconv failed")

	for _, tc := range []struct {
		err  error
		kind error
	}{
		{Configuration("parse", "bad %s", "wiring"), ErrConfiguration},
		{Processing("parse", "x", cause), ErrProcessing},
		{Submission("parse", 3, cause), ErrSubmission},
		{Shutdown("sum", cause), ErrShutdown},
	} {
		assert.ErrorIs(t, tc.err, tc.kind)

		others := 0
		for _, k := range []error{ErrConfiguration, ErrProcessing, ErrSubmission, ErrShutdown} {
			if errors.Is(tc.err, k) {
				others++
			}
		}
		assert.Equal(t, 1, others, "%v matches exactly one kind", tc.err)

		var re *Error
		require.ErrorAs(t, tc.err, &re)
		assert.NotEmpty(t, re.Stage)
	}

	assert.ErrorIs(t, Processing("parse", "x", cause), cause)
	assert.False(t, errors.Is(Configuration("s", "x"), ErrClosed))
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := Processing("parse", "abc", errors.New("invalid syntax"))
	assert.Equal(t, "processing error in stage parse on item string(abc): invalid syntax", err.Error())

	err = Configuration("link", "type mismatch")
	assert.Equal(t, "configuration error in stage link: type mismatch", err.Error())

	assert.Equal(t, "shutdown error", (&Error{Kind: ErrShutdown}).Error())
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<nil>", Describe(nil))
	assert.Equal(t, "<nil>", Describe((*int)(nil)))
	assert.Equal(t, "int(42)", Describe(42))

	long := Describe(strings.Repeat("x", 200))
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.Len(t, long, 64+3)

	accents := Describe(strings.Repeat("é", 40))
	assert.True(t, utf8.ValidString(accents), "%q", accents)
	assert.True(t, strings.HasSuffix(accents, "..."))
	assert.LessOrEqual(t, len(accents), 64+3)
}

func TestIsNil(t *testing.T) {
	t.Parallel()

	var p *int
	var m map[string]int
	var s []int
	var f func()
	var ch chan int
	var e error

	for i, v := range []any{nil, p, m, s, f, ch, e} {
		assert.True(t, IsNil(v), "case %d", i)
	}
	for i, v := range []any{0, "", struct{}{}, []int{}, new(int), Success(1)} {
		assert.False(t, IsNil(v), "case %d", i)
	}
}

func TestGetErrors(t *testing.T) {
	t.Parallel()

	a, b := errors.New("a"), errors.New("b")
	assert.Empty(t, GetErrors(nil))
	assert.Equal(t, []error{a}, GetErrors(a))
	assert.Equal(t, []error{a, b}, GetErrors(errors.Join(a, b)))
	assert.Len(t, GetErrors(fmt.Errorf("wrapped: %w", a)), 1)
}

func TestIsCancellationError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCancellationError(context.Canceled))
	assert.True(t, IsCancellationError(fmt.Errorf("op: %w", context.DeadlineExceeded)))
	assert.False(t, IsCancellationError(errors.New("other")))
}

func TestResult_States(t *testing.T) {
	t.Parallel()

	ok := Success(5)
	assert.True(t, ok.IsSuccess())
	assert.False(t, ok.IsFailure())
	assert.Equal(t, 5, ok.Result())
	assert.False(t, ok.CreatedAt().IsZero())

	failed := Fail[int](errors.New("boom"))
	assert.True(t, failed.IsFailure())
	assert.False(t, failed.IsSuccess())

	cancelled := Cancel[int](context.Canceled)
	assert.True(t, cancelled.IsCancel())
	assert.False(t, cancelled.IsFailure())

	assert.True(t, Result[int]{}.IsEmpty())
	assert.NotEqual(t, ok.Id(), failed.Id())

	kept := Keep(ok, "five")
	assert.Equal(t, ok.Id(), kept.Id())
	assert.Equal(t, "five", kept.Result())

	moved := FailFrom[int, string](cancelled)
	assert.Equal(t, cancelled.Id(), moved.Id())
	assert.True(t, moved.IsCancel())
	assert.ErrorIs(t, moved.Err(), context.Canceled)
}
