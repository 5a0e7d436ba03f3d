package ring

import (
	"context"
	"testing"
	"time"

	"github.com/ib-77/ringrail/pkg/rail/core"
)

func expectNotHang(t *testing.T, waitFor time.Duration, f func()) {
	t.Helper()
	done := make(chan struct{})

	go func() {
		defer close(done)
		f()
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatalf("test hanged")
	}
}

func newTestChannel[T any](name string, minCapacity int, d Discipline) *Channel[T] {
	return New[T](context.Background(), Config{
		Name:        name,
		MinCapacity: minCapacity,
		Discipline:  d,
	}, core.Settings{})
}
