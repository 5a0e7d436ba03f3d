package ring

import "math/bits"

const (
	// DefaultMinCapacity is used when no minimum capacity is configured.
	DefaultMinCapacity = 1024
	// MaxCapacity caps the ring size.
	MaxCapacity = 1 << 30

	handlerFactor = 3
)

// Capacity returns the ring size for the requested minimum and handler count:
// max(minCapacity, 3*handlers) rounded up to a power of two, at most MaxCapacity.
func Capacity(minCapacity, handlers int) int {
	if minCapacity <= 0 {
		minCapacity = DefaultMinCapacity
	}
	want := minCapacity
	if handlers > 0 {
		if handlers >= MaxCapacity/handlerFactor {
			return MaxCapacity
		}
		want = max(want, handlerFactor*handlers)
	}
	if want >= MaxCapacity {
		return MaxCapacity
	}
	return nextPowerOfTwo(want)
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
