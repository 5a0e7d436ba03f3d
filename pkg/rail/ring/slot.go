package ring

import "sync/atomic"

// slot holds one published item. seq is the sequence of the current occupant
// (-1 before the first publish) and doubles as the publication flag; claim is
// the last sequence claimed under ExclusiveClaim.
type slot[T any] struct {
	seq   atomic.Int64
	claim atomic.Int64
	value T
}

func newSlots[T any](capacity int) []slot[T] {
	slots := make([]slot[T], capacity)
	for i := range slots {
		slots[i].seq.Store(-1)
		slots[i].claim.Store(-1)
	}
	return slots
}
