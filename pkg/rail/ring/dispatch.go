package ring

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Discipline decides which handler runs a published slot.
type Discipline int

const (
	// ExclusiveClaim lets the first handler that reaches an unclaimed slot run it.
	ExclusiveClaim Discipline = iota
	// RoundRobin assigns sequence s to handler s mod n.
	RoundRobin
)

func (d Discipline) String() string {
	switch d {
	case ExclusiveClaim:
		return "exclusive"
	case RoundRobin:
		return "roundrobin"
	}
	return fmt.Sprintf("Discipline(%d)", int(d))
}

func ParseDiscipline(s string) (Discipline, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exclusive", "exclusive-claim", "claim":
		return ExclusiveClaim, nil
	case "roundrobin", "round-robin", "rr":
		return RoundRobin, nil
	}
	return ExclusiveClaim, fmt.Errorf("unknown discipline %q", s)
}

type dispatcher interface {
	owns(claim *atomic.Int64, seq int64) bool
}

func newDispatcher(d Discipline, index, count int) dispatcher {
	if count == 1 {
		return single{}
	}
	if d == RoundRobin {
		return roundRobin{index: int64(index), count: int64(count)}
	}
	return exclusive{}
}

type single struct{}

func (single) owns(*atomic.Int64, int64) bool {
	return true
}

type exclusive struct{}

func (exclusive) owns(claim *atomic.Int64, seq int64) bool {
	for {
		c := claim.Load()
		if c >= seq {
			return false
		}
		if claim.CompareAndSwap(c, seq) {
			return true
		}
	}
}

type roundRobin struct {
	index, count int64
}

func (r roundRobin) owns(_ *atomic.Int64, seq int64) bool {
	return seq%r.count == r.index
}
