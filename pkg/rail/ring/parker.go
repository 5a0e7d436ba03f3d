package ring

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// polls before a waiter parks
const spinBudget = 64

// parker blocks goroutines until a condition holds. State read by the
// condition must be written atomically before wake is called.
type parker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	waiters atomic.Int32
}

func newParker() *parker {
	p := &parker{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// await spins for a short while and then parks until ready returns true.
func (p *parker) await(ready func() bool) {
	for range spinBudget {
		if ready() {
			return
		}
		runtime.Gosched()
	}
	p.park(ready)
}

func (p *parker) park(ready func() bool) {
	p.waiters.Add(1)
	p.mu.Lock()
	for !ready() {
		p.cond.Wait()
	}
	p.mu.Unlock()
	p.waiters.Add(-1)
}

func (p *parker) wake() {
	if p.waiters.Load() == 0 {
		return
	}
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}
