package ring

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ib-77/ringrail/pkg/rail"
	"github.com/ib-77/ringrail/pkg/rail/core"
)

type state int32

const (
	stateUnstarted state = iota
	stateRunning
	stateDone
)

// Config describes a Channel. Capacity is derived from MinCapacity and the
// number of handlers at attach time.
type Config struct {
	Name        string
	MinCapacity int
	Producer    Producer
	Discipline  Discipline
}

// Channel is a bounded ring of slots feeding a fixed pool of handlers.
type Channel[T any] struct {
	cfg      Config
	ctx      context.Context
	settings core.Settings
	log      *zap.Logger

	// written once by Attach, read after attached is observed
	slots   []slot[T]
	mask    int64
	workers []*worker[T]

	seq       sequencer
	attachMu  sync.Mutex
	attached  atomic.Bool
	lifecycle sync.Mutex
	state     atomic.Int32
	pending   atomic.Int64
	processed atomic.Int64

	wg           sync.WaitGroup
	shutdownOnce sync.Once

	notEmpty *parker
	notFull  *parker
	drained  *parker
}

// New creates a channel with no handlers attached. ctx is handed to every
// Handle call; settings supplies the logger, observer and progress callback.
func New[T any](ctx context.Context, cfg Config, settings core.Settings) *Channel[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	settings = settings.WithDefaults()
	return &Channel[T]{
		cfg:      cfg,
		ctx:      ctx,
		settings: settings,
		log:      settings.Logger.With(zap.String("stage", cfg.Name)),
		seq:      newSequencer(cfg.Producer),
		notEmpty: newParker(),
		notFull:  newParker(),
		drained:  newParker(),
	}
}

// Attach binds count handlers built by factory and sizes the ring. It may be
// called once.
func (c *Channel[T]) Attach(factory HandlerFactory[T], count int) error {
	if factory == nil {
		return rail.Configuration(c.cfg.Name, "nil handler factory")
	}
	if count < 1 {
		return rail.Configuration(c.cfg.Name, "at least one handler is required, got %d", count)
	}

	c.attachMu.Lock()
	defer c.attachMu.Unlock()

	if c.attached.Load() {
		return rail.Configuration(c.cfg.Name, "handlers already attached")
	}

	capacity := Capacity(c.cfg.MinCapacity, count)
	workers := make([]*worker[T], count)
	for i := range workers {
		h := factory(i, count)
		if h == nil {
			return rail.Configuration(c.cfg.Name, "handler factory returned nil for handler %d", i)
		}
		w := &worker[T]{
			index:    i,
			handler:  h,
			dispatch: newDispatcher(c.cfg.Discipline, i, count),
		}
		w.cursor.Store(-1)
		workers[i] = w
	}

	c.slots = newSlots[T](capacity)
	c.mask = int64(capacity - 1)
	c.workers = workers
	c.attached.Store(true)

	c.settings.Observer.Capacity(c.cfg.Name, capacity)
	c.log.Debug("handlers attached",
		zap.Int("handlers", count),
		zap.Int("capacity", capacity),
		zap.Stringer("discipline", c.cfg.Discipline),
		zap.Stringer("producer", c.cfg.Producer))
	return nil
}

// Start launches one goroutine per handler. Publish calls it on first use.
func (c *Channel[T]) Start() error {
	if !c.attached.Load() {
		return rail.Configuration(c.cfg.Name, "no handlers attached")
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	switch state(c.state.Load()) {
	case stateRunning:
		return nil
	case stateDone:
		return fmt.Errorf("channel %s: %w", c.cfg.Name, rail.ErrClosed)
	}

	c.wg.Add(len(c.workers))
	for _, w := range c.workers {
		go c.locomotive(w)
	}
	c.state.Store(int32(stateRunning))
	return nil
}

// Publish puts item into the next slot, blocking while the ring is full.
func (c *Channel[T]) Publish(item T) error {
	if !c.attached.Load() {
		return rail.Configuration(c.cfg.Name, "publish before any handler was attached")
	}
	if state(c.state.Load()) == stateUnstarted {
		if err := c.Start(); err != nil {
			return err
		}
	}

	// pending is raised before the done check so handlers cannot exit while
	// this publication is in flight
	n := c.pending.Add(1)
	if state(c.state.Load()) == stateDone {
		c.itemDone()
		return fmt.Errorf("channel %s: %w", c.cfg.Name, rail.ErrClosed)
	}

	s := c.seq.next()
	if wrap := s - int64(len(c.slots)); wrap > c.minCursor() {
		c.notFull.await(func() bool { return c.minCursor() >= wrap })
	}

	sl := &c.slots[s&c.mask]
	sl.value = item
	sl.seq.Store(s)
	c.notEmpty.wake()

	c.settings.Observer.Submitted(c.cfg.Name)
	c.settings.Observer.Pending(c.cfg.Name, n)
	return nil
}

// itemDone settles one slot. It runs exactly once per published sequence.
func (c *Channel[T]) itemDone() {
	n := c.pending.Add(-1)
	c.settings.Observer.Pending(c.cfg.Name, n)
	if n == 0 {
		c.drained.wake()
		c.notEmpty.wake()
	}
}

// WaitForDrain parks until every published item has been settled.
func (c *Channel[T]) WaitForDrain() {
	if c.pending.Load() == 0 {
		return
	}
	c.drained.park(func() bool { return c.pending.Load() == 0 })
}

// Shutdown drains the channel, marks it done and waits for the handler
// goroutines to exit. Later calls return once the first one has finished.
func (c *Channel[T]) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.WaitForDrain()

		c.lifecycle.Lock()
		c.state.Store(int32(stateDone))
		c.lifecycle.Unlock()

		c.notEmpty.wake()
		c.wg.Wait()
		c.log.Debug("channel shut down", zap.Int64("published", c.seq.claimed()))
	})
}

// exhausted reports that no more work will arrive.
func (c *Channel[T]) exhausted() bool {
	return state(c.state.Load()) == stateDone && c.pending.Load() == 0
}

func (c *Channel[T]) minCursor() int64 {
	lowest := int64(math.MaxInt64)
	for _, w := range c.workers {
		if v := w.cursor.Load(); v < lowest {
			lowest = v
		}
	}
	return lowest
}

func (c *Channel[T]) Name() string {
	return c.cfg.Name
}

// Capacity is the ring size, zero before handlers are attached.
func (c *Channel[T]) Capacity() int {
	if !c.attached.Load() {
		return 0
	}
	return len(c.slots)
}

func (c *Channel[T]) Handlers() int {
	if !c.attached.Load() {
		return 0
	}
	return len(c.workers)
}

func (c *Channel[T]) Pending() int64 {
	return c.pending.Load()
}

// Processed counts the items handlers have settled, failed ones included.
func (c *Channel[T]) Processed() int64 {
	return c.processed.Load()
}

// Cursor is the number of sequences claimed by publishers so far.
func (c *Channel[T]) Cursor() int64 {
	return c.seq.claimed()
}

func (c *Channel[T]) Attached() bool {
	return c.attached.Load()
}

func (c *Channel[T]) Running() bool {
	return state(c.state.Load()) == stateRunning
}

func (c *Channel[T]) Done() bool {
	return state(c.state.Load()) == stateDone
}
