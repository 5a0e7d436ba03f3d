package stage

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ib-77/ringrail/pkg/rail"
	"github.com/ib-77/ringrail/pkg/rail/core"
	"github.com/ib-77/ringrail/pkg/rail/ring"
)

// Node is the untyped view of a stage used by chains.
type Node interface {
	ID() uuid.UUID
	Name() string
	InType() string
	OutType() string
	Handlers() int
	Producer() ring.Producer
	State() State
	Downstream() Node

	Configure(settings core.Settings) error
	Open() error
	LinkTo(next Node) error
	SubmitAny(item any) error
	Shutdown()

	bindIncoming(from Node) error
}

// Inlet is a node accepting items of type T.
type Inlet[T any] interface {
	Node
	Submit(item T) error
}

type outlet[B any] struct {
	inlet Inlet[B]
}

// Stage runs a Processor[A, B] on its own ring channel.
type Stage[A, B any] struct {
	id   uuid.UUID
	name string
	opts options

	newProcessor    func(index int) Processor[A, B]
	sharedProcessor bool

	mu            sync.Mutex
	chainSettings core.Settings
	settings      core.Settings
	log           *zap.Logger
	processors    []Processor[A, B]
	ch            *ring.Channel[A]
	upstream      string

	bound atomic.Bool
	next  atomic.Pointer[outlet[B]]
	state atomic.Int32

	shutdownOnce sync.Once
}

// New creates a stage whose handlers share p. p must be safe for concurrent
// use when the stage runs more than one handler.
func New[A, B any](name string, p Processor[A, B], opts ...Option) *Stage[A, B] {
	s := newStage[A, B](name, opts)
	s.sharedProcessor = true
	s.newProcessor = func(int) Processor[A, B] { return p }
	return s
}

// NewPool creates a stage with one processor per handler, built by factory
// when the stage is bound.
func NewPool[A, B any](name string, factory func(index int) Processor[A, B], opts ...Option) *Stage[A, B] {
	s := newStage[A, B](name, opts)
	s.newProcessor = factory
	return s
}

func newStage[A, B any](name string, opts []Option) *Stage[A, B] {
	s := &Stage[A, B]{
		id:   uuid.New(),
		name: name,
		opts: newOptions(opts),
	}
	s.resolveSettings()
	return s
}

// resolveSettings layers context defaults, chain settings and stage settings.
// Callers hold s.mu or own s exclusively.
func (s *Stage[A, B]) resolveSettings() {
	base, _ := core.SettingsFrom(s.opts.ctx)
	s.settings = base.Merge(s.chainSettings).Merge(s.opts.settings).WithDefaults()
	s.log = s.settings.Logger.With(zap.String("stage", s.name), zap.String("stage_id", s.id.String()))
}

func (s *Stage[A, B]) ID() uuid.UUID {
	return s.id
}

func (s *Stage[A, B]) Name() string {
	return s.name
}

func (s *Stage[A, B]) InType() string {
	return reflect.TypeFor[A]().String()
}

func (s *Stage[A, B]) OutType() string {
	return reflect.TypeFor[B]().String()
}

func (s *Stage[A, B]) Handlers() int {
	return s.opts.handlers
}

func (s *Stage[A, B]) Producer() ring.Producer {
	return s.opts.producer
}

func (s *Stage[A, B]) State() State {
	return State(s.state.Load())
}

// Settings returns the effective settings of the stage.
func (s *Stage[A, B]) Settings() core.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Stage[A, B]) Downstream() Node {
	if o := s.next.Load(); o != nil {
		return o.inlet
	}
	return nil
}

// Configure applies settings shared by a chain. It must happen before the
// stage is bound.
func (s *Stage[A, B]) Configure(settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch != nil {
		return rail.Configuration(s.name, "cannot configure a bound stage")
	}
	s.chainSettings = s.chainSettings.Merge(settings)
	s.resolveSettings()
	return nil
}

// Open binds the stage's input channel for standalone use. Stages that are
// linked from upstream are bound by the link instead.
func (s *Stage[A, B]) Open() error {
	return s.bind("")
}

func (s *Stage[A, B]) bindIncoming(from Node) error {
	return s.bind(from.Name())
}

func (s *Stage[A, B]) bind(from string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() >= Draining {
		return fmt.Errorf("stage %s: %w", s.name, rail.ErrClosed)
	}
	if s.ch != nil {
		if s.upstream != "" {
			return rail.Configuration(s.name, "input already bound to %s", s.upstream)
		}
		return rail.Configuration(s.name, "input already bound")
	}

	processors := make([]Processor[A, B], 1)
	if !s.sharedProcessor {
		processors = make([]Processor[A, B], s.opts.handlers)
	}
	for i := range processors {
		p := s.newProcessor(i)
		if p == nil {
			return rail.Configuration(s.name, "no processor for handler %d", i)
		}
		processors[i] = p
	}

	ch := ring.New[A](s.opts.ctx, ring.Config{
		Name:        s.name,
		MinCapacity: s.opts.minCapacity,
		Producer:    s.opts.producer,
		Discipline:  s.opts.discipline,
	}, s.settings)
	if err := ch.Attach(s.handlerFactory(processors), s.opts.handlers); err != nil {
		return err
	}

	s.processors = processors
	s.ch = ch
	s.upstream = from
	s.bound.Store(true)

	s.log.Debug("stage bound",
		zap.String("from", from),
		zap.Int("handlers", s.opts.handlers),
		zap.Int("capacity", ch.Capacity()))
	return nil
}

func (s *Stage[A, B]) handlerFactory(processors []Processor[A, B]) ring.HandlerFactory[A] {
	return func(index, count int) ring.Handler[A] {
		p := processors[0]
		if len(processors) > 1 {
			p = processors[index]
		}
		return ring.HandlerFunc[A](func(ctx context.Context, item A, _ int64) error {
			return p.Process(ctx, item, s.forward)
		})
	}
}

func (s *Stage[A, B]) channel() *ring.Channel[A] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

// Start launches the handler pool ahead of the first submission.
func (s *Stage[A, B]) Start() error {
	if !s.bound.Load() {
		return rail.Configuration(s.name, "stage is not linked or opened")
	}
	if err := s.channel().Start(); err != nil {
		return err
	}
	if s.state.CompareAndSwap(int32(Unstarted), int32(Running)) {
		s.log.Info("stage started")
	}
	return nil
}

// Submit publishes item into the stage, blocking while its ring is full. A nil
// item is ignored.
func (s *Stage[A, B]) Submit(item A) error {
	if rail.IsNil(item) {
		return nil
	}
	if !s.bound.Load() {
		return rail.Configuration(s.name, "submit to a stage that is not linked or opened")
	}
	if s.State() == Unstarted {
		if err := s.Start(); err != nil {
			return err
		}
	}
	return s.channel().Publish(item)
}

// SubmitAny is Submit for callers holding an untyped item.
func (s *Stage[A, B]) SubmitAny(item any) error {
	if item == nil {
		return nil
	}
	v, ok := item.(A)
	if !ok {
		return rail.Submission(s.name, item, fmt.Errorf("stage accepts %s", s.InType()))
	}
	return s.Submit(v)
}

// forward hands one output to the downstream stage, or drops it at the tail.
func (s *Stage[A, B]) forward(out B) {
	if rail.IsNil(out) {
		return
	}
	o := s.next.Load()
	if o == nil {
		s.settings.Observer.Discarded(s.name)
		return
	}
	if err := o.inlet.Submit(out); err != nil {
		s.settings.Observer.Discarded(s.name)
		s.log.Warn("forwarding failed",
			zap.String("to", o.inlet.Name()),
			zap.String("item", rail.Describe(out)),
			zap.Error(err))
	}
}

// Shutdown drains the stage, flushes final results and shuts down the
// downstream stage. It blocks until the rest of the chain has terminated.
func (s *Stage[A, B]) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.state.Store(int32(Draining))
		if ch := s.channel(); ch != nil {
			ch.Shutdown()
		}

		s.flush()

		s.state.Store(int32(DrainingDownstream))
		if o := s.next.Load(); o != nil {
			o.inlet.Shutdown()
		}

		s.state.Store(int32(Terminated))
		s.log.Info("stage terminated", zap.Int64("processed", s.Processed()))
	})
}

func (s *Stage[A, B]) flush() {
	s.mu.Lock()
	processors := s.processors
	if processors == nil && s.sharedProcessor {
		processors = []Processor[A, B]{s.newProcessor(0)}
	}
	s.mu.Unlock()

	for i, p := range processors {
		f, ok := p.(Flusher[B])
		if !ok {
			continue
		}
		if err := s.guardFlush(f); err != nil {
			s.log.Warn("final flush failed", zap.Int("handler", i), zap.Error(err))
		}
	}
}

func (s *Stage[A, B]) guardFlush(f Flusher[B]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rail.Shutdown(s.name, fmt.Errorf("panic: %v", r))
		}
	}()
	if err = f.Flush(s.opts.ctx, s.forward); err != nil {
		err = rail.Shutdown(s.name, err)
	}
	return err
}

// Processed is the number of items the stage's handlers have settled.
func (s *Stage[A, B]) Processed() int64 {
	if ch := s.channel(); ch != nil {
		return ch.Processed()
	}
	return 0
}

func (s *Stage[A, B]) Pending() int64 {
	if ch := s.channel(); ch != nil {
		return ch.Pending()
	}
	return 0
}

// Capacity is the ring size, zero until the stage is bound.
func (s *Stage[A, B]) Capacity() int {
	if ch := s.channel(); ch != nil {
		return ch.Capacity()
	}
	return 0
}
