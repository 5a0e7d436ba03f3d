package chain

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ib-77/ringrail/pkg/rail"
	"github.com/ib-77/ringrail/pkg/rail/core"
	"github.com/ib-77/ringrail/pkg/rail/ring"
	"github.com/ib-77/ringrail/pkg/rail/stage"
)

// Chain links stages into a linear pipeline and distributes shared settings
// to every one of them.
type Chain struct {
	settings core.Settings

	mu    sync.Mutex
	nodes []stage.Node
}

type Option func(*Chain)

func WithSettings(s core.Settings) Option {
	return func(c *Chain) { c.settings = c.settings.Merge(s) }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Chain) { c.settings.Logger = l }
}

func WithObserver(o core.Observer) Option {
	return func(c *Chain) { c.settings.Observer = o }
}

func WithProgress(f core.ProgressFunc) Option {
	return func(c *Chain) { c.settings.Progress = f }
}

// WithOption adds a free-form value readable by processors through the
// stage settings.
func WithOption(key, value string) Option {
	return func(c *Chain) {
		c.settings = c.settings.Merge(core.Settings{Values: map[string]string{key: value}})
	}
}

func New(opts ...Option) *Chain {
	c := &Chain{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Link configures nodes with the chain settings, links them in order and opens
// the head. Nil stages, repeated stages, type mismatches and single-writer
// inputs behind a pool are rejected before anything is linked. Errors raised
// while linking (a stage already bound elsewhere) leave the earlier pairs
// linked; those stages cannot be reused.
func (c *Chain) Link(nodes ...stage.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nodes != nil {
		return rail.Configuration("", "chain is already linked")
	}
	if len(nodes) == 0 {
		return rail.Configuration("", "chain needs at least one stage")
	}

	if err := checkPairs(nodes); err != nil {
		return err
	}
	for _, n := range nodes {
		if err := n.Configure(c.settings); err != nil {
			return err
		}
	}
	for i := 0; i < len(nodes)-1; i++ {
		if err := nodes[i].LinkTo(nodes[i+1]); err != nil {
			return err
		}
	}
	if err := nodes[0].Open(); err != nil {
		return err
	}

	c.nodes = append([]stage.Node(nil), nodes...)
	c.logger().Debug("chain linked", zap.Int("stages", len(nodes)), zap.String("head", nodes[0].Name()))
	return nil
}

func checkPairs(nodes []stage.Node) error {
	seen := make(map[uuid.UUID]struct{}, len(nodes))
	for i, n := range nodes {
		if rail.IsNil(n) {
			return rail.Configuration("", "stage %d is nil", i)
		}
		if _, dup := seen[n.ID()]; dup {
			return rail.Configuration(n.Name(), "stage appears twice in the chain")
		}
		seen[n.ID()] = struct{}{}

		if i == 0 {
			continue
		}
		prev := nodes[i-1]
		if prev.OutType() != n.InType() {
			return rail.Configuration(prev.Name(), "cannot link %s (out %s) to %s (in %s): type mismatch",
				prev.Name(), prev.OutType(), n.Name(), n.InType())
		}
		if prev.Handlers() > 1 && n.Producer() == ring.SingleWriter {
			return rail.Configuration(n.Name(),
				"single-writer input cannot be fed by %s with %d handlers", prev.Name(), prev.Handlers())
		}
	}
	return nil
}

// MustLink is Link that panics on error.
func (c *Chain) MustLink(nodes ...stage.Node) *Chain {
	if err := c.Link(nodes...); err != nil {
		panic(err)
	}
	return c
}

func (c *Chain) Stages() []stage.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]stage.Node(nil), c.nodes...)
}

func (c *Chain) Head() stage.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.nodes) == 0 {
		return nil
	}
	return c.nodes[0]
}

func (c *Chain) Tail() stage.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.nodes) == 0 {
		return nil
	}
	return c.nodes[len(c.nodes)-1]
}

func (c *Chain) logger() *zap.Logger {
	if c.settings.Logger != nil {
		return c.settings.Logger
	}
	return zap.NewNop()
}

func (c *Chain) head() (stage.Node, error) {
	h := c.Head()
	if h == nil {
		return nil, rail.Configuration("", "chain is not linked")
	}
	return h, nil
}

// Submit publishes items into the head stage in order. It stops at the first
// error, which is fatal for the submission.
func (c *Chain) Submit(items ...any) error {
	h, err := c.head()
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := h.SubmitAny(item); err != nil {
			return err
		}
	}
	return nil
}

// SubmitParallel publishes items from writers goroutines; item i is written by
// writer i mod writers. Order across writers is not preserved.
func (c *Chain) SubmitParallel(ctx context.Context, writers int, items ...any) error {
	h, err := c.head()
	if err != nil {
		return err
	}
	if writers < 1 {
		writers = 1
	}
	if writers > 1 && h.Producer() == ring.SingleWriter {
		return rail.Configuration(h.Name(), "single writer stage cannot take %d writers", writers)
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < writers; w++ {
		g.Go(func() error {
			for i := w; i < len(items); i += writers {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := h.SubmitAny(items[i]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Shutdown drains and terminates every stage, head first. It returns once the
// tail has terminated.
func (c *Chain) Shutdown() {
	if h := c.Head(); h != nil {
		h.Shutdown()
	}
}

// SubmitAndShutdown submits items, then shuts the chain down. The chain is
// shut down even when a submission fails.
func (c *Chain) SubmitAndShutdown(items ...any) error {
	err := c.Submit(items...)
	c.Shutdown()
	return err
}
