package stage

import (
	"context"

	"github.com/ib-77/ringrail/pkg/rail/core"
	"github.com/ib-77/ringrail/pkg/rail/ring"
)

type options struct {
	ctx         context.Context
	handlers    int
	discipline  ring.Discipline
	producer    ring.Producer
	minCapacity int
	settings    core.Settings
}

type Option func(*options)

func newOptions(opts []Option) options {
	o := options{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.handlers < 1 {
		o.handlers = core.GetWorkerMaxCount(o.ctx, 1)
	}
	return o
}

// WithHandlers sets the number of handler goroutines. Without it the worker
// count stored in the stage context is used, or one.
func WithHandlers(n int) Option {
	return func(o *options) { o.handlers = n }
}

func WithDiscipline(d ring.Discipline) Option {
	return func(o *options) { o.discipline = d }
}

func WithProducer(p ring.Producer) Option {
	return func(o *options) { o.producer = p }
}

func WithMinCapacity(c int) Option {
	return func(o *options) { o.minCapacity = c }
}

// WithSettings sets stage specific settings. They take precedence over the
// settings a chain distributes at link time.
func WithSettings(s core.Settings) Option {
	return func(o *options) { o.settings = o.settings.Merge(s) }
}

// WithContext sets the context handed to the processor. Settings stored in it
// with core.WithSettings are used as defaults.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}
