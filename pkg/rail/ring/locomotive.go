package ring

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ib-77/ringrail/pkg/rail"
)

// locomotive walks every sequence in order on behalf of one worker until the
// channel is done and drained.
func (c *Channel[T]) locomotive(w *worker[T]) {
	defer c.wg.Done()

	for next := int64(0); ; next++ {
		sl := &c.slots[next&c.mask]
		if sl.seq.Load() != next {
			c.notEmpty.await(func() bool {
				return sl.seq.Load() == next || c.exhausted()
			})
			if sl.seq.Load() != next {
				return
			}
		}

		c.observe(w, sl, next)

		// releases the slot; it must not be touched after this point
		w.cursor.Store(next)
		c.notFull.wake()
	}
}

// observe runs the slot on w if w owns it. Owners settle the slot exactly once,
// whether the handler succeeded, failed or panicked.
func (c *Channel[T]) observe(w *worker[T], sl *slot[T], seq int64) {
	if !w.dispatch.owns(&sl.claim, seq) {
		return
	}

	item := sl.value
	start := time.Now()
	if err := c.guard(w, item, seq); err != nil {
		c.settings.Observer.Failed(c.cfg.Name, w.index, err)
		logf := c.log.Warn
		if rail.IsCancellationError(err) {
			logf = c.log.Debug
		}
		logf("item processing failed",
			zap.Int64("seq", seq),
			zap.Int("handler", w.index),
			zap.Error(err))
	} else {
		c.settings.Observer.Processed(c.cfg.Name, w.index, time.Since(start))
	}

	c.settings.ReportProgress(c.cfg.Name, c.processed.Add(1))
	c.itemDone()
}

func (c *Channel[T]) guard(w *worker[T], item T, seq int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rail.Processing(c.cfg.Name, item, fmt.Errorf("panic: %v", r))
		}
	}()

	if err = w.handler.Handle(c.ctx, item, seq); err != nil && !errors.Is(err, rail.ErrProcessing) {
		err = rail.Processing(c.cfg.Name, item, err)
	}
	return err
}
