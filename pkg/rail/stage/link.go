package stage

import (
	"go.uber.org/zap"

	"github.com/ib-77/ringrail/pkg/rail"
	"github.com/ib-77/ringrail/pkg/rail/ring"
)

// LinkTo forwards this stage's outputs to next. next must accept B. Both the
// outgoing link of s and the incoming binding of next can be set only once,
// and next must not lead back to s.
func (s *Stage[A, B]) LinkTo(next Node) error {
	if next == nil {
		return rail.Configuration(s.name, "cannot link to a nil stage")
	}
	inlet, ok := next.(Inlet[B])
	if !ok {
		return rail.Configuration(s.name, "cannot link %s (out %s) to %s (in %s): type mismatch",
			s.name, s.OutType(), next.Name(), next.InType())
	}
	if next.ID() == s.id {
		return rail.Configuration(s.name, "cannot link a stage to itself")
	}
	for n := next.Downstream(); n != nil; n = n.Downstream() {
		if n.ID() == s.id {
			return rail.Configuration(s.name, "linking to %s would close a cycle", next.Name())
		}
	}
	if s.opts.handlers > 1 && next.Producer() == ring.SingleWriter {
		return rail.Configuration(next.Name(),
			"single-writer input cannot be fed by %s with %d handlers", s.name, s.opts.handlers)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if o := s.next.Load(); o != nil {
		return rail.Configuration(s.name, "already linked to %s", o.inlet.Name())
	}
	if err := next.bindIncoming(s); err != nil {
		return err
	}
	s.next.Store(&outlet[B]{inlet: inlet})

	s.log.Debug("stage linked", zap.String("to", next.Name()))
	return nil
}

// Link is LinkTo with the type match checked at compile time.
func Link[A, B, C any](up *Stage[A, B], down *Stage[B, C]) error {
	return up.LinkTo(down)
}
