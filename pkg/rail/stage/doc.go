// Package stage wraps a Processor into a pipeline element with its own ring
// channel and handler pool.
//
// A Stage[A, B] consumes A values, runs its Processor on them and forwards
// every emitted B to the linked downstream stage, or discards it when the
// stage is the tail. Stages are linked once with LinkTo or Link; linking binds
// the downstream stage's input channel. A stage used on its own must be opened
// explicitly with Open before the first Submit.
//
// Shutdown drains the stage, flushes processors that implement Flusher,
// forwards the flushed outputs and then shuts the downstream stage down, so a
// single call on the head of a chain terminates the whole chain.
//
// Lifecycle:
//
//	Unstarted -> Running -> Draining -> DrainingDownstream -> Terminated
//
// There is no way back to Running; a terminated stage rejects submissions with
// rail.ErrClosed.
package stage
