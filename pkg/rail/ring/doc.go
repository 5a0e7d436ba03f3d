// Package ring implements the bounded channel that feeds a pipeline stage.
//
// A Channel owns a fixed, power-of-two ring of reusable slots and a fixed pool
// of handler goroutines. Producers claim a sequence, wait while the ring is
// full and publish by stamping the slot with its sequence. Every handler walks
// every sequence in order; a dispatcher chosen once at attach time decides which
// handler owns a slot:
//
//   - a single handler owns everything;
//   - ExclusiveClaim: the first handler to claim an unclaimed slot runs it;
//   - RoundRobin: handler i runs sequence s when s mod n == i.
//
// A slot is released to producers once every handler has walked past it. Waits
// spin briefly and then park on a condition, so idle channels cost nothing.
//
// Shutdown waits for the pending counter to reach zero, marks the channel done
// and joins the handler goroutines. A done channel rejects publications with
// rail.ErrClosed.
package ring
