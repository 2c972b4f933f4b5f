// Package engine runs a coordinator from a single owning goroutine.
//
// The coordinator in package coord is safe for concurrent use, but callers
// that want the classic "one coordination context" model (every mutation
// applied in a single, totally ordered stream) submit operations here
// instead of calling the coordinator directly.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Producers on any goroutine call Enqueue (or the Declare/Signal/... helpers).
// Run dequeues operations one at a time in FIFO order and applies them to
// the coordinator. This ensures:
//   - every operation observes the effects of all earlier operations
//   - callbacks fired by a signal run on the loop goroutine
//   - the order in which signals complete barriers is reproducible
//
// Operation Flow:
//  1. Op enqueued to the FIFO queue
//  2. Run dequeues it and stamps it with the next logical seq
//  3. apply() routes it to the coordinator
//  4. The result, if requested, is sent on Op.Reply
//
// Producers:
// FanOut declares one member per task, runs the tasks on a bounded
// goroutine pool, and signals each member as its task succeeds. The group's
// callbacks therefore fire on the loop goroutine once every task finished.
package engine
