package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/joinery/internal/coord"
)

// Engine is the single-writer loop around one coordinator.
//
// CRITICAL: All coordinator mutations submitted through the engine happen
// in the Run goroutine. External callers use Enqueue() or the helpers.
//
// Thread-safety model:
//   - Enqueue() and helpers: safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Coordinator(): returns the shared coordinator for read-only queries
type Engine struct {
	coord *coord.Coordinator
	clock *Clock
	queue *opQueue

	// onApplied is called on the loop goroutine after each op.
	onApplied func(Op, bool)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock starts the engine from a pre-configured logical clock.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithAppliedHook registers fn to run after each applied op with the op
// (Seq filled in) and its result. Rejected ops are not reported.
func WithAppliedHook(fn func(Op, bool)) EngineOption {
	return func(e *Engine) {
		e.onApplied = fn
	}
}

// New creates an Engine that owns c.
func New(c *coord.Coordinator, opts ...EngineOption) *Engine {
	e := &Engine{
		coord: c,
		clock: NewClock(),
		queue: newOpQueue(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Coordinator returns the coordinator driven by this engine.
func (e *Engine) Coordinator() *coord.Coordinator {
	return e.coord
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// QueueLen returns the number of operations waiting to be applied.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Enqueue submits op for the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(op Op) bool {
	return e.queue.Enqueue(op)
}

// Declare enqueues AddGroup(group, id).
func (e *Engine) Declare(group, id string) bool {
	return e.Enqueue(Op{Kind: OpDeclare, Group: group, ID: id})
}

// Signal enqueues Trigger(group, id, data).
func (e *Engine) Signal(group, id string, data any) bool {
	return e.Enqueue(Op{Kind: OpSignal, Group: group, ID: id, Data: data})
}

// SignalSimilar enqueues TriggerSimilar(groups, ids, data).
func (e *Engine) SignalSimilar(groups, ids coord.Selector, data any) bool {
	return e.Enqueue(Op{Kind: OpSignalSimilar, Groups: groups, IDs: ids, Data: data})
}

// Attach enqueues Attach(group, cb, policy).
func (e *Engine) Attach(group string, cb coord.Callback, policy coord.Policy) bool {
	return e.Enqueue(Op{Kind: OpAttach, Group: group, Callback: cb, Policy: policy})
}

// Clear enqueues Reset(group).
func (e *Engine) Clear(group string) bool {
	return e.Enqueue(Op{Kind: OpReset, Group: group})
}

// Drop enqueues Detach(group).
func (e *Engine) Drop(group string) bool {
	return e.Enqueue(Op{Kind: OpDetach, Group: group})
}

// Apply enqueues op and waits for its result.
//
// Must not be called from the loop goroutine (a callback), since the loop
// cannot apply op while it is blocked running that callback.
func (e *Engine) Apply(ctx context.Context, op Op) (bool, error) {
	reply := make(chan bool, 1)
	op.Reply = reply

	if !e.Enqueue(op) {
		return false, ErrStopped
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case result := <-reply:
		return result, nil
	}
}

// Run starts the single-writer loop.
// Blocks until ctx is cancelled or Stop() is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// On Stop, ops already queued are still applied before Run returns nil.
// On cancellation, remaining ops are abandoned and ctx.Err() is returned.
// Rejected ops are logged and processing continues.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "seq", e.clock.Current())

	for {
		op, ok := e.queue.TryDequeue()
		if ok {
			if err := e.process(op); err != nil {
				logOpError(op, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled", "pending", e.queue.Len())
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// A closed signal channel fires immediately; exit once drained.
			if e.queue.Closed() && e.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed", "seq", e.clock.Current())
				return nil
			}
		}
	}
}

// Stop closes the queue. Run drains what is already queued and returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

// process validates, stamps and applies one op.
// CRITICAL: Called only from Run() goroutine.
func (e *Engine) process(op Op) error {
	if err := op.validate(); err != nil {
		reply(op, false)
		return err
	}

	op.Seq = e.clock.Next()
	result := e.apply(op)

	slog.Debug("op applied",
		"seq", op.Seq,
		"op", op.Kind.String(),
		"group", op.Group,
		"id", op.ID,
		"result", result,
	)

	reply(op, result)
	if e.onApplied != nil {
		e.onApplied(op, result)
	}
	return nil
}

func (e *Engine) apply(op Op) bool {
	switch op.Kind {
	case OpDeclare:
		e.coord.AddGroup(op.Group, op.ID)
		return true
	case OpSignal:
		return e.coord.Trigger(op.Group, op.ID, op.Data)
	case OpSignalSimilar:
		return e.coord.TriggerSimilar(op.Groups, op.IDs, op.Data)
	case OpAttach:
		return e.coord.Attach(op.Group, op.Callback, op.Policy)
	case OpReset:
		e.coord.Reset(op.Group)
		return true
	case OpDetach:
		return e.coord.Detach(op.Group)
	}
	return false
}

func reply(op Op, result bool) {
	if op.Reply != nil {
		op.Reply <- result
	}
}

// logOpError logs a rejected op with enough context to replay it by hand.
func logOpError(op Op, err error) {
	slog.Error("op rejected",
		"error", err,
		"op", op.Kind.String(),
		"group", op.Group,
		"id", op.ID,
	)
}
