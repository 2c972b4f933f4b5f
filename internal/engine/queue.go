package engine

import (
	"sync"
)

// opQueue is a thread-safe, unbounded FIFO of pending operations.
//
// Unbounded so a callback running on the loop goroutine can enqueue
// follow-up operations without deadlocking against itself.
//
// The signal channel lets Run wait for work and for context cancellation in
// the same select.
type opQueue struct {
	mu     sync.Mutex
	ops    []Op
	closed bool
	signal chan struct{} // buffered, size 1
}

func newOpQueue() *opQueue {
	return &opQueue{
		ops:    make([]Op, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends op. Returns false if the queue is closed.
func (q *opQueue) Enqueue(op Op) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.ops = append(q.ops, op)

	// Non-blocking: the buffer of 1 coalesces bursts into one wakeup.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front op without blocking.
func (q *opQueue) TryDequeue() (Op, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ops) == 0 {
		return Op{}, false
	}

	op := q.ops[0]

	// Clear the slot so Data and Callback can be collected.
	q.ops[0] = Op{}

	if len(q.ops) == 1 {
		q.ops = q.ops[:0]
	} else {
		q.ops = q.ops[1:]
	}

	return op, true
}

// Wait returns a channel that receives when ops may be available.
// It is closed when the queue is closed.
func (q *opQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending ops.
func (q *opQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Closed reports whether Close has been called.
func (q *opQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects further ops and wakes the waiter. Pending ops stay queued
// and are drained by Run before it returns.
func (q *opQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
