package engine

import "sync/atomic"

// Clock is the monotonic logical clock that orders applied operations.
//
// Every operation the loop applies is stamped with a strictly increasing
// seq. Seq values are what journal rows and traces sort by, so ordering
// never depends on wall-clock resolution.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// The single-writer loop is normally the only caller of Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose first Next() returns start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
