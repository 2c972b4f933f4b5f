package coord

import "time"

// Clock supplies the wall time used for debounce gating.
//
// Production code uses SystemClock. Tests inject testutil.ManualClock so
// debounce behavior is deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
