package chain

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultMaxSteps bounds how many steps one owner may run between two
// Start calls.
const DefaultMaxSteps = 1000

// quota counts steps per owner and enforces a maximum.
//
// Chains bound under the same owner can complete each other's groups. With
// debounce disabled nothing else stops such a loop, so every step run is
// checked against the owner's quota.
type quota struct {
	mu       sync.Mutex
	maxSteps int // <= 0 disables the check
	current  map[string]int
}

func newQuota(maxSteps int) *quota {
	return &quota{maxSteps: maxSteps, current: make(map[string]int)}
}

// check increments owner's counter and fails once it passes the limit.
func (q *quota) check(owner string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.current[owner]++
	if q.maxSteps > 0 && q.current[owner] > q.maxSteps {
		return &StepsExceededError{Owner: owner, Steps: q.current[owner], Limit: q.maxSteps}
	}
	return nil
}

// reset clears owner's counter.
func (q *quota) reset(owner string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.current, owner)
}

func (q *quota) steps(owner string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current[owner]
}

// StepsExceededError reports an owner that ran more steps than allowed.
// The step that crossed the limit is not run.
type StepsExceededError struct {
	Owner string
	Steps int
	Limit int
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("chain %s exceeded max steps: %d steps > %d limit", e.Owner, e.Steps, e.Limit)
}

// IsStepsExceededError reports whether err is or wraps a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
