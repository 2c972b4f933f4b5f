package engine

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// Task is one asynchronous unit of work whose completion is a group member.
type Task struct {
	// ID is the member id, unique within the group.
	ID string

	// Run does the work. Its result becomes the signal data.
	Run func(ctx context.Context) (any, error)
}

// FanOut declares every task as a member of group, runs the tasks on at most
// maxConcurrency goroutines, and signals each member when its task
// succeeds. Callbacks attached to group fire on the loop goroutine after the
// last successful signal is applied.
//
// All declarations are enqueued before any task starts, so a fast task can
// never complete the barrier early. A failed task is not signaled and its
// member stays outstanding; FanOut returns the joined task errors.
//
// maxConcurrency < 1 runs every task at once.
func (e *Engine) FanOut(ctx context.Context, group string, maxConcurrency int, tasks ...Task) error {
	for _, t := range tasks {
		if !e.Declare(group, t.ID) {
			return ErrStopped
		}
	}

	if maxConcurrency < 1 {
		maxConcurrency = max(len(tasks), 1)
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(maxConcurrency)
	for _, t := range tasks {
		p.Go(func(ctx context.Context) error {
			data, err := t.Run(ctx)
			if err != nil {
				return fmt.Errorf("task %s/%s: %w", group, t.ID, err)
			}
			if !e.Signal(group, t.ID, data) {
				return fmt.Errorf("task %s/%s: %w", group, t.ID, ErrStopped)
			}
			return nil
		})
	}

	return p.Wait()
}
