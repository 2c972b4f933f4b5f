package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"time"

	"github.com/roach88/joinery/internal/coord"
	"github.com/roach88/joinery/internal/engine"
	"github.com/roach88/joinery/internal/store"
	"github.com/roach88/joinery/internal/testutil"
)

// runner holds the per-run state. Every scenario gets a fresh coordinator,
// engine, clock and in-memory journal.
type runner struct {
	coord  *coord.Coordinator
	engine *engine.Engine
	clock  *testutil.ManualClock
	calls  *testutil.CallLog
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	journal  *store.Store
	debounce time.Duration
	logger   *slog.Logger
}

// WithJournal records the run into st instead of a private in-memory
// store. Run and firing ids are then UUIDv7 so repeated runs of the same
// scenario do not collide.
func WithJournal(st *store.Store) RunOption {
	return func(c *runConfig) {
		c.journal = st
	}
}

// WithDefaultDebounce sets the debounce used when the scenario has none.
func WithDefaultDebounce(d time.Duration) RunOption {
	return func(c *runConfig) {
		c.debounce = d
	}
}

// WithLogger sets the logger handed to the coordinator and journal.
// Runs are silent by default.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Run executes a scenario and returns the result.
//
// Steps are applied through an engine loop in order. The coordinator runs
// on a ManualClock starting at testutil.Epoch, so debounce only elapses
// through advance steps. Activity is journaled (to an in-memory store
// unless WithJournal is given) and returned with the result.
//
// A returned error means the scenario could not be run at all. Failed
// expectations and assertions are reported in Result.Errors.
func Run(s *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{
		debounce: coord.DefaultDebounce,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if errs := Validate(s); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, fmt.Errorf("invalid scenario %q: %w", s.Name, errors.Join(joined...))
	}

	debounce := cfg.debounce
	if s.Debounce != "" {
		d, err := parseDuration(s.Debounce)
		if err != nil {
			return nil, err
		}
		debounce = d
	}

	ctx := context.Background()
	clock := testutil.NewManualClock(testutil.Epoch)

	st := cfg.journal
	recOpts := []store.RecorderOption{store.WithRecorderLogger(cfg.logger)}
	if st == nil {
		var err error
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		recOpts = append(recOpts,
			store.WithRunID(s.Name),
			store.WithIDGenerator(testutil.NewSequenceGenerator("firing")),
		)
	}

	rec, err := store.NewRecorder(ctx, st, s.Name, clock.Now(), recOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start journal: %w", err)
	}

	c := coord.New(
		coord.WithClock(clock),
		coord.WithDebounce(debounce),
		coord.WithObserver(rec),
		coord.WithLogger(cfg.logger),
	)
	r := &runner{
		coord:  c,
		engine: engine.New(c),
		clock:  clock,
		calls:  testutil.NewCallLog(),
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- r.engine.Run(loopCtx)
	}()

	result := NewResult()
	var stepErr error
	for i, step := range s.Steps {
		if stepErr = r.execStep(ctx, i, step, result); stepErr != nil {
			break
		}
	}

	r.engine.Stop()
	if err := <-loopDone; err != nil {
		return nil, fmt.Errorf("engine loop: %w", err)
	}
	if stepErr != nil {
		return nil, stepErr
	}

	for _, msg := range EvaluateAssertions(c, r.calls, s.Assertions) {
		result.AddError(msg)
	}
	result.Fired = r.calls.Labels()
	result.RunID = rec.RunID()

	if err := rec.Err(); err != nil {
		return nil, fmt.Errorf("journal write failed: %w", err)
	}
	if result.Signals, err = st.ReadSignals(ctx, rec.RunID(), ""); err != nil {
		return nil, err
	}
	if result.Firings, err = st.ReadFirings(ctx, rec.RunID(), ""); err != nil {
		return nil, err
	}

	return result, nil
}

// execStep applies one step and checks its expectation.
func (r *runner) execStep(ctx context.Context, i int, step Step, result *Result) error {
	ev := TraceEvent{Step: i, Op: step.Op, Group: step.Group, ID: step.ID, Data: step.Data}

	if step.Op == OpAdvance {
		d, err := parseDuration(step.Duration)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		r.clock.Advance(d)
		ev.ElapsedMS = r.clock.Elapsed().Milliseconds()
		result.Trace = append(result.Trace, ev)
		return nil
	}

	op, err := r.toOp(step)
	if err != nil {
		return fmt.Errorf("step %d: %w", i, err)
	}
	if step.Op == OpTriggerSimilar {
		ev.Group = op.Groups.String()
		ev.ID = op.IDs.String()
	}

	before := r.calls.Len()
	ok, err := r.engine.Apply(ctx, op)
	if err != nil {
		return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
	}

	// The loop stamps seq before applying, so Current is this op's seq.
	ev.Seq = r.engine.Clock().Current()
	ev.ElapsedMS = r.clock.Elapsed().Milliseconds()

	switch step.Op {
	case OpAttach, OpDetach, OpTrigger, OpTriggerSimilar:
		ev.Result = &ok
	}
	var fired []string
	if step.Op == OpTrigger || step.Op == OpTriggerSimilar {
		fired = r.calls.Labels()[before:]
		ev.Fired = fired
	}
	result.Trace = append(result.Trace, ev)

	if step.Expect == nil {
		return nil
	}
	if want := step.Expect.Result; want != nil && *want != ok {
		result.AddError(fmt.Sprintf("step %d (%s %s): result = %t, want %t", i, step.Op, ev.Group, ok, *want))
	}
	if want := step.Expect.Fired; want != nil {
		if fired == nil {
			fired = []string{}
		}
		if !slices.Equal(fired, want) {
			result.AddError(fmt.Sprintf("step %d (%s %s): fired %v, want %v", i, step.Op, ev.Group, fired, want))
		}
	}
	return nil
}

// toOp converts a step into an engine op.
func (r *runner) toOp(step Step) (engine.Op, error) {
	switch step.Op {
	case OpAddGroup:
		return engine.Op{Kind: engine.OpDeclare, Group: step.Group, ID: step.ID}, nil
	case OpAttach:
		return engine.Op{
			Kind:     engine.OpAttach,
			Group:    step.Group,
			Callback: r.calls.Callback(step.Callback),
			Policy:   coord.Policy{Remove: step.Remove, Reset: step.Reset},
		}, nil
	case OpDetach:
		return engine.Op{Kind: engine.OpDetach, Group: step.Group}, nil
	case OpReset:
		return engine.Op{Kind: engine.OpReset, Group: step.Group}, nil
	case OpTrigger:
		return engine.Op{Kind: engine.OpSignal, Group: step.Group, ID: step.ID, Data: step.Data}, nil
	case OpTriggerSimilar:
		groups, err := selector(step.Group, step.GroupPattern)
		if err != nil {
			return engine.Op{}, err
		}
		ids, err := selector(step.ID, step.IDPattern)
		if err != nil {
			return engine.Op{}, err
		}
		return engine.Op{Kind: engine.OpSignalSimilar, Groups: groups, IDs: ids, Data: step.Data}, nil
	}
	return engine.Op{}, fmt.Errorf("unknown op %q", step.Op)
}

func selector(literal, pattern string) (coord.Selector, error) {
	if pattern == "" {
		return coord.Literal(literal), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return coord.Selector{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return coord.Pattern(re), nil
}
