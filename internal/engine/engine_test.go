package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/joinery/internal/coord"
	"github.com/roach88/joinery/internal/testutil"
)

func newTestCoordinator() *coord.Coordinator {
	return coord.New(
		coord.WithClock(testutil.NewManualClock(time.Time{})),
		coord.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

// startEngine runs e in the background and stops it at cleanup.
func startEngine(t *testing.T, e *Engine) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	t.Cleanup(func() {
		e.Stop()
		<-done
	})
	return done
}

func TestEngine_New(t *testing.T) {
	c := newTestCoordinator()
	e := New(c)

	assert.Same(t, c, e.Coordinator())
	assert.NotNil(t, e.Clock())
	assert.Equal(t, 0, e.QueueLen())
}

func TestEngine_EnqueueBeforeRun(t *testing.T) {
	e := New(newTestCoordinator())

	assert.True(t, e.Declare("g", "a"))
	assert.True(t, e.Signal("g", "a", nil))
	assert.Equal(t, 2, e.QueueLen())
}

func TestEngine_EnqueueAfterStop(t *testing.T) {
	e := New(newTestCoordinator())
	e.Stop()

	assert.False(t, e.Signal("g", "a", nil))

	_, err := e.Apply(context.Background(), Op{Kind: OpSignal, Group: "g"})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestEngine_StopDrainsQueue(t *testing.T) {
	c := newTestCoordinator()
	e := New(c)
	log := testutil.NewCallLog()

	e.Declare("upload", "file1")
	e.Declare("upload", "file2")
	e.Attach("upload", log.Callback("cb"), coord.Keep)
	e.Signal("upload", "file1", "first")
	e.Signal("upload", "file2", "second")
	e.Stop()

	err := e.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, log.Len())
	assert.Equal(t, "second", log.Calls()[0].Data)
	assert.Equal(t, int64(5), e.Clock().Current())
}

func TestEngine_RunReturnsOnCancel(t *testing.T) {
	e := New(newTestCoordinator())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, e.Signal("g", "a", nil), "queue closed after cancel")
}

func TestEngine_ApplyReturnsTriggerResult(t *testing.T) {
	e := New(newTestCoordinator())
	startEngine(t, e)
	ctx := context.Background()

	e.Declare("g", "a")
	e.Declare("g", "b")
	e.Attach("g", nil, coord.Keep)

	fired, err := e.Apply(ctx, Op{Kind: OpSignal, Group: "g", ID: "a"})
	require.NoError(t, err)
	assert.False(t, fired)

	fired, err = e.Apply(ctx, Op{Kind: OpSignal, Group: "g", ID: "b"})
	require.NoError(t, err)
	assert.True(t, fired)

	removed, err := e.Apply(ctx, Op{Kind: OpDetach, Group: "g"})
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestEngine_ApplyHonorsContext(t *testing.T) {
	e := New(newTestCoordinator()) // never run
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := e.Apply(ctx, Op{Kind: OpSignal, Group: "g"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_SignalSimilar(t *testing.T) {
	c := newTestCoordinator()
	e := New(c)
	log := testutil.NewCallLog()

	for _, g := range []string{"grp_a", "grp_b", "other"} {
		e.Declare(g, "child")
		e.Attach(g, log.Callback(g), coord.Keep)
	}
	e.SignalSimilar(coord.MustPattern("^grp_"), coord.Literal("child"), nil)
	e.Stop()
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, []string{"grp_a", "grp_b"}, log.Labels())
}

func TestEngine_ClearAndDrop(t *testing.T) {
	c := newTestCoordinator()
	e := New(c)

	e.Declare("g", "a")
	e.Declare("h", "a")
	e.Attach("g", nil, coord.Keep)
	e.Signal("g", "a", nil)
	e.Clear("g")
	e.Drop("h")
	e.Stop()
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, map[string]bool{"a": false}, c.Members("g"))
	assert.Nil(t, c.Members("h"))
}

func TestEngine_AppliedHookSeesSeqAndResult(t *testing.T) {
	type applied struct {
		seq    int64
		kind   OpKind
		result bool
	}
	var got []applied

	e := New(newTestCoordinator(), WithAppliedHook(func(op Op, result bool) {
		got = append(got, applied{op.Seq, op.Kind, result})
	}))

	e.Attach("g", nil, coord.Keep)
	e.Signal("g", "a", nil)
	e.Drop("missing")
	e.Stop()
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, []applied{
		{1, OpAttach, true},
		{2, OpSignal, true},
		{3, OpDetach, false},
	}, got)
}

func TestEngine_WithClockResumes(t *testing.T) {
	e := New(newTestCoordinator(), WithClock(NewClockAt(41)))
	e.Signal("g", "a", nil)
	e.Stop()
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, int64(42), e.Clock().Current())
}

func TestEngine_RejectedOpsAreSkipped(t *testing.T) {
	var kinds []OpKind
	e := New(newTestCoordinator(), WithAppliedHook(func(op Op, _ bool) {
		kinds = append(kinds, op.Kind)
	}))

	reply := make(chan bool, 2)
	e.Enqueue(Op{Kind: OpKind(99), Group: "g", Reply: reply})
	e.Enqueue(Op{Kind: 0, Reply: reply})
	e.Declare("g", "a")
	e.Stop()
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, []OpKind{OpDeclare}, kinds)
	assert.False(t, <-reply)
	assert.False(t, <-reply)
	assert.Equal(t, int64(1), e.Clock().Current(), "rejected ops consume no seq")
}

func TestEngine_EmptyGroupNameIsApplied(t *testing.T) {
	c := newTestCoordinator()
	e := New(c)
	startEngine(t, e)
	ctx := context.Background()
	log := testutil.NewCallLog()

	ok, err := e.Apply(ctx, Op{Kind: OpAttach, Group: "", Callback: log.Callback("empty"), Policy: coord.Keep})
	require.NoError(t, err)
	assert.True(t, ok, "attach always succeeds")

	ok, err = e.Apply(ctx, Op{Kind: OpDeclare, Group: "", ID: "a"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Apply(ctx, Op{Kind: OpSignal, Group: "", ID: "a", Data: 1})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"empty"}, log.Labels())

	ok, err = e.Apply(ctx, Op{Kind: OpDetach, Group: ""})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, c.IsAttached(""))
	assert.Equal(t, int64(4), e.Clock().Current())
}

func TestEngine_CallbackCanEnqueue(t *testing.T) {
	c := newTestCoordinator()
	e := New(c)
	log := testutil.NewCallLog()

	e.Attach("second", log.Callback("second"), coord.Keep)
	e.Attach("first", func(data any) {
		log.Record("first", data)
		e.Signal("second", "", data)
	}, coord.Keep)
	e.Signal("first", "", "x")

	done := startEngine(t, e)
	require.Eventually(t, func() bool { return log.Len() == 2 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, []string{"first", "second"}, log.Labels())

	select {
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	default:
	}
}

func TestOpKind_String(t *testing.T) {
	assert.Equal(t, "declare", OpDeclare.String())
	assert.Equal(t, "signal_similar", OpSignalSimilar.String())
	assert.Equal(t, "op(99)", OpKind(99).String())
}

func TestOpError(t *testing.T) {
	err := newOpError(ErrCodeUnknownOp, Op{Kind: OpKind(0)}, "unknown op kind 0")
	assert.Equal(t, "UNKNOWN_OP: unknown op kind 0 (op=op(0))", err.Error())

	err = newOpError(ErrCodeUnknownOp, Op{Kind: OpKind(7), Group: "g"}, "unknown op kind 7")
	assert.Equal(t, "UNKNOWN_OP: unknown op kind 7 (op=op(7), group=g)", err.Error())

	wrapped := errors.Join(errors.New("context"), err)
	assert.True(t, IsOpError(wrapped, ErrCodeUnknownOp))
	assert.False(t, IsOpError(wrapped, OpErrorCode("OTHER")))
	assert.False(t, IsOpError(errors.New("plain"), ErrCodeUnknownOp))
}
