package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpQueue_EnqueueDequeue(t *testing.T) {
	q := newOpQueue()

	ok := q.Enqueue(Op{Kind: OpSignal, Group: "g", ID: "a"})
	require.True(t, ok, "enqueue should succeed")

	got, ok := q.TryDequeue()
	require.True(t, ok, "dequeue should succeed")
	assert.Equal(t, OpSignal, got.Kind)
	assert.Equal(t, "a", got.ID)
}

func TestOpQueue_FIFO(t *testing.T) {
	q := newOpQueue()

	for _, id := range []string{"A", "B", "C"} {
		q.Enqueue(Op{Kind: OpDeclare, Group: "g", ID: id})
	}

	for _, want := range []string{"A", "B", "C"} {
		op, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, op.ID)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestOpQueue_TryDequeue_Empty(t *testing.T) {
	q := newOpQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestOpQueue_SignalCoalesces(t *testing.T) {
	q := newOpQueue()
	q.Enqueue(Op{Kind: OpSignal, Group: "g"})
	q.Enqueue(Op{Kind: OpSignal, Group: "g"})

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("expected a wakeup")
	}

	select {
	case <-q.Wait():
		t.Fatal("second wakeup should have been coalesced")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestOpQueue_CloseRejectsAndWakes(t *testing.T) {
	q := newOpQueue()
	q.Enqueue(Op{Kind: OpSignal, Group: "g"})
	<-q.Wait()

	q.Close()
	q.Close() // idempotent

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(Op{Kind: OpSignal, Group: "g"}))

	_, open := <-q.Wait()
	assert.False(t, open, "wait channel closed after Close")

	_, ok := q.TryDequeue()
	assert.True(t, ok, "pending ops survive Close")
}

func TestOpQueue_ClearsDequeuedSlot(t *testing.T) {
	q := newOpQueue()
	q.Enqueue(Op{Kind: OpSignal, Group: "g", Data: "payload"})
	q.Enqueue(Op{Kind: OpSignal, Group: "g"})

	backing := q.ops
	_, _ = q.TryDequeue()

	assert.Nil(t, backing[0].Data)
}
