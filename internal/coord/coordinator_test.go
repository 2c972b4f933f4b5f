package coord

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/joinery/internal/testutil"
)

// newTestCoordinator returns a coordinator on a manual clock with a silent logger.
func newTestCoordinator(t *testing.T, opts ...Option) (*Coordinator, *testutil.ManualClock) {
	t.Helper()
	clock := testutil.NewManualClock(time.Time{})
	base := []Option{
		WithClock(clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(append(base, opts...)...), clock
}

func TestNew_Defaults(t *testing.T) {
	c := New()

	assert.Equal(t, DefaultDebounce, c.Debounce())
	assert.Equal(t, 0, c.Count())
	assert.Empty(t, c.Groups())
}

func TestWithDebounce(t *testing.T) {
	c := New(WithDebounce(2 * time.Second))
	assert.Equal(t, 2*time.Second, c.Debounce())
}

func TestAddGroup_DeclaresMemberPending(t *testing.T) {
	c, _ := newTestCoordinator(t)

	c.AddGroup("upload", "file1")

	assert.True(t, c.HasOutstanding("upload"))
	assert.Equal(t, map[string]bool{"file1": false}, c.Members("upload"))
}

func TestAddGroup_ReAddRearmsOnlyThatMember(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.AddGroup("g", "a")
	c.AddGroup("g", "b")
	c.Trigger("g", "a", nil) // no registration, nothing marked

	c.Attach("g", nil, Keep)
	c.Trigger("g", "a", nil)
	c.Trigger("g", "b", nil)
	require.False(t, c.HasOutstanding("g"))

	c.AddGroup("g", "a")

	assert.Equal(t, map[string]bool{"a": false, "b": true}, c.Members("g"))
	assert.True(t, c.HasOutstanding("g"))
}

func TestHasOutstanding_AbsentGroup(t *testing.T) {
	c, _ := newTestCoordinator(t)
	assert.False(t, c.HasOutstanding("missing"))
}

func TestReset_ClearsFlags(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.AddGroup("g", "a")
	c.AddGroup("g", "b")
	c.Attach("g", nil, Keep)
	c.Trigger("g", "a", nil)

	c.Reset("g")

	assert.Equal(t, map[string]bool{"a": false, "b": false}, c.Members("g"))
	assert.True(t, c.IsAttached("g"), "reset must not touch the registration")
}

func TestReset_AbsentGroupIsNoop(t *testing.T) {
	c, _ := newTestCoordinator(t)

	c.Reset("missing")

	assert.Nil(t, c.Members("missing"))
	assert.Empty(t, c.Groups())
}

func TestAttach_AlwaysTrue(t *testing.T) {
	c, _ := newTestCoordinator(t)

	assert.True(t, c.Attach("g", func(any) {}, Keep))
	assert.True(t, c.Attach("g", func(any) {}, RemoveAfterFire))
	assert.True(t, c.IsAttached("g"))
	assert.Equal(t, 1, c.Count())
}

func TestAttach_FirstPolicyWins(t *testing.T) {
	c, _ := newTestCoordinator(t)
	log := testutil.NewCallLog()

	c.Attach("g", log.Callback("cb1"), Keep)
	c.Attach("g", log.Callback("cb2"), RemoveAfterFire)

	require.True(t, c.Trigger("g", "m", nil))
	assert.True(t, c.IsAttached("g"), "later remove policy must be ignored")
	assert.Equal(t, []string{"cb1", "cb2"}, log.Labels())
}

func TestCount_DistinctRegistrations(t *testing.T) {
	c, _ := newTestCoordinator(t)

	c.Attach("a", func(any) {}, Keep)
	c.Attach("a", func(any) {}, Keep)
	c.Attach("b", func(any) {}, Keep)
	c.AddGroup("c", "m") // membership only

	assert.Equal(t, 2, c.Count())
}

func TestDetach(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(c *Coordinator)
		expect bool
	}{
		{
			name:   "nothing to remove",
			setup:  func(c *Coordinator) {},
			expect: false,
		},
		{
			name:   "registration only",
			setup:  func(c *Coordinator) { c.Attach("g", nil, Keep) },
			expect: true,
		},
		{
			name:   "membership only",
			setup:  func(c *Coordinator) { c.AddGroup("g", "m") },
			expect: true,
		},
		{
			name: "both",
			setup: func(c *Coordinator) {
				c.AddGroup("g", "m")
				c.Attach("g", nil, Keep)
			},
			expect: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCoordinator(t)
			tt.setup(c)

			assert.Equal(t, tt.expect, c.Detach("g"))
			assert.False(t, c.IsAttached("g"))
			assert.Nil(t, c.Members("g"))
			assert.False(t, c.Detach("g"), "second detach removes nothing")
		})
	}
}

func TestGroups_SortedUnion(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.AddGroup("zeta", "m")
	c.Attach("alpha", nil, Keep)
	c.AddGroup("mid", "m")
	c.Attach("mid", nil, Keep)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, c.Groups())
}

func TestMembers_ReturnsCopy(t *testing.T) {
	c, _ := newTestCoordinator(t)
	c.AddGroup("g", "a")

	members := c.Members("g")
	members["a"] = true
	members["b"] = true

	assert.Equal(t, map[string]bool{"a": false}, c.Members("g"))
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "keep", Keep.String())
	assert.Equal(t, "reset", ResetAfterFire.String())
	assert.Equal(t, "remove", RemoveAfterFire.String())
	assert.Equal(t, "remove", Policy{Remove: true, Reset: true}.String())
}
