package coord

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultDebounce is the minimum time between two fires of the same group.
// Signals arriving sooner are dropped without marking any member.
const DefaultDebounce = 500 * time.Millisecond

// Callback runs when a group's barrier is satisfied. It receives the data
// passed to the Trigger call that completed the barrier.
type Callback func(data any)

// Policy controls what happens to a group after its callbacks fire.
// Remove takes precedence over Reset.
type Policy struct {
	// Remove drops the registration and the group after the first fire.
	Remove bool

	// Reset clears every member flag after a fire so the barrier can be
	// satisfied again.
	Reset bool
}

// Keep, ResetAfterFire and RemoveAfterFire are the three effective policies.
var (
	Keep            = Policy{}
	ResetAfterFire  = Policy{Reset: true}
	RemoveAfterFire = Policy{Remove: true}
)

// String returns "remove", "reset" or "keep".
func (p Policy) String() string {
	switch {
	case p.Remove:
		return "remove"
	case p.Reset:
		return "reset"
	default:
		return "keep"
	}
}

// entry is the callback registration for one group name.
type entry struct {
	callbacks []Callback
	policy    Policy
	lastRun   time.Time // zero until the first fire
}

// Coordinator tracks group membership and dispatches callbacks once every
// declared member of a group has signaled.
//
// INVARIANTS:
//   - groups[g] exists only after AddGroup(g, ...) and until Detach/remove
//   - entries[g].policy is fixed by the first Attach for g
//   - callbacks of one entry keep registration order
type Coordinator struct {
	mu       sync.Mutex
	groups   map[string]map[string]bool
	entries  map[string]*entry
	clock    Clock
	debounce time.Duration
	observer Observer
	logger   *slog.Logger
	seq      int64 // last Signal/Firing seq handed out
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce sets the debounce window. Zero or negative disables gating.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) {
		c.debounce = d
	}
}

// WithClock injects the clock used for debounce gating.
func WithClock(clock Clock) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithObserver registers an observer for signals and fires.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		groups:   make(map[string]map[string]bool),
		entries:  make(map[string]*entry),
		clock:    SystemClock{},
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Debounce returns the configured debounce window.
func (c *Coordinator) Debounce() time.Duration {
	return c.debounce
}

// AddGroup declares id as a member of group with its flag cleared.
// Creates the group if needed. Re-adding an id re-arms only that member.
func (c *Coordinator) AddGroup(group, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	members, ok := c.groups[group]
	if !ok {
		members = make(map[string]bool)
		c.groups[group] = members
	}
	members[id] = false
}

// Reset clears every member flag of group. No-op if the group is absent.
// The callback registration is not touched.
func (c *Coordinator) Reset(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked(group)
}

func (c *Coordinator) resetLocked(group string) {
	for id := range c.groups[group] {
		c.groups[group][id] = false
	}
}

// HasOutstanding reports whether group still waits on at least one declared
// member. An absent group has no members and is never outstanding.
func (c *Coordinator) HasOutstanding(group string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.outstandingLocked(group)
}

func (c *Coordinator) outstandingLocked(group string) bool {
	for _, done := range c.groups[group] {
		if !done {
			return true
		}
	}
	return false
}

// Attach appends callback to group's registration, creating the registration
// with policy on first use. Later calls keep the original policy.
// Always returns true.
func (c *Coordinator) Attach(group string, callback Callback, policy Policy) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[group]
	if !ok {
		e = &entry{policy: policy}
		c.entries[group] = e
	}
	if callback != nil {
		e.callbacks = append(e.callbacks, callback)
	}

	return true
}

// IsAttached reports whether group has a callback registration.
func (c *Coordinator) IsAttached(group string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[group]
	return ok
}

// Detach removes group's registration and membership state.
// Returns true if either existed. Running callbacks are not interrupted.
func (c *Coordinator) Detach(group string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.detachLocked(group)
}

func (c *Coordinator) detachLocked(group string) bool {
	_, hadEntry := c.entries[group]
	_, hadGroup := c.groups[group]

	delete(c.entries, group)
	delete(c.groups, group)

	return hadEntry || hadGroup
}

// Count returns the number of groups with a callback registration.
func (c *Coordinator) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Groups returns every known group name, declared or attached, sorted.
func (c *Coordinator) Groups() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.groupNamesLocked()
}

func (c *Coordinator) groupNamesLocked() []string {
	names := make([]string, 0, len(c.groups)+len(c.entries))
	for name := range c.groups {
		names = append(names, name)
	}
	for name := range c.entries {
		if _, dup := c.groups[name]; !dup {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Members returns a copy of group's member flags, or nil if absent.
func (c *Coordinator) Members(group string) map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	members, ok := c.groups[group]
	if !ok {
		return nil
	}

	out := make(map[string]bool, len(members))
	for id, done := range members {
		out[id] = done
	}
	return out
}

func (c *Coordinator) memberIDsLocked(group string) []string {
	ids := make([]string, 0, len(c.groups[group]))
	for id := range c.groups[group] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
