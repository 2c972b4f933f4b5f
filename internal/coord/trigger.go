package coord

import (
	"runtime/debug"
)

// Trigger records that member id of group completed and fires the group's
// callbacks if that satisfied the barrier. Returns true only when callbacks
// ran.
//
// The member flag is only recorded when the group has declared members. An
// id that was never declared leaves a dangling flag that blocks nothing.
func (c *Coordinator) Trigger(group, id string, data any) bool {
	c.mu.Lock()
	sig, fire, callbacks := c.evaluateLocked(group, id, data)
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.Signaled(sig)
		if fire != nil {
			c.observer.Fired(*fire)
		}
	}

	if fire == nil {
		return false
	}

	c.logger.Debug("group fired",
		"group", group,
		"id", id,
		"callbacks", len(callbacks),
		"policy", fire.Policy.String(),
	)

	for i, cb := range callbacks {
		c.safeCall(group, i, cb, data)
	}

	return true
}

// evaluateLocked runs the check, flip, re-check and fire decision as one
// critical section. When the barrier is satisfied, the post-fire policy is
// applied before returning so a concurrent Trigger observes the new state.
func (c *Coordinator) evaluateLocked(group, id string, data any) (Signal, *Firing, []Callback) {
	now := c.clock.Now()
	c.seq++
	sig := Signal{Seq: c.seq, Group: group, ID: id, Data: data, At: now}

	e, ok := c.entries[group]
	if !ok {
		sig.Outcome = OutcomeUnattached
		return sig, nil, nil
	}

	if c.debounce > 0 && !e.lastRun.IsZero() && now.Sub(e.lastRun) < c.debounce {
		sig.Outcome = OutcomeDebounced
		return sig, nil, nil
	}

	if members, declared := c.groups[group]; declared {
		members[id] = true
	}

	if c.outstandingLocked(group) {
		sig.Outcome = OutcomePending
		return sig, nil, nil
	}

	callbacks := make([]Callback, len(e.callbacks))
	copy(callbacks, e.callbacks)
	e.lastRun = now

	switch {
	case e.policy.Remove:
		c.detachLocked(group)
	case e.policy.Reset:
		c.resetLocked(group)
	}

	sig.Outcome = OutcomeFired
	c.seq++
	fire := &Firing{
		Seq:       c.seq,
		Group:     group,
		ID:        id,
		Callbacks: len(callbacks),
		Policy:    e.policy,
		Data:      data,
		At:        now,
	}
	return sig, fire, callbacks
}

// safeCall invokes a callback and recovers from panics so one misbehaving
// callback cannot keep the remaining ones from running.
func (c *Coordinator) safeCall(group string, index int, cb Callback, data any) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("callback panicked",
				"group", group,
				"index", index,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(data)
}
