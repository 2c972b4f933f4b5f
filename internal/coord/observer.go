package coord

import "time"

// Outcome classifies what a single Trigger call did.
type Outcome string

const (
	// OutcomeUnattached means no callbacks were registered for the group.
	OutcomeUnattached Outcome = "unattached"

	// OutcomeDebounced means the group fired within the debounce window.
	OutcomeDebounced Outcome = "debounced"

	// OutcomePending means the member was recorded but others are outstanding.
	OutcomePending Outcome = "pending"

	// OutcomeFired means the barrier was satisfied and callbacks ran.
	OutcomeFired Outcome = "fired"
)

// Signal describes one Trigger call after it was evaluated.
//
// Seq orders evaluations: it is taken under the coordinator lock from a
// counter shared with Firing, so it reflects the order in which signals were
// decided even when observers are called out of that order.
type Signal struct {
	Seq     int64
	Group   string
	ID      string
	Outcome Outcome
	Data    any
	At      time.Time
}

// Firing describes one satisfied barrier.
type Firing struct {
	Seq       int64 // always the fired signal's Seq + 1
	Group     string
	ID        string // member whose signal completed the barrier
	Callbacks int
	Policy    Policy
	Data      any
	At        time.Time
}

// Observer receives a notification for every Trigger evaluation and every
// fire. Observers are invoked outside the coordinator lock, on the goroutine
// that called Trigger, so concurrent Triggers may notify out of Seq order.
// Fired is called before the callbacks run.
type Observer interface {
	Signaled(Signal)
	Fired(Firing)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnSignal func(Signal)
	OnFire   func(Firing)
}

// Signaled implements Observer.
func (o ObserverFuncs) Signaled(s Signal) {
	if o.OnSignal != nil {
		o.OnSignal(s)
	}
}

// Fired implements Observer.
func (o ObserverFuncs) Fired(f Firing) {
	if o.OnFire != nil {
		o.OnFire(f)
	}
}

// Observers fans notifications out to each non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var out multiObserver
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type multiObserver []Observer

func (m multiObserver) Signaled(s Signal) {
	for _, o := range m {
		o.Signaled(s)
	}
}

func (m multiObserver) Fired(f Firing) {
	for _, o := range m {
		o.Fired(f)
	}
}
