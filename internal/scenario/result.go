package scenario

import (
	"github.com/roach88/joinery/internal/store"
)

// TraceEvent is what one step did.
type TraceEvent struct {
	Step  int    `json:"step"`
	Op    string `json:"op"`
	Seq   int64  `json:"seq,omitempty"` // engine seq; 0 for advance
	Group string `json:"group,omitempty"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`

	// Result is set for ops whose return value carries meaning
	// (attach, detach, trigger, trigger_similar).
	Result *bool `json:"result,omitempty"`

	// Fired lists the callback labels run by a trigger step, in order.
	Fired []string `json:"fired,omitempty"`

	// ElapsedMS is the scenario clock after the step, in ms since start.
	ElapsedMS int64 `json:"t"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Fired is the full callback log, in call order.
	Fired []string `json:"fired"`

	// RunID identifies the run in the journal.
	RunID string `json:"run_id"`

	// Signals and Firings are the journal rows written during the run.
	Signals []store.SignalRecord `json:"-"`
	Firings []store.FiringRecord `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Fired:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
