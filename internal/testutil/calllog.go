package testutil

import (
	"sync"
)

// Call is one recorded callback invocation.
type Call struct {
	Label string
	Data  any
}

// CallLog records callback invocations in order.
//
// Callbacks built with Callback append to the log, so tests can assert both
// how often and in which order callbacks fired.
type CallLog struct {
	mu    sync.Mutex
	calls []Call
}

// NewCallLog returns an empty log.
func NewCallLog() *CallLog {
	return &CallLog{}
}

// Callback returns a func(any) that records label and its argument.
func (l *CallLog) Callback(label string) func(any) {
	return func(data any) {
		l.Record(label, data)
	}
}

// Record appends a call.
func (l *CallLog) Record(label string, data any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, Call{Label: label, Data: data})
}

// Calls returns a copy of every recorded call.
func (l *CallLog) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Call, len(l.calls))
	copy(out, l.calls)
	return out
}

// Labels returns the recorded labels in call order.
func (l *CallLog) Labels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	for i, c := range l.calls {
		out[i] = c.Label
	}
	return out
}

// Count returns how many times label was recorded.
func (l *CallLog) Count(label string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c.Label == label {
			n++
		}
	}
	return n
}

// Len returns the total number of calls.
func (l *CallLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// Reset clears the log.
func (l *CallLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}
