package store

import "time"

// Run is one recorder session.
type Run struct {
	ID      string
	Label   string
	Started time.Time
}

// SignalRecord is one journaled Trigger evaluation.
type SignalRecord struct {
	RunID   string
	Seq     int64
	Group   string
	ID      string
	Outcome string
	Data    string // JSON, empty when the signal carried no data
	At      time.Time
}

// FiringRecord is one journaled fire.
type FiringRecord struct {
	ID        string
	RunID     string
	Seq       int64
	Group     string
	MemberID  string
	Callbacks int
	Policy    string
	Data      string
	At        time.Time
}

// GroupStats summarizes the journal for one group across all runs.
type GroupStats struct {
	Group      string
	Signals    int
	Unattached int
	Debounced  int
	Pending    int
	Fired      int
	LastFired  time.Time // zero if never fired
}
