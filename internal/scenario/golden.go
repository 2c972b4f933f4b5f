package scenario

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/joinery/internal/canon"
	"github.com/roach88/joinery/internal/store"
	"github.com/roach88/joinery/internal/testutil"
)

// Snapshot converts a result into the canonical golden form: the step
// trace plus the journal, merged by seq. Timestamps are reported as ms
// since the run started so snapshots are stable.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		m := map[string]any{
			"step": ev.Step,
			"op":   ev.Op,
			"t":    ev.ElapsedMS,
		}
		if ev.Seq != 0 {
			m["seq"] = ev.Seq
		}
		if ev.Group != "" {
			m["group"] = ev.Group
		}
		if ev.ID != "" {
			m["id"] = ev.ID
		}
		if ev.Data != nil {
			data, err := snapshotData(ev.Data)
			if err != nil {
				return nil, fmt.Errorf("step %d data: %w", ev.Step, err)
			}
			m["data"] = data
		}
		if ev.Result != nil {
			m["result"] = *ev.Result
		}
		if ev.Fired != nil {
			m["fired"] = ev.Fired
		}
		trace[i] = m
	}

	journal := journalEvents(result)

	return canon.Marshal(map[string]any{
		"scenario_name": name,
		"trace":         trace,
		"journal":       journal,
		"fired":         result.Fired,
	})
}

// snapshotData returns v when canon can encode it. Anything else (fractional
// floats, structs) is stored as its journal encoding, a JSON string.
func snapshotData(v any) (any, error) {
	if _, err := canon.Marshal(v); err == nil {
		return v, nil
	}
	return store.EncodeData(v)
}

// journalEvents merges signal and firing rows in seq order. Times are ms
// since testutil.Epoch, the scenario clock's start.
func journalEvents(result *Result) []any {
	start := testutil.Epoch.UnixMilli()

	events := make([]any, 0, len(result.Signals)+len(result.Firings))
	si, fi := 0, 0
	for si < len(result.Signals) || fi < len(result.Firings) {
		if fi >= len(result.Firings) || (si < len(result.Signals) && result.Signals[si].Seq < result.Firings[fi].Seq) {
			s := result.Signals[si]
			events = append(events, map[string]any{
				"seq":     s.Seq,
				"kind":    "signal",
				"group":   s.Group,
				"id":      s.ID,
				"outcome": s.Outcome,
				"t":       s.At.UnixMilli() - start,
			})
			si++
			continue
		}
		f := result.Firings[fi]
		events = append(events, map[string]any{
			"seq":       f.Seq,
			"kind":      "firing",
			"group":     f.Group,
			"id":        f.MemberID,
			"callbacks": f.Callbacks,
			"policy":    f.Policy,
			"t":         f.At.UnixMilli() - start,
		})
		fi++
	}
	return events
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
func RunWithGolden(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, s.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
