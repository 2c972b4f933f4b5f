package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/joinery/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Group    string // optional - filter to one group
	RunID    string // optional - defaults to the latest run
}

// TraceEvent is one row of the journal timeline.
type TraceEvent struct {
	Seq       int64     `json:"seq"`
	Kind      string    `json:"kind"` // "signal" or "firing"
	Group     string    `json:"group"`
	ID        string    `json:"id"`
	Outcome   string    `json:"outcome,omitempty"`
	Policy    string    `json:"policy,omitempty"`
	Callbacks int       `json:"callbacks,omitempty"`
	Data      string    `json:"data,omitempty"`
	At        time.Time `json:"at"`
}

// TraceResult holds the trace command output.
type TraceResult struct {
	RunID    string            `json:"run_id"`
	Label    string            `json:"label"`
	Timeline []TraceEvent      `json:"timeline"`
	Stats    *store.GroupStats `json:"stats,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journal timeline of a run",
		Long: `Show the signals and firings journaled for one run, merged in
sequence order. Defaults to the most recent run.

With --group, only that group's rows are shown, followed by the group's
statistics across every run in the journal.

Examples:
  joinery trace --db ./journal.db
  joinery trace --db ./journal.db --group upload
  joinery trace --db ./journal.db --run 0190c5a2-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Database == "" {
				opts.Database = opts.effectiveConfig().Journal.Path
			}
			if opts.Database == "" {
				return NewExitError(ExitCommandError, "no journal: pass --db or set journal.path")
			}
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite journal")
	cmd.Flags().StringVar(&opts.Group, "group", "", "filter to one group")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id (default: latest run)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	w := cmd.OutOrStdout()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	run, err := selectRun(ctx, st, opts.RunID)
	if errors.Is(err, store.ErrNoRuns) {
		if opts.Format == "json" {
			return writeJSON(w, TraceResult{Timeline: []TraceEvent{}}, false)
		}
		fmt.Fprintln(w, "No runs in journal.")
		return nil
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find run", err)
	}

	signals, err := st.ReadSignals(ctx, run.ID, opts.Group)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read signals", err)
	}
	firings, err := st.ReadFirings(ctx, run.ID, opts.Group)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read firings", err)
	}

	result := TraceResult{
		RunID:    run.ID,
		Label:    run.Label,
		Timeline: buildTimeline(signals, firings),
	}
	if opts.Group != "" {
		stats, err := st.GroupStats(ctx, opts.Group)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to compute group stats", err)
		}
		result.Stats = &stats
	}

	if opts.Format == "json" {
		return writeJSON(w, result, false)
	}
	printTimeline(w, result)
	return nil
}

// selectRun returns the run with id, or the latest run when id is empty.
func selectRun(ctx context.Context, st *store.Store, id string) (store.Run, error) {
	if id == "" {
		return st.LatestRun(ctx)
	}

	runs, err := st.ReadRuns(ctx)
	if err != nil {
		return store.Run{}, err
	}
	for _, r := range runs {
		if r.ID == id {
			return r, nil
		}
	}
	return store.Run{}, fmt.Errorf("run %q not found", id)
}

// buildTimeline merges signal and firing rows by seq.
func buildTimeline(signals []store.SignalRecord, firings []store.FiringRecord) []TraceEvent {
	timeline := make([]TraceEvent, 0, len(signals)+len(firings))
	si, fi := 0, 0
	for si < len(signals) || fi < len(firings) {
		if fi >= len(firings) || (si < len(signals) && signals[si].Seq < firings[fi].Seq) {
			s := signals[si]
			timeline = append(timeline, TraceEvent{
				Seq: s.Seq, Kind: "signal", Group: s.Group, ID: s.ID,
				Outcome: s.Outcome, Data: s.Data, At: s.At,
			})
			si++
			continue
		}
		f := firings[fi]
		timeline = append(timeline, TraceEvent{
			Seq: f.Seq, Kind: "firing", Group: f.Group, ID: f.MemberID,
			Policy: f.Policy, Callbacks: f.Callbacks, Data: f.Data, At: f.At,
		})
		fi++
	}
	return timeline
}

func printTimeline(w io.Writer, result TraceResult) {
	fmt.Fprintf(w, "Run: %s (%s)\n\n", result.RunID, result.Label)
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No events.")
	}

	for _, ev := range result.Timeline {
		at := ev.At.Format("15:04:05.000")
		switch ev.Kind {
		case "signal":
			fmt.Fprintf(w, "[%3d] %s signal %s/%s %s", ev.Seq, at, ev.Group, ev.ID, ev.Outcome)
		default:
			fmt.Fprintf(w, "[%3d] %s FIRED  %s by %s (%d callbacks, %s)", ev.Seq, at, ev.Group, ev.ID, ev.Callbacks, ev.Policy)
		}
		if ev.Data != "" {
			fmt.Fprintf(w, " %s", ev.Data)
		}
		fmt.Fprintln(w)
	}

	if s := result.Stats; s != nil {
		fmt.Fprintf(w, "\nGroup %s across all runs:\n", s.Group)
		fmt.Fprintf(w, "  signals:    %d\n", s.Signals)
		fmt.Fprintf(w, "  unattached: %d\n", s.Unattached)
		fmt.Fprintf(w, "  debounced:  %d\n", s.Debounced)
		fmt.Fprintf(w, "  pending:    %d\n", s.Pending)
		fmt.Fprintf(w, "  fired:      %d\n", s.Fired)
		if !s.LastFired.IsZero() {
			fmt.Fprintf(w, "  last fired: %s\n", s.LastFired.Format(time.RFC3339Nano))
		}
	}
}
