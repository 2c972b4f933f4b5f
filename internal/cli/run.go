package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/joinery/internal/scenario"
	"github.com/roach88/joinery/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Scenario string                `json:"scenario"`
	RunID    string                `json:"run_id,omitempty"`
	Pass     bool                  `json:"pass"`
	Trace    []scenario.TraceEvent `json:"trace"`
	Fired    []string              `json:"fired"`
	Errors   []string              `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario and print its trace",
		Long: `Execute one scenario against a fresh coordinator and print the
step trace.

With --db (or journal.path in the config) every signal and firing is
journaled to that SQLite database for later inspection with "trace".

Exit codes:
  0 - Scenario passed
  1 - An expectation or assertion failed
  2 - Command error (missing file, invalid scenario, database error)

Examples:
  joinery run scenarios/upload.yaml
  joinery run scenarios/upload.yaml --db ./journal.db
  joinery run scenarios/upload.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioCommand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal to this SQLite database")

	return cmd
}

func runScenarioCommand(opts *RunOptions, path string, cmd *cobra.Command) error {
	cfg := opts.effectiveConfig()
	w := cmd.OutOrStdout()

	loaded, err := loadScenarioFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	if !loaded.Valid() {
		if opts.Format == "json" {
			_ = writeJSONError(w, scenario.ErrCodeSchema, "invalid scenario", loaded.Problems)
		} else {
			printProblems(w, path, loaded.Problems)
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid scenario: %s", path))
	}

	runOpts := []scenario.RunOption{
		scenario.WithDefaultDebounce(cfg.Coordinator.Debounce),
		scenario.WithLogger(slog.Default()),
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Journal.Path
	}
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, scenario.WithJournal(st))
		slog.Info("journaling run", "db", dbPath)
	}

	result, err := scenario.Run(loaded.Scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	if opts.Format == "json" {
		out := RunOutput{
			Scenario: loaded.Scenario.Name,
			Pass:     result.Pass,
			Trace:    result.Trace,
			Fired:    result.Fired,
			Errors:   result.Errors,
		}
		if dbPath != "" {
			out.RunID = result.RunID
		}
		if err := writeJSON(w, out, !result.Pass); err != nil {
			return err
		}
	} else {
		printTrace(w, loaded.Scenario.Name, result)
		if dbPath != "" {
			fmt.Fprintf(w, "Run ID: %s\n", result.RunID)
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", loaded.Scenario.Name))
	}
	return nil
}

// printTrace writes the human-readable step trace.
func printTrace(w io.Writer, name string, result *scenario.Result) {
	fmt.Fprintf(w, "Scenario: %s\n\n", name)

	for _, ev := range result.Trace {
		if ev.Op == scenario.OpAdvance {
			fmt.Fprintf(w, "      %-16s t=%dms\n", ev.Op, ev.ElapsedMS)
			continue
		}

		line := fmt.Sprintf("[%3d] %-16s %s", ev.Seq, ev.Op, ev.Group)
		if ev.ID != "" {
			line += " " + ev.ID
		}
		if ev.Result != nil {
			line += fmt.Sprintf(" -> %t", *ev.Result)
		}
		if len(ev.Fired) > 0 {
			line += " fired [" + strings.Join(ev.Fired, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	if result.Pass {
		fmt.Fprintln(w, "PASS")
		return
	}
	fmt.Fprintln(w, "FAIL")
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// printProblems writes validation problems one per line.
func printProblems(w io.Writer, path string, problems []scenario.ValidationError) {
	fmt.Fprintf(w, "✗ %s\n", path)
	for _, p := range problems {
		fmt.Fprintf(w, "  %s\n", p.Error())
	}
}
