package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/joinery/internal/chain"
	"github.com/roach88/joinery/internal/coord"
	"github.com/roach88/joinery/internal/store"
)

// ChainOptions holds flags for the chain command.
type ChainOptions struct {
	*RootOptions
	Database string
}

// ChainFiring is one fire observed while running chains.
type ChainFiring struct {
	Group     string `json:"group"`
	Owner     string `json:"owner"`
	Callbacks int    `json:"callbacks"`
}

// ChainOutput is the JSON payload of the chain command.
type ChainOutput struct {
	Chains  []string      `json:"chains"`
	Firings []ChainFiring `json:"firings"`
	RunID   string        `json:"run_id,omitempty"`
}

// NewChainCommand creates the chain command.
func NewChainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chain <chains.yaml>",
		Short: "Bind and start action chains",
		Long: `Load chain definitions, bind every chain to one coordinator and start
each of them once. Steps may use the built-in "emit" and "log" actions.
Steps with any other type are reported as undefined and end their chain.

Example chains.yaml:

  chains:
    - owner: save
      steps:
        - key: fetch
          type: emit
          params: {value: 42}
        - key: show
          type: log`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChains(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal to this SQLite database")
	return cmd
}

func runChains(opts *ChainOptions, path string, cmd *cobra.Command) error {
	cfg := opts.effectiveConfig()
	w := cmd.OutOrStdout()

	chains, err := chain.LoadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load chains", err)
	}

	out := ChainOutput{Chains: []string{}, Firings: []ChainFiring{}}
	observers := []coord.Observer{coord.ObserverFuncs{
		OnFire: func(f coord.Firing) {
			out.Firings = append(out.Firings, ChainFiring{Group: f.Group, Owner: f.ID, Callbacks: f.Callbacks})
		},
	}}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Journal.Path
	}
	var rec *store.Recorder
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer st.Close()

		rec, err = store.NewRecorder(cmd.Context(), st, "chain:"+path, coord.SystemClock{}.Now())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start journal", err)
		}
		observers = append(observers, rec)
		out.RunID = rec.RunID()
	}

	c := coord.New(
		coord.WithDebounce(cfg.Coordinator.Debounce),
		coord.WithObserver(coord.Observers(observers...)),
		coord.WithLogger(slog.Default()),
	)
	m := chain.NewManager(c)

	for _, ch := range chains {
		if err := m.Bind(ch); err != nil {
			return WrapExitError(ExitCommandError, "failed to bind chain", err)
		}
		out.Chains = append(out.Chains, ch.Owner)
	}
	for _, ch := range chains {
		if err := m.Start(ch, nil); err != nil {
			return WrapExitError(ExitCommandError, "failed to start chain", err)
		}
	}

	if rec != nil {
		if err := rec.Err(); err != nil {
			return WrapExitError(ExitCommandError, "journal write failed", err)
		}
	}

	if opts.Format == "json" {
		return writeJSON(w, out, false)
	}
	for _, f := range out.Firings {
		fmt.Fprintf(w, "fired %s (owner %s, %d callbacks)\n", f.Group, f.Owner, f.Callbacks)
	}
	fmt.Fprintf(w, "%d chain(s), %d firing(s)\n", len(out.Chains), len(out.Firings))
	if out.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", out.RunID)
	}
	return nil
}
