package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/joinery/internal/config"
	"github.com/roach88/joinery/internal/logging"
)

// RootOptions holds global flags and the configuration they produce.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Set by the root command before any subcommand runs.
	Config *config.Config
	Viper  *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the joinery CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "joinery",
		Short: "joinery - wait for every member, then fire",
		Long: `joinery coordinates groups of completion signals.

Callbacks attached to a group run once every declared member of the group
has signaled. Scenarios describe coordinator sessions in YAML and can be
run, tested against golden traces, and journaled to SQLite.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/joinery/config.yaml)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewChainCommand(opts))

	return cmd
}

// setup validates global flags, loads configuration and installs the
// process logger on stderr.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	v, err := config.New(o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	level := cfg.Logging.Level
	if o.Verbose {
		level = "debug"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid logging config", err)
	}
	slog.SetDefault(logger)

	o.Config = cfg
	o.Viper = v
	return nil
}

// effectiveConfig returns the loaded configuration, or defaults when a command is
// executed directly in tests without the root command.
func (o *RootOptions) effectiveConfig() *config.Config {
	if o.Config == nil {
		return config.Default()
	}
	return o.Config
}
