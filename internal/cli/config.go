package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print every setting after defaults, the config file and JOINERY_*
environment variables have been applied.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(rootOpts, cmd)
		},
	}
	return cmd
}

func runConfig(opts *RootOptions, cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	cfg := opts.effectiveConfig()

	settings := map[string]any{
		"coordinator.debounce": cfg.Coordinator.Debounce.String(),
		"logging.level":        cfg.Logging.Level,
		"logging.format":       cfg.Logging.Format,
		"journal.path":         cfg.Journal.Path,
		"scenarios.dir":        cfg.Scenarios.Dir,
	}

	source := ""
	if opts.Viper != nil {
		source = opts.Viper.ConfigFileUsed()
	}

	if opts.Format == "json" {
		return writeJSON(w, map[string]any{"file": source, "settings": settings}, false)
	}

	if source != "" {
		fmt.Fprintf(w, "# config file: %s\n", source)
	} else {
		fmt.Fprintln(w, "# no config file; defaults and environment only")
	}
	for _, key := range slices.Sorted(maps.Keys(settings)) {
		value := fmt.Sprint(settings[key])
		if value == "" {
			value = `""`
		}
		fmt.Fprintf(w, "%s = %s\n", key, strings.TrimSpace(value))
	}
	return nil
}
