package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/joinery/internal/scenario"
)

// FileValidation is the validation outcome for one file.
type FileValidation struct {
	Path   string                     `json:"path"`
	Valid  bool                       `json:"valid"`
	Errors []scenario.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results for every file.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Validate scenario files without running them",
		Long: `Check scenario files against the scenario schema and for semantic
problems: unknown ops, patterns that do not compile, callback labels that
are never attached. Close misspellings get a suggestion.

Exit codes:
  0 - Every file is valid
  1 - At least one file has problems
  2 - Command error (file not found, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}

	for _, path := range paths {
		loaded, err := loadScenarioFile(path)
		if err != nil {
			var loadErr *LoadError
			if errors.As(err, &loadErr) && opts.Format == "json" {
				_ = writeJSONError(w, loadErr.Code, loadErr.Message, map[string]string{"path": path})
			}
			return WrapExitError(ExitCommandError, "failed to read scenario", err)
		}

		fv := FileValidation{Path: path, Valid: loaded.Valid(), Errors: loaded.Problems}
		result.Files = append(result.Files, fv)
		if !fv.Valid {
			result.Valid = false
		}

		if opts.Format != "json" {
			if fv.Valid {
				fmt.Fprintf(w, "✓ %s\n", path)
			} else {
				printProblems(w, path, fv.Errors)
			}
		}
	}

	if opts.Format == "json" {
		if err := writeJSON(w, result, !result.Valid); err != nil {
			return err
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}
