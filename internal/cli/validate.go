package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/factoryplan/internal/engine"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                  `json:"valid"`
	Pruned   []engine.PrunedImport `json:"pruned,omitempty"`
	Problems []string              `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan.json>",
		Short: "Check that every import in a plan resolves",
		Long: `Validate a saved plan the way it is checked when reopened.

The plan is recomputed with a cold start. Any import whose supplier is
missing, is the importing factory itself, or does not supply the material
is reported. Factories with unmet requirements are listed but do not fail
validation.

Exit codes:
  0 - Every import resolves
  1 - One or more imports would be pruned
  2 - Command error (bad catalog, unreadable plan, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, planPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cat, err := LoadCatalog(opts.config().Catalog.Dir)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	plan, err := ReadPlan(planPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Validating %d factory(ies) from %s", len(plan.Factories), planPath)

	// Validation always uses a cold start, whatever the load setting.
	snap, pruned, err := recomputePlan(cat, plan, true)
	if err != nil {
		return reportEngineError(formatter, err)
	}

	result := ValidationResult{
		Valid:    len(pruned) == 0,
		Pruned:   pruned,
		Problems: problemFactories(snap.Plan),
	}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ All imports resolve")
	writeProblems(formatter.Writer, result.Problems)
	return nil
}

// outputValidationErrors outputs pruned imports.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d pruned import(s)", len(result.Pruned)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodePruned,
				Message: result.Pruned[0].String(),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return exitErr
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range result.Pruned {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodePruned, p.String())
	}
	writeProblems(formatter.Writer, result.Problems)
	return exitErr
}

func writePruned(w io.Writer, pruned []engine.PrunedImport) {
	if len(pruned) == 0 {
		return
	}
	fmt.Fprintln(w, "pruned:")
	for _, p := range pruned {
		fmt.Fprintf(w, "  %s\n", p.String())
	}
	fmt.Fprintln(w)
}

func writeProblems(w io.Writer, problems []string) {
	for _, name := range problems {
		fmt.Fprintf(w, "  warning: factory %q has unmet requirements\n", name)
	}
}
