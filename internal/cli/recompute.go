package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/factoryplan/internal/catalog"
	"github.com/roach88/factoryplan/internal/engine"
	"github.com/roach88/factoryplan/internal/ir"
)

// RecomputeOptions holds flags for the recompute command.
type RecomputeOptions struct {
	*RootOptions
	Output string // write the recomputed plan JSON here
	Strict bool   // fail when imports are pruned
}

// RecomputeResult is the JSON payload of the recompute command.
type RecomputeResult struct {
	Plan     *ir.Plan              `json:"plan"`
	Digest   string                `json:"digest"`
	Pruned   []engine.PrunedImport `json:"pruned,omitempty"`
	Problems []string              `json:"problems,omitempty"` // names of factories with problems
}

// NewRecomputeCommand creates the recompute command.
func NewRecomputeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecomputeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recompute <plan.json>",
		Short: "Recompute a plan and print its report",
		Long: `Load a plan file, run a full recompute against the catalog and print
the per-factory report.

Saved plans are loaded with a cold start unless engine.cold_start_on_load
is disabled: imports that no longer resolve are pruned and listed.

Exit codes:
  0 - Plan recomputed
  1 - Imports pruned with --strict
  2 - Command error (bad catalog, unreadable plan, engine rejection)

Examples:
  factoryplan recompute plan.json
  factoryplan recompute plan.json -o recomputed.json
  factoryplan recompute plan.json --format json --strict`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecompute(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the recomputed plan JSON to this file")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail if imports had to be pruned")

	return cmd
}

func runRecompute(opts *RecomputeOptions, planPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	cat, err := LoadCatalog(cfg.Catalog.Dir)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	plan, err := ReadPlan(planPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d factory(ies) from %s", len(plan.Factories), planPath)

	snap, pruned, err := recomputePlan(cat, plan, cfg.Engine.ColdStartOnLoad)
	if err != nil {
		return reportEngineError(formatter, err)
	}

	if opts.Strict && len(pruned) > 0 {
		return formatter.Fail(ExitFailure, ErrCodePruned, fmt.Sprintf("%d import(s) pruned", len(pruned)), pruned, nil)
	}

	if opts.Output != "" {
		if err := writePlanFile(opts.Output, snap.Plan); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil, err)
		}
		formatter.VerboseLog("Wrote recomputed plan to %s", opts.Output)
	}

	result := RecomputeResult{
		Plan:     snap.Plan,
		Digest:   snap.Digest,
		Pruned:   pruned,
		Problems: problemFactories(snap.Plan),
	}
	if opts.Format == "json" {
		return formatter.SuccessPlan(result, snap.Digest)
	}

	w := formatter.Writer
	writePruned(w, pruned)
	engine.WriteReport(w, snap.Plan)
	fmt.Fprintf(w, "\ndigest %s\n", snap.Digest)
	return nil
}

// recomputePlan publishes plan through a fresh planner. When a cold start
// prunes imports, the pruned list is returned and the cleaned plan is
// published instead.
func recomputePlan(cat *catalog.Catalog, plan *ir.Plan, coldStart bool) (engine.Snapshot, []engine.PrunedImport, error) {
	planner := engine.NewPlanner(cat, engine.WithColdStartOnLoad(coldStart))

	snap, err := planner.Load(plan)
	ve, ok := engine.AsValidationError(err)
	if !ok {
		return snap, nil, err
	}

	for _, line := range ve.Lines {
		slog.Warn("import pruned", "detail", line)
	}
	snap, err = planner.Load(ve.Cleaned)
	return snap, ve.Pruned, err
}

// problemFactories returns the names of factories flagged with a problem,
// in display order.
func problemFactories(plan *ir.Plan) []string {
	var names []string
	for _, f := range plan.Factories {
		if f.HasProblem {
			names = append(names, f.Name)
		}
	}
	return names
}

func writePlanFile(path string, plan *ir.Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}
	return nil
}

// reportLoadError outputs a catalog, plan or store load error and returns
// the matching exit error. Catalog rule violations list every code.
func reportLoadError(formatter *OutputFormatter, err error) error {
	var verrs catalog.ValidationErrors
	if errors.As(err, &verrs) {
		return formatter.Fail(ExitCommandError, verrs[0].Code, "invalid catalog", []catalog.ValidationError(verrs), err)
	}
	return formatter.Fail(ExitCommandError, loadErrorCode(err), loadErrorMessage(err), nil, nil)
}

// reportEngineError outputs an engine rejection.
func reportEngineError(formatter *OutputFormatter, err error) error {
	var ee *engine.EngineError
	if errors.As(err, &ee) {
		return formatter.Fail(ExitCommandError, ErrCodeRecompute, ee.Error(), map[string]any{
			"engine_code": ee.Code,
			"factory_id":  ee.FactoryID,
			"material":    ee.Material,
		}, err)
	}
	return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil, err)
}
