package engine

import (
	"log/slog"

	"github.com/roach88/factoryplan/internal/catalog"
	"github.com/roach88/factoryplan/internal/ir"
)

// Mode selects how Recompute treats the incoming plan.
type Mode int

const (
	// ModeNormal runs the pipeline once. Used after every user mutation.
	ModeNormal Mode = iota

	// ModeColdStart is used for previously saved, unvalidated plans. The
	// pipeline runs once to populate parts, imports are validated against
	// what each supplier can supply, and the pipeline runs again.
	ModeColdStart
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeColdStart:
		return "cold-start"
	default:
		return "unknown"
	}
}

// Recompute rebuilds every derived field of plan against cat and returns
// the result as a new plan. The input plan is never modified.
//
// A hard error (*EngineError) returns no plan. If imports had to be pruned
// the returned error is a *ValidationError whose Cleaned field holds the
// fully recomputed, pruned plan.
func Recompute(plan *ir.Plan, cat *catalog.Catalog, mode Mode) (*ir.Plan, error) {
	if cat == nil {
		return nil, newError(ErrCodeNoCatalog, 0, "", "recompute requires a catalog")
	}

	work := plan.Clone()
	if work == nil {
		work = &ir.Plan{}
	}
	if err := checkStructure(work); err != nil {
		return nil, err
	}

	var pruned []PrunedImport
	if mode == ModeColdStart {
		pruned = append(pruned, runPipeline(work, cat)...)
		pruned = append(pruned, validateImports(work)...)
	}
	pruned = append(pruned, runPipeline(work, cat)...)

	slog.Debug("recompute complete",
		"mode", mode.String(),
		"factories", len(work.Factories),
		"pruned", len(pruned))

	if len(pruned) > 0 {
		return nil, newValidationError(pruned, work)
	}
	return work, nil
}

// runPipeline executes one full pass over the factory set.
func runPipeline(plan *ir.Plan, cat *catalog.Catalog) []PrunedImport {
	for _, f := range plan.Factories {
		clearDerived(f)
	}
	for _, f := range plan.Factories {
		expandProducts(f, cat)
		balancePower(f, cat)
		computeBuildings(f, cat)
	}

	pruned := buildDependencies(plan)

	for _, f := range plan.Factories {
		aggregateParts(f, cat)
		deriveExports(f)
	}

	computeDependencyMetrics(plan)
	detectProblems(plan)

	return pruned
}

// clearDerived resets every field the pipeline owns and zeroes non-finite
// user amounts, which would otherwise break the plan digest.
func clearDerived(f *ir.Factory) {
	f.Parts = make(map[string]*ir.PartMetrics)
	f.RawResources = make(map[string]ir.RawResource)
	f.ByProducts = nil
	f.BuildingRequirements = make(map[string]ir.BuildingRequirement)
	f.Dependencies = ir.Dependencies{
		Requests: make(map[int][]ir.DependencyRequest),
		Metrics:  make(map[string]*ir.DependencyMetric),
	}
	f.Exports = nil
	f.Power = ir.PowerSummary{}
	f.RequirementsSatisfied = false
	f.UsingRawResourcesOnly = false
	f.HasProblem = false

	for _, p := range f.Products {
		p.Amount = finite(p.Amount)
		p.Requirements = nil
		p.ByProducts = nil
	}
	for i := range f.Inputs {
		f.Inputs[i].Amount = finite(f.Inputs[i].Amount)
	}
	for _, pp := range f.PowerProducers {
		pp.PowerAmount = finite(pp.PowerAmount)
		pp.IngredientAmount = finite(pp.IngredientAmount)
		pp.BuildingAmount = finite(pp.BuildingAmount)
		pp.Ingredients = nil
		pp.ByProduct = nil
	}
}
