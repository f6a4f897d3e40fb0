package engine

import "github.com/roach88/factoryplan/internal/ir"

// detectProblems rolls up already computed state. It must run last.
func detectProblems(plan *ir.Plan) {
	for _, f := range plan.Factories {
		f.UsingRawResourcesOnly = usesRawResourcesOnly(f)

		f.HasProblem = !f.RequirementsSatisfied
		for _, m := range f.Dependencies.Metrics {
			if !m.IsRequestSatisfied {
				f.HasProblem = true
			}
		}
	}
}

// usesRawResourcesOnly reports whether a factory draws on raw resources and
// needs nothing from other factories: no imports, and every internally
// consumed part is either raw or produced in place.
func usesRawResourcesOnly(f *ir.Factory) bool {
	if len(f.Inputs) > 0 || len(f.RawResources) == 0 {
		return false
	}
	for _, m := range f.Parts {
		if m.InternalDemand() <= 0 {
			continue
		}
		if !m.IsRaw && m.AmountSuppliedViaProduction <= 0 {
			return false
		}
	}
	return true
}
