package engine

import (
	"fmt"

	"github.com/roach88/factoryplan/internal/ir"
)

// Validate prunes every import that references a missing factory, or a
// supplier that cannot supply the material, directly on plan. If anything
// was pruned it returns a *ValidationError listing each removal; validating
// the same plan again then succeeds.
//
// The material check needs populated parts. Suppliers that have never been
// recomputed (nil Parts) are only checked for existence.
func Validate(plan *ir.Plan) error {
	if plan == nil {
		return nil
	}
	pruned := validateImports(plan)
	if len(pruned) > 0 {
		return newValidationError(pruned, plan)
	}
	return nil
}

func validateImports(plan *ir.Plan) []PrunedImport {
	var pruned []PrunedImport

	for _, consumer := range plan.Factories {
		kept := consumer.Inputs[:0]
		for _, in := range consumer.Inputs {
			if reason := importProblem(plan, in); reason != "" {
				pruned = append(pruned, PrunedImport{
					FactoryID:   consumer.ID,
					FactoryName: consumer.Name,
					Import:      in,
					Reason:      reason,
				})
				continue
			}
			kept = append(kept, in)
		}
		consumer.Inputs = kept
	}

	return pruned
}

// importProblem describes why an import cannot be honoured, or returns "".
func importProblem(plan *ir.Plan, in ir.Import) string {
	supplier, ok := plan.Factory(in.FactoryID)
	if !ok {
		return "supplying factory does not exist"
	}
	if supplier.Parts == nil {
		return ""
	}
	if !canSupply(supplier, in.Material) {
		return fmt.Sprintf("factory %q does not supply %s", supplier.Name, in.Material)
	}
	return ""
}

// canSupply reports whether a recomputed factory has any source for material.
func canSupply(f *ir.Factory, material string) bool {
	if _, ok := f.Product(material); ok {
		return true
	}
	part, ok := f.Parts[material]
	return ok && part.AmountSupplied > 0
}
