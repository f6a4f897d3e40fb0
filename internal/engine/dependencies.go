package engine

import (
	"sort"

	"github.com/roach88/factoryplan/internal/ir"
)

// checkStructure rejects plans that no pass can recover from: duplicate
// factory ids, self imports and duplicate imports.
func checkStructure(plan *ir.Plan) error {
	ids := make(map[int]bool, len(plan.Factories))
	for _, f := range plan.Factories {
		if ids[f.ID] {
			return newError(ErrCodeDuplicateFactory, f.ID, "", "factory id %d used more than once", f.ID)
		}
		ids[f.ID] = true
	}

	for _, f := range plan.Factories {
		seen := make(map[ir.Import]bool, len(f.Inputs))
		for _, in := range f.Inputs {
			if in.FactoryID == f.ID {
				return newError(ErrCodeSelfImport, f.ID, in.Material, "factory %q imports from itself", f.Name)
			}
			key := ir.Import{FactoryID: in.FactoryID, Material: in.Material}
			if seen[key] {
				return newError(ErrCodeDuplicateImport, f.ID, in.Material,
					"factory %q imports %s from factory %d more than once", f.Name, in.Material, in.FactoryID)
			}
			seen[key] = true
		}
	}
	return nil
}

// buildDependencies tears down and rebuilds the request graph. Each import on
// a consumer becomes a request on its supplier. Imports whose supplier does
// not exist are removed from the consumer and returned.
//
// Request totals are seeded into the supplier's metrics here; supply is
// filled in by computeDependencyMetrics once parts have settled.
func buildDependencies(plan *ir.Plan) []PrunedImport {
	var pruned []PrunedImport

	for _, consumer := range plan.Factories {
		kept := consumer.Inputs[:0]
		for _, in := range consumer.Inputs {
			supplier, ok := plan.Factory(in.FactoryID)
			if !ok {
				pruned = append(pruned, PrunedImport{
					FactoryID:   consumer.ID,
					FactoryName: consumer.Name,
					Import:      in,
					Reason:      "supplying factory does not exist",
				})
				continue
			}
			kept = append(kept, in)
			supplier.Dependencies.Requests[consumer.ID] = append(
				supplier.Dependencies.Requests[consumer.ID],
				ir.DependencyRequest{Material: in.Material, Amount: clamp(in.Amount)},
			)
		}
		consumer.Inputs = kept
	}

	for _, supplier := range plan.Factories {
		for _, req := range sortedRequests(supplier) {
			m := supplier.Dependencies.Metrics[req.Material]
			if m == nil {
				m = &ir.DependencyMetric{Material: req.Material}
				supplier.Dependencies.Metrics[req.Material] = m
			}
			m.Request += req.Amount
		}
	}

	return pruned
}

// sortedRequests flattens a supplier's requests ordered by consumer id so
// floating-point sums are independent of map iteration order.
func sortedRequests(f *ir.Factory) []ir.DependencyRequest {
	consumers := make([]int, 0, len(f.Dependencies.Requests))
	for id := range f.Dependencies.Requests {
		consumers = append(consumers, id)
	}
	sort.Ints(consumers)

	var out []ir.DependencyRequest
	for _, id := range consumers {
		out = append(out, f.Dependencies.Requests[id]...)
	}
	return out
}

// computeDependencyMetrics compares what consumers request from a supplier
// with what the supplier has left after its own consumption.
func computeDependencyMetrics(plan *ir.Plan) {
	for _, f := range plan.Factories {
		for material, m := range f.Dependencies.Metrics {
			var supply float64
			if part, ok := f.Parts[material]; ok {
				supply = clamp(part.AmountSupplied - part.InternalDemand())
			}
			m.Supply = supply
			m.Difference = supply - m.Request
			m.IsRequestSatisfied = supply >= m.Request
		}
	}
}
