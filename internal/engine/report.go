package engine

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/roach88/factoryplan/internal/ir"
)

// Report renders a recomputed plan as deterministic text.
func Report(plan *ir.Plan) string {
	var buf bytes.Buffer
	WriteReport(&buf, plan)
	return buf.String()
}

// WriteReport writes the text report of plan to w. Factories follow display
// order; maps are rendered in key order.
func WriteReport(w io.Writer, plan *ir.Plan) {
	if plan == nil {
		return
	}
	factories := make([]*ir.Factory, len(plan.Factories))
	copy(factories, plan.Factories)
	sort.SliceStable(factories, func(i, j int) bool {
		return factories[i].DisplayOrder < factories[j].DisplayOrder
	})

	for i, f := range factories {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeFactory(w, f)
	}
}

func writeFactory(w io.Writer, f *ir.Factory) {
	status := "ok"
	if f.HasProblem {
		status = "problem"
	}
	fmt.Fprintf(w, "factory %d %q [%s]\n", f.ID, f.Name, status)
	fmt.Fprintf(w, "  satisfied=%t raw-only=%t\n", f.RequirementsSatisfied, f.UsingRawResourcesOnly)
	fmt.Fprintf(w, "  power: consumed %.3f MW, produced %.3f MW, net %.3f MW\n",
		f.Power.Consumed, f.Power.Produced, f.Power.Difference)

	if len(f.Products) > 0 {
		fmt.Fprintln(w, "  products:")
		for _, p := range f.Products {
			recipe := p.RecipeID
			if recipe == "" {
				recipe = "(none)"
			}
			fmt.Fprintf(w, "    %s %.3f/min via %s\n", p.Material, p.Amount, recipe)
		}
	}

	if len(f.PowerProducers) > 0 {
		fmt.Fprintln(w, "  power producers:")
		for _, pp := range f.PowerProducers {
			fmt.Fprintf(w, "    %s [%s] %.3f MW, %.3f/min fuel, %.3f buildings\n",
				pp.RecipeID, pp.Driving, pp.PowerAmount, pp.IngredientAmount, pp.BuildingAmount)
		}
	}

	if len(f.Inputs) > 0 {
		fmt.Fprintln(w, "  imports:")
		for _, in := range f.Inputs {
			fmt.Fprintf(w, "    %s %.3f/min from factory %d\n", in.Material, in.Amount, in.FactoryID)
		}
	}

	if len(f.Parts) > 0 {
		fmt.Fprintln(w, "  parts:")
		for _, material := range sortedKeys(f.Parts) {
			m := f.Parts[material]
			flag := "ok"
			if !m.Satisfied {
				flag = "SHORT"
			}
			raw := ""
			if m.IsRaw {
				raw = " raw"
			}
			fmt.Fprintf(w, "    %s%s: required %.3f supplied %.3f remaining %.3f %s\n",
				material, raw, m.AmountRequired, m.AmountSupplied, m.AmountRemaining, flag)
		}
	}

	if len(f.BuildingRequirements) > 0 {
		fmt.Fprintln(w, "  buildings:")
		for _, name := range sortedKeys(f.BuildingRequirements) {
			b := f.BuildingRequirements[name]
			fmt.Fprintf(w, "    %s x%.3f consumed %.3f MW produced %.3f MW\n",
				name, b.Amount, b.PowerConsumed, b.PowerProduced)
		}
	}

	if len(f.Exports) > 0 {
		fmt.Fprintln(w, "  exports:")
		for _, e := range f.Exports {
			fmt.Fprintf(w, "    %s: supply %.3f demands %.3f surplus %.3f\n",
				e.Material, e.Supply, e.Demands, e.Surplus)
		}
	}

	if len(f.Dependencies.Metrics) > 0 {
		fmt.Fprintln(w, "  dependencies:")
		for _, material := range sortedKeys(f.Dependencies.Metrics) {
			m := f.Dependencies.Metrics[material]
			flag := "ok"
			if !m.IsRequestSatisfied {
				flag = "UNSATISFIED"
			}
			fmt.Fprintf(w, "    %s: request %.3f supply %.3f difference %.3f %s\n",
				material, m.Request, m.Supply, m.Difference, flag)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
