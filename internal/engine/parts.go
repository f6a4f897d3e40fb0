package engine

import (
	"github.com/roach88/factoryplan/internal/catalog"
	"github.com/roach88/factoryplan/internal/ir"
)

// aggregateParts builds the per-material balance of a factory from its
// products, power producers, imports and the export requests placed on it.
// Raw materials are supplied in full from the environment.
func aggregateParts(f *ir.Factory, cat *catalog.Catalog) {
	part := func(material string) *ir.PartMetrics {
		m, ok := f.Parts[material]
		if !ok {
			m = &ir.PartMetrics{IsRaw: cat.IsRaw(material)}
			f.Parts[material] = m
		}
		return m
	}

	for _, p := range f.Products {
		if _, ok := resolveRecipe(p, cat); !ok {
			continue
		}
		part(p.Material).AmountSuppliedViaProduction += clamp(p.Amount)
		for material, amount := range p.Requirements {
			part(material).AmountRequiredProduction += amount
		}
	}
	for _, bp := range f.ByProducts {
		part(bp.Material).AmountSuppliedViaProduction += bp.Amount
	}

	for _, pp := range f.PowerProducers {
		for _, ing := range pp.Ingredients {
			part(ing.Material).AmountRequiredPower += ing.Amount
		}
		if pp.ByProduct != nil {
			part(pp.ByProduct.Material).AmountSuppliedViaProduction += pp.ByProduct.Amount
		}
	}

	for _, in := range f.Inputs {
		part(in.Material).AmountSuppliedViaInput += clamp(in.Amount)
	}
	for _, req := range sortedRequests(f) {
		part(req.Material).AmountRequiredExports += req.Amount
	}

	f.RequirementsSatisfied = true
	for material, m := range f.Parts {
		if m.IsRaw {
			m.AmountSuppliedViaRaw = m.AmountRequiredProduction + m.AmountRequiredPower + m.AmountRequiredExports
			if m.AmountSuppliedViaRaw > 0 {
				raw := ir.RawResource{Material: material, Amount: m.AmountSuppliedViaRaw}
				if entry, ok := cat.RawResource(material); ok {
					raw.Limit = entry.Limit
				}
				f.RawResources[material] = raw
			}
		}
		m.Settle()
		if !m.Satisfied {
			f.RequirementsSatisfied = false
		}
	}
}
