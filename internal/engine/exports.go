package engine

import (
	"sort"

	"github.com/roach88/factoryplan/internal/ir"
)

// deriveExports lists the materials a factory can offer or is asked for.
//
// Candidates are ordered by the owning product's display order; byproducts
// inherit their parent's order, power byproducts follow all products and any
// other requested material comes last.
func deriveExports(f *ir.Factory) {
	type candidate struct {
		material string
		order    int
	}
	var candidates []candidate
	seen := make(map[string]bool)
	add := func(material string, order int) {
		if seen[material] {
			return
		}
		seen[material] = true
		candidates = append(candidates, candidate{material, order})
	}

	products := make([]*ir.ProductionItem, len(f.Products))
	copy(products, f.Products)
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].DisplayOrder < products[j].DisplayOrder
	})

	next := 0
	for _, p := range products {
		add(p.Material, p.DisplayOrder)
		for _, bp := range p.ByProducts {
			add(bp.Material, p.DisplayOrder)
		}
		if p.DisplayOrder >= next {
			next = p.DisplayOrder + 1
		}
	}
	for _, pp := range f.PowerProducers {
		if pp.ByProduct != nil {
			add(pp.ByProduct.Material, next)
			next++
		}
	}
	for _, req := range sortedRequests(f) {
		if !seen[req.Material] {
			add(req.Material, next)
			next++
		}
	}

	for _, c := range candidates {
		part, ok := f.Parts[c.material]
		if !ok {
			continue
		}
		if part.AmountRemaining <= 0 && part.AmountRequiredExports <= 0 {
			continue
		}
		part.Exportable = true
		f.Exports = append(f.Exports, ir.ExportItem{
			Material:     c.material,
			Supply:       part.AmountSupplied,
			Demands:      part.AmountRequiredExports,
			Surplus:      part.AmountRemaining,
			DisplayOrder: c.order,
		})
	}

	sort.SliceStable(f.Exports, func(i, j int) bool {
		return f.Exports[i].DisplayOrder < f.Exports[j].DisplayOrder
	})
}
