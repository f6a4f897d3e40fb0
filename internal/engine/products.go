package engine

import (
	"log/slog"

	"github.com/roach88/factoryplan/internal/catalog"
	"github.com/roach88/factoryplan/internal/ir"
)

// resolveRecipe returns the catalog recipe for a product, if the product has
// a selected recipe that exists and whose primary product is the item's material.
func resolveRecipe(p *ir.ProductionItem, cat *catalog.Catalog) (catalog.Recipe, bool) {
	if p.RecipeID == "" {
		return catalog.Recipe{}, false
	}
	r, ok := cat.Recipe(p.RecipeID)
	if !ok || r.PrimaryProduct().Part != p.Material {
		return catalog.Recipe{}, false
	}
	return r, true
}

// expandProducts computes ingredient requirements and byproducts for every
// product and aggregates byproducts at factory level.
func expandProducts(f *ir.Factory, cat *catalog.Catalog) {
	byIndex := make(map[string]int)

	for _, p := range f.Products {
		if p.RecipeID == "" {
			slog.Debug("product has no recipe selected", "factory", f.Name, "material", p.Material)
			continue
		}
		recipe, ok := resolveRecipe(p, cat)
		if !ok {
			slog.Warn("product recipe not usable, skipping",
				"factory", f.Name, "material", p.Material, "recipe", p.RecipeID)
			continue
		}

		primary := recipe.PrimaryProduct()
		amount := clamp(p.Amount)
		ratio := safeDiv(amount, primary.PerMin)

		p.Requirements = make(map[string]float64, len(recipe.Ingredients))
		for _, ing := range recipe.Ingredients {
			p.Requirements[ing.Part] = round3(p.Requirements[ing.Part] + ing.PerMin*ratio)
		}

		for _, bp := range recipe.ByProducts() {
			qty := round3(amount * safeDiv(bp.PerMin, primary.PerMin))
			p.ByProducts = append(p.ByProducts, ir.ByProduct{
				Material:    bp.Part,
				Amount:      qty,
				ByProductOf: []string{p.Material},
			})

			if i, seen := byIndex[bp.Part]; seen {
				agg := &f.ByProducts[i]
				agg.Amount = round3(agg.Amount + qty)
				agg.ByProductOf = append(agg.ByProductOf, p.Material)
				continue
			}
			byIndex[bp.Part] = len(f.ByProducts)
			f.ByProducts = append(f.ByProducts, ir.ByProduct{
				Material:    bp.Part,
				Amount:      qty,
				ByProductOf: []string{p.Material},
			})
		}
	}
}
