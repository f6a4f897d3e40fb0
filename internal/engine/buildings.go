package engine

import (
	"github.com/roach88/factoryplan/internal/catalog"
	"github.com/roach88/factoryplan/internal/ir"
)

// computeBuildings totals building counts and power per building type.
//
// Production buildings consume power; counts are left unrounded because
// fractional buildings represent partial clock speed.
func computeBuildings(f *ir.Factory, cat *catalog.Catalog) {
	for _, p := range f.Products {
		recipe, ok := resolveRecipe(p, cat)
		if !ok {
			continue
		}
		count := safeDiv(clamp(p.Amount), recipe.PrimaryProduct().PerMin)
		power := buildingPower(recipe.Building.Power, count)

		req := f.BuildingRequirements[recipe.Building.Name]
		req.Name = recipe.Building.Name
		req.Amount += count
		req.PowerConsumed += power
		f.BuildingRequirements[recipe.Building.Name] = req

		f.Power.Consumed += power
	}

	for _, pp := range f.PowerProducers {
		recipe, ok := cat.PowerRecipe(pp.RecipeID)
		if !ok || !ir.ValidDrivingFields[pp.Driving] {
			continue
		}
		req := f.BuildingRequirements[recipe.Building.Name]
		req.Name = recipe.Building.Name
		req.Amount += pp.BuildingAmount
		req.PowerProduced += pp.PowerAmount
		f.BuildingRequirements[recipe.Building.Name] = req

		f.Power.Produced += pp.PowerAmount
	}

	f.Power.Difference = f.Power.Produced - f.Power.Consumed
}
