package engine

import (
	"log/slog"

	"github.com/roach88/factoryplan/internal/catalog"
	"github.com/roach88/factoryplan/internal/ir"
)

// balancePower reconciles power output, fuel throughput and building count
// for every power producer. The driving field is ground truth; the other two
// are derived from it.
func balancePower(f *ir.Factory, cat *catalog.Catalog) {
	for i, pp := range f.PowerProducers {
		recipe, ok := cat.PowerRecipe(pp.RecipeID)
		if !ok {
			slog.Warn("power recipe not found, skipping",
				"factory", f.Name, "index", i, "recipe", pp.RecipeID)
			continue
		}
		if !ir.ValidDrivingFields[pp.Driving] {
			slog.Warn("power producer has invalid driving field, skipping",
				"factory", f.Name, "index", i, "driving", pp.Driving)
			continue
		}
		balanceProducer(pp, recipe)
	}
}

// balanceProducer applies the power balancing rules to one producer.
func balanceProducer(pp *ir.PowerProducer, recipe catalog.PowerRecipe) {
	mwPerItem := recipe.Fuel.MWPerItem
	nominal := recipe.Building.Power

	var power, fuel, buildings float64
	switch pp.Driving {
	case ir.DrivenByPower:
		power = clamp(pp.PowerAmount)
		fuel = safeDiv(power, mwPerItem)
		buildings = safeDiv(power, nominal)
	case ir.DrivenByIngredient:
		fuel = clamp(pp.IngredientAmount)
		power = clamp(fuel * mwPerItem)
		buildings = safeDiv(power, nominal)
	case ir.DrivenByBuilding:
		buildings = clamp(pp.BuildingAmount)
		fuel = clamp(recipe.Fuel.PerMin * buildings)
		power = clamp(fuel * mwPerItem)
	}

	pp.PowerAmount = power
	pp.IngredientAmount = fuel
	pp.BuildingAmount = buildings

	pp.Ingredients = []ir.PowerIngredient{{Material: recipe.Fuel.Part, Amount: fuel}}
	if recipe.Supplemental != nil {
		pp.Ingredients = append(pp.Ingredients, ir.PowerIngredient{
			Material: recipe.Supplemental.Part,
			Amount:   clamp(power * recipe.SupplementalRatio),
		})
	}
	if recipe.ByProduct != nil {
		pp.ByProduct = &ir.ByProduct{
			Material:    recipe.ByProduct.Part,
			Amount:      clamp(power * safeDiv(recipe.ByProduct.PerMin, nominal)),
			ByProductOf: []string{recipe.Fuel.Part},
		}
	}
}
