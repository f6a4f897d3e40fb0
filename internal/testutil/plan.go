package testutil

import "github.com/roach88/factoryplan/internal/ir"

// NewFactory returns a factory with the given id, using the id as display order.
func NewFactory(id int, name string) *ir.Factory {
	return &ir.Factory{ID: id, Name: name, DisplayOrder: id}
}

// WithProduct appends a production item and returns f.
func WithProduct(f *ir.Factory, material string, amount float64, recipeID string) *ir.Factory {
	f.Products = append(f.Products, &ir.ProductionItem{
		Material:     material,
		Amount:       amount,
		RecipeID:     recipeID,
		DisplayOrder: len(f.Products),
	})
	return f
}

// WithImport appends an import from supplierID and returns f.
func WithImport(f *ir.Factory, supplierID int, material string, amount float64) *ir.Factory {
	f.Inputs = append(f.Inputs, ir.Import{FactoryID: supplierID, Material: material, Amount: amount})
	return f
}

// WithPowerProducer appends a power producer driven by the given field and returns f.
func WithPowerProducer(f *ir.Factory, building, recipeID string, driving ir.DrivingField, value float64) *ir.Factory {
	pp := &ir.PowerProducer{
		Building:     building,
		RecipeID:     recipeID,
		Driving:      driving,
		DisplayOrder: len(f.PowerProducers),
	}
	switch driving {
	case ir.DrivenByPower:
		pp.PowerAmount = value
	case ir.DrivenByIngredient:
		pp.IngredientAmount = value
	case ir.DrivenByBuilding:
		pp.BuildingAmount = value
	}
	f.PowerProducers = append(f.PowerProducers, pp)
	return f
}

// NewPlan wraps factories into a plan.
func NewPlan(factories ...*ir.Factory) *ir.Plan {
	return &ir.Plan{Factories: factories}
}
