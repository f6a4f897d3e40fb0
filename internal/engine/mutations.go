package engine

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/factoryplan/internal/catalog"
	"github.com/roach88/factoryplan/internal/ir"
)

// ProductInput is the request to add a product to a factory.
// RecipeID may be empty while recipe selection is pending.
type ProductInput struct {
	Material string  `json:"material" validate:"required"`
	Amount   float64 `json:"amount"`
	RecipeID string  `json:"recipe_id"`
}

// ImportInput is the request to import a material from another factory.
type ImportInput struct {
	FactoryID int     `json:"factory_id" validate:"min=1"`
	Material  string  `json:"material" validate:"required"`
	Amount    float64 `json:"amount"`
}

// PowerProducerInput is the request to add a power producer.
// Value is assigned to the field named by Driving. Building defaults to the
// power recipe's building.
type PowerProducerInput struct {
	Building string          `json:"building"`
	RecipeID string          `json:"recipe_id" validate:"required"`
	Driving  ir.DrivingField `json:"driving" validate:"required,oneof=power ingredient building"`
	Value    float64         `json:"value"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkInput validates a request struct and converts validator errors into
// an INVALID_INPUT engine error.
func checkInput(factoryID int, in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return newError(ErrCodeInvalidInput, factoryID, "", "%v", err)
	}
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s (value: '%v')",
			e.Field(), e.Tag(), e.Value()))
	}
	return newError(ErrCodeInvalidInput, factoryID, "", "%s", strings.Join(messages, "; "))
}

// AddFactory appends an empty factory with the next free id and display order.
func AddFactory(plan *ir.Plan, name string) *ir.Factory {
	id, order := 1, 0
	for _, f := range plan.Factories {
		if f.ID >= id {
			id = f.ID + 1
		}
		if f.DisplayOrder >= order {
			order = f.DisplayOrder + 1
		}
	}
	f := &ir.Factory{ID: id, Name: name, DisplayOrder: order}
	plan.Factories = append(plan.Factories, f)
	return f
}

// RemoveFactory deletes a factory and every import that references it.
func RemoveFactory(plan *ir.Plan, id int) error {
	idx := -1
	for i, f := range plan.Factories {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return newError(ErrCodeFactoryNotFound, id, "", "factory %d does not exist", id)
	}
	plan.Factories = append(plan.Factories[:idx], plan.Factories[idx+1:]...)

	for _, f := range plan.Factories {
		kept := f.Inputs[:0]
		for _, in := range f.Inputs {
			if in.FactoryID != id {
				kept = append(kept, in)
			}
		}
		f.Inputs = kept
	}
	return nil
}

// RenameFactory changes a factory's display name.
func RenameFactory(plan *ir.Plan, id int, name string) error {
	f, ok := plan.Factory(id)
	if !ok {
		return newError(ErrCodeFactoryNotFound, id, "", "factory %d does not exist", id)
	}
	f.Name = name
	return nil
}

// AddProduct adds a product to f. A factory makes each material with at most
// one product, and a selected recipe must have the material as its primary product.
func AddProduct(f *ir.Factory, cat *catalog.Catalog, in ProductInput) (*ir.ProductionItem, error) {
	if err := checkInput(f.ID, in); err != nil {
		return nil, err
	}
	if _, exists := f.Product(in.Material); exists {
		return nil, newError(ErrCodeDuplicateProduct, f.ID, in.Material, "factory already produces %s", in.Material)
	}
	if in.RecipeID != "" {
		if err := checkRecipe(f.ID, cat, in.Material, in.RecipeID); err != nil {
			return nil, err
		}
	}

	order := 0
	for _, p := range f.Products {
		if p.DisplayOrder >= order {
			order = p.DisplayOrder + 1
		}
	}
	item := &ir.ProductionItem{
		Material:     in.Material,
		Amount:       finite(in.Amount),
		RecipeID:     in.RecipeID,
		DisplayOrder: order,
	}
	f.Products = append(f.Products, item)
	return item, nil
}

func checkRecipe(factoryID int, cat *catalog.Catalog, material, recipeID string) error {
	recipe, ok := cat.Recipe(recipeID)
	if !ok {
		return newError(ErrCodeRecipeNotFound, factoryID, material, "recipe %q not in catalog", recipeID)
	}
	if primary := recipe.PrimaryProduct().Part; primary != material {
		return newError(ErrCodeInvalidRecipe, factoryID, material,
			"recipe %q produces %s, not %s", recipeID, primary, material)
	}
	return nil
}

// RemoveProduct removes the product for material.
func RemoveProduct(f *ir.Factory, material string) error {
	for i, p := range f.Products {
		if p.Material == material {
			f.Products = append(f.Products[:i], f.Products[i+1:]...)
			return nil
		}
	}
	return newError(ErrCodeProductNotFound, f.ID, material, "factory does not produce %s", material)
}

// SetAmount changes a product's target throughput.
func SetAmount(f *ir.Factory, material string, amount float64) error {
	p, ok := f.Product(material)
	if !ok {
		return newError(ErrCodeProductNotFound, f.ID, material, "factory does not produce %s", material)
	}
	p.Amount = finite(amount)
	return nil
}

// SelectRecipe sets or clears (recipeID == "") a product's recipe.
func SelectRecipe(f *ir.Factory, cat *catalog.Catalog, material, recipeID string) error {
	p, ok := f.Product(material)
	if !ok {
		return newError(ErrCodeProductNotFound, f.ID, material, "factory does not produce %s", material)
	}
	if recipeID != "" {
		if err := checkRecipe(f.ID, cat, material, recipeID); err != nil {
			return err
		}
	}
	p.RecipeID = recipeID
	return nil
}

// AddInput declares that f imports a material from another factory in plan.
func AddInput(plan *ir.Plan, f *ir.Factory, in ImportInput) error {
	if err := checkInput(f.ID, in); err != nil {
		return err
	}
	if in.FactoryID == f.ID {
		return newError(ErrCodeSelfImport, f.ID, in.Material, "factory %q cannot import from itself", f.Name)
	}
	if _, ok := plan.Factory(in.FactoryID); !ok {
		return newError(ErrCodeFactoryNotFound, f.ID, in.Material, "supplying factory %d does not exist", in.FactoryID)
	}
	if f.Input(in.FactoryID, in.Material) >= 0 {
		return newError(ErrCodeDuplicateImport, f.ID, in.Material,
			"factory %q already imports %s from factory %d", f.Name, in.Material, in.FactoryID)
	}
	f.Inputs = append(f.Inputs, ir.Import{FactoryID: in.FactoryID, Material: in.Material, Amount: finite(in.Amount)})
	return nil
}

// RemoveInput removes the import of material from supplierID.
func RemoveInput(f *ir.Factory, supplierID int, material string) error {
	i := f.Input(supplierID, material)
	if i < 0 {
		return newError(ErrCodeInputNotFound, f.ID, material, "no import of %s from factory %d", material, supplierID)
	}
	f.Inputs = append(f.Inputs[:i], f.Inputs[i+1:]...)
	return nil
}

// SetInputAmount changes the requested amount of an import.
func SetInputAmount(f *ir.Factory, supplierID int, material string, amount float64) error {
	i := f.Input(supplierID, material)
	if i < 0 {
		return newError(ErrCodeInputNotFound, f.ID, material, "no import of %s from factory %d", material, supplierID)
	}
	f.Inputs[i].Amount = finite(amount)
	return nil
}

// AddPowerProducer adds a generator to f, driven by the given field.
func AddPowerProducer(f *ir.Factory, cat *catalog.Catalog, in PowerProducerInput) (*ir.PowerProducer, error) {
	if err := checkInput(f.ID, in); err != nil {
		return nil, err
	}
	recipe, ok := cat.PowerRecipe(in.RecipeID)
	if !ok {
		return nil, newError(ErrCodeRecipeNotFound, f.ID, "", "power recipe %q not in catalog", in.RecipeID)
	}
	building := in.Building
	if building == "" {
		building = recipe.Building.Name
	}
	if building != recipe.Building.Name {
		return nil, newError(ErrCodeInvalidRecipe, f.ID, "",
			"power recipe %q runs in %s, not %s", in.RecipeID, recipe.Building.Name, building)
	}

	order := 0
	for _, pp := range f.PowerProducers {
		if pp.DisplayOrder >= order {
			order = pp.DisplayOrder + 1
		}
	}
	pp := &ir.PowerProducer{
		Building:     building,
		RecipeID:     in.RecipeID,
		DisplayOrder: order,
	}
	setDriving(pp, in.Driving, in.Value)
	f.PowerProducers = append(f.PowerProducers, pp)
	return pp, nil
}

// RemovePowerProducer removes the power producer at index.
func RemovePowerProducer(f *ir.Factory, index int) error {
	if index < 0 || index >= len(f.PowerProducers) {
		return newError(ErrCodePowerNotFound, f.ID, "", "no power producer at index %d", index)
	}
	f.PowerProducers = append(f.PowerProducers[:index], f.PowerProducers[index+1:]...)
	return nil
}

// SetPowerProducerValue records a user edit: the named field becomes the
// driving field and takes value.
func SetPowerProducerValue(f *ir.Factory, index int, driving ir.DrivingField, value float64) error {
	if index < 0 || index >= len(f.PowerProducers) {
		return newError(ErrCodePowerNotFound, f.ID, "", "no power producer at index %d", index)
	}
	if !ir.ValidDrivingFields[driving] {
		return newError(ErrCodeInvalidDrivingField, f.ID, "", "invalid driving field %q", driving)
	}
	setDriving(f.PowerProducers[index], driving, value)
	return nil
}

func setDriving(pp *ir.PowerProducer, driving ir.DrivingField, value float64) {
	pp.Driving = driving
	value = finite(value)
	switch driving {
	case ir.DrivenByPower:
		pp.PowerAmount = value
	case ir.DrivenByIngredient:
		pp.IngredientAmount = value
	case ir.DrivenByBuilding:
		pp.BuildingAmount = value
	}
}
