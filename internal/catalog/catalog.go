package catalog

import "sort"

// Ingredient is a material consumed per minute by one building.
type Ingredient struct {
	Part   string  `json:"part"`
	PerMin float64 `json:"perMin"`
}

// Product is a material produced per minute by one building.
// The first product of a recipe is its primary product.
type Product struct {
	Part        string  `json:"part"`
	PerMin      float64 `json:"perMin"`
	IsByProduct bool    `json:"isByProduct"`
}

// Building is the machine running a recipe and its nominal power draw (MW).
type Building struct {
	Name  string  `json:"name"`
	Power float64 `json:"power"`
}

// Recipe converts ingredients into products at a fixed per-building throughput.
type Recipe struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Products    []Product    `json:"products"`
	Building    Building     `json:"building"`
}

// PrimaryProduct returns the recipe's first product.
func (r Recipe) PrimaryProduct() Product {
	if len(r.Products) == 0 {
		return Product{}
	}
	return r.Products[0]
}

// ByProducts returns every non-primary product.
func (r Recipe) ByProducts() []Product {
	if len(r.Products) < 2 {
		return nil
	}
	return r.Products[1:]
}

// Fuel is the primary fuel of a power recipe.
type Fuel struct {
	Part      string  `json:"part"`
	PerMin    float64 `json:"perMin"`
	MWPerItem float64 `json:"mwPerItem"`
}

// PowerRecipe describes a generator burning one fuel.
//
// SupplementalRatio is the supplemental resource consumed per MW produced;
// ByProduct, when set, is produced at ByProduct.PerMin per building.
type PowerRecipe struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Building          Building    `json:"building"`
	Fuel              Fuel        `json:"fuel"`
	Supplemental      *Ingredient `json:"supplemental,omitempty"`
	SupplementalRatio float64     `json:"supplementalRatio"`
	ByProduct         *Ingredient `json:"byproduct,omitempty"`
}

// RawResource is a material sourced from the environment.
// Limit is informational; the engine never enforces it.
type RawResource struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Limit float64 `json:"limit"`
}

// Catalog is the immutable lookup table of recipes, power recipes and raw resources.
type Catalog struct {
	recipes      map[string]Recipe
	powerRecipes map[string]PowerRecipe
	raw          map[string]RawResource

	// Digest identifies the catalog content the engine was run against.
	Digest string
}

// New builds a catalog, filling derived power constants and running Validate.
func New(recipes []Recipe, powerRecipes []PowerRecipe, raw []RawResource) (*Catalog, error) {
	c := &Catalog{
		recipes:      make(map[string]Recipe, len(recipes)),
		powerRecipes: make(map[string]PowerRecipe, len(powerRecipes)),
		raw:          make(map[string]RawResource, len(raw)),
	}
	for _, r := range recipes {
		c.recipes[r.ID] = r
	}
	for _, p := range powerRecipes {
		c.powerRecipes[p.ID] = fillPowerConstants(p)
	}
	for _, r := range raw {
		c.raw[r.ID] = r
	}

	if errs := Validate(c); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return c, nil
}

// fillPowerConstants derives MW per fuel item and the supplemental ratio
// when the catalog leaves them out.
func fillPowerConstants(p PowerRecipe) PowerRecipe {
	if p.Fuel.MWPerItem == 0 && p.Fuel.PerMin > 0 {
		p.Fuel.MWPerItem = p.Building.Power / p.Fuel.PerMin
	}
	if p.Supplemental != nil && p.SupplementalRatio == 0 && p.Building.Power > 0 {
		p.SupplementalRatio = p.Supplemental.PerMin / p.Building.Power
	}
	return p
}

// Recipe returns the recipe with the given id.
func (c *Catalog) Recipe(id string) (Recipe, bool) {
	r, ok := c.recipes[id]
	return r, ok
}

// PowerRecipe returns the power recipe with the given id.
func (c *Catalog) PowerRecipe(id string) (PowerRecipe, bool) {
	p, ok := c.powerRecipes[id]
	return p, ok
}

// RawResource returns the raw resource entry for a material.
func (c *Catalog) RawResource(material string) (RawResource, bool) {
	r, ok := c.raw[material]
	return r, ok
}

// IsRaw reports whether a material is sourced from the environment.
func (c *Catalog) IsRaw(material string) bool {
	_, ok := c.raw[material]
	return ok
}

// RecipeIDs returns all recipe ids in sorted order.
func (c *Catalog) RecipeIDs() []string {
	return sortedKeys(c.recipes)
}

// PowerRecipeIDs returns all power recipe ids in sorted order.
func (c *Catalog) PowerRecipeIDs() []string {
	return sortedKeys(c.powerRecipes)
}

// RawResourceIDs returns all raw resource ids in sorted order.
func (c *Catalog) RawResourceIDs() []string {
	return sortedKeys(c.raw)
}

// RecipesFor returns the recipes whose primary product is material, sorted by id.
func (c *Catalog) RecipesFor(material string) []Recipe {
	var out []Recipe
	for _, id := range c.RecipeIDs() {
		r := c.recipes[id]
		if r.PrimaryProduct().Part == material {
			out = append(out, r)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
