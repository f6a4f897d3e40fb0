// Package catalog loads the read-only recipe catalog consumed by the engine.
//
// Catalog files are CUE. Every file in a catalog directory belongs to the
// same package and contributes to three top-level maps:
//
//	recipes: "iron-ingot": {
//	    name: "Iron Ingot"
//	    ingredients: [{part: "iron-ore", perMin: 30}]
//	    products: [{part: "iron-ingot", perMin: 30}]
//	    building: {name: "smelter", power: 4}
//	}
//	powerRecipes: "fuel-generator-fuel": {
//	    name: "Fuel Generator (Fuel)"
//	    building: {name: "fuel-generator", power: 250}
//	    fuel: {part: "fuel", perMin: 20}
//	}
//	rawResources: "iron-ore": {name: "Iron Ore", limit: 92100}
//
// The loaded value is unified with the embedded #Catalog schema before it is
// decoded, so shape errors carry CUE source positions. Semantic checks run
// afterwards (see Validate).
//
// A Catalog is immutable once built. Lookups return (value, ok) so callers
// must handle the not-found case explicitly.
package catalog
