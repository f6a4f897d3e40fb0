package catalog

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	// Recipe errors (E201-E209)
	ErrRecipeNoProducts       = "E201" // recipe must produce something
	ErrPrimaryIsByProduct     = "E202" // first product must not be a byproduct
	ErrNonPositiveRate        = "E203" // perMin must be > 0
	ErrNegativePower          = "E204" // building power must be >= 0
	ErrDuplicateRecipeProduct = "E205" // material listed twice in products
	ErrEmptyPart              = "E206" // part name is empty

	// PowerRecipe errors (E210-E219)
	ErrGeneratorNoPower     = "E210" // generator must produce power
	ErrSupplementalNoRatio  = "E211" // supplemental without a usable ratio
	ErrByProductIsFuel      = "E212" // generator byproduct equals its fuel
	ErrNegativeRawLimit     = "E220" // raw resource limit must be >= 0
	ErrRawResourceIsProduct = "E221" // raw material is a recipe primary product
)

// ValidationError represents a semantic catalog error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is returned by New when Validate reports problems.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "invalid catalog:\n  " + strings.Join(msgs, "\n  ")
}

// Validate checks catalog rules the CUE schema cannot express.
// Returns all errors found (does not fail-fast), ordered by id.
func Validate(c *Catalog) []ValidationError {
	var errs []ValidationError

	for _, id := range c.RecipeIDs() {
		errs = append(errs, validateRecipe(c.recipes[id])...)
	}
	for _, id := range c.PowerRecipeIDs() {
		errs = append(errs, validatePowerRecipe(c.powerRecipes[id])...)
	}

	primaries := make(map[string]string)
	for _, id := range c.RecipeIDs() {
		primaries[c.recipes[id].PrimaryProduct().Part] = id
	}
	for _, id := range c.RawResourceIDs() {
		r := c.raw[id]
		field := "rawResources." + id
		if r.Limit < 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".limit",
				Message: fmt.Sprintf("limit must be non-negative, got %g", r.Limit),
				Code:    ErrNegativeRawLimit,
			})
		}
		if recipeID, ok := primaries[id]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("raw resource is also the primary product of recipe %q", recipeID),
				Code:    ErrRawResourceIsProduct,
			})
		}
	}

	return errs
}

func validateRecipe(r Recipe) []ValidationError {
	var errs []ValidationError
	field := "recipes." + r.ID

	if len(r.Products) == 0 {
		return append(errs, ValidationError{
			Field:   field + ".products",
			Message: "recipe must have at least one product",
			Code:    ErrRecipeNoProducts,
		})
	}
	if r.Products[0].IsByProduct {
		errs = append(errs, ValidationError{
			Field:   field + ".products[0]",
			Message: "primary product cannot be marked as a byproduct",
			Code:    ErrPrimaryIsByProduct,
		})
	}
	if r.Building.Power < 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".building.power",
			Message: fmt.Sprintf("power must be non-negative, got %g", r.Building.Power),
			Code:    ErrNegativePower,
		})
	}

	seen := make(map[string]bool)
	for i, p := range r.Products {
		pf := fmt.Sprintf("%s.products[%d]", field, i)
		errs = append(errs, validateRate(pf, p.Part, p.PerMin)...)
		if seen[p.Part] {
			errs = append(errs, ValidationError{
				Field:   pf,
				Message: fmt.Sprintf("product %q listed more than once", p.Part),
				Code:    ErrDuplicateRecipeProduct,
			})
		}
		seen[p.Part] = true
	}
	for i, in := range r.Ingredients {
		errs = append(errs, validateRate(fmt.Sprintf("%s.ingredients[%d]", field, i), in.Part, in.PerMin)...)
	}

	return errs
}

func validatePowerRecipe(p PowerRecipe) []ValidationError {
	var errs []ValidationError
	field := "powerRecipes." + p.ID

	if p.Building.Power <= 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".building.power",
			Message: fmt.Sprintf("generator power must be positive, got %g", p.Building.Power),
			Code:    ErrGeneratorNoPower,
		})
	}
	errs = append(errs, validateRate(field+".fuel", p.Fuel.Part, p.Fuel.PerMin)...)

	if p.Supplemental != nil {
		errs = append(errs, validateRate(field+".supplemental", p.Supplemental.Part, p.Supplemental.PerMin)...)
		if p.SupplementalRatio <= 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".supplementalRatio",
				Message: "supplemental resource requires a positive ratio",
				Code:    ErrSupplementalNoRatio,
			})
		}
	}
	if p.ByProduct != nil {
		errs = append(errs, validateRate(field+".byproduct", p.ByProduct.Part, p.ByProduct.PerMin)...)
		if p.ByProduct.Part == p.Fuel.Part {
			errs = append(errs, ValidationError{
				Field:   field + ".byproduct",
				Message: "byproduct cannot be the generator's own fuel",
				Code:    ErrByProductIsFuel,
			})
		}
	}

	return errs
}

func validateRate(field, part string, perMin float64) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(part) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".part",
			Message: "part is required",
			Code:    ErrEmptyPart,
		})
	}
	if perMin <= 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".perMin",
			Message: fmt.Sprintf("rate must be positive, got %g", perMin),
			Code:    ErrNonPositiveRate,
		})
	}
	return errs
}
