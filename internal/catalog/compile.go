package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// BuiltinCUE is a small catalog covering smelting, oil byproducts and
// three generator types. It is used when no catalog directory is configured.
//
//go:embed builtin.cue
var BuiltinCUE string

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// document mirrors #Catalog for decoding.
type document struct {
	Recipes      map[string]recipeDoc      `json:"recipes"`
	PowerRecipes map[string]powerRecipeDoc `json:"powerRecipes"`
	RawResources map[string]rawResourceDoc `json:"rawResources"`
}

type recipeDoc struct {
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
	Products    []Product    `json:"products"`
	Building    Building     `json:"building"`
}

type powerRecipeDoc struct {
	Name              string      `json:"name"`
	Building          Building    `json:"building"`
	Fuel              Fuel        `json:"fuel"`
	Supplemental      *Ingredient `json:"supplemental"`
	SupplementalRatio float64     `json:"supplementalRatio"`
	ByProduct         *Ingredient `json:"byproduct"`
}

type rawResourceDoc struct {
	Name  string  `json:"name"`
	Limit float64 `json:"limit"`
}

// CompileString compiles catalog source held in memory.
func CompileString(src string) (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("catalog.cue"))
	return Compile(v)
}

// Builtin compiles BuiltinCUE.
func Builtin() (*Catalog, error) {
	return CompileString(BuiltinCUE)
}

// Compile unifies v with the #Catalog schema and decodes it.
//
// The schema is compiled in v's context; values from different contexts
// cannot be unified.
func Compile(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	def := schema.LookupPath(cue.ParsePath("#Catalog"))

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var doc document
	if err := unified.Decode(&doc); err != nil {
		return nil, formatCUEError(err)
	}

	raw, err := unified.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}

	c, err := New(doc.recipes(), doc.powerRecipes(), doc.rawResources())
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(raw)
	c.Digest = hex.EncodeToString(sum[:])
	return c, nil
}

func (d document) recipes() []Recipe {
	out := make([]Recipe, 0, len(d.Recipes))
	for _, id := range sortedKeys(d.Recipes) {
		r := d.Recipes[id]
		out = append(out, Recipe{
			ID:          id,
			Name:        r.Name,
			Ingredients: r.Ingredients,
			Products:    r.Products,
			Building:    r.Building,
		})
	}
	return out
}

func (d document) powerRecipes() []PowerRecipe {
	out := make([]PowerRecipe, 0, len(d.PowerRecipes))
	for _, id := range sortedKeys(d.PowerRecipes) {
		p := d.PowerRecipes[id]
		out = append(out, PowerRecipe{
			ID:                id,
			Name:              p.Name,
			Building:          p.Building,
			Fuel:              p.Fuel,
			Supplemental:      p.Supplemental,
			SupplementalRatio: p.SupplementalRatio,
			ByProduct:         p.ByProduct,
		})
	}
	return out
}

func (d document) rawResources() []RawResource {
	out := make([]RawResource, 0, len(d.RawResources))
	for _, id := range sortedKeys(d.RawResources) {
		r := d.RawResources[id]
		out = append(out, RawResource{ID: id, Name: r.Name, Limit: r.Limit})
	}
	return out
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
