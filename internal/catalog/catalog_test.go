package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDirFixture(t *testing.T) {
	c, err := LoadDir("testdata/catalog")
	require.NoError(t, err)

	r, ok := c.Recipe("fuel")
	require.True(t, ok)
	assert.Equal(t, "Fuel", r.Name)
	assert.Equal(t, "fuel", r.PrimaryProduct().Part)
	assert.Equal(t, 40.0, r.PrimaryProduct().PerMin)
	require.Len(t, r.ByProducts(), 1)
	assert.Equal(t, "polymer-resin", r.ByProducts()[0].Part)
	assert.True(t, r.ByProducts()[0].IsByProduct)
	assert.Equal(t, Building{Name: "refinery", Power: 30}, r.Building)

	assert.NotEmpty(t, c.Digest)
	assert.Len(t, c.Digest, 64)
}

func TestLookupNotFound(t *testing.T) {
	c, err := LoadDir("testdata/catalog")
	require.NoError(t, err)

	_, ok := c.Recipe("does-not-exist")
	assert.False(t, ok)
	_, ok = c.PowerRecipe("does-not-exist")
	assert.False(t, ok)
	_, ok = c.RawResource("iron-ingot")
	assert.False(t, ok)
}

func TestPowerConstantsDerived(t *testing.T) {
	c, err := LoadDir("testdata/catalog")
	require.NoError(t, err)

	tests := []struct {
		id        string
		mwPerItem float64
		ratio     float64
	}{
		{"fuel-generator-fuel", 12.5, 0},
		{"coal-generator-coal", 5, 0.6},
		{"nuclear-power-plant-uranium", 12500, 0.096},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, ok := c.PowerRecipe(tt.id)
			require.True(t, ok)
			assert.InDelta(t, tt.mwPerItem, p.Fuel.MWPerItem, 1e-9)
			assert.InDelta(t, tt.ratio, p.SupplementalRatio, 1e-9)
		})
	}

	nuclear, _ := c.PowerRecipe("nuclear-power-plant-uranium")
	require.NotNil(t, nuclear.ByProduct)
	assert.Equal(t, "uranium-waste", nuclear.ByProduct.Part)
}

func TestRawResources(t *testing.T) {
	c, err := LoadDir("testdata/catalog")
	require.NoError(t, err)

	assert.True(t, c.IsRaw("iron-ore"))
	assert.True(t, c.IsRaw("water"))
	assert.False(t, c.IsRaw("iron-ingot"))

	water, ok := c.RawResource("water")
	require.True(t, ok)
	assert.Equal(t, 0.0, water.Limit, "limit defaults to zero")

	ore, _ := c.RawResource("iron-ore")
	assert.Equal(t, 92100.0, ore.Limit)

	assert.Equal(t, []string{"coal", "copper-ore", "crude-oil", "iron-ore", "limestone", "water"}, c.RawResourceIDs())
}

func TestRecipesFor(t *testing.T) {
	c, err := LoadDir("testdata/catalog")
	require.NoError(t, err)

	rubber := c.RecipesFor("rubber")
	require.Len(t, rubber, 2)
	assert.Equal(t, "residual-rubber", rubber[0].ID)
	assert.Equal(t, "rubber", rubber[1].ID)

	assert.Empty(t, c.RecipesFor("polymer-resin"), "byproducts are not primary products")
}

func TestLoadDirSchemaViolation(t *testing.T) {
	_, err := LoadDir("testdata/invalid")
	require.Error(t, err)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.True(t, compileErr.Pos.IsValid(), "schema errors carry a source position")
	assert.Contains(t, compileErr.Error(), "catalog.cue")
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir("testdata/nope")
	require.Error(t, err)
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}

func TestCompileStringRejectsUnknownField(t *testing.T) {
	_, err := CompileString(`
recipes: "x": {
	name: "X"
	ingredients: []
	products: [{part: "x", perMin: 1}]
	building: {name: "b", power: 1}
	speed: 2
}
`)
	require.Error(t, err)
}

func TestCompileStringRequiresProducts(t *testing.T) {
	_, err := CompileString(`
recipes: "x": {
	name: "X"
	ingredients: []
	products: []
	building: {name: "b", power: 1}
}
`)
	require.Error(t, err)
}

func TestDigestStable(t *testing.T) {
	src := `
recipes: "x": {
	name: "X"
	ingredients: []
	products: [{part: "x", perMin: 1}]
	building: {name: "b", power: 1}
}
`
	a, err := CompileString(src)
	require.NoError(t, err)
	b, err := CompileString(src)
	require.NoError(t, err)
	assert.Equal(t, a.Digest, b.Digest)

	c, err := CompileString(src + `rawResources: "y": {name: "Y"}`)
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest, c.Digest)
}

func TestBuiltinCompiles(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	_, ok := c.Recipe("iron-ingot")
	assert.True(t, ok)
	assert.NotEmpty(t, c.PowerRecipeIDs())
	assert.True(t, c.IsRaw("iron-ore"))
	assert.Empty(t, Validate(c))
}
