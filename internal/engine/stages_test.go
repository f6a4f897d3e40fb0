package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factoryplan/internal/ir"
	"github.com/roach88/factoryplan/internal/testutil"
)

func TestMath_ClampAndDivide(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"positive", 3.5, 3.5},
		{"zero", 0, 0},
		{"negative", -2, 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"neg inf", math.Inf(-1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clamp(tt.in))
		})
	}

	assert.Equal(t, 0.0, safeDiv(10, 0))
	assert.Equal(t, 2.5, safeDiv(10, 4))
	assert.Equal(t, 0.0, safeDiv(-10, 4))
	assert.Equal(t, 1.235, round3(1.23456))
	assert.Equal(t, 520.0, round3(519.99975))
}

func TestBuildingPower_Curve(t *testing.T) {
	assert.Equal(t, 20.0, buildingPower(10, 2))
	assert.Equal(t, 0.0, buildingPower(10, 0))
	assert.InDelta(t, 24.0, buildingPower(10, 2.5), 1e-5, "0.5^1.321928 is 0.4")
	assert.Less(t, buildingPower(10, 0.5), 5.0, "under-clocked buildings draw less than linear")
	assert.Equal(t, 0.0, buildingPower(10, -1))
}

func TestExpandProducts_RequirementsAndByproducts(t *testing.T) {
	cat := testutil.Catalog(t)
	f := testutil.NewFactory(1, "Oil")
	testutil.WithProduct(f, "plastic", 20, "plastic")
	testutil.WithProduct(f, "rubber", 40, "rubber")
	clearDerived(f)

	expandProducts(f, cat)

	assert.Equal(t, map[string]float64{"crude-oil": 30}, f.Products[0].Requirements)
	assert.Equal(t, map[string]float64{"crude-oil": 60}, f.Products[1].Requirements)
	assert.Equal(t, []ir.ByProduct{{Material: "heavy-oil-residue", Amount: 40, ByProductOf: []string{"rubber"}}},
		f.Products[1].ByProducts)

	require.Len(t, f.ByProducts, 1)
	assert.Equal(t, ir.ByProduct{
		Material:    "heavy-oil-residue",
		Amount:      50,
		ByProductOf: []string{"plastic", "rubber"},
	}, f.ByProducts[0])
}

func TestExpandProducts_RoundsToThreeDecimals(t *testing.T) {
	cat := testutil.Catalog(t)

	tests := []struct {
		material   string
		amount     float64
		ingredient string
		want       float64
	}{
		{"screw", 100, "iron-rod", 25},
		{"screw", 1, "iron-rod", 0.25},
		{"iron-plate", 1, "iron-ingot", 1.5},
		{"iron-rod", 1, "iron-ingot", 1},
		{"concrete", 10, "limestone", 30},
		{"wire", 7, "copper-ingot", 3.5},
		{"iron-ingot", 0.0001, "iron-ore", 0},
	}
	for _, tt := range tests {
		t.Run(tt.material, func(t *testing.T) {
			f := testutil.WithProduct(testutil.NewFactory(1, "F"), tt.material, tt.amount, tt.material)
			clearDerived(f)
			expandProducts(f, cat)
			assert.Equal(t, tt.want, f.Products[0].Requirements[tt.ingredient])
		})
	}
}

func TestExpandProducts_NegativeAmountClamped(t *testing.T) {
	cat := testutil.Catalog(t)
	f := testutil.WithProduct(testutil.NewFactory(1, "Neg"), "iron-ingot", -50, "iron-ingot")
	clearDerived(f)

	expandProducts(f, cat)
	assert.Equal(t, 0.0, f.Products[0].Requirements["iron-ore"])
}

func TestExpandProducts_RecipeForOtherMaterialSkipped(t *testing.T) {
	cat := testutil.Catalog(t)
	f := testutil.WithProduct(testutil.NewFactory(1, "Mismatch"), "iron-plate", 20, "iron-rod")
	clearDerived(f)

	expandProducts(f, cat)
	assert.Nil(t, f.Products[0].Requirements)
}

func TestBalancePower_DrivingFields(t *testing.T) {
	cat := testutil.Catalog(t)

	tests := []struct {
		name      string
		recipe    string
		driving   ir.DrivingField
		value     float64
		power     float64
		fuel      float64
		buildings float64
		ingreds   []ir.PowerIngredient
		byproduct *ir.ByProduct
	}{
		{
			name: "fuel by ingredient", recipe: "fuel-generator-fuel",
			driving: ir.DrivenByIngredient, value: 38.4,
			power: 480, fuel: 38.4, buildings: 1.92,
			ingreds: []ir.PowerIngredient{{Material: "fuel", Amount: 38.4}},
		},
		{
			name: "fuel by power", recipe: "fuel-generator-fuel",
			driving: ir.DrivenByPower, value: 480,
			power: 480, fuel: 38.4, buildings: 1.92,
			ingreds: []ir.PowerIngredient{{Material: "fuel", Amount: 38.4}},
		},
		{
			name: "fuel by building", recipe: "fuel-generator-fuel",
			driving: ir.DrivenByBuilding, value: 2,
			power: 500, fuel: 40, buildings: 2,
			ingreds: []ir.PowerIngredient{{Material: "fuel", Amount: 40}},
		},
		{
			name: "coal with supplemental water", recipe: "coal-generator-coal",
			driving: ir.DrivenByPower, value: 150,
			power: 150, fuel: 30, buildings: 2,
			ingreds: []ir.PowerIngredient{{Material: "coal", Amount: 30}, {Material: "water", Amount: 90}},
		},
		{
			name: "nuclear with waste", recipe: "nuclear-power-plant-uranium",
			driving: ir.DrivenByBuilding, value: 1,
			power: 2500, fuel: 0.2, buildings: 1,
			ingreds: []ir.PowerIngredient{
				{Material: "uranium-fuel-rod", Amount: 0.2},
				{Material: "water", Amount: 240},
			},
			byproduct: &ir.ByProduct{Material: "uranium-waste", Amount: 10, ByProductOf: []string{"uranium-fuel-rod"}},
		},
		{
			name: "negative input clamped", recipe: "fuel-generator-fuel",
			driving: ir.DrivenByPower, value: -100,
			power: 0, fuel: 0, buildings: 0,
			ingreds: []ir.PowerIngredient{{Material: "fuel", Amount: 0}},
		},
		{
			name: "nan input clamped", recipe: "fuel-generator-fuel",
			driving: ir.DrivenByIngredient, value: math.NaN(),
			power: 0, fuel: 0, buildings: 0,
			ingreds: []ir.PowerIngredient{{Material: "fuel", Amount: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testutil.WithPowerProducer(testutil.NewFactory(1, "Power"), "", tt.recipe, tt.driving, tt.value)
			clearDerived(f)
			balancePower(f, cat)
			pp := f.PowerProducers[0]

			assert.InDelta(t, tt.power, pp.PowerAmount, 1e-9)
			assert.InDelta(t, tt.fuel, pp.IngredientAmount, 1e-9)
			assert.InDelta(t, tt.buildings, pp.BuildingAmount, 1e-9)

			require.Len(t, pp.Ingredients, len(tt.ingreds))
			for i, want := range tt.ingreds {
				assert.Equal(t, want.Material, pp.Ingredients[i].Material)
				assert.InDelta(t, want.Amount, pp.Ingredients[i].Amount, 1e-9)
			}

			if tt.byproduct == nil {
				assert.Nil(t, pp.ByProduct)
				return
			}
			require.NotNil(t, pp.ByProduct)
			assert.Equal(t, tt.byproduct.Material, pp.ByProduct.Material)
			assert.InDelta(t, tt.byproduct.Amount, pp.ByProduct.Amount, 1e-9)
			assert.Equal(t, tt.byproduct.ByProductOf, pp.ByProduct.ByProductOf)
		})
	}
}

func TestBalancePower_UnknownRecipeOrDrivingSkipped(t *testing.T) {
	cat := testutil.Catalog(t)
	f := testutil.NewFactory(1, "Power")
	testutil.WithPowerProducer(f, "", "no-such-generator", ir.DrivenByPower, 100)
	testutil.WithPowerProducer(f, "", "fuel-generator-fuel", ir.DrivenByPower, 100)
	f.PowerProducers[1].Driving = "speed"
	clearDerived(f)

	balancePower(f, cat)
	computeBuildings(f, cat)

	assert.Nil(t, f.PowerProducers[0].Ingredients)
	assert.Nil(t, f.PowerProducers[1].Ingredients)
	assert.Equal(t, 0.0, f.Power.Produced)
	assert.Empty(t, f.BuildingRequirements)
}

func TestComputeBuildings_Aggregates(t *testing.T) {
	cat := testutil.Catalog(t)
	f := testutil.NewFactory(1, "Mixed")
	testutil.WithProduct(f, "iron-plate", 40, "iron-plate") // 2 constructors
	testutil.WithProduct(f, "iron-rod", 30, "iron-rod")     // 2 constructors
	testutil.WithProduct(f, "iron-ingot", 45, "iron-ingot") // 1.5 smelters
	testutil.WithPowerProducer(f, "", "fuel-generator-fuel", ir.DrivenByBuilding, 1)
	clearDerived(f)

	expandProducts(f, cat)
	balancePower(f, cat)
	computeBuildings(f, cat)

	constructor := f.BuildingRequirements["constructor"]
	assert.Equal(t, 4.0, constructor.Amount)
	assert.Equal(t, 16.0, constructor.PowerConsumed)

	smelter := f.BuildingRequirements["smelter"]
	assert.Equal(t, 1.5, smelter.Amount)
	assert.InDelta(t, 4+4*math.Pow(0.5, powerCurveExponent), smelter.PowerConsumed, 1e-9)

	gen := f.BuildingRequirements["fuel-generator"]
	assert.Equal(t, 1.0, gen.Amount)
	assert.Equal(t, 250.0, gen.PowerProduced)

	assert.InDelta(t, 16+smelter.PowerConsumed, f.Power.Consumed, 1e-9)
	assert.InDelta(t, 250-f.Power.Consumed, f.Power.Difference, 1e-9)
}

func TestDeriveExports_Ordering(t *testing.T) {
	f := testutil.NewFactory(1, "Oil")
	testutil.WithProduct(f, "plastic", 20, "plastic")
	testutil.WithProduct(f, "rubber", 20, "rubber")
	testutil.WithPowerProducer(f, "", "nuclear-power-plant-uranium", ir.DrivenByBuilding, 1)
	testutil.WithProduct(f, "concrete", 15, "concrete")
	f.Products[2].DisplayOrder = -1 // moved to the top by the user
	consumer := testutil.WithImport(testutil.NewFactory(2, "Consumer"), 1, "iron-ore", 30)

	out := recompute(t, testutil.NewPlan(f, consumer), ModeNormal)
	g := factory(t, out, 1)

	var materials []string
	for _, e := range g.Exports {
		materials = append(materials, e.Material)
	}
	assert.Equal(t, []string{"concrete", "plastic", "heavy-oil-residue", "rubber", "uranium-waste", "iron-ore"}, materials)

	assert.Equal(t, g.Exports[1].DisplayOrder, g.Exports[2].DisplayOrder, "byproduct inherits parent order")
	assert.True(t, g.Parts["heavy-oil-residue"].Exportable)
	assert.False(t, g.Parts["crude-oil"].Exportable)

	ore := g.Exports[5]
	assert.Equal(t, 30.0, ore.Demands)
	assert.Equal(t, 30.0, ore.Supply, "raw exports are drawn from the environment")
	assert.Equal(t, 0.0, ore.Surplus)
}
