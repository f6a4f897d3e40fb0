package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factoryplan/internal/ir"
	"github.com/roach88/factoryplan/internal/testutil"
)

func stalePlan() *ir.Plan {
	plan := smeltingPlan()
	consumer := testutil.NewFactory(2, "Plates")
	testutil.WithImport(consumer, 1, "iron-ingot", 30)
	testutil.WithImport(consumer, 99, "iron-ingot", 10)
	plan.Factories = append(plan.Factories, consumer)
	return plan
}

func TestValidate_PrunesMissingFactory(t *testing.T) {
	plan := stalePlan()

	err := Validate(plan)
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	require.Len(t, ve.Pruned, 1)
	assert.Equal(t, 99, ve.Pruned[0].Import.FactoryID)
	assert.Equal(t, 2, ve.Pruned[0].FactoryID)
	assert.Contains(t, ve.Lines[0], "does not exist")
	assert.Same(t, plan, ve.Cleaned)

	assert.Equal(t, []ir.Import{{FactoryID: 1, Material: "iron-ingot", Amount: 30}}, plan.Factories[1].Inputs)

	assert.NoError(t, Validate(plan), "validating the cleaned plan succeeds")
}

func TestValidate_NilAndClean(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate(smeltingPlan()))
}

func TestRecompute_StaleImportAggregateError(t *testing.T) {
	plan := stalePlan()

	_, err := Recompute(plan, testutil.Catalog(t), ModeNormal)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	ve, _ := AsValidationError(err)
	require.NotNil(t, ve.Cleaned)
	consumer := factory(t, ve.Cleaned, 2)
	assert.Len(t, consumer.Inputs, 1)
	assert.Equal(t, 30.0, consumer.Parts["iron-ingot"].AmountSuppliedViaInput, "cleaned plan is fully recomputed")

	out, err := Recompute(ve.Cleaned, testutil.Catalog(t), ModeNormal)
	require.NoError(t, err)
	assert.Len(t, factory(t, out, 2).Inputs, 1)
}

func TestRecompute_ColdStartPrunesUnsuppliedMaterial(t *testing.T) {
	plan := smeltingPlan()
	consumer := testutil.NewFactory(2, "Wiring")
	testutil.WithImport(consumer, 1, "iron-ingot", 30)
	testutil.WithImport(consumer, 1, "copper-ingot", 15)
	plan.Factories = append(plan.Factories, consumer)

	// A normal pass keeps the import and reports the shortfall.
	out, err := Recompute(plan, testutil.Catalog(t), ModeNormal)
	require.NoError(t, err)
	assert.Len(t, factory(t, out, 2).Inputs, 2)
	assert.True(t, factory(t, out, 1).HasProblem)

	_, err = Recompute(plan, testutil.Catalog(t), ModeColdStart)
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	require.Len(t, ve.Pruned, 1)
	assert.Equal(t, "copper-ingot", ve.Pruned[0].Import.Material)
	assert.Contains(t, ve.Pruned[0].Reason, "does not supply copper-ingot")

	supplier := factory(t, ve.Cleaned, 1)
	assert.NotContains(t, supplier.Parts, "copper-ingot", "second pass reflects the pruned graph")
	assert.False(t, supplier.HasProblem)

	again, err := Recompute(ve.Cleaned, testutil.Catalog(t), ModeColdStart)
	require.NoError(t, err)
	assert.Equal(t, ir.MustPlanDigest(ve.Cleaned), ir.MustPlanDigest(again))
}

func TestRecompute_ColdStartKeepsValidImports(t *testing.T) {
	plan := smeltingPlan()
	plan.Factories = append(plan.Factories,
		testutil.WithImport(testutil.NewFactory(2, "Plates"), 1, "iron-ingot", 30),
		testutil.WithImport(testutil.NewFactory(3, "Ore"), 1, "iron-ore", 30),
	)

	out, err := Recompute(plan, testutil.Catalog(t), ModeColdStart)
	require.NoError(t, err)
	assert.Len(t, factory(t, out, 2).Inputs, 1)
	assert.Len(t, factory(t, out, 3).Inputs, 1, "raw materials can be exported")
}

func TestValidate_SkipsMaterialCheckBeforeFirstPass(t *testing.T) {
	plan := smeltingPlan()
	plan.Factories = append(plan.Factories,
		testutil.WithImport(testutil.NewFactory(2, "Wiring"), 1, "copper-ingot", 15))

	assert.NoError(t, Validate(plan), "parts not populated yet")
}

func TestPrunedImport_String(t *testing.T) {
	p := PrunedImport{
		FactoryID:   2,
		FactoryName: "Plates",
		Import:      ir.Import{FactoryID: 99, Material: "iron-ingot", Amount: 10},
		Reason:      "supplying factory does not exist",
	}
	assert.Equal(t, `factory "Plates" (2): import of iron-ingot from factory 99 removed: supplying factory does not exist`, p.String())
}
