package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factoryplan/internal/ir"
	"github.com/roach88/factoryplan/internal/testutil"
)

func TestPlanner_UpdatePublishes(t *testing.T) {
	cat := testutil.Catalog(t)
	var published []Snapshot
	p := NewPlanner(cat, WithPublishHook(func(s Snapshot) { published = append(published, s) }))

	snap, err := p.Update(func(plan *ir.Plan) error {
		f := AddFactory(plan, "Smelting")
		_, err := AddProduct(f, cat, ProductInput{Material: "iron-ingot", Amount: 100, RecipeID: "iron-ingot"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Pass)
	assert.Equal(t, ir.MustPlanDigest(snap.Plan), snap.Digest)
	assert.True(t, snap.Plan.Factories[0].UsingRawResourcesOnly)

	require.Len(t, published, 1)
	assert.Equal(t, snap.Digest, published[0].Digest)

	current := p.Snapshot()
	assert.Equal(t, snap.Digest, current.Digest)
	assert.Equal(t, int64(1), current.Pass)
}

func TestPlanner_FailedMutationKeepsPublishedPlan(t *testing.T) {
	cat := testutil.Catalog(t)
	hookCalls := 0
	p := NewPlanner(cat, WithPublishHook(func(Snapshot) { hookCalls++ }))

	first, err := p.Update(func(plan *ir.Plan) error {
		AddFactory(plan, "A")
		AddFactory(plan, "B")
		return nil
	})
	require.NoError(t, err)

	_, err = p.Update(func(plan *ir.Plan) error {
		b, _ := plan.Factory(2)
		require.NoError(t, AddInput(plan, b, ImportInput{FactoryID: 1, Material: "iron-ingot", Amount: 10}))
		return AddInput(plan, b, ImportInput{FactoryID: 1, Material: "iron-ingot", Amount: 10})
	})
	require.Error(t, err)
	assert.True(t, IsDuplicateImport(err))

	_, err = p.Update(func(*ir.Plan) error { return errors.New("boom") })
	require.Error(t, err)

	current := p.Snapshot()
	assert.Equal(t, first.Digest, current.Digest)
	assert.Empty(t, current.Plan.Factories[1].Inputs, "working copy discarded")
	assert.Equal(t, 1, hookCalls)
}

func TestPlanner_SnapshotIsACopy(t *testing.T) {
	p := NewPlanner(testutil.Catalog(t))
	_, err := p.Update(func(plan *ir.Plan) error {
		AddFactory(plan, "A")
		return nil
	})
	require.NoError(t, err)

	snap := p.Snapshot()
	snap.Plan.Factories[0].Name = "mutated"
	assert.Equal(t, "A", p.Snapshot().Plan.Factories[0].Name)
}

func TestPlanner_LoadValidationErrorDoesNotPublish(t *testing.T) {
	p := NewPlanner(testutil.Catalog(t), WithClock(ResumeClock(10)))
	before := p.Snapshot()

	_, err := p.Load(stalePlan())
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, before.Digest, p.Snapshot().Digest)
	assert.Equal(t, int64(10), p.Snapshot().Pass)

	snap, err := p.Load(ve.Cleaned)
	require.NoError(t, err)
	assert.Equal(t, int64(11), snap.Pass)
	assert.Len(t, snap.Plan.Factories, 2)
}

func TestPlanner_LoadWithoutColdStart(t *testing.T) {
	plan := smeltingPlan()
	plan.Factories = append(plan.Factories,
		testutil.WithImport(testutil.NewFactory(2, "Wiring"), 1, "copper-ingot", 15))

	p := NewPlanner(testutil.Catalog(t), WithColdStartOnLoad(false))
	snap, err := p.Load(plan)
	require.NoError(t, err)
	assert.Len(t, snap.Plan.Factories[1].Inputs, 1, "normal mode does not check supplied materials")

	cold := NewPlanner(testutil.Catalog(t))
	_, err = cold.Load(plan)
	assert.True(t, IsValidationError(err))
}

func TestPlanner_NonFiniteAmountsContributeZero(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := testutil.Catalog(t)
			p := NewPlanner(cat)
			_, err := p.Update(func(plan *ir.Plan) error {
				f := AddFactory(plan, "Smelting")
				_, err := AddProduct(f, cat, ProductInput{Material: "iron-ingot", Amount: 100, RecipeID: "iron-ingot"})
				return err
			})
			require.NoError(t, err)

			snap, err := p.Update(func(plan *ir.Plan) error {
				return SetAmount(plan.Factories[0], "iron-ingot", tt.value)
			})
			require.NoError(t, err)
			assert.Equal(t, ir.MustPlanDigest(snap.Plan), snap.Digest)

			f := snap.Plan.Factories[0]
			assert.Equal(t, 0.0, f.Products[0].Amount)
			assert.Equal(t, 0.0, f.Products[0].Requirements["iron-ore"])
			require.NotNil(t, f.Parts["iron-ingot"])
			assert.Equal(t, 0.0, f.Parts["iron-ingot"].AmountSuppliedViaProduction)
		})
	}
}

func TestPlanner_NonFiniteFieldsWrittenDirectly(t *testing.T) {
	cat := testutil.Catalog(t)
	p := NewPlanner(cat)

	snap, err := p.Update(func(plan *ir.Plan) error {
		a := AddFactory(plan, "Smelting")
		if _, err := AddProduct(a, cat, ProductInput{Material: "iron-ingot", Amount: 100, RecipeID: "iron-ingot"}); err != nil {
			return err
		}
		b := AddFactory(plan, "Plates")
		if err := AddInput(plan, b, ImportInput{FactoryID: a.ID, Material: "iron-ingot", Amount: 30}); err != nil {
			return err
		}
		if _, err := AddPowerProducer(a, cat, PowerProducerInput{RecipeID: "coal-generator-coal", Driving: ir.DrivenByPower, Value: 75}); err != nil {
			return err
		}

		a.Products[0].Amount = math.NaN()
		b.Inputs[0].Amount = math.Inf(1)
		a.PowerProducers[0].PowerAmount = math.NaN()
		return nil
	})
	require.NoError(t, err, "non-finite amounts must not block publishing")

	a, b := snap.Plan.Factories[0], snap.Plan.Factories[1]
	assert.Equal(t, 0.0, a.Products[0].Amount)
	assert.Equal(t, 0.0, b.Inputs[0].Amount)
	assert.Equal(t, 0.0, a.PowerProducers[0].PowerAmount)
	assert.Equal(t, ir.MustPlanDigest(snap.Plan), snap.Digest)
}

func TestPlanner_PanickingMutationReleasesLock(t *testing.T) {
	p := NewPlanner(testutil.Catalog(t))
	before := p.Snapshot()

	assert.Panics(t, func() {
		_, _ = p.Update(func(*ir.Plan) error { panic("bad edit") })
	})

	// Both calls would block forever if the lock were still held.
	assert.Equal(t, before.Digest, p.Snapshot().Digest)
	snap, err := p.Update(func(plan *ir.Plan) error {
		AddFactory(plan, "A")
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, snap.Plan.Factories, 1)
}
