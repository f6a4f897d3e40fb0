package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/factoryplan/internal/testutil"
)

func TestReport_CrossFactoryDeficit(t *testing.T) {
	plan := smeltingPlan()
	plan.Factories = append(plan.Factories,
		testutil.WithImport(testutil.NewFactory(2, "Plates"), 1, "iron-ingot", 150))
	out := recompute(t, plan, ModeNormal)

	want := `factory 1 "Smelting" [problem]
  satisfied=false raw-only=true
  power: consumed 12.936 MW, produced 0.000 MW, net -12.936 MW
  products:
    iron-ingot 100.000/min via iron-ingot
  parts:
    iron-ingot: required 150.000 supplied 100.000 remaining -50.000 SHORT
    iron-ore raw: required 100.000 supplied 100.000 remaining 0.000 ok
  buildings:
    smelter x3.333 consumed 12.936 MW produced 0.000 MW
  exports:
    iron-ingot: supply 100.000 demands 150.000 surplus -50.000
  dependencies:
    iron-ingot: request 150.000 supply 100.000 difference -50.000 UNSATISFIED

factory 2 "Plates" [ok]
  satisfied=true raw-only=false
  power: consumed 0.000 MW, produced 0.000 MW, net 0.000 MW
  imports:
    iron-ingot 150.000/min from factory 1
  parts:
    iron-ingot: required 0.000 supplied 150.000 remaining 150.000 ok
`
	assert.Equal(t, want, Report(out))
}

func TestReport_PendingRecipeAndPower(t *testing.T) {
	f := testutil.WithProduct(testutil.NewFactory(1, "Draft"), "wire", 30, "")
	testutil.WithPowerProducer(f, "fuel-generator", "fuel-generator-fuel", "building", 1)
	out := recompute(t, testutil.NewPlan(f), ModeNormal)

	report := Report(out)
	assert.Contains(t, report, "wire 30.000/min via (none)")
	assert.Contains(t, report, "fuel-generator-fuel [building] 250.000 MW, 20.000/min fuel, 1.000 buildings")
	assert.Contains(t, report, "fuel-generator x1.000 consumed 0.000 MW produced 250.000 MW")
	assert.Empty(t, Report(nil))
}
