package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/factoryplan/internal/catalog"
	"github.com/roach88/factoryplan/internal/engine"
	"github.com/roach88/factoryplan/internal/ir"
	"github.com/roach88/factoryplan/internal/store"
	"github.com/roach88/factoryplan/internal/testutil"
)

// Harness runs one scenario against a planner whose passes are recorded,
// so a rejected update that still published is caught.
type Harness struct {
	cat     *catalog.Catalog
	planner *engine.Planner
	passes  *testutil.PassRecorder
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load the catalog (built-in or scenario directory)
// 2. Build the initial plan through engine mutations and publish it
// 3. Apply each step as a separate planner update
// 4. Round-trip the published plan through an in-memory store
// 5. Evaluate assertions against the final plan
//
// The returned error covers harness failures (catalog, malformed scenario
// references). Engine rejections are recorded in the result.
func Run(scenario *Scenario) (*Result, error) {
	cat, err := loadCatalog(scenario.Catalog)
	if err != nil {
		return nil, err
	}

	passes := testutil.NewPassRecorder()
	h := &Harness{
		cat:     cat,
		planner: engine.NewPlanner(cat, engine.WithClock(passes)),
		passes:  passes,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	if err := h.build(scenario, result); err != nil {
		return nil, fmt.Errorf("failed to build plan: %w", err)
	}
	if err := h.executeSteps(scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	if msg := h.checkPublishes(result); msg != "" {
		result.AddError(msg)
	}

	snap := h.planner.Snapshot()
	result.Plan = snap.Plan
	result.Digest = snap.Digest

	if err := h.reload(result); err != nil {
		return nil, fmt.Errorf("failed to reload plan: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// checkPublishes compares the passes the planner published with the
// accepted updates in the trace.
func (h *Harness) checkPublishes(result *Result) string {
	var accepted []int64
	for _, ev := range result.Trace {
		if ev.Pass > 0 {
			accepted = append(accepted, ev.Pass)
		}
	}
	published := h.passes.Published()
	if len(published) != len(accepted) {
		return fmt.Sprintf("planner published %d pass(es) but %d update(s) were accepted", len(published), len(accepted))
	}
	for i := range published {
		if published[i] != accepted[i] {
			return fmt.Sprintf("update %d published as pass %d, trace recorded pass %d", i+1, published[i], accepted[i])
		}
	}
	return ""
}

func loadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		cat, err := catalog.Builtin()
		if err != nil {
			return nil, fmt.Errorf("failed to compile built-in catalog: %w", err)
		}
		return cat, nil
	}
	cat, err := catalog.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

// build creates the scenario's factories. Normal scenarios publish through
// one Planner.Update; cold-start scenarios assemble the plan offline and
// publish through Planner.Load, re-loading the cleaned plan when imports
// had to be pruned.
func (h *Harness) build(s *Scenario, result *Result) error {
	if !s.ColdStart {
		snap, err := h.planner.Update(func(plan *ir.Plan) error {
			return h.apply(plan, s.Factories)
		})
		return h.recordBuild(snap, err, result)
	}

	plan := &ir.Plan{}
	if err := h.apply(plan, s.Factories); err != nil {
		return h.recordBuild(engine.Snapshot{}, err, result)
	}

	snap, err := h.planner.Load(plan)
	if ve, ok := engine.AsValidationError(err); ok {
		result.Pruned = append(result.Pruned, ve.Lines...)
		h.logger.Info("cold start pruned imports", "count", len(ve.Lines))
		snap, err = h.planner.Load(ve.Cleaned)
	}
	return h.recordBuild(snap, err, result)
}

// recordBuild turns engine rejections into result data. Only non-engine
// errors (scenario mistakes) are returned.
func (h *Harness) recordBuild(snap engine.Snapshot, err error, result *Result) error {
	ev := TraceEvent{Op: "build", Pass: snap.Pass}
	if err != nil {
		var ee *engine.EngineError
		if !errors.As(err, &ee) {
			return err
		}
		ev.Error = string(ee.Code)
		result.BuildError = string(ee.Code)
	}
	result.addTrace(ev)
	return nil
}

// apply adds every factory first so imports can reference later factories.
func (h *Harness) apply(plan *ir.Plan, specs []FactorySpec) error {
	for _, def := range specs {
		engine.AddFactory(plan, def.Name)
	}

	for _, def := range specs {
		f, err := factoryByName(plan, def.Name)
		if err != nil {
			return err
		}
		for _, p := range def.Products {
			if _, err := engine.AddProduct(f, h.cat, engine.ProductInput{
				Material: p.Material, Amount: p.Amount, RecipeID: p.Recipe,
			}); err != nil {
				return err
			}
		}
		for _, g := range def.PowerProducers {
			if _, err := engine.AddPowerProducer(f, h.cat, engine.PowerProducerInput{
				Building: g.Building, RecipeID: g.Recipe, Driving: g.Driving, Value: g.Value,
			}); err != nil {
				return err
			}
		}
		for _, in := range def.Imports {
			if in.FromID != 0 {
				// Stale reference, as read back from an old save.
				f.Inputs = append(f.Inputs, ir.Import{FactoryID: in.FromID, Material: in.Material, Amount: in.Amount})
				continue
			}
			supplier, err := factoryByName(plan, in.From)
			if err != nil {
				return err
			}
			if err := engine.AddInput(plan, f, engine.ImportInput{
				FactoryID: supplier.ID, Material: in.Material, Amount: in.Amount,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// executeSteps applies each step as its own planner update.
func (h *Harness) executeSteps(steps []Step, result *Result) error {
	for i, step := range steps {
		snap, err := h.planner.Update(func(plan *ir.Plan) error {
			return h.applyStep(plan, step)
		})

		ev := TraceEvent{Op: step.Op, Factory: step.Factory, Detail: stepDetail(step), Pass: snap.Pass}
		if err != nil {
			var ee *engine.EngineError
			if !errors.As(err, &ee) {
				return fmt.Errorf("step %d: %w", i, err)
			}
			ev.Error = string(ee.Code)
		}
		result.addTrace(ev)

		if ev.Error != step.ExpectError {
			result.AddError(fmt.Sprintf("step %d (%s %s): expected error %q, got %q",
				i, step.Op, step.Factory, step.ExpectError, ev.Error))
		}

		h.logger.Info("step completed",
			"step", i,
			"op", step.Op,
			"factory", step.Factory,
			"pass", snap.Pass,
			"error", ev.Error,
		)
	}
	return nil
}

func (h *Harness) applyStep(plan *ir.Plan, step Step) error {
	if step.Op == OpAddFactory {
		engine.AddFactory(plan, step.Factory)
		return nil
	}

	f, err := factoryByName(plan, step.Factory)
	if err != nil {
		return err
	}

	switch step.Op {
	case OpAddProduct:
		_, err = engine.AddProduct(f, h.cat, engine.ProductInput{
			Material: step.Material, Amount: step.Amount, RecipeID: step.Recipe,
		})
		return err
	case OpRemoveProduct:
		return engine.RemoveProduct(f, step.Material)
	case OpSetAmount:
		return engine.SetAmount(f, step.Material, step.Amount)
	case OpSelectRecipe:
		return engine.SelectRecipe(f, h.cat, step.Material, step.Recipe)
	case OpAddImport:
		supplier, err := factoryByName(plan, step.From)
		if err != nil {
			return err
		}
		return engine.AddInput(plan, f, engine.ImportInput{
			FactoryID: supplier.ID, Material: step.Material, Amount: step.Amount,
		})
	case OpRemoveImport, OpSetImport:
		supplier, err := factoryByName(plan, step.From)
		if err != nil {
			return err
		}
		if step.Op == OpRemoveImport {
			return engine.RemoveInput(f, supplier.ID, step.Material)
		}
		return engine.SetInputAmount(f, supplier.ID, step.Material, step.Amount)
	case OpAddPower:
		_, err = engine.AddPowerProducer(f, h.cat, engine.PowerProducerInput{
			RecipeID: step.Recipe, Driving: step.Driving, Value: step.Value,
		})
		return err
	case OpRemovePower:
		return engine.RemovePowerProducer(f, step.Index)
	case OpSetPower:
		return engine.SetPowerProducerValue(f, step.Index, step.Driving, step.Value)
	case OpRemoveFactory:
		return engine.RemoveFactory(plan, f.ID)
	case OpRenameFactory:
		return engine.RenameFactory(plan, f.ID, step.Name)
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

// reload saves the published plan as a tab in an in-memory store, loads it
// back and publishes it through a fresh cold-start planner.
func (h *Harness) reload(result *Result) error {
	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewSequentialIDGenerator("tab")))
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	saved, err := st.Save(ctx, ir.Tab{Name: "scenario", Plan: result.Plan})
	if err != nil {
		return err
	}
	loaded, err := st.Load(ctx, saved.ID)
	if err != nil {
		return err
	}

	fresh := engine.NewPlanner(h.cat, engine.WithClock(testutil.NewPassRecorder()))
	snap, err := fresh.Load(loaded.Plan)
	if ve, ok := engine.AsValidationError(err); ok {
		result.ReloadPruned = true
		snap, err = fresh.Load(ve.Cleaned)
	}
	if err != nil {
		return err
	}
	result.ReloadDigest = snap.Digest
	return nil
}

// factoryByName resolves a scenario factory reference. An unknown name is a
// FACTORY_NOT_FOUND engine error so steps can expect it.
func factoryByName(plan *ir.Plan, name string) (*ir.Factory, error) {
	for _, f := range plan.Factories {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, &engine.EngineError{
		Code:    engine.ErrCodeFactoryNotFound,
		Message: fmt.Sprintf("no factory named %q", name),
	}
}

func stepDetail(s Step) string {
	switch s.Op {
	case OpAddProduct, OpSetAmount:
		return fmt.Sprintf("%s %.3f", s.Material, s.Amount)
	case OpSelectRecipe:
		return fmt.Sprintf("%s via %s", s.Material, s.Recipe)
	case OpRemoveProduct:
		return s.Material
	case OpAddImport, OpSetImport:
		return fmt.Sprintf("%s %.3f from %s", s.Material, s.Amount, s.From)
	case OpRemoveImport:
		return fmt.Sprintf("%s from %s", s.Material, s.From)
	case OpAddPower:
		return fmt.Sprintf("%s %s=%.3f", s.Recipe, s.Driving, s.Value)
	case OpSetPower:
		return fmt.Sprintf("#%d %s=%.3f", s.Index, s.Driving, s.Value)
	case OpRemovePower:
		return fmt.Sprintf("#%d", s.Index)
	case OpRenameFactory:
		return s.Name
	}
	return ""
}
