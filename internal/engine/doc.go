// Package engine implements the factory recompute engine.
//
// The engine is a pure function over a plan (the full factory set) and a
// read-only catalog. Every call to Recompute clones the plan, clears all
// derived fields and rebuilds them through a fixed pipeline:
//
//  1. Clear derived state on every factory.
//  2. Recipe expansion and byproducts, per factory.
//  3. Power balancing, per factory.
//  4. Building counts and power draw, per factory.
//  5. Dependency graph rebuild across the whole set.
//  6. Part aggregation (raw resources, supply and requirement sums), per factory.
//  7. Export and surplus derivation, per factory.
//  8. Dependency metrics across the set.
//  9. Problem detection across the set.
//
// ModeColdStart runs the pipeline once to populate parts, validates imports
// against what each supplier can actually supply, then runs the pipeline a
// second time so the pruned graph is reflected in the final metrics.
//
// ERROR TIERS:
//
// Soft conditions (no recipe selected, unknown recipe on a loaded product,
// negative or NaN quantities) are logged and contribute zero.
//
// Hard conditions (self import, duplicate import, missing factory during an
// explicit mutation) return *EngineError and leave the input plan untouched.
//
// Stale references found while rebuilding the graph are pruned and reported
// once, as a single *ValidationError that carries the cleaned plan.
//
// Planner wraps Recompute with an owned, atomically published snapshot and
// an optional publish hook.
//
// The engine is single-threaded and deterministic: recomputing an unchanged
// plan yields identical derived state.
package engine
