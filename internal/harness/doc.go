// Package harness runs end-to-end engine scenarios written in YAML.
//
// A scenario builds a plan through the engine's mutation operations,
// publishes it through a Planner, optionally applies further edits, and then
// asserts on the recomputed plan.
//
// # Scenario Format
//
//	name: cross_factory_deficit
//	description: "Consumer requests more than the supplier makes"
//	catalog: ./catalog          # optional, defaults to the built-in catalog
//	cold_start: false           # publish through Planner.Load instead
//	factories:
//	  - name: Smelting
//	    products:
//	      - { material: iron-ingot, amount: 100, recipe: iron-ingot }
//	  - name: Plates
//	    imports:
//	      - { from: Smelting, material: iron-ingot, amount: 150 }
//	steps:
//	  - { op: set_amount, factory: Smelting, material: iron-ingot, amount: 150 }
//	assertions:
//	  - type: part
//	    factory: Smelting
//	    material: iron-ingot
//	    expect: { amount_required: 150, satisfied: false }
//
// # Assertion Types
//
//   - factory, power: fields of the factory or its power summary
//   - part, export, dependency, raw_resource, product: one record by material
//   - building: one building requirement by name
//   - pruned: number of imports dropped by a cold-start load
//   - build_error: engine error code that rejected the initial build
//   - cycles: number of circular supply warnings
//   - round_trip: saving and reloading the plan reproduces its digest
//
// Record assertions match Expect as a subset of the record's JSON form.
//
// # Deterministic Testing
//
// Planner passes are numbered by testutil.PassRecorder and the
// round trip uses an in-memory store with sequential tab ids, so snapshots
// compared against testdata/golden are stable across runs.
package harness
