// Package ir provides the plain value types shared by every factoryplan package.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// factory model framework-free: the engine takes an owned copy of a Plan,
// rebuilds every derived field, and hands back a new value.
//
// Key design constraints:
//   - User-authored fields (products, inputs, power producers) persist across passes
//   - Derived fields are cleared and rebuilt on every pass, never patched
//   - PartMetrics totals are only ever produced by Settle, never assigned directly
//   - All JSON tags use snake_case
package ir
