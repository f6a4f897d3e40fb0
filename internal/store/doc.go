// Package store provides SQLite-backed persistence for saved tabs.
//
// A tab is a named plan saved and loaded as one unit. The store is the
// persistence boundary of the engine: it never recomputes anything, it only
// round-trips plan state.
//
// # Payload Format
//
//   - The plan is encoded as JSON and compressed with zstd into the state BLOB.
//   - On load the decompressed JSON is validated against the embedded
//     plan.schema.json before it is decoded into Go types.
//   - The plan digest (ir.PlanDigest) is stored alongside and re-checked on load.
//
// # Ordering
//
//   - Every save is stamped with a seq INTEGER; List returns tabs ORDER BY seq, id.
//   - Tab ids are UUIDv7 unless an IDGenerator is supplied.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - Schema migrations tracked with PRAGMA user_version
package store
