// Package store provides a SQLite-backed journal of scenario runs.
//
// The journal records what a run did to a container, one row per operation:
//   - runs: one row per scenario execution, keyed by run id
//   - ops: the ordered add/remove/call steps of a run, with the position,
//     resulting length and snapshot hash after each step
//
// The journal never holds container state. It exists so runs can be listed
// and compared after the process exits.
//
// # Ordering
//
// Ops are keyed by (run_id, seq) where seq is the run's logical clock.
// Every read orders by seq ASC; runs list in insertion order (rowid).
// Wall-clock time is never stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
