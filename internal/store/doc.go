// Package store provides SQLite-backed durable storage for processing runs.
//
// A run stores:
//   - Runs: one row per processing run with its plan fingerprint
//   - Plan units: the ordered units of the run's plan
//   - Executions: one row per executed action, in execution order
//
// All ordering uses seq INTEGER columns (logical clock), never timestamps,
// and every query orders by them explicitly so results are identical
// across replays.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Plans and attribute lists are stored as RFC 8785 canonical JSON produced
// by internal/ir.
package store
