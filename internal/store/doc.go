// Package store provides the SQLite-backed generation log.
//
// The log records:
//   - Runs: one row per generator invocation, numbered by seq
//   - Module results: outcome, artifact digest and counters per module
//   - Diagnostics: soft conditions reported by the rewriting passes
//
// # Ordering
//
// All ordering uses seq INTEGER columns (logical clock), never timestamps.
// Queries always carry an ORDER BY so results are identical across reads.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING: recording the same module result or
// diagnostic twice is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Diagnostics reference their module result
//   - single connection: one writer, workers are serialized
//
// # Migrations
//
// Open stamps the log with PRAGMA user_version and upgrades older logs in
// place: version 1 adds the module status index, version 2 adds the
// options_digest column (empty for rows recorded before it existed).
package store
