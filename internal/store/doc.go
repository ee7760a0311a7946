// Package store records pipeline runs in SQLite.
//
// Each run keeps:
//   - Runs: when it started, the config hash and the table checksum
//   - Samples: the merged ΔT timeline with per-day attribution
//   - Schedule: the extraordinary days and their DTAI
//   - Decisions: every leap the scanner inserted, in order
//
// Two runs of the same inputs produce identical schedules, so comparing
// the stored schedules of two runs shows what an input change did to the
// table.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
