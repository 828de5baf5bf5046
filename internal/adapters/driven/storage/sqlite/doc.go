// Package sqlite provides the SQLite-backed run ledger.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Every sync run is recorded with its
// counters, start and end cursor, and per-bookmark failures so `xbm history` can
// show what happened after the terminal output is gone.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <state-dir>/runs.db, next to the sync state file.
package sqlite
