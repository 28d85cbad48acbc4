// Package sqlite provides the SQLite-backed passage store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It persists:
//
//   - documents: one row per ingested corpus document
//   - passages: embedded chunks, with embeddings stored as little-endian float32 BLOBs
//   - ingest_runs: a summary of every ingestion
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.parable/data/corpus.db
//
// # Thread Safety
//
// All operations are thread-safe. The store runs SQLite in WAL mode so a serving
// process can keep reading while an ingestion writes.
package sqlite
