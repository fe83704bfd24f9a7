// Package cart persists cart contents and accumulated clearance state in
// SQLite. It is the durable collaborator behind the workflow engine: the
// engine reads immutable snapshots and asks the store to remove assets or
// record authority verdicts; it never mutates cart rows directly.
//
// A file lock next to the database enforces a single writing process. If you
// add columns, update schema.sql and bump schemaVersion; stale databases are
// rejected with ErrSchemaMismatch rather than migrated in place.
package cart
