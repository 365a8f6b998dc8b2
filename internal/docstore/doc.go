// Package docstore provides the typed document collections every concept
// persists through.
//
// # Architecture
//
// A Collection[T] wraps a Driver and owns the store-managed fields:
//
//   - _id: UUIDv7 string, so ordering by id is ordering by creation time
//   - dateCreated / dateUpdated: UTC timestamps
//
// Drivers:
//
//   - MemoryDriver: process memory, one mutex, used by tests and "memory" deployments
//   - SQLDriver (SQLite): modernc.org/sqlite with JSON1 expressions
//   - SQLDriver (Postgres): pgx stdlib with jsonb bodies and goose migrations
//
// All drivers store one row per document in a single documents table keyed by
// (collection, id).
//
// # Atomic list edits
//
// AddToSet and Pull rewrite a string list field in a single statement, so
// concurrent appends to the same document never lose each other's values.
//
// # Unique indexes
//
// Collections declare Index values at registration. A write that collides
// returns ErrDuplicate. FindOrCreate builds on this: it inserts first and
// reads the holder of the key on conflict, so two concurrent callers always
// end up with the same document.
//
// # Partial updates
//
// Fields carries only the keys to write. Use SetIfPresent to copy optional
// pointer arguments:
//
//	f := docstore.Fields{}
//	docstore.SetIfPresent(f, "title", title)
//	err := posts.PartialUpdateOne(ctx, docstore.Filter{docstore.IDField: id}, f)
package docstore
