// Package catalog persists discovered books, delivery history, pagination
// cursors, and daily API usage counters in SQLite.
//
// The Store is the single source of truth for "has this book already been
// delivered on this channel": the delivery_items table holds one row per
// (channel, isbn13) pair, while the deliveries table keeps an append-only
// audit batch per handoff that is never mutated or deleted. Catalog
// upserts, cursor saves, and ledger inserts are each idempotent so that a
// crash between any two writes converges on a clean re-run.
//
// Schema changes are expressed as embedded SQL migrations applied inside a
// transaction and tracked in schema_migrations; applying them twice is a
// no-op.
package catalog
