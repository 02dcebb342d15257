// Package store provides the SQLite store that compiled traversals read.
//
// Tables are created from a topology: one table per physical table name,
// an id primary key of the entity's id kind, and one column per property.
// Link columns are indexed.
//
// # Buffered writes
//
// After BeginBatch, inserts are queued in memory and are invisible to reads
// until Flush writes them in one transaction. Compilation flushes before
// planning so reads observe every write made before the traversal ran.
//
// # Deterministic reads
//
// Every read orders by id as the final key, so identical data yields rows
// in identical order.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - a single connection, since SQLite allows one writer
package store
