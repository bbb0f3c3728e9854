// Package store provides SQLite-backed storage for ownerchain entries and
// link edges.
//
// Two tables back the two storage primitives:
//   - entries: immutable content-addressed payloads with an optional
//     predecessor. Successors of a hash are the non-deleted entries that name
//     it as predecessor, in seq order.
//   - edges: (owner, kind[, instance key]) -> entry hash, in insertion order.
//
// # Validation
//
// Every write is checked against the author of the revision it touches:
// an update whose predecessor belongs to another author, a delete by a
// non-author, and an edge pointing at another author's entry are all rejected
// with an UNAUTHORIZED error. Predecessors must already exist, so an entry can
// never name itself or a descendant and chains are acyclic.
//
// # Ordering
//
// Entry seq is assigned inside the write transaction and is part of the entry
// hash. All list queries use ORDER BY seq ASC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
