// Package ir provides the core record types shared by every ownerchain package.
//
// This package contains type definitions, canonical serialization and content
// hashing only. All other internal packages import ir; ir imports nothing
// internal. This keeps it the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types in payloads - timestamps and counters are int64 microseconds
//   - Entries are immutable; identity is the content hash, never a row id
//   - All JSON tags use snake_case
//   - Ordering uses the store-assigned seq (insertion order) or the payload's
//     embedded logical timestamp, never wall-clock write time
package ir
