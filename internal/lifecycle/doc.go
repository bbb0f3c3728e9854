// Package lifecycle implements record operations on top of the entry store
// and link index.
//
// A Manager acts for exactly one owner key. Every logical record is an edge
// from that owner to the first revision of an update chain; reads resolve the
// chain to its head, updates append a revision whose predecessor is the head,
// and replace-policy kinds swap the edge to a fresh unchained entry.
//
// The generic operations (Create, Get, List, Update, Replace, Delete, Repair)
// work for any kind in the registry. The typed operations in the per-kind
// files wrap them with the payload structs from package record.
//
// Manager holds no locks. A single writer per owner is assumed; concurrent
// writers can produce duplicate edges or forked chains, which reads resolve
// deterministically and Repair cleans up.
package lifecycle
