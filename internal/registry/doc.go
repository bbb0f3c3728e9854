// Package registry declares the record kinds ownerchain knows about.
//
// The registry is a CUE document embedded in the binary (registry.cue),
// validated against schema.cue and compiled into KindSpec values at startup.
// Each kind carries its cardinality, update policy, logical timestamp field,
// optional instance-key field and payload field list.
//
// Normalize is the single entry point for payload validation. It fills
// missing fields with declared defaults and drops unknown fields, so payloads
// written under older registries stay readable and importable.
package registry
