package ir

// SchemaVersion is the record schema version written into export bundles.
// The kind registry declares the same version.
const SchemaVersion = "1.9"
