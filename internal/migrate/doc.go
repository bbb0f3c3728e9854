// Package migrate moves an owner's records between schema versions through
// export bundles.
//
// Each schema version has its own bundle type. Upgrade walks a decoded
// bundle through one transition function per version step and reports every
// field it had to default. Import never copies storage state: it recreates
// each record through the lifecycle Create operation so imported data passes
// the same normalization and linking as organic writes.
package migrate
