// Package history records completed conversions in a local SQLite
// database so the operator can find previously produced files.
//
// The store keeps one row per successful job: output filename, source
// name, measured duration, final bitrate and the before/after sizes.
// Records outlive the files themselves; the janitor may prune outputs
// while their rows remain as an audit trail.
package history
