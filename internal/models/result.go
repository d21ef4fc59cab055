package models

import "time"

// Run status constants
const (
	StatusSucceeded = "SUCCEEDED" // Manifest was written
	StatusFailed    = "FAILED"    // Run stopped on a fatal error
)

// SnapshotResult describes the outcome of one snapshot run
type SnapshotResult struct {
	Manifest     *Manifest     // Files in discovery order
	Document     []byte        // Serialized manifest
	PatternText  string        // Merged pattern text passed to the matcher
	Rules        []PatternLine // Resolved rules behind PatternText
	ManifestPath string        // Where the document was written ("" when not written)
	Fingerprint  string        // SHA-256 of Document, lowercase hex
	Hashed       bool          // Whether per-file digests were recorded
	Duration     time.Duration // Time taken for the whole run
}

// FileCount returns the number of files recorded in the manifest
func (r *SnapshotResult) FileCount() int {
	if r == nil || r.Manifest == nil {
		return 0
	}
	return r.Manifest.Len()
}
