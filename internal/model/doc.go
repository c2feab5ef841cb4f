// Package model defines the core data structures for link-check runs:
// broken-link issues, per-run snapshots, and run-over-run deltas.
//
// All types in this package are plain data with no I/O. Issues are
// created once during CSV parsing and never mutated afterwards, which
// keeps set-based delta computation trivially correct.
package model
