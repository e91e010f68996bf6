// Package dataset holds the canonical sales dataset in memory.
//
// A Store keeps one immutable Snapshot behind an atomic pointer. Readers
// load the pointer once and compute against that snapshot; Refresh builds a
// complete replacement and swaps it in with a single store, so a reader
// never sees a half-loaded dataset. A failed refresh leaves the previous
// snapshot in place.
package dataset
