// Package shared holds helpers used by more than one layer of the service.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and canned invoice records for pipeline, store and handler tests.
package shared
