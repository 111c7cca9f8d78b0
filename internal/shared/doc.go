// Package shared groups helpers used across the codebase that belong to no single
// layer.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//	- BufferedSlogHandler, a slog.Handler capturing records for assertions
//	- observation file fixtures (ThreeYearPanel, MixedSpans, BlankPersonOnLine5)
//	- WriteObservations to place a fixture in a test temporary directory
//
// Example usage:
//
//	func TestLoad(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteObservations(t, testutil.ThreeYearPanel())
//	    // ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
