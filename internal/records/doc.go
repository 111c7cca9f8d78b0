// Package records reads the observation files fed to the calculator.
//
// A file is a ';' delimited text file whose first line is a header. Every other
// non-empty line is one observation:
//
//	year;"country";householdId;personId;isPoor;povertyGap
//
// isPoor is 1 for a poverty year and 0 otherwise. Blank country or person
// identifiers are not rejected here: they are reported later as dataset errors.
package records
