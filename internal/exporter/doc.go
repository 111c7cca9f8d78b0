// Package exporter writes the calculator outputs.
//
// Two ';' delimited text exports are produced:
//
// Persistence ratios, one line per (country, lowYear, highYear) with the country quoted.
//
// Poverty indices, one line per (panel, person, alpha) with the country and both
// sequence strings quoted. Real values are written with a fixed number of decimals.
//
// WriteWorkbook writes the same two tables plus the validation errors as an xlsx file.
//
// Example usage:
//
//	exp := exporter.New(exporter.DefaultOptions(), logger)
//	err := exporter.WriteFile("out/PPProbs.txt", func(w io.Writer) error {
//	    return exp.WritePersistenceRatios(w, ratios)
//	})
package exporter
