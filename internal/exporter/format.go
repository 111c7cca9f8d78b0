package exporter

import (
	"strconv"
	"strings"
)

// DefaultPrecision is the number of decimals written for real values
const DefaultPrecision = 6

// formatFloat formats f with exactly precision decimals
func formatFloat(f float64, precision int) string {
	s := strconv.FormatFloat(f, 'f', precision, 64)
	// -0.000000 reads badly in a spreadsheet
	if strings.TrimLeft(s, "-0.") == "" {
		return strconv.FormatFloat(0, 'f', precision, 64)
	}
	return s
}

// formatInt formats an int value
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// quote encloses s in double quotes, doubling embedded quotes
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
