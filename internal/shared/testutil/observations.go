package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// ObservationsHeader is the header line of an observations file
const ObservationsHeader = "Year;Country;HouseholdId;PersonId;IsPoor;PovertyGap"

// Row formats one observation line, country quoted
func Row(year int, country, household, person string, poor bool, gap float64) string {
	flag := "0"
	if poor {
		flag = "1"
	}
	return fmt.Sprintf("%d;%q;%s;%s;%s;%s", year, country, household, person, flag,
		strconv.FormatFloat(gap, 'f', -1, 64))
}

// ObservationsFile joins the header and rows into file content
func ObservationsFile(rows ...string) string {
	return ObservationsHeader + "\n" + strings.Join(rows, "\n") + "\n"
}

// ThreeYearPanel is a valid dataset over 2010-2012: person A is poor every year with
// gap 0.5, person B is never poor. It yields one panel (Panel_3) and three ratios of 0.5.
func ThreeYearPanel() string {
	var rows []string
	for year := 2010; year <= 2012; year++ {
		rows = append(rows,
			Row(year, "IT", "h1", "A", true, 0.5),
			Row(year, "IT", "h2", "B", false, 0),
		)
	}
	return ObservationsFile(rows...)
}

// MixedSpans is a valid dataset with two panels: A and B observed 2010-2012 as in
// ThreeYearPanel, C and D observed 2011-2012. C is poor in 2012 only with gap 0.2,
// D is poor in both years with gap 0.4.
func MixedSpans() string {
	var rows []string
	for year := 2010; year <= 2012; year++ {
		rows = append(rows,
			Row(year, "IT", "h1", "A", true, 0.5),
			Row(year, "IT", "h2", "B", false, 0),
		)
	}
	rows = append(rows,
		Row(2011, "IT", "h3", "C", false, 0),
		Row(2012, "IT", "h3", "C", true, 0.2),
		Row(2011, "IT", "h4", "D", true, 0.4),
		Row(2012, "IT", "h4", "D", true, 0.4),
	)
	return ObservationsFile(rows...)
}

// BlankPersonOnLine5 is ThreeYearPanel with an extra record without person id on file
// line 5. It fails validation with the single error "line (5): PersonId is missing".
func BlankPersonOnLine5() string {
	rows := []string{
		Row(2010, "IT", "h1", "A", true, 0.5),
		Row(2010, "IT", "h2", "B", false, 0),
		Row(2011, "IT", "h1", "A", true, 0.5),
		Row(2011, "IT", "h9", "", false, 0),
		Row(2011, "IT", "h2", "B", false, 0),
		Row(2012, "IT", "h1", "A", true, 0.5),
		Row(2012, "IT", "h2", "B", false, 0),
	}
	return ObservationsFile(rows...)
}

// WriteObservations writes content to a file in a test temporary directory
func WriteObservations(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "observations.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write observations: %v", err)
	}
	return path
}
