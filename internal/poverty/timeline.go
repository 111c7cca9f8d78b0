package poverty

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PersonTimeline holds every poverty status recorded for one individual.
//
// A timeline is created empty by the aggregator, filled through AddObservation and
// treated as read-only afterwards.
type PersonTimeline struct {
	country  string
	personID string
	minYear  int
	maxYear  int
	everPoor bool
	statuses map[int]PovertyStatus
}

// NewPersonTimeline creates an empty timeline for the given individual
func NewPersonTimeline(country, personID string) *PersonTimeline {
	return &PersonTimeline{
		country:  country,
		personID: personID,
		minYear:  math.MaxInt,
		maxYear:  math.MinInt,
		statuses: make(map[int]PovertyStatus),
	}
}

// Country returns the country the individual lives in
func (t *PersonTimeline) Country() string { return t.country }

// PersonID returns the person identifier
func (t *PersonTimeline) PersonID() string { return t.personID }

// Key returns the identity of the individual
func (t *PersonTimeline) Key() PersonKey {
	return PersonKey{PersonID: t.personID, Country: t.country}
}

// MinYear returns the year of the oldest recorded observation
func (t *PersonTimeline) MinYear() int { return t.minYear }

// MaxYear returns the year of the most recent observation
func (t *PersonTimeline) MaxYear() int { return t.maxYear }

// YearSpan returns the number of years between the first and last observation, inclusive
func (t *PersonTimeline) YearSpan() int {
	if len(t.statuses) == 0 {
		return 0
	}
	return 1 + (t.maxYear - t.minYear)
}

// ObservationCount returns the number of recorded years
func (t *PersonTimeline) ObservationCount() int { return len(t.statuses) }

// HasGaps reports whether some year inside the personal span has no observation
func (t *PersonTimeline) HasGaps() bool {
	return t.YearSpan() != t.ObservationCount()
}

// IsEverPoor reports whether at least one recorded year is a poverty year
func (t *PersonTimeline) IsEverPoor() bool { return t.everPoor }

// HasObservationForYear reports whether a status is recorded for the year
func (t *PersonTimeline) HasObservationForYear(year int) bool {
	_, ok := t.statuses[year]
	return ok
}

// Status returns the recorded status for the year
func (t *PersonTimeline) Status(year int) (PovertyStatus, bool) {
	s, ok := t.statuses[year]
	return s, ok
}

// AddObservation records the poverty status of a year. A year can be recorded only once.
func (t *PersonTimeline) AddObservation(year int, isPoor bool, povertyGap float64) error {
	if t.HasObservationForYear(year) {
		return fmt.Errorf("%w: (%s, %s) an observation for year %d has been already recorded",
			ErrDuplicateObservation, t.country, t.personID, year)
	}

	t.statuses[year] = PovertyStatus{Year: year, IsPoor: isPoor, PovertyGap: povertyGap}

	if year < t.minYear {
		t.minYear = year
	}
	if year > t.maxYear {
		t.maxYear = year
	}
	if isPoor {
		t.everPoor = true
	}
	return nil
}

// IsPoorInYear reports the poverty status of a year; a missing year counts as non poverty
func (t *PersonTimeline) IsPoorInYear(year int) bool {
	return t.statuses[year].IsPoor
}

// PovertyGapForYear returns the poverty gap of a year; a missing year yields 0
func (t *PersonTimeline) PovertyGapForYear(year int) float64 {
	return t.statuses[year].PovertyGap
}

// PovertyYears returns the poverty years in ascending order
func (t *PersonTimeline) PovertyYears() []int {
	var years []int
	if len(t.statuses) == 0 {
		return years
	}
	for year := t.minYear; year <= t.maxYear; year++ {
		if t.IsPoorInYear(year) {
			years = append(years, year)
		}
	}
	return years
}

// TrailingNonPovertyYears counts the non-poverty years at the end of the timeline
func (t *PersonTimeline) TrailingNonPovertyYears() int {
	count := 0
	if len(t.statuses) == 0 {
		return count
	}
	for year := t.maxYear; year >= t.minYear; year-- {
		if t.IsPoorInYear(year) {
			break
		}
		count++
	}
	return count
}

// NonPovertyYearsBetween counts the non-poverty years strictly between two years
func (t *PersonTimeline) NonPovertyYearsBetween(lowYear, highYear int) int {
	count := 0
	for year := lowYear + 1; year < highYear; year++ {
		if !t.IsPoorInYear(year) {
			count++
		}
	}
	return count
}

// PovertyGapAverageBetween returns the mean of the poverty gaps at the two endpoint years
func (t *PersonTimeline) PovertyGapAverageBetween(lowYear, highYear int) float64 {
	return (t.PovertyGapForYear(lowYear) + t.PovertyGapForYear(highYear)) / 2.0
}

// PovertyGapAverage returns the mean poverty gap over the poverty years, 0 if never poor
func (t *PersonTimeline) PovertyGapAverage() float64 {
	if !t.everPoor {
		return 0.0
	}

	var sum Sum
	for _, year := range t.PovertyYears() {
		sum.Add(t.PovertyGapForYear(year))
	}
	return sum.Value() / float64(sum.Len())
}

// PovertySequence renders the poverty flags between two years, e.g. [1:0:1]
func (t *PersonTimeline) PovertySequence(lowYear, highYear int) string {
	parts := make([]string, 0, highYear-lowYear+1)
	for year := lowYear; year <= highYear; year++ {
		if t.IsPoorInYear(year) {
			parts = append(parts, "1")
		} else {
			parts = append(parts, "0")
		}
	}
	return "[" + strings.Join(parts, ":") + "]"
}

// PovertyGapSequence renders the poverty gaps between two years, e.g. [0.5:0:0.25].
// Gaps keep at most six decimals with trailing zeros removed.
func (t *PersonTimeline) PovertyGapSequence(lowYear, highYear int) string {
	parts := make([]string, 0, highYear-lowYear+1)
	for year := lowYear; year <= highYear; year++ {
		parts = append(parts, formatGap(t.PovertyGapForYear(year)))
	}
	return "[" + strings.Join(parts, ":") + "]"
}

func formatGap(gap float64) string {
	s := strconv.FormatFloat(gap, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
