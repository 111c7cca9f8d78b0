package poverty

import (
	"fmt"
)

// PersistenceRatio is the share of a country cohort that is poor in both reference years.
//
// The cohort is every individual of the country already observed by LowYear. Note that
// PoorInBothYears is divided by the whole cohort, not by the individuals poor in LowYear.
type PersistenceRatio struct {
	Country               string  `json:"country"`
	LowYear               int     `json:"low_year"`
	HighYear              int     `json:"high_year"`
	PopulationSize        int     `json:"population_size"`
	PoorInBothYears       int     `json:"poor_in_both_years"`
	PermanenceProbability float64 `json:"permanence_probability"`
}

// NewPersistenceRatio validates the counts and derives the probability
func NewPersistenceRatio(country string, lowYear, highYear, populationSize, stillPoorCount int) (PersistenceRatio, error) {
	if err := precondition(lowYear < highYear, "the low year argument must be less than the high year argument"); err != nil {
		return PersistenceRatio{}, err
	}
	if err := precondition(populationSize >= 0, "the population size cannot be a negative value"); err != nil {
		return PersistenceRatio{}, err
	}
	if err := precondition(stillPoorCount >= 0, "the still poor count cannot be a negative value"); err != nil {
		return PersistenceRatio{}, err
	}
	if err := precondition(stillPoorCount <= populationSize, "the still poor count cannot be greater than the population size"); err != nil {
		return PersistenceRatio{}, err
	}

	probability := 0.0
	if populationSize > 0 {
		probability = float64(stillPoorCount) / float64(populationSize)
	}

	return PersistenceRatio{
		Country:               country,
		LowYear:               lowYear,
		HighYear:              highYear,
		PopulationSize:        populationSize,
		PoorInBothYears:       stillPoorCount,
		PermanenceProbability: probability,
	}, nil
}

// Key returns the lookup key of the ratio
func (r PersistenceRatio) Key() RatioKey {
	return RatioKey{Country: r.Country, LowYear: r.LowYear, HighYear: r.HighYear}
}

// RatioKey identifies a persistence ratio by value
type RatioKey struct {
	Country  string
	LowYear  int
	HighYear int
}

// RatioTable is an immutable set of persistence ratios indexed by (country, low, high)
type RatioTable struct {
	ratios []PersistenceRatio
	index  map[RatioKey]float64
}

// NewRatioTable indexes the ratios. When a key appears twice the last ratio wins.
func NewRatioTable(ratios []PersistenceRatio) *RatioTable {
	t := &RatioTable{
		ratios: append([]PersistenceRatio(nil), ratios...),
		index:  make(map[RatioKey]float64, len(ratios)),
	}
	for _, r := range t.ratios {
		t.index[r.Key()] = r.PermanenceProbability
	}
	return t
}

// Len returns the number of ratios
func (t *RatioTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ratios)
}

// All returns a copy of the ratios in calculation order
func (t *RatioTable) All() []PersistenceRatio {
	if t == nil {
		return nil
	}
	return append([]PersistenceRatio(nil), t.ratios...)
}

// Probability returns the permanence probability for the key, or 0 when it is absent
func (t *RatioTable) Probability(country string, lowYear, highYear int) float64 {
	if t == nil {
		return 0
	}
	return t.index[RatioKey{Country: country, LowYear: lowYear, HighYear: highYear}]
}

// Lookup returns the probability and whether the key exists
func (t *RatioTable) Lookup(key RatioKey) (float64, bool) {
	if t == nil {
		return 0, false
	}
	p, ok := t.index[key]
	return p, ok
}

// PersistenceRatioCalculator computes persistence ratios over a population
type PersistenceRatioCalculator struct {
	people []*PersonTimeline
}

// NewPersistenceRatioCalculator creates a calculator; the population must not be empty
func NewPersistenceRatioCalculator(people []*PersonTimeline) (*PersistenceRatioCalculator, error) {
	if err := precondition(len(people) > 0, "the list of individuals must not be empty"); err != nil {
		return nil, err
	}
	return &PersistenceRatioCalculator{people: people}, nil
}

// CalculateRatios returns one ratio per (lowYear, highYear) pair with
// yearMin <= lowYear < highYear <= yearMax for the given country
func (c *PersistenceRatioCalculator) CalculateRatios(country string, yearMin, yearMax int) ([]PersistenceRatio, error) {
	var ratios []PersistenceRatio

	for lowYear := yearMin; lowYear < yearMax; lowYear++ {
		// cohort: people of the country already observed by lowYear
		var cohort []*PersonTimeline
		var poorInLowYear []*PersonTimeline
		for _, p := range c.people {
			if p.country != country || p.minYear > lowYear {
				continue
			}
			cohort = append(cohort, p)
			if p.IsPoorInYear(lowYear) {
				poorInLowYear = append(poorInLowYear, p)
			}
		}

		for highYear := lowYear + 1; highYear <= yearMax; highYear++ {
			stillPoor := 0
			for _, p := range poorInLowYear {
				if p.IsPoorInYear(highYear) {
					stillPoor++
				}
			}

			ratio, err := NewPersistenceRatio(country, lowYear, highYear, len(cohort), stillPoor)
			if err != nil {
				return nil, fmt.Errorf("persistence ratio %s %d-%d: %w", country, lowYear, highYear, err)
			}
			ratios = append(ratios, ratio)
		}
	}

	return ratios, nil
}
