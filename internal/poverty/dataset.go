package poverty

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// HeaderLines is the number of lines preceding the first observation in an input file
const HeaderLines = 1

// observationValidator checks the struct tags of Observation
var observationValidator = newObservationValidator()

func newObservationValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Dataset is the validated set of observations of one load together with the derived
// timelines and, when the dataset is valid, the persistence ratios
type Dataset struct {
	observations []Observation
	people       []*PersonTimeline
	errors       []DatasetError
	ratios       *RatioTable
	yearMin      int
	yearMax      int
	logger       *slog.Logger
}

// NewDataset builds the timelines, validates observations and timelines and, if no
// validation error was found, computes the persistence ratios of every country.
//
// Validation problems are recorded as DatasetError values. The returned error is reserved
// for precondition failures such as an empty input or a duplicate person-year.
func NewDataset(ctx context.Context, observations []Observation, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := precondition(len(observations) > 0, "the dataset contains no observations"); err != nil {
		return nil, err
	}

	ds := &Dataset{
		observations: observations,
		ratios:       NewRatioTable(nil),
		logger:       logger,
	}

	valid := ds.validateObservations()

	aggregator := NewPersonAggregator()
	for _, o := range valid {
		if err := aggregator.Add(o); err != nil {
			return nil, err
		}
	}
	ds.people = aggregator.People()

	ds.yearMin, ds.yearMax = observations[0].Year, observations[0].Year
	for _, o := range observations[1:] {
		if o.Year < ds.yearMin {
			ds.yearMin = o.Year
		}
		if o.Year > ds.yearMax {
			ds.yearMax = o.Year
		}
	}

	ds.validatePeople()

	ds.logger.InfoContext(ctx, "dataset built",
		slog.Int("observations", len(observations)),
		slog.Int("people", len(ds.people)),
		slog.Int("year_min", ds.yearMin),
		slog.Int("year_max", ds.yearMax),
		slog.Int("errors", len(ds.errors)),
	)

	if !ds.IsValid() {
		ds.logger.WarnContext(ctx, "dataset is not valid, skipping persistence ratios",
			slog.Int("errors", len(ds.errors)))
		return ds, nil
	}

	if err := ds.calculatePersistenceRatios(); err != nil {
		return nil, err
	}

	ds.logger.InfoContext(ctx, "persistence ratios calculated",
		slog.Int("ratios", ds.ratios.Len()))

	return ds, nil
}

// IsValid reports whether no validation error was recorded
func (ds *Dataset) IsValid() bool { return len(ds.errors) == 0 }

// Observations returns the observations in input order
func (ds *Dataset) Observations() []Observation { return ds.observations }

// People returns the timelines sorted by country then person id
func (ds *Dataset) People() []*PersonTimeline { return ds.people }

// Errors returns the validation errors in discovery order
func (ds *Dataset) Errors() []DatasetError { return ds.errors }

// PersistenceRatios returns the computed ratios; empty when the dataset is not valid
func (ds *Dataset) PersistenceRatios() []PersistenceRatio { return ds.ratios.All() }

// RatioTable returns the indexed persistence ratios
func (ds *Dataset) RatioTable() *RatioTable { return ds.ratios }

// YearMin returns the oldest observed year
func (ds *Dataset) YearMin() int { return ds.yearMin }

// YearMax returns the most recent observed year
func (ds *Dataset) YearMax() int { return ds.yearMax }

// YearSpan returns the number of years covered by the dataset
func (ds *Dataset) YearSpan() int { return 1 + (ds.yearMax - ds.yearMin) }

func (ds *Dataset) addError(format string, args ...any) {
	ds.errors = append(ds.errors, DatasetError{Message: fmt.Sprintf(format, args...)})
}

// validateObservations records blank identifiers and negative gaps and returns the
// observations that passed. Observations without a source line are numbered by
// position, after the header line.
func (ds *Dataset) validateObservations() []Observation {
	valid := make([]Observation, 0, len(ds.observations))

	for i, o := range ds.observations {
		line := o.Line
		if line == 0 {
			line = i + 1 + HeaderLines
		}

		err := observationValidator.Struct(o)
		if err == nil {
			valid = append(valid, o)
			continue
		}

		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			ds.addError("line (%d): %v", line, err)
			continue
		}
		for _, fe := range fieldErrors {
			ds.addError("line (%d): %s", line, describeFieldError(fe))
		}
	}

	return valid
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Field() {
	case "Country":
		return "Country is missing"
	case "PersonID":
		return "PersonId is missing"
	case "PovertyGap":
		return "PovertyGap cannot be negative"
	default:
		return fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag())
	}
}

func (ds *Dataset) validatePeople() {
	for _, p := range ds.people {
		if p.MaxYear() != ds.yearMax {
			ds.addError("Person (%s, %s): observations do not extend to %d", p.PersonID(), p.Country(), ds.yearMax)
		}
		if p.HasGaps() {
			ds.addError("Person (%s, %s): observations do not cover entire personal span", p.PersonID(), p.Country())
		}
	}
}

func (ds *Dataset) calculatePersistenceRatios() error {
	calculator, err := NewPersistenceRatioCalculator(ds.people)
	if err != nil {
		return fmt.Errorf("persistence ratios: %w", err)
	}

	var ratios []PersistenceRatio
	for _, country := range ds.Countries() {
		countryRatios, err := calculator.CalculateRatios(country, ds.yearMin, ds.yearMax)
		if err != nil {
			return fmt.Errorf("persistence ratios for %s: %w", country, err)
		}
		ratios = append(ratios, countryRatios...)
	}

	ds.ratios = NewRatioTable(ratios)
	return nil
}

// Countries returns the distinct countries of the population in ascending order
func (ds *Dataset) Countries() []string {
	seen := make(map[string]struct{})
	var countries []string
	for _, p := range ds.people {
		if _, ok := seen[p.Country()]; ok {
			continue
		}
		seen[p.Country()] = struct{}{}
		countries = append(countries, p.Country())
	}
	sort.Strings(countries)
	return countries
}

// PeopleWithSpan returns the timelines whose personal span equals span
func (ds *Dataset) PeopleWithSpan(span int) []*PersonTimeline {
	var cohort []*PersonTimeline
	for _, p := range ds.people {
		if p.YearSpan() == span {
			cohort = append(cohort, p)
		}
	}
	return cohort
}
