package poverty

import (
	"fmt"
)

// personEffects caches the per-person outputs of a panel
type personEffects struct {
	sequence  SequenceEffect
	emergency float64
	bossert   float64
	bcd2      float64
}

// PanelData is a cohort of individuals observed over the same span of years.
//
// The cohort and the ratio table are borrowed from the Dataset and never modified.
type PanelData struct {
	yearMin  int
	yearMax  int
	yearSpan int
	people   []*PersonTimeline
	ratios   *RatioTable
	errors   []PanelError
	effects  map[PersonKey]personEffects
}

// NewPanelData validates the cohort against the panel bounds and, when it is valid,
// computes the sequence effect, emergency effect, Bossert and BCD2 indices of every
// ever-poor member
func NewPanelData(yearMin, yearMax int, people []*PersonTimeline, ratios *RatioTable) (*PanelData, error) {
	if err := precondition(yearMin < yearMax, "year min must be less than year max"); err != nil {
		return nil, err
	}
	if err := precondition(len(people) > 0, "you must pass a non empty population"); err != nil {
		return nil, err
	}
	if err := precondition(ratios.Len() > 0, "you must pass the set of poverty persistence ratios to use for calculations"); err != nil {
		return nil, err
	}

	yearSpan := 1 + (yearMax - yearMin)
	if err := precondition(yearSpan <= MaxBinomialN,
		"the oldest and the most recent observation cannot differ by more than %d years", MaxBinomialN); err != nil {
		return nil, err
	}

	pd := &PanelData{
		yearMin:  yearMin,
		yearMax:  yearMax,
		yearSpan: yearSpan,
		people:   people,
		ratios:   ratios,
		effects:  make(map[PersonKey]personEffects),
	}

	pd.validatePeople()
	if !pd.IsValid() {
		return pd, nil
	}

	if err := pd.calculateEffects(); err != nil {
		return nil, err
	}
	return pd, nil
}

// Name identifies the panel in messages, e.g. Panel_5
func (pd *PanelData) Name() string {
	return fmt.Sprintf("Panel_%d", pd.yearSpan)
}

// YearMin returns the first year of the panel
func (pd *PanelData) YearMin() int { return pd.yearMin }

// YearMax returns the last year of the panel
func (pd *PanelData) YearMax() int { return pd.yearMax }

// YearSpan returns the number of waves of the panel
func (pd *PanelData) YearSpan() int { return pd.yearSpan }

// People returns the cohort
func (pd *PanelData) People() []*PersonTimeline { return pd.people }

// RatioTable returns the persistence ratios used by the panel
func (pd *PanelData) RatioTable() *RatioTable { return pd.ratios }

// Errors returns the validation errors of the panel
func (pd *PanelData) Errors() []PanelError { return pd.errors }

// IsValid reports whether the cohort passed validation
func (pd *PanelData) IsValid() bool { return len(pd.errors) == 0 }

// EverPoor returns the members with at least one poverty year
func (pd *PanelData) EverPoor() []*PersonTimeline {
	var poor []*PersonTimeline
	for _, p := range pd.people {
		if p.IsEverPoor() {
			poor = append(poor, p)
		}
	}
	return poor
}

func (pd *PanelData) addError(p *PersonTimeline, reason string) {
	pd.errors = append(pd.errors, PanelError{
		Message: fmt.Sprintf("%s: person (%s, %s): %s", pd.Name(), p.Country(), p.PersonID(), reason),
	})
}

func (pd *PanelData) validatePeople() {
	for _, p := range pd.people {
		if p.MinYear() != pd.yearMin {
			pd.addError(p, "first observation year does not correspond to first year for panel")
		}
		if p.MaxYear() != pd.yearMax {
			pd.addError(p, "last observation year does not correspond to last year for panel")
		}
		if p.ObservationCount() != pd.yearSpan {
			pd.addError(p, "observations do not cover the entire span")
		}
	}
}

func (pd *PanelData) calculateEffects() error {
	sequence, err := NewSequenceEffectCalculator(pd.yearMin, pd.yearMax, pd.ratios)
	if err != nil {
		return fmt.Errorf("%s: %w", pd.Name(), err)
	}
	emergency, err := NewEmergencyEffectCalculator(pd.yearMin, pd.yearMax)
	if err != nil {
		return fmt.Errorf("%s: %w", pd.Name(), err)
	}

	for _, p := range pd.EverPoor() {
		pd.effects[p.Key()] = personEffects{
			sequence:  sequence.CalculateFor(p),
			emergency: emergency.CalculateFor(p),
			bossert:   p.BossertIndex(),
			bcd2:      p.BCD2Index(),
		}
	}
	return nil
}

// SequenceEffect returns the cached sequence effect of an ever-poor member
func (pd *PanelData) SequenceEffect(key PersonKey) (SequenceEffect, bool) {
	e, ok := pd.effects[key]
	return e.sequence, ok
}

// EmergencyEffect returns the cached emergency effect of an ever-poor member
func (pd *PanelData) EmergencyEffect(key PersonKey) (float64, bool) {
	e, ok := pd.effects[key]
	return e.emergency, ok
}

// CalculatePovertyIndex returns one result per ever-poor member for the mixing weight alpha
func (pd *PanelData) CalculatePovertyIndex(alpha float64) ([]PovertyIndexResult, error) {
	if !pd.IsValid() {
		return nil, fmt.Errorf("%s: cannot calculate poverty index: %w", pd.Name(), ErrPanelInvalid)
	}

	composer := NewIndexComposer(alpha)
	var results []PovertyIndexResult

	for _, p := range pd.EverPoor() {
		e, ok := pd.effects[p.Key()]
		if !ok {
			return nil, fmt.Errorf("%w: %s: no effects cached for (%s, %s)",
				ErrPrecondition, pd.Name(), p.Country(), p.PersonID())
		}
		idx := composer.ComposeAll(e.sequence, e.emergency)

		results = append(results, PovertyIndexResult{
			WaveCount:          pd.yearSpan,
			Country:            p.Country(),
			PersonID:           p.PersonID(),
			PovertySequence:    p.PovertySequence(pd.yearMin, pd.yearMax),
			PovertyGapSequence: p.PovertyGapSequence(pd.yearMin, pd.yearMax),
			MaxSpell:           p.MaxSpell(),
			PovertyGapAverage:  p.PovertyGapAverage(),
			SequenceEffect1:    e.sequence.V1,
			SequenceEffect2:    e.sequence.V2,
			SequenceEffect3:    e.sequence.V3,
			SequenceEffect4:    e.sequence.V4,
			SequenceEffect5:    e.sequence.V5,
			EmergencyEffect:    e.emergency,
			BossertIndex:       e.bossert,
			BCD2:               e.bcd2,
			Alpha:              alpha,
			Index1:             idx[0],
			Index2:             idx[1],
			Index3:             idx[2],
			Index4:             idx[3],
			Index5:             idx[4],
		})
	}

	return results, nil
}
