package poverty

// EmergencyEffectCalculator weights each poverty year by its position in the panel,
// so recent poverty counts more than old poverty
type EmergencyEffectCalculator struct {
	minYear     int
	maxYear     int
	waveCount   int
	denominator float64
}

// NewEmergencyEffectCalculator creates a calculator for the panel [minYear, maxYear]
func NewEmergencyEffectCalculator(minYear, maxYear int) (*EmergencyEffectCalculator, error) {
	if err := precondition(maxYear > minYear, "max year must be greater than min year"); err != nil {
		return nil, err
	}

	waveCount := (maxYear - minYear) + 1
	return &EmergencyEffectCalculator{
		minYear:     minYear,
		maxYear:     maxYear,
		waveCount:   waveCount,
		denominator: float64(waveCount*(waveCount+1)) / 2.0,
	}, nil
}

// WaveCount returns the number of years in the panel
func (c *EmergencyEffectCalculator) WaveCount() int { return c.waveCount }

// Denominator returns the triangular number of the wave count
func (c *EmergencyEffectCalculator) Denominator() float64 { return c.denominator }

// CalculateFor returns the emergency effect of the person
func (c *EmergencyEffectCalculator) CalculateFor(p *PersonTimeline) float64 {
	numerator := 0
	for _, year := range p.PovertyYears() {
		numerator += (year - c.minYear) + 1
	}
	return float64(numerator) / c.denominator
}
