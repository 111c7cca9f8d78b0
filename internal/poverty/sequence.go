package poverty

import (
	"fmt"
	"math"
)

// SequenceEffectCalculator measures how poverty episodes are spread and reinforced
// across a panel. Pairs of poverty years close to each other, or separated by few
// non-poverty years, weigh more.
type SequenceEffectCalculator struct {
	minYear      int
	maxYear      int
	waveCount    int
	denominator1 float64
	denominator2 float64
	ratios       *RatioTable
}

// NewSequenceEffectCalculator creates a calculator for the panel [minYear, maxYear]
// that reads pair probabilities from ratios
func NewSequenceEffectCalculator(minYear, maxYear int, ratios *RatioTable) (*SequenceEffectCalculator, error) {
	if err := precondition(maxYear > minYear, "max year must be greater than min year"); err != nil {
		return nil, err
	}
	if err := precondition(ratios != nil, "the set of poverty persistence ratios cannot be nil"); err != nil {
		return nil, err
	}

	waveCount := (maxYear - minYear) + 1

	pairs, err := BinomialChooseTwo(waveCount)
	if err != nil {
		return nil, fmt.Errorf("sequence effect denominator: %w", err)
	}

	return &SequenceEffectCalculator{
		minYear:      minYear,
		maxYear:      maxYear,
		waveCount:    waveCount,
		denominator1: float64(pairs),
		denominator2: harmonicDenominator(waveCount),
		ratios:       ratios,
	}, nil
}

// harmonicDenominator returns sum_{i=1}^{w-1} i/(w-i+1)
func harmonicDenominator(waveCount int) float64 {
	var sum Sum
	for i := 1; i < waveCount; i++ {
		sum.Add(float64(i) / float64(waveCount-i+1))
	}
	return sum.Value()
}

// Denominators returns the normalizers of V1-V2 and of V3-V5
func (c *SequenceEffectCalculator) Denominators() (float64, float64) {
	return c.denominator1, c.denominator2
}

// sequenceNumerator holds the five running sums
type sequenceNumerator struct {
	s1, s2, s3, s4, s5 Sum
}

func uniformNumerator(term float64) *sequenceNumerator {
	n := &sequenceNumerator{}
	n.s1.Add(term)
	n.s2.Add(term)
	n.s3.Add(term)
	n.s4.Add(term)
	n.s5.Add(term)
	return n
}

// CalculateFor returns the five sequence-effect variants of the person
func (c *SequenceEffectCalculator) CalculateFor(p *PersonTimeline) SequenceEffect {
	n := c.numeratorFor(p)

	return SequenceEffect{
		V1: n.s1.Value() / c.denominator1,
		V2: n.s2.Value() / c.denominator1,
		V3: n.s3.Value() / c.denominator2,
		V4: n.s4.Value() / c.denominator2,
		V5: n.s5.Value() / c.denominator2,
	}
}

func (c *SequenceEffectCalculator) numeratorFor(p *PersonTimeline) *sequenceNumerator {
	povertyYears := p.PovertyYears()

	switch len(povertyYears) {
	case 0:
		return uniformNumerator(0.0)
	case 1:
		return uniformNumerator(p.PovertyGapForYear(povertyYears[0]))
	}

	n := &sequenceNumerator{}
	for a := 0; a < len(povertyYears)-1; a++ {
		for b := a + 1; b < len(povertyYears); b++ {
			lowYear := povertyYears[a]
			highYear := povertyYears[b]
			i := (highYear - c.minYear) + 1
			j := (lowYear - c.minYear) + 1
			distance := float64(i - j + 1)

			oij := float64(p.NonPovertyYearsBetween(lowYear, highYear))
			wij := p.PovertyGapAverageBetween(lowYear, highYear)
			pij := c.ratios.Probability(p.Country(), lowYear, highYear)

			persistent := math.Pow(distance, -(pij * (oij + 1)))

			n.s1.Add(wij * persistent)
			n.s2.Add(persistent)
			n.s3.Add(wij * math.Pow(distance, -(oij+1)))
			n.s4.Add(wij * math.Pow(distance, -1.0))
			n.s5.Add(math.Pow(distance, -1.0))
		}
	}
	return n
}
