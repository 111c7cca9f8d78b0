package poverty

import (
	"fmt"
	"math"
)

// DefaultAlphaStep is the spacing of the default alpha sweep {0.0, 0.1, ..., 1.0}
const DefaultAlphaStep = 0.1

// IndexComposer blends a sequence effect with an emergency effect
type IndexComposer struct {
	Alpha float64
}

// NewIndexComposer creates a composer for the mixing weight alpha
func NewIndexComposer(alpha float64) IndexComposer {
	return IndexComposer{Alpha: alpha}
}

// Compose returns alpha·sequence + (1−alpha)·emergency
func (c IndexComposer) Compose(sequence, emergency float64) float64 {
	return (c.Alpha * sequence) + ((1.0 - c.Alpha) * emergency)
}

// ComposeAll applies Compose to the five sequence-effect variants
func (c IndexComposer) ComposeAll(sequence SequenceEffect, emergency float64) [5]float64 {
	var out [5]float64
	for i, v := range sequence.Values() {
		out[i] = c.Compose(v, emergency)
	}
	return out
}

// AlphaSweep returns the mixing weights 0, step, 2·step, ..., 1.
//
// Each weight is computed as k/n rather than by repeated addition, so the default step
// yields exactly 0.0, 0.1, ..., 1.0 (11 values). The step must divide 1 evenly.
func AlphaSweep(step float64) ([]float64, error) {
	if err := precondition(step > 0 && step <= 1, "alpha step must be in (0, 1], got %v", step); err != nil {
		return nil, err
	}

	n := int(math.Round(1 / step))
	if math.Abs(float64(n)*step-1) > 1e-9 {
		return nil, fmt.Errorf("%w: alpha step %v does not divide 1", ErrPrecondition, step)
	}

	alphas := make([]float64, 0, n+1)
	for k := 0; k <= n; k++ {
		alphas = append(alphas, float64(k)/float64(n))
	}
	return alphas, nil
}
