package poverty

import "sort"

// Sum accumulates floating point terms and reduces them in a canonical order.
//
// Terms are sorted ascending before a left-to-right reduction, so two sums fed the same
// terms in any order produce bit-identical totals. Every aggregation in this package goes
// through Sum; callers must not fold terms themselves.
type Sum struct {
	terms []float64
}

// Add appends a term
func (s *Sum) Add(term float64) {
	s.terms = append(s.terms, term)
}

// AddAll appends several terms
func (s *Sum) AddAll(terms ...float64) {
	s.terms = append(s.terms, terms...)
}

// Len returns the number of accumulated terms
func (s *Sum) Len() int { return len(s.terms) }

// Value sorts the terms and returns their total
func (s *Sum) Value() float64 {
	sort.Float64s(s.terms)

	total := 0.0
	for _, term := range s.terms {
		total += term
	}
	return total
}

// SumOf returns the canonical total of the given terms without modifying them
func SumOf(terms ...float64) float64 {
	s := Sum{terms: append([]float64(nil), terms...)}
	return s.Value()
}
