package poverty

import "math"

// spell is a maximal run of consecutive poverty years
type spell struct {
	start int
	gaps  []float64
}

func (s spell) length() int { return len(s.gaps) }

// spells scans the whole timeline and returns its poverty spells in chronological order
func (t *PersonTimeline) spells() []spell {
	var spells []spell
	if len(t.statuses) == 0 {
		return spells
	}

	var current *spell
	for year := t.minYear; year <= t.maxYear; year++ {
		if t.IsPoorInYear(year) {
			if current == nil {
				current = &spell{start: year}
			}
			current.gaps = append(current.gaps, t.PovertyGapForYear(year))
			continue
		}
		if current != nil {
			spells = append(spells, *current)
			current = nil
		}
	}
	if current != nil {
		spells = append(spells, *current)
	}
	return spells
}

// SpellCount returns the number of distinct poverty spells
func (t *PersonTimeline) SpellCount() int {
	return len(t.spells())
}

// MaxSpell returns the length of the longest poverty spell, 0 if never poor
func (t *PersonTimeline) MaxSpell() int {
	longest := 0
	for _, s := range t.spells() {
		if s.length() > longest {
			longest = s.length()
		}
	}
	return longest
}

// BossertIndex sums, over the spells, the spell length times the gaps of the spell,
// normalized by the personal year span
func (t *PersonTimeline) BossertIndex() float64 {
	span := t.YearSpan()
	if span == 0 {
		return 0
	}

	var total Sum
	for _, s := range t.spells() {
		gaps := SumOf(s.gaps...)
		total.Add(gaps * float64(s.length()))
	}
	return total.Value() / float64(span)
}

// BCD2Index weights the k-th gap of each spell by 2^(k-1), so long spells escalate,
// normalized by the personal year span
func (t *PersonTimeline) BCD2Index() float64 {
	span := t.YearSpan()
	if span == 0 {
		return 0
	}

	var total Sum
	for _, s := range t.spells() {
		for k, gap := range s.gaps {
			total.Add(gap * math.Pow(2, float64(k)))
		}
	}
	return total.Value() / float64(span)
}
