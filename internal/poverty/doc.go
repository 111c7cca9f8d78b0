// Package poverty computes longitudinal poverty-persistence indices from panel survey data.
//
// The package turns a batch of person-year observations into per-person timelines,
// validates them, and derives a composite poverty index that blends a sequence effect
// (how poverty episodes are distributed and reinforced across years) with an emergency
// effect (how recent the poverty episodes are).
//
// # Core Components
//
//   - types.go: observations, poverty statuses, validation findings and result records
//   - timeline.go: PersonTimeline, the per-person year to status map
//   - aggregator.go: folds observations into unique timelines keyed by (person, country)
//   - dataset.go: structural validation, global year bounds and persistence ratios
//   - persistence.go: cohort-level poverty persistence ratios and their lookup table
//   - binomial.go: bounded table of n choose 2
//   - sum.go: canonical accumulator that sorts its terms before reducing
//   - emergency.go: recency-weighted emergency effect
//   - sequence.go: the five sequence-effect variants
//   - spells.go: spell detection, Bossert and BCD2 indices
//   - panel.go: a cohort sharing one observation span, driving the calculators
//   - composer.go: the alpha-weighted blend of sequence and emergency effects
//
// # Mathematical Foundation
//
// For a person observed over a panel of W waves, the composite index for variant k is
//
//	Index_k = alpha × V_k + (1 − alpha) × EmergencyEffect
//
// where V_k is one of the five normalized sequence-effect sums. Every aggregation goes
// through Sum, which sorts its terms ascending before reducing, so totals are bit-identical
// no matter in which order the terms were produced.
//
// # Validation
//
// Structural problems (blank identifiers, timelines that stop before the last survey year,
// gaps inside a timeline, panel misalignment) are collected as DatasetError and PanelError
// values and gate downstream computation. Invalid arguments, out-of-range lookups and
// duplicate observations are returned as errors wrapping ErrPrecondition.
package poverty
