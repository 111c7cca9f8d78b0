package poverty

// Observation is a single person-year record as read from the input file.
//
// The validate tags are evaluated by the Dataset; the notblank rule is registered
// there and rejects empty and whitespace-only values.
type Observation struct {
	Year        int     `json:"year"`
	Country     string  `json:"country" validate:"notblank"`
	HouseholdID string  `json:"household_id"`
	PersonID    string  `json:"person_id" validate:"notblank"`
	IsPoor      bool    `json:"is_poor"`
	PovertyGap  float64 `json:"poverty_gap" validate:"gte=0"`

	// Line is the source line, zero when the observation was not read from a file
	Line int `json:"line,omitempty"`
}

// PovertyStatus is the poverty condition of an individual in a given year
type PovertyStatus struct {
	Year       int     `json:"year"`
	IsPoor     bool    `json:"is_poor"`
	PovertyGap float64 `json:"poverty_gap"`
}

// PersonKey identifies an individual. Person identifiers are only unique within a country.
type PersonKey struct {
	PersonID string `json:"person_id"`
	Country  string `json:"country"`
}

// DatasetError is a structural problem found while validating a dataset
type DatasetError struct {
	Message string `json:"message"`
}

// PanelError is a structural problem found while validating a panel
type PanelError struct {
	Message string `json:"message"`
}

// SequenceEffect holds the five normalized sequence-effect variants of one person.
//
// V1 and V2 are weighted by the persistence ratio and normalized by C(W,2); V3 to V5
// ignore the ratio and are normalized by the harmonic-like denominator of the panel.
type SequenceEffect struct {
	V1 float64 `json:"v1"`
	V2 float64 `json:"v2"`
	V3 float64 `json:"v3"`
	V4 float64 `json:"v4"`
	V5 float64 `json:"v5"`
}

// Values returns the five variants in order
func (s SequenceEffect) Values() [5]float64 {
	return [5]float64{s.V1, s.V2, s.V3, s.V4, s.V5}
}

// PovertyIndexResult is one output row: a person of a panel evaluated at one alpha
type PovertyIndexResult struct {
	WaveCount          int     `json:"wave_count"`
	Country            string  `json:"country"`
	PersonID           string  `json:"person_id"`
	PovertySequence    string  `json:"poverty_sequence"`     // e.g. [1:0:1]
	PovertyGapSequence string  `json:"poverty_gap_sequence"` // e.g. [0.5:0:0.25]
	MaxSpell           int     `json:"max_spell"`
	PovertyGapAverage  float64 `json:"poverty_gap_average"`

	SequenceEffect1 float64 `json:"sequence_effect_1"`
	SequenceEffect2 float64 `json:"sequence_effect_2"`
	SequenceEffect3 float64 `json:"sequence_effect_3"`
	SequenceEffect4 float64 `json:"sequence_effect_4"`
	SequenceEffect5 float64 `json:"sequence_effect_5"`
	EmergencyEffect float64 `json:"emergency_effect"`

	BossertIndex float64 `json:"bossert_index"`
	BCD2         float64 `json:"bcd2"`

	Alpha  float64 `json:"alpha"`
	Index1 float64 `json:"se_ee_1"`
	Index2 float64 `json:"se_ee_2"`
	Index3 float64 `json:"se_ee_3"`
	Index4 float64 `json:"se_ee_4"`
	Index5 float64 `json:"se_ee_5"`

	// DecayFactor is kept for compatibility with the published file layout; always zero
	DecayFactor float64 `json:"decay_factor"`
}

// Indices returns the five composite values in order
func (r PovertyIndexResult) Indices() [5]float64 {
	return [5]float64{r.Index1, r.Index2, r.Index3, r.Index4, r.Index5}
}
