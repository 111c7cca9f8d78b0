package http

import (
	"pindex/internal/poverty"
	"pindex/internal/services"
)

// PersonView is the JSON form of a person timeline
type PersonView struct {
	Country           string  `json:"country"`
	PersonID          string  `json:"person_id"`
	MinYear           int     `json:"min_year"`
	MaxYear           int     `json:"max_year"`
	YearSpan          int     `json:"year_span"`
	Observations      int     `json:"observations"`
	EverPoor          bool    `json:"ever_poor"`
	PovertySequence   string  `json:"poverty_sequence"`
	PovertyGapAverage float64 `json:"poverty_gap_average"`
	SpellCount        int     `json:"spell_count"`
	MaxSpell          int     `json:"max_spell"`
	BossertIndex      float64 `json:"bossert_index"`
	BCD2              float64 `json:"bcd2"`
}

func newPersonView(p *poverty.PersonTimeline) PersonView {
	return PersonView{
		Country:           p.Country(),
		PersonID:          p.PersonID(),
		MinYear:           p.MinYear(),
		MaxYear:           p.MaxYear(),
		YearSpan:          p.YearSpan(),
		Observations:      p.ObservationCount(),
		EverPoor:          p.IsEverPoor(),
		PovertySequence:   p.PovertySequence(p.MinYear(), p.MaxYear()),
		PovertyGapAverage: p.PovertyGapAverage(),
		SpellCount:        p.SpellCount(),
		MaxSpell:          p.MaxSpell(),
		BossertIndex:      p.BossertIndex(),
		BCD2:              p.BCD2Index(),
	}
}

// ListResponse wraps every collection endpoint
type ListResponse[T any] struct {
	RunID string `json:"run_id,omitempty"`
	Count int    `json:"count"`
	Items []T    `json:"items"`
}

func newList[T any](snap *services.Snapshot, items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{RunID: snap.RunID, Count: len(items), Items: items}
}

// LoadResponse is returned by a dataset upload
type LoadResponse struct {
	Dataset services.DatasetStatus      `json:"dataset"`
	Panels  []services.PanelSummary     `json:"panels"`
	Errors  []services.ApplicationError `json:"errors"`
	Message string                      `json:"message,omitempty"`
}

func newLoadResponse(snap *services.Snapshot) LoadResponse {
	resp := LoadResponse{
		Dataset: services.DescribeSnapshot(snap),
		Panels:  snap.Panels(),
		Errors:  snap.Errors(),
	}
	if resp.Panels == nil {
		resp.Panels = []services.PanelSummary{}
	}
	if resp.Errors == nil {
		resp.Errors = []services.ApplicationError{}
	}
	if !snap.IsValid() {
		resp.Message = "The panel is not valid. Please fix errors in file and load it again"
	}
	return resp
}
