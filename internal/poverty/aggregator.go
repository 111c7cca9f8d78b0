package poverty

import (
	"fmt"
	"sort"
)

// PersonAggregator folds observations into one timeline per (person, country)
type PersonAggregator struct {
	people map[PersonKey]*PersonTimeline
}

// NewPersonAggregator creates an empty aggregator
func NewPersonAggregator() *PersonAggregator {
	return &PersonAggregator{people: make(map[PersonKey]*PersonTimeline)}
}

// Add records the observation on the timeline of its individual, creating it on first sight
func (a *PersonAggregator) Add(o Observation) error {
	key := PersonKey{PersonID: o.PersonID, Country: o.Country}

	person, ok := a.people[key]
	if !ok {
		person = NewPersonTimeline(o.Country, o.PersonID)
		a.people[key] = person
	}

	if err := person.AddObservation(o.Year, o.IsPoor, o.PovertyGap); err != nil {
		return fmt.Errorf("aggregate observation: %w", err)
	}
	return nil
}

// Len returns the number of distinct individuals seen so far
func (a *PersonAggregator) Len() int { return len(a.people) }

// Lookup returns the timeline of an individual
func (a *PersonAggregator) Lookup(key PersonKey) (*PersonTimeline, bool) {
	p, ok := a.people[key]
	return p, ok
}

// People returns the distinct timelines sorted by country then person id
func (a *PersonAggregator) People() []*PersonTimeline {
	people := make([]*PersonTimeline, 0, len(a.people))
	for _, p := range a.people {
		people = append(people, p)
	}
	sortTimelines(people)
	return people
}

func sortTimelines(people []*PersonTimeline) {
	sort.Slice(people, func(i, j int) bool {
		if people[i].country != people[j].country {
			return people[i].country < people[j].country
		}
		return people[i].personID < people[j].personID
	})
}
