package event

import (
	"sort"
	"strings"
)

// Health classifies a venue's result count against its expected bounds
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthDegraded Health = "degraded"
	HealthCritical Health = "critical"
)

// CheckResult is the outcome of one sanity predicate
type CheckResult struct {
	Name       string `json:"name"`
	Applicable bool   `json:"applicable"`
	Passed     bool   `json:"passed"`
	Detail     string `json:"detail,omitempty"`
}

// Validation is the per-venue validation result stored in the snapshot
type Validation struct {
	Venue         string         `json:"venue"`
	TotalEvents   int            `json:"total_events"`
	WeekendEvents int            `json:"weekend_events"`
	Health        Health         `json:"health"`
	ExpectedMin   int            `json:"expected_min"`
	ExpectedMax   int            `json:"expected_max"`
	Checks        []*CheckResult `json:"checks,omitempty"`
	Passed        bool           `json:"passed"`
}

// VenueResult bundles one venue's records with its validation
type VenueResult struct {
	Venue      string      `json:"venue"`
	City       string      `json:"city"`
	Strategy   string      `json:"strategy"`
	Attempts   int         `json:"attempts"`
	Events     []*Event    `json:"events"`
	Validation *Validation `json:"validation"`
}

// Snapshot is the aggregated output document of one run
type Snapshot struct {
	RunID         string         `json:"run_id"`
	Month         int            `json:"month"`
	Year          int            `json:"year"`
	GeneratedAt   string         `json:"generated_at"` // RFC3339 timestamp
	TotalEvents   int            `json:"total_events"`
	HealthSummary map[Health]int `json:"health_summary"`
	Venues        []*VenueResult `json:"venues"`
}

// NewSnapshot creates an empty snapshot for a period
func NewSnapshot(period Period) *Snapshot {
	return &Snapshot{
		Month:         period.Month,
		Year:          period.Year,
		HealthSummary: make(map[Health]int),
		Venues:        make([]*VenueResult, 0),
	}
}

// Period returns the snapshot's target period
func (s *Snapshot) Period() Period {
	return Period{Month: s.Month, Year: s.Year}
}

// Add appends a venue result and updates the aggregate counters
func (s *Snapshot) Add(result *VenueResult) {
	s.Venues = append(s.Venues, result)
	s.TotalEvents += len(result.Events)
	if result.Validation != nil {
		s.HealthSummary[result.Validation.Health]++
	}
}

// AllEvents returns every event in the snapshot, ordered by date
func (s *Snapshot) AllEvents() []*Event {
	all := make([]*Event, 0, s.TotalEvents)
	for _, v := range s.Venues {
		all = append(all, v.Events...)
	}
	SortByDay(all)
	return all
}

// Dedup removes events sharing a source URL, keeping the first occurrence.
// Records without a title are dropped as well.
func Dedup(events []*Event) []*Event {
	seen := make(map[string]bool)
	unique := make([]*Event, 0, len(events))
	for _, evt := range events {
		if evt == nil || strings.TrimSpace(evt.Title) == "" {
			continue
		}
		if !seen[evt.SourceURL] {
			seen[evt.SourceURL] = true
			unique = append(unique, evt)
		}
	}
	return unique
}

// SortByDay orders events by day, then start time, then title.
// Events without a time sort before timed events on the same day.
func SortByDay(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Day != events[j].Day {
			return events[i].Day < events[j].Day
		}
		if ti, tj := events[i].Time.Minutes(), events[j].Time.Minutes(); ti != tj {
			return ti < tj
		}
		return strings.ToLower(events[i].Title) < strings.ToLower(events[j].Title)
	})
}
