// Package filter narrows a snapshot's concerts down for the list command.
//
// Criteria combine with AND; within one criterion (several cities, several venues) any
// value may match. Text comparisons ignore case and Czech diacritics, so "plzen" matches
// "Plzeň".
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Cities = []string{"praha"}
//	f.WeekendsOnly = true
//	shows := f.Apply(snapshot.AllEvents())
package filter

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/scraper"
	"github.com/pfrederiksen/concert-calendar/internal/validate"
)

// Filter represents event filtering criteria
type Filter struct {
	// Day range within the month, inclusive; 0 leaves a side open
	DayFrom int `json:"day_from,omitempty"`
	DayTo   int `json:"day_to,omitempty"`

	// City and venue filtering (substring match)
	Cities []string `json:"cities,omitempty"`
	Venues []string `json:"venues,omitempty"`

	// Query matches the title or the venue
	Query string `json:"query,omitempty"`

	// Friday to Sunday, the same weekend the validator counts
	WeekendsOnly bool `json:"weekends_only,omitempty"`

	// Statuses keeps only the listed statuses; event.StatusNone is a regular show
	Statuses []event.Status `json:"statuses,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Cities:   []string{},
		Venues:   []string{},
		Statuses: []event.Status{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DayFrom == 0 &&
		f.DayTo == 0 &&
		len(f.Cities) == 0 &&
		len(f.Venues) == 0 &&
		strings.TrimSpace(f.Query) == "" &&
		!f.WeekendsOnly &&
		len(f.Statuses) == 0
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events.
func (f *Filter) Matches(evt *event.Event) bool {
	if evt == nil {
		return false
	}
	if f.IsEmpty() {
		return true
	}

	if f.DayFrom > 0 && evt.Day < f.DayFrom {
		return false
	}
	if f.DayTo > 0 && evt.Day > f.DayTo {
		return false
	}

	if f.WeekendsOnly {
		period := event.Period{Month: evt.Month, Year: evt.Year}
		if period.Validate() != nil || !validate.IsWeekend(period.Weekday(evt.Day)) {
			return false
		}
	}

	if len(f.Cities) > 0 && !matchAny(evt.City, f.Cities) {
		return false
	}
	if len(f.Venues) > 0 && !matchAny(evt.Venue, f.Venues) {
		return false
	}

	if q := scraper.Fold(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(scraper.Fold(evt.Title), q) && !strings.Contains(scraper.Fold(evt.Venue), q) {
			return false
		}
	}

	if len(f.Statuses) > 0 {
		matched := false
		for _, s := range f.Statuses {
			if evt.Status == s {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// matchAny reports whether value contains one of the wanted strings, folded
func matchAny(value string, wanted []string) bool {
	folded := scraper.Fold(value)
	for _, w := range wanted {
		if strings.Contains(folded, scraper.Fold(strings.TrimSpace(w))) {
			return true
		}
	}
	return false
}

// Apply returns the events that match all criteria.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(events []*event.Event) []*event.Event {
	if f.IsEmpty() {
		return events
	}

	filtered := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "Days: 1-15 | Cities: Praha | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	switch {
	case f.DayFrom > 0 && f.DayTo > 0:
		parts = append(parts, fmt.Sprintf("Days: %d-%d", f.DayFrom, f.DayTo))
	case f.DayFrom > 0:
		parts = append(parts, fmt.Sprintf("From day: %d", f.DayFrom))
	case f.DayTo > 0:
		parts = append(parts, fmt.Sprintf("To day: %d", f.DayTo))
	}

	if len(f.Cities) > 0 {
		parts = append(parts, fmt.Sprintf("Cities: %s", strings.Join(f.Cities, ", ")))
	}
	if len(f.Venues) > 0 {
		parts = append(parts, fmt.Sprintf("Venues: %s", strings.Join(f.Venues, ", ")))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		parts = append(parts, fmt.Sprintf("Query: %q", q))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}
	if len(f.Statuses) > 0 {
		names := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			names = append(names, StatusName(s))
		}
		parts = append(parts, fmt.Sprintf("Status: %s", strings.Join(names, ", ")))
	}

	return strings.Join(parts, " | ")
}

// Clone creates a deep copy of the filter.
func (f *Filter) Clone() *Filter {
	clone := &Filter{
		DayFrom:      f.DayFrom,
		DayTo:        f.DayTo,
		Query:        f.Query,
		WeekendsOnly: f.WeekendsOnly,
	}

	clone.Cities = make([]string, len(f.Cities))
	copy(clone.Cities, f.Cities)

	clone.Venues = make([]string, len(f.Venues))
	copy(clone.Venues, f.Venues)

	clone.Statuses = make([]event.Status, len(f.Statuses))
	copy(clone.Statuses, f.Statuses)

	return clone
}
