package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/scraper"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByVenue SortOrder = "venue"
	SortByTitle SortOrder = "title"
)

// sortEvents sorts a slice of events based on the specified sort order
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByVenue:
		sort.SliceStable(events, func(i, j int) bool {
			vi, vj := scraper.Fold(events[i].Venue), scraper.Fold(events[j].Venue)
			if vi != vj {
				return vi < vj
			}
			// If venues are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	case SortByTitle:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := scraper.Fold(events[i].Title), scraper.Fold(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate reports whether i comes before j: by date, start time, then title.
// Untimed events come first within a day.
func compareByDate(i, j *event.Event) bool {
	if i.Year != j.Year {
		return i.Year < j.Year
	}
	if i.Month != j.Month {
		return i.Month < j.Month
	}
	if i.Day != j.Day {
		return i.Day < j.Day
	}
	if mi, mj := i.Time.Minutes(), j.Time.Minutes(); mi != mj {
		return mi < mj
	}
	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}
