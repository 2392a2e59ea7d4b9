// Package validate classifies a venue's scrape result against its expected size and
// runs domain sanity checks over the records.
//
// Validation never fails a run. A critical or failed result is data in the snapshot for
// whoever reviews it.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/concert-calendar/internal/event"
)

// Predicate is a sanity check over one venue's records
type Predicate interface {
	Name() string
	Check(events []*event.Event, period event.Period) *event.CheckResult
}

// Validate builds the validation result for one venue
func Validate(venue string, events []*event.Event, period event.Period, min, max int, predicates ...Predicate) *event.Validation {
	total := len(events)
	v := &event.Validation{
		Venue:         venue,
		TotalEvents:   total,
		WeekendEvents: WeekendCount(events, period),
		Health:        Classify(total, min),
		ExpectedMin:   min,
		ExpectedMax:   max,
		Checks:        make([]*event.CheckResult, 0, len(predicates)),
	}

	passed := v.Health == event.HealthHealthy
	for _, p := range predicates {
		if p == nil {
			continue
		}
		result := p.Check(events, period)
		v.Checks = append(v.Checks, result)
		if result.Applicable && !result.Passed {
			passed = false
		}
	}
	v.Passed = passed

	return v
}

// Classify maps a record count to a health state.
// Half of the expected minimum is still degraded rather than critical.
func Classify(total, min int) event.Health {
	switch {
	case total >= min:
		return event.HealthHealthy
	case 2*total >= min:
		return event.HealthDegraded
	default:
		return event.HealthCritical
	}
}

// IsWeekend reports whether a weekday counts as weekend programming (Friday to Sunday)
func IsWeekend(d time.Weekday) bool {
	return d == time.Friday || d == time.Saturday || d == time.Sunday
}

// WeekendCount counts records of the period that fall on a Friday, Saturday or Sunday
func WeekendCount(events []*event.Event, period event.Period) int {
	count := 0
	for _, e := range events {
		if e == nil || !period.Contains(e.Day, e.Month, e.Year) {
			continue
		}
		if IsWeekend(period.Weekday(e.Day)) {
			count++
		}
	}
	return count
}

// RequiredDays requires at least one record on each of the listed days of a month.
// It targets trailing days that venue pages historically dropped (late November).
// The check does not apply to other months.
type RequiredDays struct {
	Month int   `yaml:"month" json:"month"`
	Days  []int `yaml:"days" json:"days"`
}

// Name implements Predicate
func (r RequiredDays) Name() string {
	return fmt.Sprintf("required_days_%02d", r.Month)
}

// Check implements Predicate
func (r RequiredDays) Check(events []*event.Event, period event.Period) *event.CheckResult {
	result := &event.CheckResult{Name: r.Name()}
	if period.Month != r.Month || len(r.Days) == 0 {
		return result
	}
	result.Applicable = true

	present := make(map[int]bool)
	for _, e := range events {
		if e != nil && period.Contains(e.Day, e.Month, e.Year) {
			present[e.Day] = true
		}
	}

	missing := make([]string, 0)
	for _, day := range r.Days {
		if !present[day] {
			missing = append(missing, fmt.Sprintf("%d.%d.", day, r.Month))
		}
	}

	result.Passed = len(missing) == 0
	if !result.Passed {
		result.Detail = "no events on " + strings.Join(missing, ", ")
	}
	return result
}

// MaxEvents flags over-scraping: more records than a venue can plausibly host.
// A zero limit disables the check.
type MaxEvents int

// Name implements Predicate
func (m MaxEvents) Name() string {
	return "max_events"
}

// Check implements Predicate
func (m MaxEvents) Check(events []*event.Event, period event.Period) *event.CheckResult {
	result := &event.CheckResult{Name: m.Name()}
	if m <= 0 {
		return result
	}
	result.Applicable = true
	result.Passed = len(events) <= int(m)
	if !result.Passed {
		result.Detail = fmt.Sprintf("%d events exceed the expected maximum of %d", len(events), int(m))
	}
	return result
}
