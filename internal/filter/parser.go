package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pfrederiksen/concert-calendar/internal/event"
)

// dayRangePattern accepts "5", "5.", "1-15", "27.-28." and "1 - 15"
var dayRangePattern = regexp.MustCompile(`^(\d{1,2})\.?(?:\s*-\s*(\d{1,2})\.?)?$`)

// ParseDayRange parses a day range within period.
//
// Supported formats:
//   - "15" or "15." - a single day
//   - "1-15" or "27.-28." - an inclusive range
//
// Both days must exist in the period's month and the range must not run backwards.
func ParseDayRange(input string, period event.Period) (int, int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, 0, fmt.Errorf("day range cannot be empty")
	}

	matches := dayRangePattern.FindStringSubmatch(input)
	if matches == nil {
		return 0, 0, fmt.Errorf("invalid day range format %q. Use '15', '1-15' or '27.-28.'", input)
	}

	from, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid day: %s", matches[1])
	}
	to := from
	if matches[2] != "" {
		if to, err = strconv.Atoi(matches[2]); err != nil {
			return 0, 0, fmt.Errorf("invalid day: %s", matches[2])
		}
	}

	last := period.DaysIn()
	for _, d := range []int{from, to} {
		if d < 1 || d > last {
			return 0, 0, fmt.Errorf("invalid day %d for %s", d, period)
		}
	}
	if from > to {
		return 0, 0, fmt.Errorf("start day must not be after end day")
	}
	return from, to, nil
}

var statusNames = map[string]event.Status{
	"scheduled": event.StatusNone,
	"sold-out":  event.StatusSoldOut,
	"soldout":   event.StatusSoldOut,
	"postponed": event.StatusPostponed,
	"canceled":  event.StatusCanceled,
	"cancelled": event.StatusCanceled,
}

// ParseStatuses parses a comma-separated list of status names
// ("scheduled", "sold-out", "postponed", "canceled").
func ParseStatuses(input string) ([]event.Status, error) {
	statuses := make([]event.Status, 0)
	for _, name := range SplitList(input) {
		s, ok := statusNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown status: %s", name)
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

// StatusName is the inverse of ParseStatuses for a single status
func StatusName(s event.Status) string {
	if s == event.StatusNone {
		return "scheduled"
	}
	return string(s)
}

// SplitList splits a comma-separated flag value, dropping blanks
func SplitList(input string) []string {
	parts := make([]string, 0)
	for _, p := range strings.Split(input, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
