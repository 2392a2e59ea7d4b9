package event

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is the target month of a run
type Period struct {
	Month int `json:"month" yaml:"month"`
	Year  int `json:"year" yaml:"year"`
}

// Validate checks that the period names a real calendar month
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("invalid month: %d (must be 1-12)", p.Month)
	}
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("invalid year: %d", p.Year)
	}
	return nil
}

// DaysIn returns the number of days in the period's month
func (p Period) DaysIn() int {
	// Day 0 of the next month is the last day of this one
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Contains reports whether the given date falls inside the period and is a real day
func (p Period) Contains(day, month, year int) bool {
	if month != p.Month || year != p.Year {
		return false
	}
	return day >= 1 && day <= p.DaysIn()
}

// Weekday returns the weekday of a day within the period
func (p Period) Weekday(day int) time.Weekday {
	return time.Date(p.Year, time.Month(p.Month), day, 0, 0, 0, 0, time.UTC).Weekday()
}

// String formats the period as "11/2025"
func (p Period) String() string {
	return fmt.Sprintf("%02d/%d", p.Month, p.Year)
}

// Clock is a wall-clock start time on a 24h clock
type Clock struct {
	Hour   int
	Minute int
}

// NewClock returns a Clock or nil when hour/minute are out of range
func NewClock(hour, minute int) *Clock {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil
	}
	return &Clock{Hour: hour, Minute: minute}
}

// ParseClock parses "20:00", "9:30" or "20.00".
// Returns nil if the text is not a valid time.
func ParseClock(text string) *Clock {
	text = strings.TrimSpace(text)
	sep := strings.IndexAny(text, ":.")
	if sep <= 0 || sep == len(text)-1 {
		return nil
	}
	hour, err := strconv.Atoi(text[:sep])
	if err != nil {
		return nil
	}
	minute, err := strconv.Atoi(text[sep+1:])
	if err != nil || len(text[sep+1:]) != 2 {
		return nil
	}
	return NewClock(hour, minute)
}

// MustClock is ParseClock for package-level defaults; it panics on bad input
func MustClock(text string) *Clock {
	c := ParseClock(text)
	if c == nil {
		panic(fmt.Sprintf("event: invalid clock %q", text))
	}
	return c
}

// String formats the clock as "HH:MM"
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns minutes since midnight, used for ordering
func (c *Clock) Minutes() int {
	if c == nil {
		return -1
	}
	return c.Hour*60 + c.Minute
}

// MarshalText implements encoding.TextMarshaler
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Clock) UnmarshalText(data []byte) error {
	parsed := ParseClock(string(data))
	if parsed == nil {
		return fmt.Errorf("invalid time: %q", string(data))
	}
	*c = *parsed
	return nil
}
