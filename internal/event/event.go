package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
)

// Status is an optional tag asserted by the venue for an event.
// The zero value means no status was asserted, not that the event is confirmed.
type Status string

const (
	StatusNone      Status = ""
	StatusSoldOut   Status = "sold-out"
	StatusPostponed Status = "postponed"
	StatusCanceled  Status = "canceled"
)

// Event is the normalized concert record every venue extractor produces
type Event struct {
	ID        string `json:"id"`
	Day       int    `json:"day"`
	Month     int    `json:"month"`
	Year      int    `json:"year"`
	Time      *Clock `json:"time,omitempty"`
	Title     string `json:"title"`
	Venue     string `json:"venue"`
	City      string `json:"city"`
	SourceURL string `json:"source_url"`
	Status    Status `json:"status,omitempty"`
}

// GenerateID creates a deterministic ID for an event from its source URL.
// Two records with the same source URL describe the same event.
func GenerateID(sourceURL string) string {
	h := sha1.New()
	h.Write([]byte(strings.TrimSpace(sourceURL)))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewEvent creates a new Event with its ID populated and the title trimmed.
// It returns nil when the title is blank, so callers never emit untitled records.
func NewEvent(venue, city, title, sourceURL string, day, month, year int) *Event {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	return &Event{
		ID:        GenerateID(sourceURL),
		Day:       day,
		Month:     month,
		Year:      year,
		Title:     title,
		Venue:     venue,
		City:      city,
		SourceURL: sourceURL,
	}
}

// DateText formats the event date the way the venues print it: "05.03.2025"
func (e *Event) DateText() string {
	return fmt.Sprintf("%02d.%02d.%d", e.Day, e.Month, e.Year)
}

// TimeText returns the start time or an empty string when the venue did not publish one
func (e *Event) TimeText() string {
	if e.Time == nil {
		return ""
	}
	return e.Time.String()
}
