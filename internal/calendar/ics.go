// Package calendar exports concerts as an iCalendar (RFC 5545) feed.
package calendar

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // Europe/Prague on hosts without zoneinfo
	"unicode/utf8"

	"github.com/pfrederiksen/concert-calendar/internal/event"
)

// DefaultDuration is assumed for every concert; listings carry no end time
const DefaultDuration = 3 * time.Hour

const prodID = "-//Concert Calendar//concert-calendar//CS"

var prague = mustLocation("Europe/Prague")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// GenerateICS generates an iCalendar (.ics) file holding one concert
func GenerateICS(evt *event.Event, stamp time.Time) string {
	return GenerateFeed([]*event.Event{evt}, "", stamp)
}

// GenerateFeed generates a calendar with one VEVENT per concert.
// Returns an empty string when there are no events.
func GenerateFeed(events []*event.Event, name string, stamp time.Time) string {
	if len(events) == 0 {
		return ""
	}

	var ics strings.Builder
	writeLine(&ics, "BEGIN:VCALENDAR")
	writeLine(&ics, "VERSION:2.0")
	writeLine(&ics, "PRODID:"+prodID)
	writeLine(&ics, "CALSCALE:GREGORIAN")
	writeLine(&ics, "METHOD:PUBLISH")
	if name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(name))
		writeLine(&ics, "X-WR-TIMEZONE:Europe/Prague")
	}

	for _, evt := range events {
		if evt == nil {
			continue
		}
		writeEvent(&ics, evt, stamp)
	}

	writeLine(&ics, "END:VCALENDAR")
	return ics.String()
}

// GenerateSnapshotFeed exports every concert of a snapshot, named after its month
func GenerateSnapshotFeed(snapshot *event.Snapshot, stamp time.Time) string {
	return GenerateFeed(snapshot.AllEvents(), "Koncerty "+snapshot.Period().String(), stamp)
}

func writeEvent(ics *strings.Builder, evt *event.Event, stamp time.Time) {
	writeLine(ics, "BEGIN:VEVENT")
	writeLine(ics, fmt.Sprintf("UID:%s@concert-calendar", evt.ID))
	writeLine(ics, "DTSTAMP:"+formatICSTime(stamp))

	if evt.Time != nil {
		start := time.Date(evt.Year, time.Month(evt.Month), evt.Day, evt.Time.Hour, evt.Time.Minute, 0, 0, prague)
		writeLine(ics, "DTSTART:"+formatICSTime(start))
		writeLine(ics, "DTEND:"+formatICSTime(start.Add(DefaultDuration)))
	} else {
		day := time.Date(evt.Year, time.Month(evt.Month), evt.Day, 0, 0, 0, 0, time.UTC)
		writeLine(ics, "DTSTART;VALUE=DATE:"+day.Format("20060102"))
		writeLine(ics, "DTEND;VALUE=DATE:"+day.AddDate(0, 0, 1).Format("20060102"))
	}

	writeLine(ics, "SUMMARY:"+escapeICS(evt.Title))

	description := fmt.Sprintf("%s, %s\n%s", evt.Venue, evt.City, evt.DateText())
	if t := evt.TimeText(); t != "" {
		description += " " + t
	}
	if evt.Status != event.StatusNone {
		description += "\nStatus: " + string(evt.Status)
	}
	writeLine(ics, "DESCRIPTION:"+escapeICS(description))

	location := evt.Venue
	if evt.City != "" {
		location = fmt.Sprintf("%s, %s", evt.Venue, evt.City)
	}
	writeLine(ics, "LOCATION:"+escapeICS(location))

	if evt.SourceURL != "" {
		writeLine(ics, "URL:"+evt.SourceURL)
	}
	writeLine(ics, "STATUS:"+icsStatus(evt.Status))
	writeLine(ics, "TRANSP:OPAQUE")
	writeLine(ics, "END:VEVENT")
}

func icsStatus(s event.Status) string {
	switch s {
	case event.StatusCanceled:
		return "CANCELLED"
	case event.StatusPostponed:
		return "TENTATIVE"
	default:
		return "CONFIRMED"
	}
}

// writeLine writes a content line folded at 75 octets without splitting a rune
func writeLine(ics *strings.Builder, line string) {
	limit := 75
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines lose one octet to the leading space
		limit = 74
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
