package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pfrederiksen/concert-calendar/internal/event"
)

var (
	// **24.10.2025 | 20:00** [SOLD OUT]
	digestHeader = regexp.MustCompile(`^\*\*\s*(\d{1,2})\.(\d{1,2})\.(\d{4})\s*(?:\|\s*(\d{1,2}[:.]\d{2}))?\s*\*\*(.*)$`)
	digestTag    = regexp.MustCompile(`\[([^\]]+)\]`)
	digestURL    = regexp.MustCompile(`https?://\S+`)
)

// ManualExtractor parses a manually captured program digest. The digest repeats three
// lines per event:
//
//	**24.10.2025 | 20:00** [SOLD OUT]
//	Artist Name
//	https://venue.example/event/123
//
// The time, the status tag and the URL line are optional.
type ManualExtractor struct {
	venue Venue
	text  string
}

// NewManualExtractor returns an extractor over captured digest text
func NewManualExtractor(venue Venue, text string) *ManualExtractor {
	return &ManualExtractor{venue: venue, text: text}
}

// Venue returns the venue name
func (m *ManualExtractor) Venue() string {
	return m.venue.Name
}

// Extract parses the digest; it never fails
func (m *ManualExtractor) Extract(ctx context.Context, period event.Period) ([]*event.Event, error) {
	pc := ParseContext{
		Venue:   m.venue.Name,
		City:    m.venue.City,
		PageURL: m.venue.URL,
		Period:  period,
	}
	return Finalize(ParseDigest(m.text, pc), period), nil
}

type digestEntry struct {
	day, month, year int
	clock            *event.Clock
	status           event.Status
	title            string
	href             string
}

// ParseDigest reads digest text into events. Entries without a URL line link to the
// venue page with a fragment naming the date, time and position, which keeps them
// distinct for dedup.
func ParseDigest(text string, pc ParseContext) []*event.Event {
	entries := make([]*digestEntry, 0)
	var current *digestEntry

	// lines have no length limit
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := digestHeader.FindStringSubmatch(line); m != nil {
			current = &digestEntry{}
			current.day, _ = strconv.Atoi(m[1])
			current.month, _ = strconv.Atoi(m[2])
			current.year, _ = strconv.Atoi(m[3])
			if m[4] != "" {
				current.clock = event.ParseClock(m[4])
			}
			current.status = digestStatus(m[5])
			entries = append(entries, current)
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case current.title == "" && current.href == "" && digestURL.MatchString(line) && !strings.Contains(line, " "):
			current.href = line
		case current.title == "" && current.href == "":
			if status := digestStatus(line); status != event.StatusNone && current.status == event.StatusNone {
				current.status = status
			}
			current.title = cleanText(digestTag.ReplaceAllString(line, ""))
		case current.href == "":
			if u := digestURL.FindString(line); u != "" {
				current.href = u
			}
		}
	}

	base := pc.PageURL
	if base == "" {
		base = "manual:" + strings.ReplaceAll(Fold(pc.Venue), " ", "-")
	}

	events := make([]*event.Event, 0, len(entries))
	for i, e := range entries {
		href := e.href
		if href == "" {
			href = fmt.Sprintf("%s#%04d-%02d-%02d-%d", base, e.year, e.month, e.day, i+1)
		}
		evt := pc.Event(e.title, href, e.day, e.month, e.year)
		if evt == nil {
			continue
		}
		evt.Time = e.clock
		evt.Status = e.status
		events = append(events, evt)
	}
	return events
}

// digestStatus reads bracketed status tags such as [CANCELED], [MOVED] or [SOLD OUT]
func digestStatus(text string) event.Status {
	for _, m := range digestTag.FindAllStringSubmatch(text, -1) {
		if status := DetectStatus(m[1]); status != event.StatusNone {
			return status
		}
	}
	return event.StatusNone
}
