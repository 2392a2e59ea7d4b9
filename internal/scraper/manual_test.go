package scraper

import (
	"context"
	"strings"
	"testing"

	"github.com/pfrederiksen/concert-calendar/internal/event"
)

const akropolisDigest = `
Program Palác Akropolis, listopad 2025

**07.11.2025 | 20:00**
Band A
https://palacakropolis.cz/work/33298?event_id=1

**08.11.2025 | 21:30** [SOLD OUT]
Band B
https://palacakropolis.cz/work/33298?event_id=2

**09.11.2025**
Band C [CANCELED]

**10.11.2025 | 19:00**
[MOVED] Band D
https://palacakropolis.cz/work/33298?event_id=4

**01.12.2025 | 20:00**
December Band
https://palacakropolis.cz/work/33298?event_id=5

**11.11.2025 | 20:00**
https://palacakropolis.cz/work/33298?event_id=6
`

func TestManualExtractor(t *testing.T) {
	venue := Venue{Name: "Palác Akropolis", City: "Praha", URL: "https://palacakropolis.cz/work/33298"}
	ex := NewManualExtractor(venue, akropolisDigest)

	events, err := ex.Extract(context.Background(), november2025)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	checkEvents(t, events, []wantEvent{
		{day: 7, title: "Band A", time: "20:00", url: "https://palacakropolis.cz/work/33298?event_id=1"},
		{day: 8, title: "Band B", time: "21:30", status: event.StatusSoldOut},
		{day: 9, title: "Band C", status: event.StatusCanceled},
		{day: 10, title: "Band D", time: "19:00", status: event.StatusPostponed},
	})

	if !strings.HasPrefix(events[2].SourceURL, "https://palacakropolis.cz/work/33298#") {
		t.Errorf("entry without URL line should link to the venue page, got %q", events[2].SourceURL)
	}
	if events[0].Venue != "Palác Akropolis" || events[0].City != "Praha" {
		t.Errorf("record stamped %s/%s", events[0].Venue, events[0].City)
	}
}

func TestParseDigest_WithoutVenueURL(t *testing.T) {
	pc := ParseContext{Venue: "Jazz Dock", City: "Praha", Period: november2025}
	text := "**14.11.2025 | 20:00**\nQuartet\n\n**15.11.2025 | 20:00**\nTrio\n"

	events := Finalize(ParseDigest(text, pc), november2025)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].SourceURL == events[1].SourceURL {
		t.Error("entries without URLs must stay distinct")
	}
	if !strings.HasPrefix(events[0].SourceURL, "manual:jazz-dock#") {
		t.Errorf("SourceURL = %q", events[0].SourceURL)
	}
}

func TestParseDigest_LongLine(t *testing.T) {
	pc := ParseContext{Venue: "Jazz Dock", City: "Praha", Period: november2025}
	text := "**14.11.2025 | 20:00**\nQuartet\nhttps://www.jazzdock.cz/cs/koncert/quartet\n" +
		strings.Repeat("x", 70000) + "\n" +
		"**15.11.2025 | 20:00**\nTrio\nhttps://www.jazzdock.cz/cs/koncert/trio\n"

	events := Finalize(ParseDigest(text, pc), november2025)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].Title != "Trio" {
		t.Errorf("second entry title = %q, want %q", events[1].Title, "Trio")
	}
}
