package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-calendar/internal/event"
)

// Akropolis lists its program as a static table. Cells read "24. 10 Artist Name" with no
// year and no start time; the event link carries an event_id query parameter.
var Akropolis = Definition{
	Name:  "Palác Akropolis",
	City:  "Praha",
	URL:   "https://palacakropolis.cz/work/33298",
	Parse: parseAkropolis,
}

func parseAkropolis(doc *goquery.Document, pc ParseContext) []*event.Event {
	return eachBlock(doc, "td", func(td *goquery.Selection) (*event.Event, bool) {
		// layout tables nest; only leaf cells hold a single event
		if td.Find("td").Length() > 0 {
			return nil, false
		}

		link := td.Find(`a[href*="event_id="]`).First()
		if link.Length() == 0 {
			return nil, false
		}

		text := cleanText(td.Text())
		day, month, year, ok := findDate(dayMonthPattern, text, pc.Period.Year)
		if !ok {
			return nil, false
		}

		title := afterDate(cleanText(link.Text()))
		if title == "" {
			title = afterDate(text)
		}

		href, _ := link.Attr("href")
		evt := pc.Event(title, href, day, month, year)
		if evt == nil {
			return nil, false
		}
		evt.Status = DetectStatus(text)
		return evt, true
	})
}

// afterDate returns what follows the leading day/month date in text, or text itself
// when it carries no date
func afterDate(text string) string {
	loc := dayMonthPattern.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return strings.TrimSpace(text[loc[1]:])
}
