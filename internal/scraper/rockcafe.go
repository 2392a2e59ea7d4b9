package scraper

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-calendar/internal/event"
)

var rockCafeArchive = regexp.MustCompile(`/20\d{2}/`)

// RockCafe renders its program client side. Every program card is a link to the event
// detail page with a category label; only cards labelled as music are concerts.
var RockCafe = Definition{
	Name:    "Rock Café",
	City:    "Praha",
	URL:     "https://rockcafe.cz/en/program/",
	Browser: true,
	WaitFor: `a[href*="/en/program/"]`,
	Parse:   parseRockCafe,
}

func parseRockCafe(doc *goquery.Document, pc ParseContext) []*event.Event {
	return eachBlock(doc, `a[href*="/en/program/"]`, func(a *goquery.Selection) (*event.Event, bool) {
		href, _ := a.Attr("href")
		if rockCafeArchive.MatchString(href) {
			return nil, false
		}

		category := cleanText(a.Find("span").First().Text())
		if !containsAny(category, []string{"music", "hudba", "koncert"}) {
			return nil, false
		}

		dateText := cleanText(a.Find("span.date").First().Text())
		day, month, year, ok := findDate(dayMonthYearPattern, dateText, pc.Period.Year)
		if !ok {
			return nil, false
		}

		evt := pc.Event(firstHeading(a), href, day, month, year)
		if evt == nil {
			return nil, false
		}
		evt.Time = findClock(dateText, nil)
		evt.Status = DetectStatus(a.Text())
		return evt, true
	})
}
