package scraper

import (
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/fetch"
)

var (
	meetFactoryTime  = regexp.MustCompile(`^\s*(\d{1,2}[.:]\d{2})`)
	meetFactoryStart = event.MustClock("20:00")
)

// MeetFactory loads its music program with infinite scroll. Boxes show the date as
// "1. 11." and the start as "20.00".
var MeetFactory = Definition{
	Name:    "MeetFactory",
	City:    "Praha",
	URL:     "https://meetfactory.cz/cs/program/hudba",
	Browser: true,
	WaitFor: "div.ab-box",
	Scroll: &fetch.ScrollPolicy{
		MaxScrolls: fetch.DefaultMaxScrolls,
		Pause:      1500 * time.Millisecond,
	},
	Parse: parseMeetFactory,
}

func parseMeetFactory(doc *goquery.Document, pc ParseContext) []*event.Event {
	return eachBlock(doc, "div.ab-box", func(box *goquery.Selection) (*event.Event, bool) {
		dateText := cleanText(box.Find("p.abb-date b").First().Text())
		day, month, year, ok := findDate(dayMonthPattern, dateText, pc.Period.Year)
		if !ok {
			return nil, false
		}

		title := cleanText(box.Find(`h3 span[itemprop="name"]`).First().Text())
		if title == "" {
			title = cleanText(box.Find("h3").First().Text())
		}

		link := box.Find(`a[href*="/program/detail/"]`).First()
		href, _ := link.Attr("href")

		evt := pc.Event(title, href, day, month, year)
		if evt == nil {
			return nil, false
		}

		start := *meetFactoryStart
		evt.Time = &start
		box.Find("p.abb-date span").EachWithBreak(func(i int, span *goquery.Selection) bool {
			m := meetFactoryTime.FindStringSubmatch(span.Text())
			if m == nil {
				return true
			}
			if c := event.ParseClock(m[1]); c != nil {
				evt.Time = c
				return false
			}
			return true
		})
		evt.Status = DetectStatus(box.Text())
		return evt, true
	})
}
