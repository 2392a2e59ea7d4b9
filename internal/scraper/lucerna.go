package scraper

import (
	"regexp"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-calendar/internal/event"
)

// text around the title inside a Lucerna program item
var lucernaNoise = []*regexp.Regexp{
	daySlashMonthPattern,
	clockPattern,
	regexp.MustCompile(`(?i)\b(sold out|vyprodáno|canceled|cancelled|zrušeno|postponed|odloženo|moved)\b`),
	regexp.MustCompile(`(?i)\b(tickets|vstupenky|buy|koupit|more info|detail)\b`),
	regexp.MustCompile(`(?i)\b(doors|začátek|start)\b:?`),
}

// LucernaMusicBar renders program items as links whose text mixes weekday, "D/M" date,
// start time, title and ticket labels. The heading is the title when there is one.
var LucernaMusicBar = Definition{
	Name:    "Lucerna Music Bar",
	City:    "Praha",
	URL:     "https://musicbar.cz/en/program/",
	Browser: true,
	WaitFor: "a.program-item",
	Parse:   parseLucerna,
}

func parseLucerna(doc *goquery.Document, pc ParseContext) []*event.Event {
	return eachBlock(doc, "a.program-item", func(a *goquery.Selection) (*event.Event, bool) {
		text := blockText(a)
		day, month, year, ok := findDate(daySlashMonthPattern, text, pc.Period.Year)
		if !ok {
			return nil, false
		}

		title := firstHeading(a)
		if title == "" {
			title = stripNoise(stripWeekday(cleanText(text)), lucernaNoise...)
		}
		if utf8.RuneCountInString(title) < 2 {
			return nil, false
		}

		href, _ := a.Attr("href")
		evt := pc.Event(title, href, day, month, year)
		if evt == nil {
			return nil, false
		}
		evt.Time = findClock(text, nil)
		evt.Status = DetectStatus(text)
		return evt, true
	})
}
