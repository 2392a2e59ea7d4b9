package scraper

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-calendar/internal/event"
)

// O2 Arena hosts sports as well as concerts and its listing has no category labels
var o2ArenaSports = Denylist{
	"HC Sparta", "Bílí Tygři", "hockey", "hokej", "hokey", "FMX", "Global Champions",
	"Equestrian", "football", "basketball", "volleyball", "Sparta Praha", "Tipsport",
	"extraliga", "playoffs", "Liberec", "Litvínov", "Mladá Boleslav",
}

// O2Arena renders one preview box per event with "DD.MM.YYYY HH:MM" and a linked heading
var O2Arena = Definition{
	Name:    "O2 Arena",
	City:    "Praha",
	URL:     "https://www.o2arena.cz/en/events/",
	Browser: true,
	WaitFor: "div.event_preview",
	Parse:   parseO2Arena,
}

func parseO2Arena(doc *goquery.Document, pc ParseContext) []*event.Event {
	return eachBlock(doc, "div.event_preview", func(box *goquery.Selection) (*event.Event, bool) {
		when := cleanText(box.Find("p.time").First().Text())
		day, month, year, ok := findDate(dayMonthYearPattern, when, pc.Period.Year)
		if !ok {
			return nil, false
		}

		link := box.Find("h3 a").First()
		title := cleanText(link.Text())
		if title == "" || o2ArenaSports.Matches(title) {
			return nil, false
		}

		href, _ := link.Attr("href")
		evt := pc.Event(title, href, day, month, year)
		if evt == nil {
			return nil, false
		}
		evt.Time = findClock(when, nil)
		evt.Status = DetectStatus(box.Text())
		return evt, true
	})
}
