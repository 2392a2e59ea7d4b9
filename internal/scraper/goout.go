package scraper

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-calendar/internal/event"
)

// Several venues publish their program only through GoOut. The listing renders one
// div.event per show with a linked title and a time element like "Sat, 01/11, 21:00".
func goOutVenue(name, city, url string) Definition {
	return Definition{
		Name:    name,
		City:    city,
		URL:     url,
		Browser: true,
		WaitFor: "div.event",
		Parse:   parseGoOut,
	}
}

var (
	WattMusicClub = goOutVenue("Watt Music Club", "Plzeň", "https://goout.net/en/watt-music-club/vztpab/events/")
	PapirnaPlzen  = goOutVenue("Papírna Plzeň", "Plzeň", "https://goout.net/en/papirna/vzkoab/events/")
	UStarePani    = goOutVenue("U Staré Paní", "Praha", "https://goout.net/en/u-stare-pani-jazz-and-cocktail-club/vzlll/events/")
)

func parseGoOut(doc *goquery.Document, pc ParseContext) []*event.Event {
	return eachBlock(doc, "div.event", func(box *goquery.Selection) (*event.Event, bool) {
		when := cleanText(box.Find("time").First().Text())
		day, month, year, ok := findDate(daySlashMonthPattern, when, pc.Period.Year)
		if !ok {
			return nil, false
		}

		link := box.Find("a.title").First()
		href, _ := link.Attr("href")
		evt := pc.Event(link.Text(), href, day, month, year)
		if evt == nil {
			return nil, false
		}
		evt.Time = findClock(when, nil)
		evt.Status = DetectStatus(box.Text())
		return evt, true
	})
}
