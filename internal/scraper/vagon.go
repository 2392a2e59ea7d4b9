package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-calendar/internal/event"
)

var (
	vagonStart        = event.MustClock("21:00")
	vagonSeriesPrefix = regexp.MustCompile(`(?i)^koncert v rámci[^:]*:\s*`)
	vagonClosed       = []string{"zavřeno", "closed"}
)

// Vagon publishes the current month as a table: one row per day, the day number in the
// third column and the program in the fourth. Rows carry no month, so records are dated
// in the requested period.
var Vagon = Definition{
	Name:    "Vagon",
	City:    "Praha",
	URL:     "https://www.vagon.cz/next.php",
	Browser: true,
	WaitFor: "table.table",
	Parse:   parseVagon,
}

func parseVagon(doc *goquery.Document, pc ParseContext) []*event.Event {
	events := make([]*event.Event, 0)

	doc.Find("table.table").First().Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		day, err := strconv.Atoi(strings.Trim(cleanText(cells.Eq(2).Text()), ". "))
		if err != nil || day < 1 || day > pc.Period.DaysIn() {
			return
		}

		program := cells.Eq(3)
		text := cleanText(program.Text())
		if text == "" || containsAny(text, vagonClosed) {
			return
		}

		artists := make([]string, 0)
		program.Find("a").Each(func(j int, a *goquery.Selection) {
			if name := cleanText(a.Text()); name != "" {
				artists = append(artists, name)
			}
		})

		title := strings.Join(artists, " + ")
		if title == "" {
			title = clockPattern.ReplaceAllString(text, "")
			title = vagonSeriesPrefix.ReplaceAllString(cleanText(title), "")
		}

		href, _ := program.Find("a[href]").First().Attr("href")
		if href == "" {
			href = fmt.Sprintf("%s#%d", pc.PageURL, day)
		}

		evt := pc.Event(title, href, day, pc.Period.Month, pc.Period.Year)
		if evt == nil {
			return
		}
		start := *vagonStart
		evt.Time = findClock(text, &start)
		evt.Status = DetectStatus(text)
		events = append(events, evt)
	})

	return events
}
