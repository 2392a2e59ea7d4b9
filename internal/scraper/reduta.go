package scraper

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-calendar/internal/event"
)

var (
	redutaStart  = event.MustClock("19:00")
	redutaCellID = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
)

// Reduta pages its calendar by month (/program-cs/MMYYYY). Each day cell carries the
// event as an HTML fragment inside a JSON data-label attribute and the detail page in
// data-link.
var Reduta = Definition{
	Name:    "Reduta Jazz Club",
	City:    "Praha",
	URL:     "https://www.redutajazzclub.cz/program-cs",
	PageURL: redutaPageURL,
	Browser: true,
	WaitFor: "td[data-link]",
	Parse:   parseReduta,
}

func redutaPageURL(base string, p event.Period) string {
	return fmt.Sprintf("%s/%02d%d", strings.TrimSuffix(base, "/"), p.Month, p.Year)
}

type redutaLabel struct {
	Body string `json:"body"`
}

func parseReduta(doc *goquery.Document, pc ParseContext) []*event.Event {
	selector := fmt.Sprintf(`td[id^="%d-%02d-"]`, pc.Period.Year, pc.Period.Month)

	return eachBlock(doc, selector, func(td *goquery.Selection) (*event.Event, bool) {
		id, _ := td.Attr("id")
		m := redutaCellID.FindStringSubmatch(id)
		if m == nil {
			return nil, false
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])

		raw, ok := td.Attr("data-label")
		if !ok {
			return nil, false
		}
		var label redutaLabel
		if err := json.Unmarshal([]byte(raw), &label); err != nil || label.Body == "" {
			return nil, false
		}
		body, err := goquery.NewDocumentFromReader(strings.NewReader(label.Body))
		if err != nil {
			return nil, false
		}

		href, _ := td.Attr("data-link")
		evt := pc.Event(body.Find("span.tt-text").First().Text(), href, day, month, year)
		if evt == nil {
			return nil, false
		}
		start := *redutaStart
		evt.Time = findClock(body.Find("span.tt-time").First().Text(), &start)
		evt.Status = DetectStatus(body.Text())
		return evt, true
	})
}
