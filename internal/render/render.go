// Package render turns a snapshot into the static, searchable calendar page.
//
// The page lists every concert of the month sorted by day, with a month grid, a city
// switch and free-text search running in the browser. Search ignores diacritics.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/scraper"
	"github.com/pfrederiksen/concert-calendar/internal/storage"
	"github.com/pfrederiksen/concert-calendar/internal/validate"
)

//go:embed page.html
var pageSource string

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(pageSource))

var monthNames = [...]string{
	"leden", "únor", "březen", "duben", "květen", "červen",
	"červenec", "srpen", "září", "říjen", "listopad", "prosinec",
}

// Monday first
var weekdayNames = [...]string{"Po", "Út", "St", "Čt", "Pá", "So", "Ne"}

var statusLabels = map[event.Status]string{
	event.StatusSoldOut:   "vyprodáno",
	event.StatusPostponed: "přeloženo",
	event.StatusCanceled:  "zrušeno",
}

// MonthName returns the Czech name of a month (1-12), lower case
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// Page is the view model of the calendar page
type Page struct {
	Title       string
	Total       int
	VenueCount  int
	Cities      []CityCount
	Weekdays    []string
	Blanks      []struct{}
	Days        []Day
	Cards       []Card
	Venues      []string
	GeneratedAt string
}

type CityCount struct {
	Name  string
	Count int
}

// Day is one cell of the month grid
type Day struct {
	Day     int
	Count   int
	Weekend bool
}

// Card is one concert
type Card struct {
	Day      int
	Weekday  string
	Time     string
	Title    string
	Venue    string
	City     string
	Status   string
	Canceled bool
	Link     string // only http(s) sources are linked
	Search   string // folded title, venue and city
}

// Build assembles the page for a snapshot
func Build(snapshot *event.Snapshot) *Page {
	period := snapshot.Period()
	events := snapshot.AllEvents()
	event.SortByDay(events)

	page := &Page{
		Title:       fmt.Sprintf("Koncerty %s %d", capitalize(MonthName(period.Month)), period.Year),
		Total:       len(events),
		VenueCount:  len(snapshot.Venues),
		Weekdays:    weekdayNames[:],
		GeneratedAt: snapshot.GeneratedAt,
	}

	for _, v := range snapshot.Venues {
		page.Venues = append(page.Venues, v.Venue)
	}

	if period.Validate() != nil {
		return page
	}

	perDay := make(map[int]int)
	perCity := make(map[string]int)
	for _, e := range events {
		perDay[e.Day]++
		if e.City != "" {
			perCity[e.City]++
		}
		page.Cards = append(page.Cards, card(e, period))
	}

	for city, n := range perCity {
		page.Cities = append(page.Cities, CityCount{Name: city, Count: n})
	}
	sort.Slice(page.Cities, func(i, j int) bool { return page.Cities[i].Name < page.Cities[j].Name })

	// Monday-first grid
	offset := (int(period.Weekday(1)) + 6) % 7
	page.Blanks = make([]struct{}, offset)
	for d := 1; d <= period.DaysIn(); d++ {
		page.Days = append(page.Days, Day{
			Day:     d,
			Count:   perDay[d],
			Weekend: validate.IsWeekend(period.Weekday(d)),
		})
	}

	return page
}

func card(e *event.Event, period event.Period) Card {
	c := Card{
		Day:      e.Day,
		Weekday:  weekdayNames[(int(period.Weekday(e.Day))+6)%7],
		Time:     e.TimeText(),
		Title:    e.Title,
		Venue:    e.Venue,
		City:     e.City,
		Status:   statusLabels[e.Status],
		Canceled: e.Status == event.StatusCanceled,
		Search:   scraper.Fold(strings.Join([]string{e.Title, e.Venue, e.City}, " ")),
	}
	if u, err := url.Parse(e.SourceURL); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		c.Link = e.SourceURL
	}
	return c
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// Render writes the page for a snapshot
func Render(w io.Writer, snapshot *event.Snapshot) error {
	if err := pageTemplate.Execute(w, Build(snapshot)); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

// WriteFile renders the page to path, replacing it atomically
func WriteFile(path string, snapshot *event.Snapshot) error {
	var buf bytes.Buffer
	if err := Render(&buf, snapshot); err != nil {
		return err
	}
	expanded, err := storage.ExpandPath(path)
	if err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(expanded, buf.Bytes()); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}
	return nil
}
