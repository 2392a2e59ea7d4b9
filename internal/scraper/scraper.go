package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/fetch"
	"github.com/pfrederiksen/concert-calendar/internal/logger"
)

// Extractor produces the normalized events of one venue for a target period.
// An empty result is valid; an error means the document could not be retrieved.
type Extractor interface {
	Venue() string
	Extract(ctx context.Context, period event.Period) ([]*event.Event, error)
}

// Venue identifies the venue an extractor works for. Name and City are stamped on
// every record; URL overrides the Definition's default program address when set.
type Venue struct {
	Name string
	City string
	URL  string
}

// ParseContext carries what a parser needs besides the markup
type ParseContext struct {
	Venue   string
	City    string
	PageURL string
	Period  event.Period
}

// Event builds a record for this venue with href resolved against the page URL.
// Returns nil for blank titles.
func (pc ParseContext) Event(title, href string, day, month, year int) *event.Event {
	return event.NewEvent(pc.Venue, pc.City, cleanText(title), resolveURL(pc.PageURL, href), day, month, year)
}

// Definition describes how one venue's program is fetched and parsed
type Definition struct {
	Name string
	City string
	URL  string
	// PageURL builds the address for a period when the venue paginates by month
	PageURL func(base string, period event.Period) string

	Browser bool
	WaitFor string
	Scroll  *fetch.ScrollPolicy
	Timeout time.Duration

	Parse func(doc *goquery.Document, pc ParseContext) []*event.Event
}

// Address returns the program URL for a period
func (d Definition) Address(base string, period event.Period) string {
	if base == "" {
		base = d.URL
	}
	if d.PageURL != nil {
		return d.PageURL(base, period)
	}
	return base
}

// Request builds the fetch request for a period
func (d Definition) Request(base string, period event.Period) fetch.Request {
	return fetch.Request{
		URL:     d.Address(base, period),
		WaitFor: d.WaitFor,
		Scroll:  d.Scroll,
		Timeout: d.Timeout,
	}
}

// PageExtractor fetches a venue page and parses it with the venue's Definition
type PageExtractor struct {
	def     Definition
	venue   Venue
	fetcher fetch.Fetcher
}

// NewPageExtractor pairs a Definition with the fetcher its venue needs
func NewPageExtractor(def Definition, venue Venue, fetcher fetch.Fetcher) *PageExtractor {
	if venue.Name == "" {
		venue.Name = def.Name
	}
	if venue.City == "" {
		venue.City = def.City
	}
	return &PageExtractor{def: def, venue: venue, fetcher: fetcher}
}

// NewDocumentExtractor parses manually captured markup with the venue's Definition.
// No network access happens.
func NewDocumentExtractor(def Definition, venue Venue, markup string) *PageExtractor {
	return NewPageExtractor(def, venue, prefetched(markup))
}

// Venue returns the venue name
func (e *PageExtractor) Venue() string {
	return e.venue.Name
}

// Extract fetches the program page for period and returns its events
func (e *PageExtractor) Extract(ctx context.Context, period event.Period) ([]*event.Event, error) {
	req := e.def.Request(e.venue.URL, period)

	logger.Info("Scraping venue", logger.Fields{
		"venue":  e.venue.Name,
		"period": period.String(),
		"url":    req.URL,
	})

	markup, err := e.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	pc := ParseContext{
		Venue:   e.venue.Name,
		City:    e.venue.City,
		PageURL: req.URL,
		Period:  period,
	}
	events, err := ParseMarkup(e.def, markup, pc)
	if err != nil {
		return nil, err
	}

	logger.Info("Found events", logger.Fields{"venue": e.venue.Name, "events": len(events)})
	return events, nil
}

// ParseMarkup runs a Definition's parser over markup and finalizes the result.
// It is a pure function of markup and period.
func ParseMarkup(def Definition, markup string, pc ParseContext) ([]*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return Finalize(def.Parse(doc, pc), pc.Period), nil
}

// Finalize drops records outside the period, untitled records and records without a
// source URL, then removes duplicate URLs and sorts by day.
func Finalize(events []*event.Event, period event.Period) []*event.Event {
	kept := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if evt == nil || evt.SourceURL == "" {
			continue
		}
		if !period.Contains(evt.Day, evt.Month, evt.Year) {
			continue
		}
		kept = append(kept, evt)
	}
	unique := event.Dedup(kept)
	event.SortByDay(unique)
	return unique
}

// eachBlock applies parse to every selection matching selector, collecting the hits
func eachBlock(doc *goquery.Document, selector string, parse func(*goquery.Selection) (*event.Event, bool)) []*event.Event {
	events := make([]*event.Event, 0)
	doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
		if evt, ok := parse(sel); ok && evt != nil {
			events = append(events, evt)
		}
	})
	return events
}

type prefetched string

func (p prefetched) Fetch(ctx context.Context, req fetch.Request) (string, error) {
	return string(p), nil
}
