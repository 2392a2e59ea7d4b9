package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/concert-calendar/internal/event"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// "24.10.2025", "01. 11. 2025"
	dayMonthYearPattern = regexp.MustCompile(`(\d{1,2})\.\s*(\d{1,2})\.\s*(\d{4})`)
	// "24. 10", "1. 11."
	dayMonthPattern = regexp.MustCompile(`(\d{1,2})\.\s*(\d{1,2})\.?`)
	// "1/11", "23/10"
	daySlashMonthPattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)
	// "19:30"
	clockPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	// weekday label in front of a date: "Fri 7/11", "Pá 7/11", "Sobota 8.11."
	weekdayPrefixPattern = regexp.MustCompile(`(?i)^(?:today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday|dnes|zítra|pondělí|úterý|středa|čtvrtek|pátek|sobota|neděle|mon|tue|wed|thu|fri|sat|sun|po|út|st|čt|pá|so|ne)[.,]?\s*(\d)`)
)

// findDate searches text with a day/month(/year) pattern. Patterns without a year
// group take defaultYear.
func findDate(pattern *regexp.Regexp, text string, defaultYear int) (day, month, year int, ok bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, 0, false
	}
	day, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	year = defaultYear
	if len(m) > 3 && m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return 0, 0, 0, false
	}
	return day, month, year, true
}

// findClock returns the first HH:MM in text, or fallback when none is present
func findClock(text string, fallback *event.Clock) *event.Clock {
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if c := event.NewClock(hour, minute); c != nil {
		return c
	}
	return fallback
}

// resolveURL makes href absolute against the page it was found on
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ""
	}
	return b.ResolveReference(ref).String()
}

// cleanText collapses runs of whitespace and trims
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripWeekday drops a leading weekday label when a date follows it
func stripWeekday(text string) string {
	return weekdayPrefixPattern.ReplaceAllString(text, "$1")
}

// blockText returns a selection's text with element boundaries kept as spaces
func blockText(sel *goquery.Selection) string {
	parts := make([]string, 0)
	sel.Contents().Each(func(i int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			parts = append(parts, c.Text())
			return
		}
		parts = append(parts, blockText(c))
	})
	return cleanText(strings.Join(parts, " "))
}

// firstHeading returns the text of the first heading element inside sel, in document order
func firstHeading(sel *goquery.Selection) string {
	return cleanText(sel.Find("h1, h2, h3, h4, h5, h6").First().Text())
}

// Fold lowercases s and strips diacritics, so "VYPRODÁNO" matches "vyprodano"
func Fold(s string) string {
	// a chained transformer keeps state, so each call builds its own
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// containsAny reports whether text contains one of the keywords, ignoring case and diacritics
func containsAny(text string, keywords []string) bool {
	folded := Fold(text)
	for _, kw := range keywords {
		if strings.Contains(folded, Fold(kw)) {
			return true
		}
	}
	return false
}

var (
	canceledKeywords  = []string{"zrušeno", "zrušen", "canceled", "cancelled"}
	postponedKeywords = []string{"odloženo", "přesunuto", "přeloženo", "postponed", "moved", "rescheduled"}
	soldOutKeywords   = []string{"vyprodáno", "sold out", "sold-out", "soldout"}
)

// DetectStatus finds a status keyword in Czech or English.
// Without a keyword the status is StatusNone.
func DetectStatus(text string) event.Status {
	switch {
	case containsAny(text, canceledKeywords):
		return event.StatusCanceled
	case containsAny(text, postponedKeywords):
		return event.StatusPostponed
	case containsAny(text, soldOutKeywords):
		return event.StatusSoldOut
	default:
		return event.StatusNone
	}
}

// Denylist excludes non-music programming by keyword when a venue has no category labels
type Denylist []string

// Matches reports whether title hits one of the keywords
func (d Denylist) Matches(title string) bool {
	return containsAny(title, d)
}

// stripNoise removes the given phrases (regular expressions) from a title candidate
func stripNoise(text string, noise ...*regexp.Regexp) string {
	for _, re := range noise {
		text = re.ReplaceAllString(text, " ")
	}
	return cleanText(text)
}
