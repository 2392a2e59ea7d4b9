// Package manual provides manually captured program data for venues whose sites resist
// automation. A captured document for a venue and period replaces the live fetch.
package manual

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/scraper"
)

// Format tells how a captured document is parsed
type Format string

const (
	// FormatText is the program digest read by the manual text extractor
	FormatText Format = "text"
	// FormatHTML is a saved program page parsed with the venue's own parser
	FormatHTML Format = "html"
)

// Document is one captured program for a venue and period
type Document struct {
	Venue  string
	Period event.Period
	Format Format
	Body   string
	// Source names where the capture came from (a file path for directory providers)
	Source string
}

// Provider looks up captured data. A missing capture is (nil, nil).
type Provider interface {
	Lookup(venue string, period event.Period) (*Document, error)
}

// Slug turns a venue name into its file name stem: "Palác Akropolis" -> "palac-akropolis"
func Slug(venue string) string {
	folded := nonSlug.ReplaceAllString(scraper.Fold(venue), "-")
	return strings.Trim(folded, "-")
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// FileName returns the capture file name for a venue, period and format
func FileName(venue string, period event.Period, format Format) string {
	ext := ".txt"
	if format == FormatHTML {
		ext = ".html"
	}
	return fmt.Sprintf("%s_%04d-%02d%s", Slug(venue), period.Year, period.Month, ext)
}

// DirProvider reads captures from a directory of <venue-slug>_<YYYY>-<MM>.txt|.html files.
// A text capture wins over an HTML capture for the same venue and period.
type DirProvider struct {
	dir string
}

// NewDirProvider returns a provider over dir. The directory may not exist yet.
func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{dir: dir}
}

// Lookup implements Provider
func (p *DirProvider) Lookup(venue string, period event.Period) (*Document, error) {
	if p == nil || p.dir == "" {
		return nil, nil
	}

	for _, format := range []Format{FormatText, FormatHTML} {
		path := filepath.Join(p.dir, FileName(venue, period, format))
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading manual data %s: %w", path, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		return &Document{
			Venue:  venue,
			Period: period,
			Format: format,
			Body:   string(data),
			Source: path,
		}, nil
	}
	return nil, nil
}

// Save writes a capture into the directory, replacing an existing one
func (p *DirProvider) Save(doc *Document) (string, error) {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", fmt.Errorf("creating manual data directory: %w", err)
	}
	path := filepath.Join(p.dir, FileName(doc.Venue, doc.Period, doc.Format))
	if err := os.WriteFile(path, []byte(doc.Body), 0644); err != nil {
		return "", fmt.Errorf("writing manual data: %w", err)
	}
	return path, nil
}

// MemoryProvider keeps captures in memory
type MemoryProvider struct {
	docs map[string]*Document
}

// NewMemoryProvider returns a provider holding docs
func NewMemoryProvider(docs ...*Document) *MemoryProvider {
	m := &MemoryProvider{docs: make(map[string]*Document)}
	for _, d := range docs {
		m.Add(d)
	}
	return m
}

// Add registers a capture, replacing one for the same venue and period
func (m *MemoryProvider) Add(doc *Document) {
	if doc.Format == "" {
		doc.Format = FormatText
	}
	if doc.Source == "" {
		doc.Source = "memory"
	}
	m.docs[memoryKey(doc.Venue, doc.Period)] = doc
}

// Lookup implements Provider
func (m *MemoryProvider) Lookup(venue string, period event.Period) (*Document, error) {
	if m == nil {
		return nil, nil
	}
	return m.docs[memoryKey(venue, period)], nil
}

func memoryKey(venue string, period event.Period) string {
	return fmt.Sprintf("%s_%04d-%02d", Slug(venue), period.Year, period.Month)
}
