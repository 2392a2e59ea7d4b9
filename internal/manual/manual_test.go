package manual

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/scraper"
)

var november2025 = event.Period{Month: 11, Year: 2025}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Palác Akropolis":   "palac-akropolis",
		"Rock Café":         "rock-cafe",
		"U Staré Paní":      "u-stare-pani",
		"O2 Arena":          "o2-arena",
		"  Papírna Plzeň  ": "papirna-plzen",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("Palác Akropolis", november2025, FormatText); got != "palac-akropolis_2025-11.txt" {
		t.Errorf("FileName(text) = %q", got)
	}
	if got := FileName("Vagon", event.Period{Month: 3, Year: 2026}, FormatHTML); got != "vagon_2026-03.html" {
		t.Errorf("FileName(html) = %q", got)
	}
}

func TestDirProvider(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("palac-akropolis_2025-11.txt", "**07.11.2025 | 20:00**\nBand A\n")
	write("palac-akropolis_2025-11.html", "<html></html>")
	write("vagon_2025-11.html", "<table class=\"table\"></table>")
	write("rock-cafe_2025-11.txt", "   \n")

	p := NewDirProvider(dir)

	tests := []struct {
		name       string
		venue      string
		wantFormat Format
		wantNil    bool
	}{
		{"text wins over html", "Palác Akropolis", FormatText, false},
		{"html capture", "Vagon", FormatHTML, false},
		{"blank capture is ignored", "Rock Café", "", true},
		{"no capture", "O2 Arena", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := p.Lookup(tt.venue, november2025)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if tt.wantNil {
				if doc != nil {
					t.Errorf("Lookup() = %+v, want nil", doc)
				}
				return
			}
			if doc == nil {
				t.Fatal("Lookup() = nil, want a document")
			}
			if doc.Format != tt.wantFormat {
				t.Errorf("Format = %s, want %s", doc.Format, tt.wantFormat)
			}
			if doc.Source == "" || doc.Body == "" {
				t.Error("document should carry its source and body")
			}
		})
	}

	t.Run("other period misses", func(t *testing.T) {
		doc, err := p.Lookup("Palác Akropolis", event.Period{Month: 12, Year: 2025})
		if err != nil || doc != nil {
			t.Errorf("Lookup() = %v, %v; want nil, nil", doc, err)
		}
	})
}

func TestDirProvider_MissingDirectory(t *testing.T) {
	p := NewDirProvider(filepath.Join(t.TempDir(), "does-not-exist"))
	doc, err := p.Lookup("Vagon", november2025)
	if err != nil || doc != nil {
		t.Errorf("Lookup() = %v, %v; want nil, nil", doc, err)
	}

	var empty *DirProvider
	if doc, err := empty.Lookup("Vagon", november2025); err != nil || doc != nil {
		t.Error("nil provider should find nothing")
	}
}

func TestDirProvider_Save(t *testing.T) {
	p := NewDirProvider(filepath.Join(t.TempDir(), "manual"))
	path, err := p.Save(&Document{Venue: "Lucerna Music Bar", Period: november2025, Format: FormatHTML, Body: "<html/>"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Base(path) != "lucerna-music-bar_2025-11.html" {
		t.Errorf("saved as %s", path)
	}

	doc, err := p.Lookup("Lucerna Music Bar", november2025)
	if err != nil || doc == nil || doc.Body != "<html/>" {
		t.Errorf("Lookup after Save = %+v, %v", doc, err)
	}
}

func TestMemoryProvider(t *testing.T) {
	m := NewMemoryProvider(&Document{Venue: "Palác Akropolis", Period: november2025, Body: "digest"})

	doc, err := m.Lookup("palac akropolis", november2025)
	if err != nil || doc == nil {
		t.Fatalf("Lookup() = %v, %v", doc, err)
	}
	if doc.Format != FormatText {
		t.Errorf("default format = %s, want text", doc.Format)
	}

	if doc, _ := m.Lookup("Palác Akropolis", event.Period{Month: 10, Year: 2025}); doc != nil {
		t.Error("other period should miss")
	}
}

func TestDirProvider_RegistryNames(t *testing.T) {
	p := NewDirProvider(t.TempDir())

	for _, name := range scraper.DefaultRegistry().Names() {
		if _, err := p.Save(&Document{Venue: name, Period: november2025, Format: FormatHTML, Body: "<html></html>"}); err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}

		spelled := strings.ToUpper(scraper.Fold(name))
		doc, err := p.Lookup(spelled, november2025)
		if err != nil {
			t.Fatalf("Lookup(%s) error = %v", spelled, err)
		}
		if doc == nil {
			t.Errorf("capture of %q not found as %q", name, spelled)
		}
	}
}
