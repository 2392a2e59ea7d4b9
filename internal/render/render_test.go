package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pfrederiksen/concert-calendar/internal/event"
)

func testSnapshot() *event.Snapshot {
	snapshot := event.NewSnapshot(event.Period{Month: 11, Year: 2025})
	snapshot.GeneratedAt = "2025-11-01T08:00:00Z"

	late := event.NewEvent("Palác Akropolis", "Praha", "Tindersticks", "https://palacakropolis.cz/work/33298?event_id=1", 28, 11, 2025)
	late.Time = event.NewClock(20, 0)
	early := event.NewEvent("Palác Akropolis", "Praha", "<script>alert(1)</script>", "https://palacakropolis.cz/work/33298?event_id=2", 3, 11, 2025)
	snapshot.Add(&event.VenueResult{Venue: "Palác Akropolis", City: "Praha", Events: []*event.Event{late, early}})

	canceled := event.NewEvent("Watt Music Club", "Plzeň", "Škwor", "https://goout.net/cs/skwor/1", 7, 11, 2025)
	canceled.Status = event.StatusCanceled
	digest := event.NewEvent("Jazz Dock", "Praha", "Manual Band", "manual:jazz-dock#2025-11-07-1", 7, 11, 2025)
	snapshot.Add(&event.VenueResult{Venue: "Watt Music Club", City: "Plzeň", Events: []*event.Event{canceled}})
	snapshot.Add(&event.VenueResult{Venue: "Jazz Dock", City: "Praha", Events: []*event.Event{digest}})
	return snapshot
}

func TestMonthName(t *testing.T) {
	tests := []struct {
		month int
		want  string
	}{
		{1, "leden"},
		{7, "červenec"},
		{11, "listopad"},
		{12, "prosinec"},
		{0, ""},
		{13, ""},
	}
	for _, tt := range tests {
		if got := MonthName(tt.month); got != tt.want {
			t.Errorf("MonthName(%d) = %q, want %q", tt.month, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	page := Build(testSnapshot())

	if page.Title != "Koncerty Listopad 2025" {
		t.Errorf("Title = %q", page.Title)
	}
	if page.Total != 4 || page.VenueCount != 3 {
		t.Errorf("Total = %d, VenueCount = %d", page.Total, page.VenueCount)
	}

	// November 2025 starts on a Saturday
	if len(page.Blanks) != 5 {
		t.Errorf("Blanks = %d, want 5", len(page.Blanks))
	}
	if len(page.Days) != 30 {
		t.Fatalf("Days = %d, want 30", len(page.Days))
	}
	if page.Days[6].Count != 2 || !page.Days[6].Weekend {
		t.Errorf("7th = %+v, want two concerts on a weekend day", page.Days[6])
	}
	if page.Days[2].Weekend {
		t.Error("the 3rd is a Monday")
	}

	wantDays := []int{3, 7, 7, 28}
	for i, c := range page.Cards {
		if c.Day != wantDays[i] {
			t.Errorf("card %d day = %d, want %d", i, c.Day, wantDays[i])
		}
	}
	last := page.Cards[3]
	if last.Weekday != "Pá" || last.Time != "20:00" || last.Link == "" {
		t.Errorf("last card = %+v", last)
	}

	if len(page.Cities) != 2 || page.Cities[0].Name != "Plzeň" || page.Cities[1].Count != 3 {
		t.Errorf("Cities = %+v", page.Cities)
	}
}

func TestBuild_Cards(t *testing.T) {
	page := Build(testSnapshot())

	byTitle := make(map[string]Card)
	for _, c := range page.Cards {
		byTitle[c.Title] = c
	}

	skwor := byTitle["Škwor"]
	if !skwor.Canceled || skwor.Status != "zrušeno" {
		t.Errorf("canceled card = %+v", skwor)
	}
	if skwor.Search != "skwor watt music club plzen" {
		t.Errorf("Search = %q", skwor.Search)
	}
	if manual := byTitle["Manual Band"]; manual.Link != "" {
		t.Errorf("non-web source should not be linked, got %q", manual.Link)
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, testSnapshot()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<title>Koncerty Listopad 2025</title>",
		`data-city="Plzeň"`,
		"Tindersticks",
		`href="https://palacakropolis.cz/work/33298?event_id=1"`,
		"Palác Akropolis · Watt Music Club · Jazz Dock",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}

	if got := strings.Count(html, `<div class="card`); got != 4 {
		t.Errorf("rendered %d cards, want 4", got)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("titles must be escaped")
	}
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, event.NewSnapshot(event.Period{Month: 2, Year: 2026})); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Koncerty Únor 2026") {
		t.Error("empty month should still render its title")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site", "index.html")
	if err := WriteFile(path, testSnapshot()); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte("<!DOCTYPE html>")) {
		t.Error("written file is not the page")
	}
}
