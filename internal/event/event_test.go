package event

import (
	"encoding/json"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id1 := GenerateID("https://rockcafe.cz/en/program/band-a/")
	id2 := GenerateID("https://rockcafe.cz/en/program/band-a/")
	id3 := GenerateID("https://rockcafe.cz/en/program/band-b/")

	if id1 != id2 {
		t.Errorf("GenerateID should be deterministic, got %s vs %s", id1, id2)
	}
	if id1 == id3 {
		t.Error("different URLs should produce different IDs")
	}
	if len(id1) != 40 { // SHA1 produces 40 hex characters
		t.Errorf("expected ID length of 40, got %d", len(id1))
	}
}

func TestNewEvent(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantNil bool
		want    string
	}{
		{name: "trims title", title: "  Band A  ", want: "Band A"},
		{name: "blank title", title: "   ", wantNil: true},
		{name: "empty title", title: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := NewEvent("TestHall", "Praha", tt.title, "https://example.com/a", 5, 3, 2025)
			if tt.wantNil {
				if evt != nil {
					t.Errorf("NewEvent(%q) = %+v, want nil", tt.title, evt)
				}
				return
			}
			if evt == nil {
				t.Fatalf("NewEvent(%q) returned nil", tt.title)
			}
			if evt.Title != tt.want {
				t.Errorf("Title = %q, want %q", evt.Title, tt.want)
			}
			if evt.ID != GenerateID("https://example.com/a") {
				t.Error("ID should be derived from source URL")
			}
			if evt.DateText() != "05.03.2025" {
				t.Errorf("DateText() = %q, want 05.03.2025", evt.DateText())
			}
		})
	}
}

func TestDedup(t *testing.T) {
	a := NewEvent("V", "Praha", "Band A", "https://example.com/a", 5, 3, 2025)
	a2 := NewEvent("V", "Praha", "Band A (again)", "https://example.com/a", 6, 3, 2025)
	b := NewEvent("V", "Praha", "Band B", "https://example.com/b", 1, 3, 2025)
	blank := &Event{Title: " ", SourceURL: "https://example.com/c"}

	got := Dedup([]*Event{a, a2, nil, b, blank})
	if len(got) != 2 {
		t.Fatalf("Dedup returned %d events, want 2", len(got))
	}
	if got[0] != a || got[1] != b {
		t.Error("Dedup should keep the first occurrence and preserve order")
	}
}

func TestSortByDay(t *testing.T) {
	late := &Event{Day: 3, Time: MustClock("21:00"), Title: "late"}
	early := &Event{Day: 3, Time: MustClock("19:00"), Title: "early"}
	untimed := &Event{Day: 3, Title: "untimed"}
	first := &Event{Day: 1, Time: MustClock("22:00"), Title: "first"}

	events := []*Event{late, early, untimed, first}
	SortByDay(events)

	want := []string{"first", "untimed", "early", "late"}
	for i, evt := range events {
		if evt.Title != want[i] {
			t.Errorf("position %d = %s, want %s", i, evt.Title, want[i])
		}
	}
}

func TestPeriod(t *testing.T) {
	tests := []struct {
		period  Period
		wantErr bool
		days    int
	}{
		{Period{Month: 2, Year: 2024}, false, 29},
		{Period{Month: 2, Year: 2025}, false, 28},
		{Period{Month: 11, Year: 2025}, false, 30},
		{Period{Month: 12, Year: 2025}, false, 31},
		{Period{Month: 13, Year: 2025}, true, 0},
		{Period{Month: 0, Year: 2025}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.period.String(), func(t *testing.T) {
			err := tt.period.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := tt.period.DaysIn(); got != tt.days {
				t.Errorf("DaysIn() = %d, want %d", got, tt.days)
			}
			if tt.period.Contains(tt.days+1, tt.period.Month, tt.period.Year) {
				t.Error("Contains should reject days past the end of the month")
			}
			if !tt.period.Contains(1, tt.period.Month, tt.period.Year) {
				t.Error("Contains should accept the first day")
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"20:00", "20:00"},
		{"9:30", "09:30"},
		{"20.00", "20:00"},
		{" 19:45 ", "19:45"},
		{"25:00", ""},
		{"20:5", ""},
		{"doors", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseClock(tt.input)
			if tt.want == "" {
				if got != nil {
					t.Errorf("ParseClock(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("ParseClock(%q) = %v, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestEventJSON(t *testing.T) {
	evt := NewEvent("Rock Café", "Praha", "Band A", "https://rockcafe.cz/a", 1, 11, 2025)
	evt.Time = MustClock("20:00")
	evt.Status = StatusSoldOut

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if raw["time"] != "20:00" {
		t.Errorf("time = %v, want \"20:00\"", raw["time"])
	}
	if raw["status"] != "sold-out" {
		t.Errorf("status = %v, want sold-out", raw["status"])
	}

	untimed := NewEvent("Akropolis", "Praha", "Band B", "https://palacakropolis.cz/b", 2, 11, 2025)
	data, _ = json.Marshal(untimed)
	raw = nil
	_ = json.Unmarshal(data, &raw)
	if _, ok := raw["time"]; ok {
		t.Error("untimed event should omit time")
	}
	if _, ok := raw["status"]; ok {
		t.Error("event without status should omit status")
	}
}

func TestSnapshotAdd(t *testing.T) {
	s := NewSnapshot(Period{Month: 11, Year: 2025})
	s.Add(&VenueResult{
		Venue:      "A",
		Events:     []*Event{{Day: 2, Title: "x"}, {Day: 1, Title: "y"}},
		Validation: &Validation{Health: HealthHealthy},
	})
	s.Add(&VenueResult{
		Venue:      "B",
		Events:     []*Event{{Day: 3, Title: "z"}},
		Validation: &Validation{Health: HealthCritical},
	})

	if s.TotalEvents != 3 {
		t.Errorf("TotalEvents = %d, want 3", s.TotalEvents)
	}
	if s.HealthSummary[HealthHealthy] != 1 || s.HealthSummary[HealthCritical] != 1 {
		t.Errorf("HealthSummary = %v", s.HealthSummary)
	}
	all := s.AllEvents()
	if len(all) != 3 || all[0].Title != "y" {
		t.Errorf("AllEvents should be sorted by day, got first %q", all[0].Title)
	}
}
