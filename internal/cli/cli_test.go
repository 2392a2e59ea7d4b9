package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pfrederiksen/concert-calendar/internal/config"
	"github.com/pfrederiksen/concert-calendar/internal/event"
)

const jazzDockDigest = `**07.11.2025 | 20:00**
Friday Quartet
https://www.jazzdock.cz/cs/koncert/friday-quartet

**08.11.2025 | 22:00** [VYPRODÁNO]
Saturday Trio
https://www.jazzdock.cz/cs/koncert/saturday-trio

**12.11.2025 | 19:30**
Midweek Session
https://www.jazzdock.cz/cs/koncert/midweek-session
`

type testEnv struct {
	dir    string
	config string
}

// newTestEnv writes a config whose only venue is served from a manual capture
func newTestEnv(t *testing.T, minEvents int) *testEnv {
	t.Helper()
	dir := t.TempDir()

	manualDir := filepath.Join(dir, "manual")
	if err := os.MkdirAll(manualDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(manualDir, "jazz-dock_2025-11.txt"), []byte(jazzDockDigest), 0644); err != nil {
		t.Fatal(err)
	}

	body := fmt.Sprintf(`
period: {month: 11, year: 2025}
browser: {enable: false}
retry: {delay: 1ms, max_delay: 1ms}
manual: {dir: %q}
output:
  data_dir: %q
  ics: %q
metrics: {textfile: %q}
venues:
  - name: Jazz Dock
    city: Praha
    min_events: %d
    max_events: 10
    required_days: []
`, manualDir, filepath.Join(dir, "data"), filepath.Join(dir, "out", "koncerty.ics"), filepath.Join(dir, "metrics", "concerts.prom"), minEvents)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return &testEnv{dir: dir, config: path}
}

func (e *testEnv) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Execute(append(args, "--config", e.config), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestUpdate_FromManualCapture(t *testing.T) {
	env := newTestEnv(t, 2)

	code, stdout, stderr := env.run("update")
	if code != ExitSuccess {
		t.Fatalf("update exit = %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Jazz Dock") || !strings.Contains(stdout, "3 events") {
		t.Errorf("summary missing the venue:\n%s", stdout)
	}

	for _, path := range []string{
		filepath.Join(env.dir, "data", "snapshot.json"),
		filepath.Join(env.dir, "data", "snapshot_2025-11.json"),
		filepath.Join(env.dir, "data", "program_2025-11.html"),
		filepath.Join(env.dir, "out", "koncerty.ics"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing output %s: %v", path, err)
		}
	}

	prom, err := os.ReadFile(filepath.Join(env.dir, "metrics", "concerts.prom"))
	if err != nil {
		t.Fatalf("metrics textfile not written: %v", err)
	}
	if !strings.Contains(string(prom), "concert_calendar_run_events 3") {
		t.Errorf("metrics textfile:\n%s", prom)
	}
}

func TestScrape_JSON(t *testing.T) {
	env := newTestEnv(t, 2)

	code, stdout, stderr := env.run("scrape", "--format", "json")
	if code != ExitSuccess {
		t.Fatalf("scrape exit = %d\nstderr: %s", code, stderr)
	}

	var out RunOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if out.Period != "11/2025" || out.TotalEvents != 3 || len(out.Venues) != 1 {
		t.Fatalf("output = %+v", out)
	}
	v := out.Venues[0]
	if v.Strategy != "manual" || v.State != "SUCCEEDED" || v.Health != event.HealthHealthy || !v.Passed {
		t.Errorf("venue line = %+v", v)
	}
	if !strings.Contains(stderr, `"run_id"`) {
		t.Error("logs should go to stderr as JSON lines")
	}
}

func TestScrape_Strict(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"thin venue is reported, not fatal", []string{"scrape"}, ExitSuccess},
		{"strict turns it into an exit code", []string{"scrape", "--strict"}, ExitValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 5)
			code, stdout, _ := env.run(tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stdout, "CHECK") || !strings.Contains(stdout, "degraded") {
				t.Errorf("summary should flag the venue:\n%s", stdout)
			}
			if _, err := os.Stat(filepath.Join(env.dir, "data", "snapshot_2025-11.json")); err != nil {
				t.Error("snapshot should be written either way")
			}
		})
	}
}

func TestScrape_UnknownVenueSelected(t *testing.T) {
	env := newTestEnv(t, 2)
	code, _, stderr := env.run("scrape", "--venue", "Nowhere")
	if code != ExitError || !strings.Contains(stderr, "no venues selected") {
		t.Errorf("exit = %d, stderr = %s", code, stderr)
	}
}

func TestList(t *testing.T) {
	env := newTestEnv(t, 2)
	if code, _, stderr := env.run("scrape"); code != ExitSuccess {
		t.Fatalf("scrape failed: %s", stderr)
	}

	tests := []struct {
		name       string
		args       []string
		wantTitles []string
	}{
		{"everything", nil, []string{"Friday Quartet", "Saturday Trio", "Midweek Session"}},
		{"weekends", []string{"--weekends"}, []string{"Friday Quartet", "Saturday Trio"}},
		{"day range", []string{"--days", "8-30"}, []string{"Saturday Trio", "Midweek Session"}},
		{"sold out", []string{"--status", "sold-out"}, []string{"Saturday Trio"}},
		{"query", []string{"--query", "session"}, []string{"Midweek Session"}},
		{"by title", []string{"--sort", "title"}, []string{"Friday Quartet", "Midweek Session", "Saturday Trio"}},
		{"other city", []string{"--city", "plzen"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := env.run(append([]string{"list", "--format", "json"}, tt.args...)...)
			if code != ExitSuccess {
				t.Fatalf("list exit = %d: %s", code, stderr)
			}
			var out ListResult
			if err := json.Unmarshal([]byte(stdout), &out); err != nil {
				t.Fatalf("output is not JSON: %v", err)
			}
			titles := make([]string, 0, len(out.Events))
			for _, e := range out.Events {
				titles = append(titles, e.Title)
			}
			if strings.Join(titles, "|") != strings.Join(tt.wantTitles, "|") {
				t.Errorf("titles = %v, want %v", titles, tt.wantTitles)
			}
			if out.EventCount != len(tt.wantTitles) {
				t.Errorf("EventCount = %d", out.EventCount)
			}
		})
	}
}

func TestList_Text(t *testing.T) {
	env := newTestEnv(t, 2)
	if code, _, stderr := env.run("scrape"); code != ExitSuccess {
		t.Fatalf("scrape failed: %s", stderr)
	}

	_, stdout, _ := env.run("list", "--status", "sold-out")
	if !strings.Contains(stdout, "08.11.2025 22:00  Saturday Trio - Jazz Dock (Praha) [sold-out]") {
		t.Errorf("unexpected listing:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Total: 1 events in 11/2025 (Status: sold-out)") {
		t.Errorf("unexpected footer:\n%s", stdout)
	}
}

func TestShow(t *testing.T) {
	env := newTestEnv(t, 2)
	if code, _, stderr := env.run("scrape"); code != ExitSuccess {
		t.Fatalf("scrape failed: %s", stderr)
	}
	id := event.GenerateID("https://www.jazzdock.cz/cs/koncert/saturday-trio")
	icsPath := filepath.Join(env.dir, "out", "saturday-trio.ics")

	code, stdout, stderr := env.run("show", id, "--ics", icsPath)
	if code != ExitSuccess {
		t.Fatalf("show exit = %d\nstderr: %s", code, stderr)
	}
	for _, want := range []string{"Saturday Trio", "Date:   08.11.2025 22:00", "Venue:  Jazz Dock (Praha)", "Status: sold-out"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("show output missing %q:\n%s", want, stdout)
		}
	}

	ics, err := os.ReadFile(icsPath)
	if err != nil {
		t.Fatalf("ics not written: %v", err)
	}
	if !strings.Contains(string(ics), "UID:"+id+"@concert-calendar") {
		t.Errorf("unexpected ics:\n%s", ics)
	}

	code, _, stderr = env.run("show", "nonexistent-id")
	if code != ExitError || !strings.Contains(stderr, "event not found") {
		t.Errorf("unknown id: exit = %d, stderr = %q", code, stderr)
	}
}

func TestList_BadFlags(t *testing.T) {
	env := newTestEnv(t, 2)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no snapshot", []string{"list"}, "run scrape first"},
		{"bad sort", []string{"list", "--sort", "price"}, "invalid sort order"},
		{"bad format", []string{"list", "--format", "xml"}, "invalid format"},
		{"bad days", []string{"list", "--days", "31"}, "invalid day"},
		{"bad month", []string{"list", "--month", "13"}, "month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := env.run(tt.args...)
			if code != ExitError {
				t.Errorf("exit = %d, want %d", code, ExitError)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want it to mention %q", stderr, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	env := newTestEnv(t, 2)
	if code, _, stderr := env.run("scrape"); code != ExitSuccess {
		t.Fatalf("scrape failed: %s", stderr)
	}

	out := filepath.Join(env.dir, "site", "index.html")
	code, stdout, stderr := env.run("render", "--out", out)
	if code != ExitSuccess {
		t.Fatalf("render exit = %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, out) {
		t.Errorf("render should print the written paths, got %q", stdout)
	}

	page, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(page, []byte("Koncerty Listopad 2025")) || !bytes.Contains(page, []byte("Midweek Session")) {
		t.Error("page does not show the snapshot")
	}
}

func TestVenues(t *testing.T) {
	env := newTestEnv(t, 2)

	code, stdout, stderr := env.run("venues", "--format", "json")
	if code != ExitSuccess {
		t.Fatalf("venues exit = %d: %s", code, stderr)
	}
	var lines []VenueLine
	if err := json.Unmarshal([]byte(stdout), &lines); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Fatalf("lines = %+v", lines)
	}
	if lines[0].Parser || lines[0].Manual != "text" || !lines[0].Enabled {
		t.Errorf("Jazz Dock = %+v, want manual only with a text capture", lines[0])
	}
}

func TestCapture_NeedsOneVenue(t *testing.T) {
	env := newTestEnv(t, 2)
	code, _, stderr := env.run("capture")
	if code != ExitError || !strings.Contains(stderr, "exactly one --venue") {
		t.Errorf("exit = %d, stderr = %s", code, stderr)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitError},
		{ErrValidationFailed, ExitValidation},
		{fmt.Errorf("run: %w", ErrValidationFailed), ExitValidation},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestDescriptors(t *testing.T) {
	cfg := config.Default()
	venues := []config.Venue{
		{Name: "Palác Akropolis", City: "Praha", MinEvents: 15, MaxEvents: 30},
		{Name: "Vagon", City: "Praha", MinEvents: 15, MaxEvents: 31, RequiredDays: []config.RequiredDays{}},
		{Name: "Rock Café", City: "Praha", MaxEvents: 25, RequiredDays: []config.RequiredDays{{Month: 12, Days: []int{31}}}},
	}

	got := descriptors(cfg, venues)
	wantChecks := []int{2, 1, 2}
	for i, d := range got {
		if len(d.Checks) != wantChecks[i] {
			t.Errorf("%s: %d checks, want %d", d.Name, len(d.Checks), wantChecks[i])
		}
		if d.MinEvents != venues[i].MinEvents || d.City != "Praha" {
			t.Errorf("%s: descriptor = %+v", d.Name, d)
		}
	}
}

func TestRegistryFor_ScrollPolicy(t *testing.T) {
	c := config.Default().Browser
	c.MaxScrolls = 3

	def, ok := registryFor(c).Lookup("MeetFactory")
	if !ok || def.Scroll == nil {
		t.Fatal("MeetFactory should scroll")
	}
	if def.Scroll.MaxScrolls != 3 || def.Scroll.Pause != c.ScrollPause {
		t.Errorf("Scroll = %+v", def.Scroll)
	}
	if def, _ := registryFor(c).Lookup("Vagon"); def.Scroll != nil {
		t.Error("static venues should not gain a scroll policy")
	}
}

func TestSortEvents(t *testing.T) {
	early := event.NewEvent("Vagon", "Praha", "Zebra", "https://vagon.cz/#1", 3, 11, 2025)
	late := event.NewEvent("Akropolis", "Praha", "Alpha", "https://a/2", 3, 11, 2025)
	late.Time = event.NewClock(21, 0)
	other := event.NewEvent("Čekárna", "Praha", "Mid", "https://c/3", 1, 11, 2025)

	tests := []struct {
		order SortOrder
		want  string
	}{
		{SortByDate, "Mid,Zebra,Alpha"},
		{SortByTitle, "Alpha,Mid,Zebra"},
		{SortByVenue, "Alpha,Mid,Zebra"},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			events := []*event.Event{late, early, other}
			sortEvents(events, tt.order)
			titles := make([]string, 0, 3)
			for _, e := range events {
				titles = append(titles, e.Title)
			}
			if got := strings.Join(titles, ","); got != tt.want {
				t.Errorf("order = %s, want %s", got, tt.want)
			}
		})
	}
}
