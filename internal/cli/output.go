package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/filter"
	"github.com/pfrederiksen/concert-calendar/internal/orchestrator"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// RunOutput summarizes a scrape
type RunOutput struct {
	RunID         string               `json:"run_id"`
	Period        string               `json:"period"`
	GeneratedAt   string               `json:"generated_at"`
	TotalEvents   int                  `json:"total_events"`
	HealthSummary map[event.Health]int `json:"health_summary"`
	Venues        []*RunVenue          `json:"venues"`
}

// RunVenue is one venue's line in the scrape summary
type RunVenue struct {
	Venue    string       `json:"venue"`
	City     string       `json:"city,omitempty"`
	State    string       `json:"state"`
	Strategy string       `json:"strategy"`
	Attempts int          `json:"attempts"`
	Events   int          `json:"events"`
	Health   event.Health `json:"health,omitempty"`
	Passed   bool         `json:"passed"`
	Checks   []string     `json:"failed_checks,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// NewRunOutput builds the summary in venue order, failed venues included
func NewRunOutput(result *orchestrator.Result) *RunOutput {
	snapshot := result.Snapshot
	out := &RunOutput{
		RunID:         snapshot.RunID,
		Period:        snapshot.Period().String(),
		GeneratedAt:   snapshot.GeneratedAt,
		TotalEvents:   snapshot.TotalEvents,
		HealthSummary: snapshot.HealthSummary,
	}

	validated := make(map[string]*event.VenueResult, len(snapshot.Venues))
	for _, v := range snapshot.Venues {
		validated[v.Venue] = v
	}

	for _, o := range result.Outcomes {
		line := &RunVenue{
			Venue:    o.Venue,
			State:    string(o.State),
			Strategy: string(o.Strategy),
			Attempts: o.Attempts,
		}
		if o.Err != nil {
			line.Error = o.Err.Error()
		}
		if v, ok := validated[o.Venue]; ok {
			line.City = v.City
			line.Events = len(v.Events)
			line.Error = ""
			if v.Validation != nil {
				line.Health = v.Validation.Health
				line.Passed = v.Validation.Passed
				for _, c := range v.Validation.Checks {
					if c.Applicable && !c.Passed {
						line.Checks = append(line.Checks, c.Name+": "+c.Detail)
					}
				}
			}
		}
		out.Venues = append(out.Venues, line)
	}
	return out
}

// WriteRun writes a scrape summary in the specified format
func WriteRun(w io.Writer, result *RunOutput, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeRunText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeRunText(w io.Writer, result *RunOutput, verbose bool) error {
	fmt.Fprintf(w, "Concerts %s: %d events from %d venues\n\n", result.Period, result.TotalEvents, len(result.Venues))

	for _, v := range result.Venues {
		if v.Error != "" {
			fmt.Fprintf(w, "  FAILED   %-22s %s\n", v.Venue, v.Error)
			continue
		}
		mark := "ok"
		if !v.Passed {
			mark = "CHECK"
		}
		fmt.Fprintf(w, "  %-8s %-22s %3d events  %-8s via %s", mark, v.Venue, v.Events, v.Health, v.Strategy)
		if v.Attempts > 1 {
			fmt.Fprintf(w, " (retried)")
		}
		fmt.Fprintln(w)
		for _, c := range v.Checks {
			fmt.Fprintf(w, "           %s\n", c)
		}
	}

	fmt.Fprintf(w, "\nHealth: %d healthy, %d degraded, %d critical\n",
		result.HealthSummary[event.HealthHealthy],
		result.HealthSummary[event.HealthDegraded],
		result.HealthSummary[event.HealthCritical])
	if verbose {
		fmt.Fprintf(w, "Run: %s at %s\n", result.RunID, result.GeneratedAt)
	}
	return nil
}

// ListResult contains data to be output by the list command
type ListResult struct {
	Period      string         `json:"period"`
	GeneratedAt string         `json:"generated_at"`
	Filter      string         `json:"filter"`
	EventCount  int            `json:"event_count"`
	Events      []*event.Event `json:"events"`
}

// WriteList writes a concert listing in the specified format
func WriteList(w io.Writer, result *ListResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeListText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeListText(w io.Writer, result *ListResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, evt := range result.Events {
		clock := evt.TimeText()
		if clock == "" {
			clock = "     "
		}
		line := fmt.Sprintf("%s %s  %s - %s (%s)", evt.DateText(), clock, evt.Title, evt.Venue, evt.City)
		if evt.Status != event.StatusNone {
			line += " [" + filter.StatusName(evt.Status) + "]"
		}
		fmt.Fprintln(w, line)
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", evt.ID)
			fmt.Fprintf(w, "     URL: %s\n", evt.SourceURL)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d events in %s", result.EventCount, result.Period)
	if result.Filter != "" && result.Filter != "No active filters" {
		fmt.Fprintf(w, " (%s)", result.Filter)
	}
	fmt.Fprintln(w)
	return nil
}

// WriteEvent writes one concert in the specified format
func WriteEvent(w io.Writer, evt *event.Event, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, evt)
	case FormatText:
		fmt.Fprintln(w, evt.Title)
		when := evt.DateText()
		if clock := evt.TimeText(); clock != "" {
			when += " " + clock
		}
		fmt.Fprintf(w, "  Date:   %s\n", when)
		fmt.Fprintf(w, "  Venue:  %s (%s)\n", evt.Venue, evt.City)
		fmt.Fprintf(w, "  Status: %s\n", filter.StatusName(evt.Status))
		fmt.Fprintf(w, "  URL:    %s\n", evt.SourceURL)
		fmt.Fprintf(w, "  ID:     %s\n", evt.ID)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// VenueLine describes one configured venue
type VenueLine struct {
	Name      string `json:"name"`
	City      string `json:"city"`
	Enabled   bool   `json:"enabled"`
	Parser    bool   `json:"parser"`
	Browser   bool   `json:"browser"`
	URL       string `json:"url,omitempty"`
	MinEvents int    `json:"min_events"`
	MaxEvents int    `json:"max_events"`
	Manual    string `json:"manual,omitempty"` // format of the capture for the period
}

// WriteVenues writes the venue table in the specified format
func WriteVenues(w io.Writer, period event.Period, lines []VenueLine, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, lines)
	case FormatText:
		fmt.Fprintf(w, "Venues for %s:\n", period)
		for _, v := range lines {
			var notes []string
			if !v.Enabled {
				notes = append(notes, "disabled")
			}
			if !v.Parser {
				notes = append(notes, "manual only")
			}
			if v.Browser {
				notes = append(notes, "browser")
			}
			if v.Manual != "" {
				notes = append(notes, "captured "+v.Manual)
			}
			fmt.Fprintf(w, "  %-22s %-6s %2d-%-3d %s\n", v.Name, v.City, v.MinEvents, v.MaxEvents, strings.Join(notes, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
