// Package config loads the YAML run configuration: target period, venue descriptors and
// the settings of the fetchers, cache, retry pass, outputs and metrics.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/logger"
	"gopkg.in/yaml.v3"
)

type RequiredDays struct {
	Month int   `yaml:"month"`
	Days  []int `yaml:"days"`
}

// Venue is one venue descriptor
type Venue struct {
	Name      string `yaml:"name"`
	City      string `yaml:"city"`
	URL       string `yaml:"url"` // overrides the parser's default program page
	MinEvents int    `yaml:"min_events"`
	MaxEvents int    `yaml:"max_events"`
	// Per-venue sanity checks; nil means the global validation.required_days
	RequiredDays []RequiredDays `yaml:"required_days"`
	Disabled     bool           `yaml:"disabled"`
}

type CacheConfig struct {
	Enable bool          `yaml:"enable"`
	TTL    time.Duration `yaml:"ttl"`  // default 1h
	Path   string        `yaml:"path"` // persisted between runs
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"` // direct GET timeout
	UserAgent string        `yaml:"user_agent"`
	Cache     CacheConfig   `yaml:"cache"`
}

type BrowserConfig struct {
	Enable      bool          `yaml:"enable"`
	Headless    bool          `yaml:"headless"`
	ExecPath    string        `yaml:"exec_path"` // empty: look up Chrome on PATH
	Timeout     time.Duration `yaml:"timeout"`
	Settle      time.Duration `yaml:"settle"` // wait when a venue has no readiness selector
	ScrollPause time.Duration `yaml:"scroll_pause"`
	MaxScrolls  int           `yaml:"max_scrolls"`
}

type RetryConfig struct {
	Delay    time.Duration `yaml:"delay"`     // before the single retry pass
	MaxDelay time.Duration `yaml:"max_delay"` // cap for the back-off
}

type ManualConfig struct {
	Dir string `yaml:"dir"` // <venue-slug>_<YYYY>-<MM>.txt|.html
}

type OutputConfig struct {
	DataDir string `yaml:"data_dir"` // snapshot files
	HTML    string `yaml:"html"`     // rendered calendar page; empty disables
	ICS     string `yaml:"ics"`      // iCalendar feed; empty disables
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node-exporter textfile; empty disables
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ValidationConfig struct {
	RequiredDays []RequiredDays `yaml:"required_days"`
}

type Config struct {
	Period     event.Period     `yaml:"period"`
	Venues     []Venue          `yaml:"venues"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Browser    BrowserConfig    `yaml:"browser"`
	Retry      RetryConfig      `yaml:"retry"`
	Manual     ManualConfig     `yaml:"manual"`
	Output     OutputConfig     `yaml:"output"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
	Validation ValidationConfig `yaml:"validation"`
}

// Default returns the built-in configuration: every venue with a dedicated parser and
// the November trailing-days check.
func Default() Config {
	c := base()
	c.Venues = DefaultVenues()
	c.applyDefaults()
	return c
}

// base holds the defaults a file cannot express by omission
func base() Config {
	return Config{
		Browser: BrowserConfig{
			Enable:   true,
			Headless: true,
		},
		Validation: ValidationConfig{
			RequiredDays: []RequiredDays{{Month: 11, Days: []int{27, 28}}},
		},
	}
}

// DefaultVenues lists the venues of the two cities with their expected monthly counts
func DefaultVenues() []Venue {
	return []Venue{
		{Name: "Palác Akropolis", City: "Praha", MinEvents: 15, MaxEvents: 30},
		{Name: "Rock Café", City: "Praha", MinEvents: 10, MaxEvents: 25},
		{Name: "Lucerna Music Bar", City: "Praha", MinEvents: 10, MaxEvents: 25},
		{Name: "O2 Arena", City: "Praha", MinEvents: 4, MaxEvents: 15},
		{Name: "MeetFactory", City: "Praha", MinEvents: 10, MaxEvents: 30},
		{Name: "Vagon", City: "Praha", MinEvents: 15, MaxEvents: 31},
		{Name: "Reduta Jazz Club", City: "Praha", MinEvents: 20, MaxEvents: 45},
		{Name: "U Staré Paní", City: "Praha", MinEvents: 5, MaxEvents: 15},
		{Name: "Watt Music Club", City: "Plzeň", MinEvents: 4, MaxEvents: 15},
		{Name: "Papírna Plzeň", City: "Plzeň", MinEvents: 3, MaxEvents: 12},
	}
}

// Load reads a YAML (or JSON) configuration file and applies defaults
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	c := base()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if len(c.Venues) == 0 {
		c.Venues = DefaultVenues()
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// LoadOrDefault loads path, or returns Default when path is empty
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) applyDefaults() {
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 10 * time.Second
	}
	if c.Fetch.Cache.TTL == 0 {
		c.Fetch.Cache.TTL = time.Hour
	}
	if c.Fetch.Cache.Path == "" {
		c.Fetch.Cache.Path = "~/.cache/concert-calendar/responses.json"
	}
	if c.Browser.Timeout == 0 {
		c.Browser.Timeout = 30 * time.Second
	}
	if c.Browser.Settle == 0 {
		c.Browser.Settle = 3 * time.Second
	}
	if c.Browser.ScrollPause == 0 {
		c.Browser.ScrollPause = 1500 * time.Millisecond
	}
	if c.Browser.MaxScrolls == 0 {
		c.Browser.MaxScrolls = 10
	}
	if c.Retry.Delay == 0 {
		c.Retry.Delay = 5 * time.Second
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 30 * time.Second
	}
	if c.Output.DataDir == "" {
		c.Output.DataDir = "~/.local/share/concert-calendar"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	for i := range c.Venues {
		if c.Venues[i].MaxEvents == 0 {
			c.Venues[i].MaxEvents = 100
		}
	}
}

// Validate checks the configuration for values the run cannot work with.
// A zero period is allowed; it is resolved to the current month at run time.
func (c Config) Validate() error {
	if c.Period.Month != 0 || c.Period.Year != 0 {
		if err := c.Period.Validate(); err != nil {
			return fmt.Errorf("period: %w", err)
		}
	}

	seen := make(map[string]bool)
	for i, v := range c.Venues {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return fmt.Errorf("venue #%d: name is required", i+1)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("venue %q listed twice", name)
		}
		seen[key] = true
		if v.MinEvents < 0 || v.MaxEvents < 0 {
			return fmt.Errorf("venue %q: expected counts must not be negative", name)
		}
		if v.MaxEvents > 0 && v.MinEvents > v.MaxEvents {
			return fmt.Errorf("venue %q: min_events %d exceeds max_events %d", name, v.MinEvents, v.MaxEvents)
		}
		for _, rd := range v.RequiredDays {
			if err := rd.validate(); err != nil {
				return fmt.Errorf("venue %q: %w", name, err)
			}
		}
	}

	for _, rd := range c.Validation.RequiredDays {
		if err := rd.validate(); err != nil {
			return fmt.Errorf("validation: %w", err)
		}
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (r RequiredDays) validate() error {
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("required_days: invalid month %d", r.Month)
	}
	for _, d := range r.Days {
		if d < 1 || d > 31 {
			return fmt.Errorf("required_days: invalid day %d", d)
		}
	}
	return nil
}

// RequiredDaysFor returns the sanity checks of a venue, falling back to the global list
func (c Config) RequiredDaysFor(v Venue) []RequiredDays {
	if v.RequiredDays != nil {
		return v.RequiredDays
	}
	return c.Validation.RequiredDays
}

// EnabledVenues returns the venues to scrape, restricted to names when any are given
func (c Config) EnabledVenues(names ...string) []Venue {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}

	venues := make([]Venue, 0, len(c.Venues))
	for _, v := range c.Venues {
		if v.Disabled {
			continue
		}
		if len(want) > 0 && !want[strings.ToLower(v.Name)] {
			continue
		}
		venues = append(venues, v)
	}
	return venues
}

// ResolvePeriod returns the configured period, or the month containing now when unset
func (c Config) ResolvePeriod(now time.Time) event.Period {
	if c.Period.Month != 0 && c.Period.Year != 0 {
		return c.Period
	}
	return event.Period{Month: int(now.Month()), Year: now.Year()}
}
