package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pfrederiksen/concert-calendar/internal/calendar"
	"github.com/pfrederiksen/concert-calendar/internal/config"
	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/fetch"
	"github.com/pfrederiksen/concert-calendar/internal/logger"
	"github.com/pfrederiksen/concert-calendar/internal/manual"
	"github.com/pfrederiksen/concert-calendar/internal/metrics"
	"github.com/pfrederiksen/concert-calendar/internal/orchestrator"
	"github.com/pfrederiksen/concert-calendar/internal/render"
	"github.com/pfrederiksen/concert-calendar/internal/scraper"
	"github.com/pfrederiksen/concert-calendar/internal/storage"
	"github.com/pfrederiksen/concert-calendar/internal/validate"
)

// newBrowserEngine is replaced in tests
var newBrowserEngine = func(c config.BrowserConfig) fetch.Engine {
	return fetch.NewChromeEngine(c.Headless, c.ExecPath)
}

// pipeline holds everything one scrape needs, built from the configuration
type pipeline struct {
	cfg       config.Config
	store     *storage.Storage
	registry  *scraper.Registry
	manual    *manual.DirProvider
	direct    fetch.Fetcher
	browser   fetch.Fetcher
	cache     *fetch.ResponseCache
	cachePath string
	metrics   *metrics.Recorder
}

func newPipeline(cfg config.Config) (*pipeline, error) {
	store, err := storage.New(cfg.Output.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	p := &pipeline{
		cfg:      cfg,
		store:    store,
		registry: registryFor(cfg.Browser),
		metrics:  metrics.New(),
	}

	if cfg.Manual.Dir != "" {
		dir, err := storage.ExpandPath(cfg.Manual.Dir)
		if err != nil {
			return nil, err
		}
		p.manual = manual.NewDirProvider(dir)
	}

	var direct fetch.Fetcher = fetch.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
	if cfg.Fetch.Cache.Enable {
		if p.cachePath, err = storage.ExpandPath(cfg.Fetch.Cache.Path); err != nil {
			return nil, err
		}
		if p.cache, err = fetch.LoadResponseCache(p.cachePath, cfg.Fetch.Cache.TTL); err != nil {
			logger.Warn("Response cache unreadable, starting empty", logger.Fields{"path": p.cachePath, "error": err.Error()})
			p.cache = fetch.NewResponseCache(cfg.Fetch.Cache.TTL)
		}
		direct = fetch.NewCachingFetcher(direct, p.cache)
	}
	p.direct = direct

	if cfg.Browser.Enable {
		p.browser = fetch.NewBrowserFetcher(newBrowserEngine(cfg.Browser), cfg.Browser.Timeout, cfg.Browser.Settle)
	}
	return p, nil
}

// registryFor returns the built-in parsers with the configured scroll policy
func registryFor(c config.BrowserConfig) *scraper.Registry {
	registry := scraper.DefaultRegistry()
	for _, name := range registry.Names() {
		def, _ := registry.Lookup(name)
		if def.Scroll == nil {
			continue
		}
		def.Scroll = &fetch.ScrollPolicy{MaxScrolls: c.MaxScrolls, Pause: c.ScrollPause}
		registry.Register(def)
	}
	return registry
}

func (p *pipeline) orchestrator() *orchestrator.Orchestrator {
	opts := orchestrator.Options{
		Registry:     p.registry,
		Direct:       p.direct,
		Browser:      p.browser,
		RetryBackOff: retryBackOff(p.cfg.Retry),
		Metrics:      p.metrics,
		Logger:       logger.Default(),
	}
	// left unset without a manual directory
	if p.manual != nil {
		opts.Manual = p.manual
	}
	return orchestrator.New(opts)
}

func retryBackOff(c config.RetryConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.Delay
	b.MaxInterval = c.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return b
}

// descriptors converts configured venues into orchestrator descriptors with their checks
func descriptors(cfg config.Config, venues []config.Venue) []orchestrator.Venue {
	out := make([]orchestrator.Venue, 0, len(venues))
	for _, v := range venues {
		checks := []validate.Predicate{validate.MaxEvents(v.MaxEvents)}
		for _, rd := range cfg.RequiredDaysFor(v) {
			checks = append(checks, validate.RequiredDays{Month: rd.Month, Days: rd.Days})
		}
		out = append(out, orchestrator.Venue{
			Name:      v.Name,
			City:      v.City,
			URL:       v.URL,
			MinEvents: v.MinEvents,
			MaxEvents: v.MaxEvents,
			Checks:    checks,
		})
	}
	return out
}

// finish persists the response cache and the metrics textfile; neither aborts the run
func (p *pipeline) finish() {
	if p.cache != nil {
		if err := p.cache.Save(p.cachePath); err != nil {
			logger.Warn("Failed to save response cache", logger.Fields{"path": p.cachePath, "error": err.Error()})
		}
	}
	if path := p.cfg.Metrics.Textfile; path != "" {
		expanded, err := storage.ExpandPath(path)
		if err == nil {
			err = p.metrics.WriteTextfile(expanded)
		}
		if err != nil {
			logger.Warn("Failed to write metrics", logger.Fields{"path": path, "error": err.Error()})
		}
	}
}

// pagePath is the HTML output path: the flag, then the config, then the data directory
func pagePath(cfg config.Config, store *storage.Storage, override string, period event.Period) string {
	if override != "" {
		return override
	}
	if cfg.Output.HTML != "" {
		return cfg.Output.HTML
	}
	return filepath.Join(store.Dir(), fmt.Sprintf("program_%04d-%02d.html", period.Year, period.Month))
}

// publish writes the HTML page and, when configured, the iCalendar feed
func publish(cfg config.Config, store *storage.Storage, snapshot *event.Snapshot, htmlOverride string, stamp time.Time) ([]string, error) {
	written := make([]string, 0, 2)

	page := pagePath(cfg, store, htmlOverride, snapshot.Period())
	if err := render.WriteFile(page, snapshot); err != nil {
		return written, err
	}
	written = append(written, page)

	if cfg.Output.ICS != "" && snapshot.TotalEvents > 0 {
		path, err := storage.ExpandPath(cfg.Output.ICS)
		if err != nil {
			return written, err
		}
		feed := calendar.GenerateSnapshotFeed(snapshot, stamp)
		if err := storage.WriteFileAtomic(path, []byte(feed)); err != nil {
			return written, fmt.Errorf("writing calendar feed: %w", err)
		}
		written = append(written, cfg.Output.ICS)
	}

	logger.Info("Published snapshot", logger.Fields{"files": written, "events": snapshot.TotalEvents})
	return written, nil
}
