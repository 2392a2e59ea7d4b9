// Package orchestrator runs one scrape over a list of venues: it picks an extraction
// strategy per venue, gives every failed venue one retry, validates the results and
// aggregates them into a snapshot.
//
// Venues are processed sequentially. Every failure is logged and the run goes on; only an
// invalid period or a cancelled context stops it.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/fetch"
	"github.com/pfrederiksen/concert-calendar/internal/logger"
	"github.com/pfrederiksen/concert-calendar/internal/manual"
	"github.com/pfrederiksen/concert-calendar/internal/metrics"
	"github.com/pfrederiksen/concert-calendar/internal/scraper"
	"github.com/pfrederiksen/concert-calendar/internal/validate"
)

// Strategy names how a venue's document was obtained
type Strategy string

const (
	StrategyManual  Strategy = "manual"
	StrategyBrowser Strategy = "browser"
	StrategyDirect  Strategy = "direct"
	StrategyNone    Strategy = "none"
)

// Venue is the descriptor of one venue to scrape
type Venue struct {
	Name      string
	City      string
	URL       string
	MinEvents int
	MaxEvents int
	Checks    []validate.Predicate
}

// Outcome is what happened to one venue during the run
type Outcome struct {
	Venue    string
	Strategy Strategy
	State    State
	History  []State
	Attempts int
	Err      error
	Events   []*event.Event
}

// Result is the product of a run
type Result struct {
	Snapshot *event.Snapshot
	Outcomes []*Outcome
}

// Failed returns the outcomes that ended without records
func (r *Result) Failed() []*Outcome {
	failed := make([]*Outcome, 0)
	for _, o := range r.Outcomes {
		if o.State == StateFailedFinal {
			failed = append(failed, o)
		}
	}
	return failed
}

// Passed reports whether every aggregated venue passed validation
func (r *Result) Passed() bool {
	for _, v := range r.Snapshot.Venues {
		if v.Validation == nil || !v.Validation.Passed {
			return false
		}
	}
	return true
}

// Options are the collaborators of an Orchestrator
type Options struct {
	Registry *scraper.Registry
	Manual   manual.Provider
	Direct   fetch.Fetcher
	// Browser may be nil, which disables venues that need a browser
	Browser fetch.Fetcher
	// RetryBackOff spaces the retry pass; backoff.Stop skips it
	RetryBackOff backoff.BackOff
	Metrics      *metrics.Recorder
	Logger       *logger.Logger
}

// Orchestrator runs scrapes
type Orchestrator struct {
	registry *scraper.Registry
	manual   manual.Provider
	direct   fetch.Fetcher
	browser  fetch.Fetcher
	retry    backoff.BackOff
	metrics  *metrics.Recorder
	log      *logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Orchestrator; missing options get working defaults
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		registry: opts.Registry,
		manual:   opts.Manual,
		direct:   opts.Direct,
		browser:  opts.Browser,
		retry:    opts.RetryBackOff,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
	if o.registry == nil {
		o.registry = scraper.DefaultRegistry()
	}
	if o.retry == nil {
		o.retry = backoff.NewConstantBackOff(5 * time.Second)
	}
	if o.log == nil {
		o.log = logger.Default()
	}
	return o
}

type venueRun struct {
	venue     Venue
	extractor scraper.Extractor
	outcome   *Outcome
}

// Run scrapes venues for period and aggregates the succeeded ones in descriptor order
func (o *Orchestrator) Run(ctx context.Context, venues []Venue, period event.Period) (*Result, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := o.log.With(logger.Fields{"run_id": runID, "period": period.String()})
	log.Info("Starting run", logger.Fields{"venues": len(venues)})

	runs := make([]*venueRun, 0, len(venues))
	for _, v := range venues {
		runs = append(runs, &venueRun{
			venue:   v,
			outcome: &Outcome{Venue: v.Name, State: StatePending, History: []State{StatePending}},
		})
	}

	for _, r := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o.firstPass(ctx, log, r, period)
	}

	if err := o.retryPass(ctx, log, runs, period); err != nil {
		return nil, err
	}

	snapshot := event.NewSnapshot(period)
	snapshot.RunID = runID
	for _, r := range runs {
		if r.outcome.State != StateSucceeded {
			continue
		}
		result := &event.VenueResult{
			Venue:      r.venue.Name,
			City:       r.venue.City,
			Strategy:   string(r.outcome.Strategy),
			Attempts:   r.outcome.Attempts,
			Events:     r.outcome.Events,
			Validation: validate.Validate(r.venue.Name, r.outcome.Events, period, r.venue.MinEvents, r.venue.MaxEvents, r.venue.Checks...),
		}
		snapshot.Add(result)
		o.metrics.Venue(result)

		if !result.Validation.Passed {
			log.Warn("Venue failed validation", logger.Fields{
				"venue":  r.venue.Name,
				"health": result.Validation.Health,
				"events": result.Validation.TotalEvents,
				"min":    r.venue.MinEvents,
			})
		}
	}

	finished := o.now().UTC()
	snapshot.GeneratedAt = finished.Format(time.RFC3339)
	o.metrics.Run(snapshot, finished)

	outcomes := make([]*Outcome, 0, len(runs))
	for _, r := range runs {
		outcomes = append(outcomes, r.outcome)
	}

	log.Info("Run finished", logger.Fields{
		"total_events": snapshot.TotalEvents,
		"succeeded":    len(snapshot.Venues),
		"failed":       len(runs) - len(snapshot.Venues),
		"health":       snapshot.HealthSummary,
	})

	return &Result{Snapshot: snapshot, Outcomes: outcomes}, nil
}

func (o *Orchestrator) firstPass(ctx context.Context, log *logger.Logger, r *venueRun, period event.Period) {
	ex, strategy, err := o.selectExtractor(r.venue, period)
	r.outcome.Strategy = strategy
	if err != nil {
		r.outcome.Err = err
		o.mustTransition(r.outcome, StateFailedFinal)
		log.Error("No extractor for venue", logger.Fields{"venue": r.venue.Name}, err)
		return
	}
	r.extractor = ex

	o.mustTransition(r.outcome, StateAttempted)
	if o.attempt(ctx, log, r, period) {
		o.mustTransition(r.outcome, StateSucceeded)
		return
	}
	o.mustTransition(r.outcome, StateFailed)
}

func (o *Orchestrator) retryPass(ctx context.Context, log *logger.Logger, runs []*venueRun, period event.Period) error {
	o.retry.Reset()

	for _, r := range runs {
		if r.outcome.State != StateFailed {
			continue
		}

		delay := o.retry.NextBackOff()
		if delay == backoff.Stop {
			log.Warn("Retry budget exhausted", logger.Fields{"venue": r.venue.Name})
			o.mustTransition(r.outcome, StateFailedFinal)
			continue
		}

		log.Info("Retrying venue", logger.Fields{"venue": r.venue.Name, "delay": delay.String()})
		if err := o.sleep(ctx, delay); err != nil {
			return err
		}

		o.mustTransition(r.outcome, StateRetried)
		if o.attempt(ctx, log, r, period) {
			o.mustTransition(r.outcome, StateSucceeded)
			continue
		}
		o.mustTransition(r.outcome, StateFailedFinal)
		log.Error("Venue failed after retry", logger.Fields{"venue": r.venue.Name}, r.outcome.Err)
	}
	return nil
}

// attempt runs the venue's extractor once and reports success
func (o *Orchestrator) attempt(ctx context.Context, log *logger.Logger, r *venueRun, period event.Period) bool {
	r.outcome.Attempts++
	start := o.now()
	events, err := r.extractor.Extract(ctx, period)
	took := o.now().Sub(start)

	if err != nil {
		r.outcome.Err = err
		o.metrics.Attempt(r.venue.Name, string(r.outcome.Strategy), "failed", took)

		fields := logger.Fields{
			"venue":    r.venue.Name,
			"strategy": r.outcome.Strategy,
			"attempt":  r.outcome.Attempts,
			"error":    err.Error(),
		}
		var fe *fetch.FetchError
		if errors.As(err, &fe) {
			fields["kind"] = fe.Kind
			fields["url"] = fe.URL
		}
		log.Warn("Extraction failed", fields)
		return false
	}

	r.outcome.Err = nil
	r.outcome.Events = events
	o.metrics.Attempt(r.venue.Name, string(r.outcome.Strategy), "succeeded", took)
	log.Info("Venue extracted", logger.Fields{
		"venue":    r.venue.Name,
		"strategy": r.outcome.Strategy,
		"events":   len(events),
	})
	return true
}

// selectExtractor picks the first strategy that can serve the venue:
// captured data, then the browser, then a direct fetch.
func (o *Orchestrator) selectExtractor(v Venue, period event.Period) (scraper.Extractor, Strategy, error) {
	def, hasDef := o.registry.Lookup(v.Name)
	target := scraper.Venue{Name: v.Name, City: v.City, URL: v.URL}

	if o.manual != nil {
		doc, err := o.manual.Lookup(v.Name, period)
		if err != nil {
			o.log.Warn("Manual data unreadable, trying live strategies", logger.Fields{"venue": v.Name, "error": err.Error()})
		}
		if doc != nil {
			switch {
			case doc.Format == manual.FormatText:
				if target.URL == "" && hasDef {
					target.URL = def.URL
				}
				return scraper.NewManualExtractor(target, doc.Body), StrategyManual, nil
			case hasDef:
				return scraper.NewDocumentExtractor(def, target, doc.Body), StrategyManual, nil
			default:
				o.log.Warn("Captured page has no parser", logger.Fields{"venue": v.Name, "source": doc.Source})
			}
		}
	}

	if !hasDef {
		return nil, StrategyNone, &NoExtractorError{Venue: v.Name, Reason: "no parser registered"}
	}

	if def.Browser {
		if o.browser == nil {
			return nil, StrategyNone, &NoExtractorError{Venue: v.Name, Reason: "venue needs a browser and the browser is disabled"}
		}
		return scraper.NewPageExtractor(def, target, o.browser), StrategyBrowser, nil
	}

	if o.direct == nil {
		return nil, StrategyNone, &NoExtractorError{Venue: v.Name, Reason: "no direct fetcher configured"}
	}
	return scraper.NewPageExtractor(def, target, o.direct), StrategyDirect, nil
}

func (o *Orchestrator) mustTransition(out *Outcome, to State) {
	if err := out.transition(to); err != nil {
		// only reachable through a bug in the run loop
		panic(err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
