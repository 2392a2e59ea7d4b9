// Package metrics records run metrics with Prometheus collectors. A scrape run is a batch
// job, so the registry is written once at the end of the run as a node-exporter textfile
// instead of being served over HTTP.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "concert_calendar"

// Recorder holds the collectors of one run. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	venueAttempts *prometheus.CounterVec
	venueEvents   *prometheus.GaugeVec
	venueHealth   *prometheus.GaugeVec
	fetchDuration *prometheus.HistogramVec
	runEvents     prometheus.Gauge
	lastRun       prometheus.Gauge
}

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		venueAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "venue_attempts_total",
				Help:      "Extraction attempts per venue, strategy and outcome",
			},
			[]string{"venue", "strategy", "outcome"},
		),
		venueEvents: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "venue_events",
				Help:      "Events extracted for a venue in the last run",
			},
			[]string{"venue", "city"},
		),
		venueHealth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "venue_health",
				Help:      "Venue health in the last run (2 healthy, 1 degraded, 0 critical)",
			},
			[]string{"venue"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extract_duration_seconds",
				Help:      "Time spent extracting one venue",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"venue", "strategy"},
		),
		runEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_events",
			Help:      "Total events aggregated in the last run",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}

	r.registry.MustRegister(
		r.venueAttempts,
		r.venueEvents,
		r.venueHealth,
		r.fetchDuration,
		r.runEvents,
		r.lastRun,
	)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Attempt records one extraction attempt and how long it took
func (r *Recorder) Attempt(venue, strategy, outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.venueAttempts.WithLabelValues(venue, strategy, outcome).Inc()
	r.fetchDuration.WithLabelValues(venue, strategy).Observe(took.Seconds())
}

// Venue records the final result of a venue
func (r *Recorder) Venue(result *event.VenueResult) {
	if r == nil || result == nil {
		return
	}
	r.venueEvents.WithLabelValues(result.Venue, result.City).Set(float64(len(result.Events)))
	if result.Validation != nil {
		r.venueHealth.WithLabelValues(result.Venue).Set(healthValue(result.Validation.Health))
	}
}

// Run records the aggregate of a finished run
func (r *Recorder) Run(snapshot *event.Snapshot, finished time.Time) {
	if r == nil || snapshot == nil {
		return
	}
	r.runEvents.Set(float64(snapshot.TotalEvents))
	r.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry in the text exposition format. The file is replaced
// atomically so the node exporter never reads a partial file.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

func healthValue(h event.Health) float64 {
	switch h {
	case event.HealthHealthy:
		return 2
	case event.HealthDegraded:
		return 1
	default:
		return 0
	}
}
