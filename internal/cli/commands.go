package cli

import (
	"errors"
	"fmt"

	"github.com/pfrederiksen/concert-calendar/internal/calendar"
	"github.com/pfrederiksen/concert-calendar/internal/config"
	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/filter"
	"github.com/pfrederiksen/concert-calendar/internal/logger"
	"github.com/pfrederiksen/concert-calendar/internal/manual"
	"github.com/pfrederiksen/concert-calendar/internal/orchestrator"
	"github.com/pfrederiksen/concert-calendar/internal/scraper"
	"github.com/pfrederiksen/concert-calendar/internal/storage"
	"github.com/spf13/cobra"
)

func newScrapeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Scrape every enabled venue and store the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := opts.scrape(cmd)
			return err
		},
	}
}

func newUpdateCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Scrape, store the snapshot and regenerate the calendar page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := opts.scrape(cmd)
			if run == nil {
				return err
			}
			// the page is published even when --strict flags the run
			written, perr := publish(run.cfg, run.store, run.result.Snapshot, out, opts.now())
			if perr != nil {
				return perr
			}
			if opts.verbose {
				for _, path := range written {
					fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "HTML output path (default: output.html, then the data directory)")
	return cmd
}

func newRenderCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Regenerate the calendar page and feed from the stored snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, period, err := opts.load(cmd)
			if err != nil {
				return err
			}
			store, err := storage.New(cfg.Output.DataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			snapshot, err := loadSnapshot(store, period)
			if err != nil {
				return err
			}
			written, err := publish(cfg, store, snapshot, out, opts.now())
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "HTML output path (default: output.html, then the data directory)")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	var (
		cities   string
		query    string
		days     string
		weekends bool
		statuses string
		sortBy   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List concerts from the stored snapshot",
		Long: `List concerts from the stored snapshot of the target month.
--venue restricts the listing to venues, the other flags narrow it further.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.outputFormat()
			if err != nil {
				return err
			}
			order := SortOrder(sortBy)
			if order != SortByDate && order != SortByVenue && order != SortByTitle {
				return fmt.Errorf("invalid sort order: %s (must be 'date', 'venue' or 'title')", sortBy)
			}

			cfg, period, err := opts.load(cmd)
			if err != nil {
				return err
			}

			f := filter.NewFilter()
			f.Cities = filter.SplitList(cities)
			f.Venues = opts.venues
			f.Query = query
			f.WeekendsOnly = weekends
			if days != "" {
				if f.DayFrom, f.DayTo, err = filter.ParseDayRange(days, period); err != nil {
					return err
				}
			}
			if statuses != "" {
				if f.Statuses, err = filter.ParseStatuses(statuses); err != nil {
					return err
				}
			}

			store, err := storage.New(cfg.Output.DataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			snapshot, err := loadSnapshot(store, period)
			if err != nil {
				return err
			}

			events := f.Apply(snapshot.AllEvents())
			sortEvents(events, order)

			return WriteList(cmd.OutOrStdout(), &ListResult{
				Period:      period.String(),
				GeneratedAt: snapshot.GeneratedAt,
				Filter:      f.String(),
				EventCount:  len(events),
				Events:      events,
			}, format, opts.verbose)
		},
	}

	cmd.Flags().StringVar(&cities, "city", "", "Comma-separated cities (diacritics optional)")
	cmd.Flags().StringVar(&query, "query", "", "Search titles and venue names")
	cmd.Flags().StringVar(&days, "days", "", "Day range within the month, e.g. '1-15' or '27.-28.'")
	cmd.Flags().BoolVar(&weekends, "weekends", false, "Only Friday to Sunday")
	cmd.Flags().StringVar(&statuses, "status", "", "Comma-separated statuses: scheduled, sold-out, postponed, canceled")
	cmd.Flags().StringVar(&sortBy, "sort", string(SortByDate), "Sort order: date, venue or title")
	return cmd
}

func newVenuesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "venues",
		Short: "Show the configured venues, their parsers and manual captures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.outputFormat()
			if err != nil {
				return err
			}
			cfg, period, err := opts.load(cmd)
			if err != nil {
				return err
			}

			registry := registryFor(cfg.Browser)
			var captures manual.Provider
			if cfg.Manual.Dir != "" {
				dir, err := storage.ExpandPath(cfg.Manual.Dir)
				if err != nil {
					return err
				}
				captures = manual.NewDirProvider(dir)
			}

			lines := make([]VenueLine, 0, len(cfg.Venues))
			for _, v := range cfg.Venues {
				if !selected(opts.venues, v.Name) {
					continue
				}
				line := VenueLine{
					Name:      v.Name,
					City:      v.City,
					MinEvents: v.MinEvents,
					MaxEvents: v.MaxEvents,
					Enabled:   !v.Disabled,
				}
				if def, ok := registry.Lookup(v.Name); ok {
					line.Parser = true
					line.Browser = def.Browser
					line.URL = def.Address(v.URL, period)
				}
				if captures != nil {
					if doc, err := captures.Lookup(v.Name, period); err == nil && doc != nil {
						line.Manual = string(doc.Format)
					}
				}
				lines = append(lines, line)
			}

			return WriteVenues(cmd.OutOrStdout(), period, lines, format)
		},
	}
}

func newCaptureCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "capture",
		Short: "Save a venue's program page into the manual data directory",
		Long: `Fetches the program page of one venue (--venue) the way a scrape would and
saves the markup as <venue-slug>_<YYYY>-<MM>.html in manual.dir. Later runs parse the
saved page instead of going to the network; edit or delete the file to change that.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.venues) != 1 {
				return errors.New("capture needs exactly one --venue")
			}
			cfg, period, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Manual.Dir == "" {
				return errors.New("manual.dir is not configured")
			}

			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			name := opts.venues[0]
			def, ok := p.registry.Lookup(name)
			if !ok {
				return &orchestrator.NoExtractorError{Venue: name, Reason: "no parser registered"}
			}

			var url string
			for _, v := range cfg.Venues {
				if scraper.Fold(v.Name) == scraper.Fold(name) {
					url = v.URL
				}
			}

			fetcher := p.direct
			if def.Browser {
				if p.browser == nil {
					return &orchestrator.NoExtractorError{Venue: def.Name, Reason: "venue needs a browser and the browser is disabled"}
				}
				fetcher = p.browser
			}

			req := def.Request(url, period)
			markup, err := fetcher.Fetch(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("capturing %s: %w", def.Name, err)
			}
			p.finish()

			path, err := p.manual.Save(&manual.Document{
				Venue:  def.Name,
				Period: period,
				Format: manual.FormatHTML,
				Body:   markup,
				Source: req.URL,
			})
			if err != nil {
				return err
			}
			logger.Info("Captured program page", logger.Fields{"venue": def.Name, "url": req.URL, "path": path})
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	var icsPath string
	cmd := &cobra.Command{
		Use:   "show <event-id>",
		Short: "Show one concert from the latest snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.outputFormat()
			if err != nil {
				return err
			}
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			store, err := storage.New(cfg.Output.DataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}

			evt, err := store.GetEventByID(args[0])
			if err != nil {
				return err
			}

			if icsPath != "" {
				path, err := storage.ExpandPath(icsPath)
				if err != nil {
					return err
				}
				if err := storage.WriteFileAtomic(path, []byte(calendar.GenerateICS(evt, opts.now()))); err != nil {
					return fmt.Errorf("writing calendar file: %w", err)
				}
			}
			return WriteEvent(cmd.OutOrStdout(), evt, format)
		},
	}
	cmd.Flags().StringVar(&icsPath, "ics", "", "Also write the concert as an .ics file")
	return cmd
}

// scrapeRun is what a scrape leaves for the commands built on it
type scrapeRun struct {
	cfg    config.Config
	store  *storage.Storage
	result *orchestrator.Result
}

// scrape runs the orchestrator and stores the snapshot. Under --strict a completed run
// with failed or invalid venues returns both the run and ErrValidationFailed.
func (o *options) scrape(cmd *cobra.Command) (*scrapeRun, error) {
	format, err := o.outputFormat()
	if err != nil {
		return nil, err
	}
	cfg, period, err := o.load(cmd)
	if err != nil {
		return nil, err
	}

	venues := cfg.EnabledVenues(o.venues...)
	if len(venues) == 0 {
		return nil, errors.New("no venues selected")
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return nil, err
	}

	result, err := p.orchestrator().Run(cmd.Context(), descriptors(cfg, venues), period)
	p.finish()
	if err != nil {
		return nil, fmt.Errorf("scraping: %w", err)
	}

	if err := p.store.SaveSnapshot(result.Snapshot); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	if err := WriteRun(cmd.OutOrStdout(), NewRunOutput(result), format, o.verbose); err != nil {
		return nil, fmt.Errorf("writing output: %w", err)
	}

	run := &scrapeRun{cfg: cfg, store: p.store, result: result}
	if o.strict && (len(result.Failed()) > 0 || !result.Passed()) {
		return run, ErrValidationFailed
	}
	return run, nil
}

func loadSnapshot(store *storage.Storage, period event.Period) (*event.Snapshot, error) {
	snapshot, err := store.LoadSnapshot(period)
	if errors.Is(err, storage.ErrNoSnapshot) {
		return nil, fmt.Errorf("no snapshot for %s, run scrape first: %w", period, err)
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return snapshot, nil
}

func selected(names []string, venue string) bool {
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if scraper.Fold(n) == scraper.Fold(venue) {
			return true
		}
	}
	return false
}
