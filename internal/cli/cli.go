package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/concert-calendar/internal/config"
	"github.com/pfrederiksen/concert-calendar/internal/event"
	"github.com/pfrederiksen/concert-calendar/internal/logger"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitValidation = 2
)

// ErrValidationFailed is returned under --strict when a venue failed or did not pass validation
var ErrValidationFailed = errors.New("validation failed")

// options holds the flags shared by every command
type options struct {
	configPath string
	month      int
	year       int
	venues     []string
	format     string
	verbose    bool
	noBrowser  bool
	strict     bool

	now func() time.Time
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{now: time.Now}

	cmd := &cobra.Command{
		Use:   "concert-calendar",
		Short: "Monthly concert calendar for Praha and Plzeň",
		Long: `Scrapes the concert programs of clubs in Praha and Plzeň for one month,
validates every venue's results, stores them as a JSON snapshot and renders a
searchable HTML calendar page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (YAML or JSON); built-in venues when empty")
	flags.IntVar(&opts.month, "month", 0, "Target month (1-12); defaults to the config, then the current month")
	flags.IntVar(&opts.year, "year", 0, "Target year")
	flags.StringSliceVar(&opts.venues, "venue", nil, "Restrict to these venues (repeatable)")
	flags.StringVar(&opts.format, "format", "text", "Output format: text or json")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	flags.BoolVar(&opts.noBrowser, "no-browser", false, "Disable the scripted browser; venues that need it are skipped")
	flags.BoolVar(&opts.strict, "strict", false, "Exit with code 2 when a venue fails or does not pass validation")

	cmd.AddCommand(
		newScrapeCmd(opts),
		newRenderCmd(opts),
		newUpdateCmd(opts),
		newListCmd(opts),
		newVenuesCmd(opts),
		newCaptureCmd(opts),
		newShowCmd(opts),
	)
	return cmd
}

// load reads the configuration, applies flag overrides and sets up logging
func (o *options) load(cmd *cobra.Command) (config.Config, event.Period, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return cfg, event.Period{}, err
	}

	if o.verbose {
		cfg.Log.Level = "debug"
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return cfg, event.Period{}, err
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	if o.noBrowser {
		cfg.Browser.Enable = false
	}

	period := cfg.ResolvePeriod(o.now())
	if o.month != 0 {
		period.Month = o.month
	}
	if o.year != 0 {
		period.Year = o.year
	}
	if err := period.Validate(); err != nil {
		return cfg, period, err
	}
	return cfg, period, nil
}

func (o *options) outputFormat() (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(o.format))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", o.format)
	}
	return format, nil
}

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrValidationFailed):
		return ExitValidation
	default:
		return ExitError
	}
}

// Execute runs the CLI and returns the process exit code.
// SIGINT and SIGTERM cancel the run between venues.
func Execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, ErrValidationFailed) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}
