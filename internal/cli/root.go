// Package cli provides the one-shot runlens-report command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"runlens/internal/cache"
	"runlens/internal/loader"
	"runlens/internal/source"
	"runlens/internal/timeline"
	"runlens/pkg/logx"
)

// Version is set at build time.
var Version = "dev"

// options holds the flags shared by every report command.
type options struct {
	file string
	url  string

	sheet       string
	timezone    string
	dayFirst    bool
	inverted    string
	overlapMode string

	date   string
	period string

	timeout time.Duration
	verbose bool
}

// NewRootCmd builds the command tree. Each call returns an independent
// tree so flags never leak between runs.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "runlens-report",
		Short: "Inspect an execution log without running the bot",
		Long: `runlens-report loads an execution log (xlsx or csv) from a local file or
a share link and prints the same reports the bot sends.

Examples:
  runlens-report days --file runs.xlsx
  runlens-report gantt --file runs.csv --date 2024-05-02 --period am
  runlens-report overlaps --url "https://tenant.sharepoint.com/:x:/g/...?e=abc"
  runlens-report export --file runs.xlsx --out overlaps.xlsx`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.file, "file", "f", "", "local xlsx/csv file")
	pf.StringVar(&opts.url, "url", "", "share link to the workbook")
	pf.StringVar(&opts.sheet, "sheet", "", "worksheet name (default: first sheet)")
	pf.StringVar(&opts.timezone, "timezone", "", "IANA timezone of the log (default: local)")
	pf.BoolVar(&opts.dayFirst, "day-first", false, "read ambiguous dates as DD/MM")
	pf.StringVar(&opts.inverted, "inverted", "", "end before start: keep|flag|drop|rollover (default flag)")
	pf.StringVar(&opts.overlapMode, "overlap-mode", "", "overlap detection: sweep|adjacent (default sweep)")
	pf.StringVarP(&opts.date, "date", "d", "", "day to report, YYYY-MM-DD (default: newest)")
	pf.StringVarP(&opts.period, "period", "p", "all", "all|am|pm")
	pf.DurationVar(&opts.timeout, "timeout", time.Minute, "fetch timeout")
	pf.BoolVar(&opts.verbose, "verbose", false, "debug logging on stderr")

	root.AddCommand(
		newDaysCmd(opts),
		newSummaryCmd(opts),
		newGanttCmd(opts),
		newOverlapsCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// Execute runs the command line with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *options) logger() logx.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	return logx.NewWriter(os.Stderr, level)
}

func (o *options) source(log logx.Logger) (source.Source, error) {
	file, url := strings.TrimSpace(o.file), strings.TrimSpace(o.url)
	switch {
	case file != "" && url != "":
		return nil, fmt.Errorf("use either --file or --url, not both")
	case file != "":
		return source.New(source.Config{Kind: "file", Path: file}, log)
	case url != "":
		return source.New(source.Config{Kind: "http", URL: url, Timeout: o.timeout}, log)
	default:
		return nil, fmt.Errorf("one of --file or --url is required")
	}
}

func (o *options) loaderOptions() (loader.Options, error) {
	topt := timeline.Options{DayFirst: o.dayFirst}
	if tz := strings.TrimSpace(o.timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return loader.Options{}, fmt.Errorf("--timezone: %w", err)
		}
		topt.Location = loc
	}
	inv, err := timeline.ParseInvertedPolicy(o.inverted)
	if err != nil {
		return loader.Options{}, fmt.Errorf("--inverted: %w", err)
	}
	topt.Inverted = inv
	mode, err := timeline.ParseOverlapMode(o.overlapMode)
	if err != nil {
		return loader.Options{}, fmt.Errorf("--overlap-mode: %w", err)
	}
	topt.Overlap = mode
	return loader.Options{Sheet: strings.TrimSpace(o.sheet), Columns: timeline.DefaultColumns(), Timeline: topt}, nil
}

// load fetches and normalizes the dataset once.
func (o *options) load(ctx context.Context) (*loader.Snapshot, loader.Options, error) {
	log := o.logger()
	lopt, err := o.loaderOptions()
	if err != nil {
		return nil, loader.Options{}, err
	}
	src, err := o.source(log)
	if err != nil {
		return nil, loader.Options{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	ld := loader.New(src, cache.NewMemory(time.Hour), nil, lopt, log)
	snap, err := ld.Current(ctx)
	if err != nil {
		return nil, loader.Options{}, err
	}
	return snap, lopt, nil
}

// view loads the dataset and builds the selected day and period.
func (o *options) view(ctx context.Context) (*timeline.View, *loader.Snapshot, error) {
	snap, lopt, err := o.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	sel, err := timeline.ParseSelection(o.date, o.period, snap.Dataset)
	if err != nil {
		return nil, nil, err
	}
	return timeline.Build(snap.Dataset, sel, lopt.Timeline), snap, nil
}
