package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/config"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/eodhd"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

// newProvider returns the eodhd client configured by cfg.
func newProvider(cfg *config.Config) (*eodhd.Client, error) {
	if cfg.EODHD.APIKey == "" {
		return nil, errors.New("no eodhd API key, set EODHD_API_KEY or [eodhd] api_key")
	}
	httpClient := &http.Client{Timeout: time.Duration(cfg.EODHD.Timeout)}
	return eodhd.NewClient(cfg.EODHD.APIKey,
		eodhd.WithBaseURL(cfg.EODHD.BaseURL),
		eodhd.WithHTTPClient(httpClient),
		eodhd.WithRateLimit(cfg.EODHD.RateLimit),
		eodhd.WithCacheTTL(time.Duration(cfg.EODHD.CacheTTL)),
	)
}

// --- Fetch Command ---

type fetchCmd struct {
	date        string
	applySplits bool
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetch missing daily bars from eodhd" }
func (*fetchCmd) Usage() string {
	return `fol fetch [-d <date>] [-apply-splits] [<code>...]

  Fetches the daily bars missing up to a date for the given instruments,
  or for every active instrument. Splits reported by the provider are
  listed, and applied to the positions with -apply-splits.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Last day to fetch, today by default")
	f.BoolVar(&c.applySplits, "apply-splits", false, "Apply the reported splits to the positions")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		report, err := a.fetch(ctx, day, c.applySplits, f.Args()...)
		for code, n := range report.Saved {
			fmt.Printf("%s: %d bar(s)\n", code, n)
		}
		for _, s := range report.Splits {
			fmt.Printf("%s: split %s on %s\n", s.Code, s.Ratio, s.Date)
		}
		if err != nil {
			return fail("fetching", err)
		}
		return subcommands.ExitSuccess
	})
}

// fetch syncs bars up to day, and applies the reported splits when asked.
func (a *app) fetch(ctx context.Context, day date.Date, applySplits bool, codes ...string) (eodhd.SyncReport, error) {
	client, err := newProvider(a.cfg)
	if err != nil {
		return eodhd.SyncReport{}, err
	}
	defer client.Close()
	report, err := eodhd.Sync(ctx, a.store, client, day, codes...)
	if !applySplits {
		return report, err
	}
	errs := []error{err}
	for _, s := range report.Splits {
		r := a.ledger().ApplyCorporateActions(ctx, s.Code, s.Date, folio.Split{Ratio: s.Ratio})
		if r.Outcome != folio.OK {
			errs = append(errs, fmt.Errorf("split of %s on %s: %w", s.Code, s.Date, r.Err))
		}
	}
	return report, errors.Join(errs...)
}

// --- Quote Command ---

type quoteCmd struct {
	save bool
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "show the latest quote of instruments" }
func (*quoteCmd) Usage() string {
	return `fol quote [-save] <code>...

  Prints the latest (delayed) quote of each instrument. With -save the
  quote is stored as the close of its day, until fetch replaces it with
  the end-of-day bar.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.save, "save", false, "Store the quote as the close of its day")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one instrument code is required")
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		client, err := newProvider(a.cfg)
		if err != nil {
			return fail("creating provider", err)
		}
		defer client.Close()

		var errs []error
		for _, code := range f.Args() {
			var ins folio.Instrument
			err := a.store.View(ctx, func(tx folio.Tx) error {
				i, found, err := tx.Instrument(code)
				if err != nil {
					return err
				}
				if !found {
					return &folio.NotFoundError{Kind: "instrument", IDs: []string{code}}
				}
				ins = i
				return nil
			})
			if err != nil {
				errs = append(errs, err)
				continue
			}
			q, err := client.Latest(ctx, ins.ProviderSymbol())
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Printf("%s\t%s\t%s\n", code, q.Date, q.Close)
			if !c.save {
				continue
			}
			err = a.store.Update(ctx, func(tx folio.Tx) error {
				return tx.SaveBar(folio.Bar{Code: code, Date: q.Date, Close: q.Close})
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("cannot save quote of %s: %w", code, err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			return fail("fetching quotes", err)
		}
		return subcommands.ExitSuccess
	})
}

// --- Schedule Command ---

type scheduleCmd struct {
	spec string
	now  bool
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "run fetch and evaluate on a cron schedule" }
func (*scheduleCmd) Usage() string {
	return `fol schedule [-cron "<expr>"] [-now]

  Runs until interrupted. On every tick, fetches the missing bars and
  evaluates the signals of the day. The expression defaults to the
  [signals] schedule configuration ("0 18 * * 1-5").
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.spec, "cron", "", "Cron expression (minute hour day month weekday)")
	f.BoolVar(&c.now, "now", false, "Run once immediately")
}

func (c *scheduleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		spec := c.spec
		if spec == "" {
			spec = a.cfg.Signals.Schedule
		}
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(spec, func() { a.runDaily(ctx) }); err != nil {
			return fail("parsing schedule", err)
		}
		if c.now {
			a.runDaily(ctx)
		}
		scheduler.Start()
		log.Info().Str("schedule", spec).Msg("scheduler started")
		<-ctx.Done()
		<-scheduler.Stop().Done()
		log.Info().Msg("scheduler stopped")
		return subcommands.ExitSuccess
	})
}

// runDaily fetches the bars of the day then evaluates the signals.
func (a *app) runDaily(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	day := date.Today()
	start := time.Now()
	if _, err := a.fetch(ctx, day, false); err != nil {
		log.Error().Err(err).Msg("scheduled fetch failed")
	}
	ev, err := a.signals().Evaluate(ctx, day)
	if err != nil {
		log.Error().Err(err).Msg("scheduled evaluation failed")
		return
	}
	if ev.Err != nil {
		log.Warn().Err(ev.Err).Msg("scheduled evaluation partially failed")
	}
	log.Info().Int("recorded", len(ev.Recorded)).Dur("duration", time.Since(start)).Msg("scheduled run done")
	if len(ev.Recorded) > 0 {
		printMarkdown(renderer.RenderSignals(renderer.NewSignalList("Signals of "+day.String(), ev.Recorded)))
	}
}
