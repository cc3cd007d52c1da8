package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// --- Status Command ---

type statusCmd struct {
	date string
}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "classify the held positions against the thresholds" }
func (*statusCmd) Usage() string {
	return `fol status [-d <date>]

  Classifies every held position as NORMAL, STOP_GAIN or STOP_LOSS from
  its return on the latest close. Nothing is recorded.
`
}

func (c *statusCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the classification, today by default")
}

func (c *statusCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		statuses, err := a.signals().Statuses(ctx, on)
		if err != nil {
			return fail("classifying positions", err)
		}
		ev := folio.Evaluation{Date: on, Statuses: statuses}
		printMarkdown(renderer.RenderStatus(renderer.NewStatusReport(ev, a.settings.Currency)))
		return subcommands.ExitSuccess
	})
}

// --- Evaluate Command ---

type evaluateCmd struct {
	date string
}

func (*evaluateCmd) Name() string     { return "evaluate" }
func (*evaluateCmd) Synopsis() string { return "record the signals of a day" }
func (*evaluateCmd) Usage() string {
	return `fol evaluate [-d <date>]

  Records the stop-gain, stop-loss, structural and overweight signals of a
  day. Signals already raised within their de-duplication window are
  suppressed.
`
}

func (c *evaluateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Day to evaluate, today by default")
}

func (c *evaluateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		ev, err := a.signals().Evaluate(ctx, on)
		if err != nil {
			return fail("evaluating signals", err)
		}
		printMarkdown(renderer.RenderStatus(renderer.NewStatusReport(ev, a.settings.Currency)))
		if ev.Err != nil {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}

// --- Rebuild Command ---

type rebuildCmd struct {
	types listFlag
}

func (*rebuildCmd) Name() string     { return "rebuild" }
func (*rebuildCmd) Synopsis() string { return "recompute the derived signals from history" }
func (*rebuildCmd) Usage() string {
	return `fol rebuild [-t <type>...]

  Deletes the derived signals (STOP_GAIN, STOP_LOSS, BUY_STRUCTURE,
  SELL_STRUCTURE, or only the given types) and replays every held
  position from its opening date.
`
}

func (c *rebuildCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.types, "t", "Signal type to rebuild, repeatable")
}

func (c *rebuildCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var types []folio.SignalType
	for _, t := range c.types {
		types = append(types, folio.SignalType(strings.ToUpper(t)))
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		r, err := a.signals().Rebuild(ctx, types...)
		if err != nil {
			return fail("rebuilding signals", err)
		}
		fmt.Printf("run %s: %d signal(s) deleted\n", r.RunID, r.Deleted)
		for _, t := range r.Types {
			fmt.Printf("%s: %d recorded\n", t, r.Recorded[t])
		}
		if r.Err != nil {
			return fail("rebuilding some instruments", r.Err)
		}
		return subcommands.ExitSuccess
	})
}

// --- Signal Command ---

type signalCmd struct {
	date    string
	level   string
	typ     string
	scope   string
	targets listFlag
	message string
}

func (*signalCmd) Name() string     { return "signal" }
func (*signalCmd) Synopsis() string { return "record a manual signal" }
func (*signalCmd) Usage() string {
	return `fol signal -type <type> -scope <scope> [-on <target>...] [-level <level>] [-m <message>] [-d <date>]

  Records a signal by hand. Scopes are INSTRUMENT, CATEGORY (one target),
  MULTI_INSTRUMENT, MULTI_CATEGORY (one or more targets), ALL_INSTRUMENTS
  and ALL_CATEGORIES (no target). Every target must exist.
`
}

func (c *signalCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Signal date, today by default")
	f.StringVar(&c.level, "level", string(folio.Info), "HIGH, MEDIUM, LOW or INFO")
	f.StringVar(&c.typ, "type", "", "Signal type, free form")
	f.StringVar(&c.scope, "scope", string(folio.ScopeInstrument), "Scope type")
	f.Var(&c.targets, "on", "Instrument code or category id, repeatable")
	f.StringVar(&c.message, "m", "", "Message")
}

func (c *signalCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.typ == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	on, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	m := folio.ManualSignal{
		Date:      on,
		Level:     folio.Level(strings.ToUpper(c.level)),
		Type:      folio.SignalType(strings.ToUpper(c.typ)),
		ScopeType: folio.ScopeType(strings.ToUpper(c.scope)),
		ScopeData: c.targets,
		Message:   c.message,
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		s, err := a.signals().CreateManual(ctx, m)
		if err != nil {
			return fail("recording signal", err)
		}
		printMarkdown(renderer.RenderSignals(renderer.NewSignalList("", []folio.Signal{s})))
		return subcommands.ExitSuccess
	})
}

// --- Signals Command ---

type signalsCmd struct {
	from  string
	to    string
	code  string
	match bool
	types listFlag
}

func (*signalsCmd) Name() string     { return "signals" }
func (*signalsCmd) Synopsis() string { return "list recorded signals" }
func (*signalsCmd) Usage() string {
	return `fol signals [-from <date>] [-to <date>] [-s <code>] [-t <type>...]
fol signals -match -s <code> [-to <date>]

  Lists the recorded signals. With -match, lists the signals of a day
  whose scope applies to an instrument, including category and broadcast
  scopes.
`
}

func (c *signalsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day")
	f.StringVar(&c.to, "to", "", "Last day")
	f.StringVar(&c.code, "s", "", "Instrument code")
	f.BoolVar(&c.match, "match", false, "Match every scope applying to the instrument on the -to day (today by default)")
	f.Var(&c.types, "t", "Signal type, repeatable")
}

func (c *signalsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var filter folio.SignalFilter
	var err error
	if c.from != "" {
		if filter.From, err = date.Parse(c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.to != "" || c.match {
		if filter.To, err = parseDay(c.to); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	for _, t := range c.types {
		filter.Types = append(filter.Types, folio.SignalType(strings.ToUpper(t)))
	}
	if c.match && c.code == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		var (
			signals []folio.Signal
			title   string
			err     error
		)
		if c.match {
			title = fmt.Sprintf("Signals for %s on %s", c.code, filter.To)
			signals, err = a.signals().Match(ctx, c.code, filter.To)
		} else {
			title = "Signals"
			filter.Code = c.code
			signals, err = a.signals().List(ctx, filter)
		}
		if err != nil {
			return fail("listing signals", err)
		}
		printMarkdown(renderer.RenderSignals(renderer.NewSignalList(title, signals)))
		return subcommands.ExitSuccess
	})
}
