// Package cmd implements the fol command line application on top of the
// folio engines.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/folio"
	"github.com/etnz/folio/config"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/store"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to a TOML configuration file, later FOLIO_* variables override it.")
var dbPath = flag.String("db", "", "Path to the database directory, overrides the configuration.")
var plain = flag.Bool("plain", false, "Print raw markdown instead of rendering it for the terminal.")

// group ties a command to its help section.
type group struct {
	name     string
	commands []subcommands.Command
}

func groups() []group {
	return []group{
		{"transactions", []subcommands.Command{
			&txCmd{action: folio.Buy},
			&txCmd{action: folio.Sell},
			&txCmd{action: folio.Dividend},
			&txCmd{action: folio.Fee},
			&txCmd{action: folio.Adjust},
			&openCmd{},
			&corporateCmd{},
			&importCmd{},
			&listTxCmd{},
		}},
		{"catalog", []subcommands.Command{&instrumentCmd{}, &categoryCmd{}, &catalogCmd{}}},
		{"reports", []subcommands.Command{&holdingCmd{}, &returnsCmd{}}},
		{"signals", []subcommands.Command{&statusCmd{}, &evaluateCmd{}, &rebuildCmd{}, &signalCmd{}, &signalsCmd{}}},
		{"market data", []subcommands.Command{&fetchCmd{}, &quoteCmd{}, &scheduleCmd{}}},
		{"maintenance", []subcommands.Command{&backupCmd{}, &restoreCmd{}, &configCmd{}}},
	}
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range groups() {
		for _, cmd := range g.commands {
			c.Register(cmd, g.name)
		}
	}
}

// LoadConfig reads the configuration selected by the global flags.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	return cfg, nil
}

// app holds what a command needs for the duration of its execution.
type app struct {
	cfg      *config.Config
	store    *store.Store
	settings folio.Settings
}

// openApp opens the database and resolves the settings: configuration
// first, then the values stored with `fol config -set`.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	settings, err := folio.ResolveSettings(ctx, s, cfg.Settings())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("invalid stored settings: %w", err)
	}
	return &app{cfg: cfg, store: s, settings: settings}, nil
}

func (a *app) Close() error { return a.store.Close() }

func (a *app) ledger() *folio.Ledger { return folio.NewLedger(a.store, a.settings) }

func (a *app) signals() *folio.SignalEngine { return folio.NewSignalEngine(a.store, a.settings) }

// withApp opens the application, runs fn and reports its error.
func withApp(ctx context.Context, fn func(*app) subcommands.ExitStatus) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	return fn(a)
}

// fail prints err and returns a failure status.
func fail(doing string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", doing, err)
	return subcommands.ExitFailure
}

// printMarkdown renders md for the terminal, or prints it raw with -plain
// or when rendering fails.
func printMarkdown(md string) {
	if *plain {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}

// parseDay parses a date flag, "" is today.
func parseDay(s string) (date.Date, error) {
	if s == "" {
		return date.Today(), nil
	}
	return date.Parse(s)
}

// decimalFlag is a flag.Value holding an optional decimal.
type decimalFlag struct {
	decimal.NullDecimal
}

func (d *decimalFlag) String() string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func (d *decimalFlag) Set(s string) error {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	d.NullDecimal = decimal.NewNullDecimal(v)
	return nil
}

// listFlag collects repeated flag values.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }
func (l *listFlag) Set(s string) error {
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}
