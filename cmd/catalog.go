package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/folio"
	"github.com/google/subcommands"
)

// --- Instrument Command ---

type instrumentCmd struct {
	code     string
	name     string
	typ      string
	category string
	symbol   string
	inactive bool
	search   string
	list     bool
}

func (*instrumentCmd) Name() string     { return "instrument" }
func (*instrumentCmd) Synopsis() string { return "declare, update or search instruments" }
func (*instrumentCmd) Usage() string {
	return `fol instrument -s <code> [-n <name>] [-t STOCK|FUND|BOND|CASH] [-c <category>] [-symbol <provider symbol>] [-inactive]
fol instrument -search <term>
fol instrument -l

  Declares or updates an instrument. With -search, looks up provider
  symbols by name, ticker or ISIN. With -l, lists the catalog.
`
}

func (c *instrumentCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "s", "", "Instrument code")
	f.StringVar(&c.name, "n", "", "Instrument name")
	f.StringVar(&c.typ, "t", string(folio.Stock), "Instrument type")
	f.StringVar(&c.category, "c", "", "Category id")
	f.StringVar(&c.symbol, "symbol", "", "Price provider symbol (e.g. AAPL.US), the code by default")
	f.BoolVar(&c.inactive, "inactive", false, "Exclude the instrument from syncs and structure signals")
	f.StringVar(&c.search, "search", "", "Search the price provider for a term")
	f.BoolVar(&c.list, "l", false, "List instruments")
}

func (c *instrumentCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch {
	case c.search != "":
		return c.executeSearch(ctx)
	case c.list:
		return withApp(ctx, listInstruments(ctx))
	case c.code == "":
		f.Usage()
		return subcommands.ExitUsageError
	}
	i := folio.Instrument{
		Code:       c.code,
		Name:       c.name,
		Type:       folio.InstrumentType(strings.ToUpper(c.typ)),
		CategoryID: c.category,
		Symbol:     c.symbol,
		Active:     !c.inactive,
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		if err := (folio.Catalog{Instruments: []folio.Instrument{i}}).Save(ctx, a.store); err != nil {
			return fail("saving instrument", err)
		}
		fmt.Printf("instrument %s saved\n", i.Code)
		return subcommands.ExitSuccess
	})
}

func (c *instrumentCmd) executeSearch(ctx context.Context) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		return fail("loading configuration", err)
	}
	client, err := newProvider(cfg)
	if err != nil {
		return fail("creating provider", err)
	}
	defer client.Close()
	results, err := client.Search(ctx, c.search)
	if err != nil {
		return fail("searching", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "| Symbol | Name | Type | ISIN | Currency |\n|:---|:---|:---|:---|:---|\n")
	for _, r := range results {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", r.Symbol(), r.Name, r.Type, r.ISIN, r.Currency)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

func listInstruments(ctx context.Context) func(*app) subcommands.ExitStatus {
	return func(a *app) subcommands.ExitStatus {
		var (
			instruments []folio.Instrument
			categories  []folio.Category
		)
		err := a.store.View(ctx, func(tx folio.Tx) error {
			var err error
			if instruments, err = tx.Instruments(); err != nil {
				return err
			}
			categories, err = tx.Categories()
			return err
		})
		if err != nil {
			return fail("listing instruments", err)
		}
		var b strings.Builder
		if len(categories) > 0 {
			fmt.Fprintf(&b, "| Category | Name | Target |\n|:---|:---|---:|\n")
			for _, c := range categories {
				w, _ := c.TargetWeight.Float64()
				fmt.Fprintf(&b, "| %s | %s | %s |\n", c.ID, c.Name, folio.Ratio(w))
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "| Code | Name | Type | Category | Symbol | Active |\n|:---|:---|:---|:---|:---|:---:|\n")
		for _, i := range instruments {
			active := " "
			if i.Active {
				active = "X"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n", i.Code, i.Name, i.Type, i.CategoryID, i.ProviderSymbol(), active)
		}
		printMarkdown(b.String())
		return subcommands.ExitSuccess
	}
}

// --- Category Command ---

type categoryCmd struct {
	id     string
	name   string
	target decimalFlag
}

func (*categoryCmd) Name() string     { return "category" }
func (*categoryCmd) Synopsis() string { return "declare or update a category" }
func (*categoryCmd) Usage() string {
	return `fol category -id <id> [-n <name>] [-w <target weight>]

  Declares a category. The target weight, within [0, 1], is the share of
  the portfolio the category should not exceed by more than the
  overweight band.
`
}

func (c *categoryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Category id")
	f.StringVar(&c.name, "n", "", "Category name")
	f.Var(&c.target, "w", "Target weight, 0.25 for 25%")
}

func (c *categoryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cat := folio.Category{ID: c.id, Name: c.name, TargetWeight: c.target.Decimal}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		if err := (folio.Catalog{Categories: []folio.Category{cat}}).Save(ctx, a.store); err != nil {
			return fail("saving category", err)
		}
		fmt.Printf("category %s saved\n", cat.ID)
		return subcommands.ExitSuccess
	})
}

// --- Catalog Command ---

type catalogCmd struct{}

func (*catalogCmd) Name() string     { return "catalog" }
func (*catalogCmd) Synopsis() string { return "import categories and instruments from a YAML file" }
func (*catalogCmd) Usage() string {
	return `fol catalog <file.yaml>

  Imports a YAML catalog:

    categories:
      - id: tech
        name: Technology
        target: 0.4
    instruments:
      - code: AAPL
        type: STOCK
        category: tech
        symbol: AAPL.US

  The whole file is validated and saved atomically.
`
}

func (*catalogCmd) SetFlags(*flag.FlagSet) {}

func (*catalogCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		return fail("opening catalog", err)
	}
	defer file.Close()
	catalog, err := folio.DecodeCatalog(file)
	if err != nil {
		return fail("reading catalog", err)
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		if err := catalog.Save(ctx, a.store); err != nil {
			return fail("saving catalog", err)
		}
		fmt.Printf("%d categories and %d instruments saved\n", len(catalog.Categories), len(catalog.Instruments))
		return subcommands.ExitSuccess
	})
}
