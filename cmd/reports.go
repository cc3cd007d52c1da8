package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// --- Tx Command ---

type listTxCmd struct {
	code string
	from string
	to   string
	head int
	tail int
}

func (*listTxCmd) Name() string     { return "tx" }
func (*listTxCmd) Synopsis() string { return "list the transactions of the ledger" }
func (*listTxCmd) Usage() string {
	return `fol tx [-s <code>] [-from <date>] [-to <date>] [-head <n> | -tail <n>]

  Lists ledger rows in chronological order. Cash mirrors are shown with
  the row they belong to.
`
}

func (c *listTxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "s", "", "Only the rows of this instrument")
	f.StringVar(&c.from, "from", "", "First day of the range")
	f.StringVar(&c.to, "to", "", "Last day of the range, today by default")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions.")
}

func (c *listTxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	to, err := parseDay(c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
		return subcommands.ExitUsageError
	}
	var from date.Date
	if c.from != "" {
		if from, err = date.Parse(c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	period := date.NewRange(from, to)

	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		var all []folio.Transaction
		err := a.store.View(ctx, func(tx folio.Tx) error {
			var err error
			all, err = tx.Transactions(c.code, period.To)
			return err
		})
		if err != nil {
			return fail("listing transactions", err)
		}
		var transactions []folio.Transaction
		for _, t := range all {
			if period.Contains(t.Date) {
				transactions = append(transactions, t)
			}
		}
		if c.head > 0 && len(transactions) > c.head {
			transactions = transactions[:c.head]
		}
		if c.tail > 0 && len(transactions) > c.tail {
			transactions = transactions[len(transactions)-c.tail:]
		}
		printMarkdown(renderer.RenderTransactions(renderer.NewTransactionLog("Transactions", transactions, a.settings.Currency)))
		return subcommands.ExitSuccess
	})
}

// --- Holding Command ---

type holdingCmd struct {
	date string
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display the positions valued on a date" }
func (*holdingCmd) Usage() string {
	return `fol holding [-d <date>]

  Displays the held positions valued with the latest close on or before
  a date, the cash balance and the portfolio total.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date for the holdings report, today by default")
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		p, err := a.ledger().Holdings(ctx, on)
		if err != nil {
			return fail("creating holding report", err)
		}
		printMarkdown(renderer.RenderHolding(renderer.NewHolding(p)))
		return subcommands.ExitSuccess
	})
}

// --- Returns Command ---

type returnsCmd struct {
	date string
}

func (*returnsCmd) Name() string     { return "returns" }
func (*returnsCmd) Synopsis() string { return "compute annualized money-weighted returns" }
func (*returnsCmd) Usage() string {
	return `fol returns [-d <date>] [<code>...]

  Computes the annualized return (XIRR) of instruments as of a date, every
  position by default. Instruments with too little history fall back to
  the annualized price change, or report why no rate exists.
`
}

func (c *returnsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "As of date, today by default")
}

func (c *returnsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	asOf, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		codes := f.Args()
		if len(codes) == 0 {
			err := a.store.View(ctx, func(tx folio.Tx) error {
				positions, err := tx.Positions()
				for _, p := range positions {
					if p.Code != a.settings.CashCode {
						codes = append(codes, p.Code)
					}
				}
				return err
			})
			if err != nil {
				return fail("listing positions", err)
			}
		}
		rs := folio.NewReturnSolver(a.store).Batch(ctx, codes, asOf)
		printMarkdown(renderer.RenderReturns(renderer.NewReturns(asOf, rs)))
		return subcommands.ExitSuccess
	})
}
