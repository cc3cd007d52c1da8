package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

// txCmd records one transaction of a fixed action.
type txCmd struct {
	action   folio.Action
	date     string
	code     string
	quantity decimalFlag
	price    decimalFlag
	amount   decimalFlag
	fee      decimalFlag
	memo     string
}

var txNames = map[folio.Action]string{
	folio.Buy:      "buy",
	folio.Sell:     "sell",
	folio.Dividend: "dividend",
	folio.Fee:      "fee",
	folio.Adjust:   "adjust",
}

var txSynopsis = map[folio.Action]string{
	folio.Buy:      "purchase shares to open or add to a position",
	folio.Sell:     "sell shares to trim or close a position",
	folio.Dividend: "record a dividend received for an instrument",
	folio.Fee:      "record a fee charged for an instrument",
	folio.Adjust:   "adjust the cash balance (deposit, withdrawal, correction)",
}

func (c *txCmd) Name() string     { return txNames[c.action] }
func (c *txCmd) Synopsis() string { return txSynopsis[c.action] }
func (c *txCmd) Usage() string {
	switch c.action {
	case folio.Buy, folio.Sell:
		return fmt.Sprintf(`fol %s -s <code> -q <quantity> (-p <price> | -a <amount>) [-f <fee>] [-d <date>] [-m <memo>]

  %s. The cash balance moves by the gross amount and the fee.
`, c.Name(), upperFirst(c.Synopsis()))
	case folio.Adjust:
		return `fol adjust -a <amount> [-s <code>] [-d <date>] [-m <memo>]

  Adjusts the cash balance by a signed amount. A positive amount is a
  deposit, a negative one a withdrawal. The code defaults to the cash
  instrument.
`
	default:
		return fmt.Sprintf(`fol %s -s <code> (-a <amount> | -q <quantity> -p <price>) [-f <fee>] [-d <date>] [-m <memo>]

  %s. The position is left unchanged, the cash balance moves.
`, c.Name(), upperFirst(c.Synopsis()))
	}
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Transaction date, today by default (2024-03-15, 03-15, 15, -1d, -2w)")
	f.StringVar(&c.code, "s", "", "Instrument code")
	f.Var(&c.quantity, "q", "Number of shares")
	f.Var(&c.price, "p", "Price per share")
	f.Var(&c.amount, "a", "Gross amount, overrides quantity × price")
	f.Var(&c.fee, "f", "Fee paid")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the transaction")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		code := c.code
		if code == "" && c.action == folio.Adjust {
			code = a.settings.CashCode
		}
		if code == "" {
			f.Usage()
			return subcommands.ExitUsageError
		}
		in := folio.TransactionInput{
			Code:     code,
			Date:     day,
			Action:   c.action,
			Quantity: c.quantity.Decimal,
			Price:    c.price.NullDecimal,
			Amount:   c.amount.NullDecimal,
			Fee:      c.fee.Decimal,
			Notes:    c.memo,
		}
		return printReceipt(a.ledger().Submit(ctx, in), a.settings.Currency)
	})
}

// printReceipt prints the rows written by a submission, or the reason it
// was refused.
func printReceipt(r folio.Receipt, currency string) subcommands.ExitStatus {
	switch r.Outcome {
	case folio.Rejected:
		fmt.Fprintf(os.Stderr, "Rejected: %s\n", r.Reason)
		return subcommands.ExitFailure
	case folio.Fault:
		fmt.Fprintf(os.Stderr, "Error: %s\n", r.Reason)
		return subcommands.ExitFailure
	}
	rows := []folio.Transaction{r.Transaction}
	if r.Mirror != nil {
		rows = append(rows, *r.Mirror)
	}
	printMarkdown(renderer.RenderTransactions(renderer.NewTransactionLog("", rows, currency)))
	fmt.Printf("%s: %s shares at %s\n", r.Position.Code, folio.Q(r.Position.Shares), folio.M(r.Position.AvgCost, currency))
	if r.Cash != nil {
		fmt.Printf("cash: %s\n", folio.M(r.Cash.Shares, currency))
	}
	if r.Watched {
		fmt.Printf("%s closed and added to the watchlist\n", r.Position.Code)
	}
	return subcommands.ExitSuccess
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// --- Open Command ---

type openCmd struct {
	date    string
	code    string
	shares  decimalFlag
	avgCost decimalFlag
}

func (*openCmd) Name() string     { return "open" }
func (*openCmd) Synopsis() string { return "seed a position with shares and an average cost" }
func (*openCmd) Usage() string {
	return `fol open -s <code> -q <shares> -c <avg_cost> [-d <opening_date>]

  Sets the opening position of an instrument without any ledger row nor
  cash movement. Use it to start tracking shares bought before the ledger.
`
}

func (c *openCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Opening date, today by default")
	f.StringVar(&c.code, "s", "", "Instrument code")
	f.Var(&c.shares, "q", "Number of shares")
	f.Var(&c.avgCost, "c", "Average cost per share")
}

func (c *openCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" || !c.shares.Valid {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		p, err := a.ledger().SetOpening(ctx, c.code, c.shares.Decimal, c.avgCost.Decimal, day)
		if err != nil {
			return fail("opening position", err)
		}
		fmt.Printf("%s: %s shares at %s since %s\n", p.Code, folio.Q(p.Shares), folio.M(p.AvgCost, a.settings.Currency), p.OpeningDate)
		return subcommands.ExitSuccess
	})
}

// --- Corporate Command ---

type corporateCmd struct {
	date    string
	code    string
	actions listFlag
}

func (*corporateCmd) Name() string     { return "corporate" }
func (*corporateCmd) Synopsis() string { return "apply corporate actions to a position" }
func (*corporateCmd) Usage() string {
	return `fol corporate -s <code> -x <action> [-x <action>...] [-d <date>]

  Applies corporate actions, in order, to the position of an instrument:

    split:<ratio>             new shares per old share (split:2, split:0.5)
    stock-dividend:<fraction> extra shares per share (stock-dividend:0.1)
    spinoff:<fraction>        cost basis moved to the spun-off entity (spinoff:0.15)
    merger[:<cash>]           cash per share paid, the position closes

  An ADJ row records the change.
`
}

func (c *corporateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Effective date, today by default")
	f.StringVar(&c.code, "s", "", "Instrument code")
	f.Var(&c.actions, "x", "Corporate action, repeatable")
}

func (c *corporateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" || len(c.actions) == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	var actions []folio.CorporateAction
	for _, s := range c.actions {
		ca, err := folio.ParseCorporateAction(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing corporate action %q: %v\n", s, err)
			return subcommands.ExitUsageError
		}
		actions = append(actions, ca)
	}
	return withApp(ctx, func(a *app) subcommands.ExitStatus {
		return printReceipt(a.ledger().ApplyCorporateActions(ctx, c.code, day, actions...), a.settings.Currency)
	})
}
