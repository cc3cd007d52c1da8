package folio

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CorporateAction transforms a position without any trade.
type CorporateAction interface {
	apply(p Position) (Position, decimal.Decimal, error)
	String() string
}

// StockDividend distributes Fraction new shares per share held.
type StockDividend struct{ Fraction decimal.Decimal }

// Split multiplies shares by Ratio (2 for a 2-for-1 split, 0.1 for a 1-for-10 reverse split).
type Split struct{ Ratio decimal.Decimal }

// SpinOff allocates AllocatedFraction of the cost basis to the spun-off entity.
type SpinOff struct{ AllocatedFraction decimal.Decimal }

// Merger closes the position. When CashPerShare is set the shares are
// paid in cash and the difference with the cost basis is realized.
type Merger struct{ CashPerShare decimal.NullDecimal }

var one = decimal.NewFromInt(1)

func (a StockDividend) apply(p Position) (Position, decimal.Decimal, error) {
	if a.Fraction.IsNegative() {
		return p, decimal.Zero, invalid("fraction", "stock dividend must not be negative, got %s", a.Fraction)
	}
	k := one.Add(a.Fraction)
	p.Shares = p.Shares.Mul(k)
	p.AvgCost = p.AvgCost.Div(k)
	return p, decimal.Zero, nil
}

func (a Split) apply(p Position) (Position, decimal.Decimal, error) {
	if !a.Ratio.IsPositive() {
		return p, decimal.Zero, invalid("ratio", "split ratio must be positive, got %s", a.Ratio)
	}
	p.Shares = p.Shares.Mul(a.Ratio)
	p.AvgCost = p.AvgCost.Div(a.Ratio)
	return p, decimal.Zero, nil
}

func (a SpinOff) apply(p Position) (Position, decimal.Decimal, error) {
	if a.AllocatedFraction.IsNegative() || a.AllocatedFraction.GreaterThan(one) {
		return p, decimal.Zero, invalid("fraction", "spin-off allocation must be within [0, 1], got %s", a.AllocatedFraction)
	}
	p.AvgCost = p.AvgCost.Mul(one.Sub(a.AllocatedFraction))
	return p, decimal.Zero, nil
}

func (a Merger) apply(p Position) (Position, decimal.Decimal, error) {
	realized := decimal.Zero
	if a.CashPerShare.Valid {
		realized = p.Shares.Mul(a.CashPerShare.Decimal.Sub(p.AvgCost))
	}
	p.Shares, p.AvgCost = decimal.Zero, decimal.Zero
	return p, realized, nil
}

func (a StockDividend) String() string { return "stock-dividend:" + a.Fraction.String() }
func (a Split) String() string         { return "split:" + a.Ratio.String() }
func (a SpinOff) String() string       { return "spinoff:" + a.AllocatedFraction.String() }
func (a Merger) String() string {
	if a.CashPerShare.Valid {
		return "merger:" + a.CashPerShare.Decimal.String()
	}
	return "merger"
}

// FoldCorporateActions applies actions left to right and accumulates the realized P&L.
func FoldCorporateActions(p Position, actions ...CorporateAction) (Position, decimal.Decimal, error) {
	total := decimal.Zero
	for _, a := range actions {
		next, realized, err := a.apply(p)
		if err != nil {
			return p, decimal.Zero, fmt.Errorf("cannot apply %s: %w", a, err)
		}
		p = next
		total = total.Add(realized)
	}
	return p, total, nil
}

// ParseCorporateAction parses "split:2", "stock-dividend:0.1",
// "spinoff:0.15", "merger" or "merger:12.5".
func ParseCorporateAction(s string) (CorporateAction, error) {
	kind, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")
	var value decimal.Decimal
	if hasArg {
		v, err := decimal.NewFromString(arg)
		if err != nil {
			return nil, invalid("corporate action", "invalid number in %q", s)
		}
		value = v
	}
	switch strings.ToLower(kind) {
	case "split":
		if !hasArg {
			return nil, invalid("corporate action", "split requires a ratio")
		}
		return Split{Ratio: value}, nil
	case "stock-dividend", "stockdividend":
		if !hasArg {
			return nil, invalid("corporate action", "stock dividend requires a fraction")
		}
		return StockDividend{Fraction: value}, nil
	case "spinoff", "spin-off":
		if !hasArg {
			return nil, invalid("corporate action", "spin-off requires an allocated fraction")
		}
		return SpinOff{AllocatedFraction: value}, nil
	case "merger":
		if hasArg {
			return Merger{CashPerShare: decimal.NewNullDecimal(value)}, nil
		}
		return Merger{}, nil
	default:
		return nil, invalid("corporate action", "unknown corporate action %q", s)
	}
}
