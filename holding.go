package folio

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// Holding is a held position valued on a day.
type Holding struct {
	Position
	CategoryID string
	Price      decimal.Decimal
	PriceDate  date.Date
	// PriceFallback is set when the average cost stood in for a missing close.
	PriceFallback  bool
	MarketValue    decimal.Decimal
	Unrealized     decimal.Decimal
	UnrealizedRate float64
	// Realized is the realized P&L of the instrument up to the day.
	Realized decimal.Decimal
}

// Portfolio is the valuation of every holding on a day.
type Portfolio struct {
	Date     date.Date
	Currency string
	Holdings []Holding
	Cash     decimal.Decimal
	// MarketValue is the value of the holdings, cash excluded.
	MarketValue decimal.Decimal
	Unrealized  decimal.Decimal
	Realized    decimal.Decimal
}

// Total returns the market value of the holdings plus cash.
func (p Portfolio) Total() decimal.Decimal { return p.MarketValue.Add(p.Cash) }

// Holdings values the current positions with the closes on or before on.
func (l *Ledger) Holdings(ctx context.Context, on date.Date) (Portfolio, error) {
	var p Portfolio
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		p, err = valuate(tx, l.settings, on)
		return err
	})
	return p, err
}

// valuate computes the Portfolio within tx.
func valuate(tx Tx, s Settings, on date.Date) (Portfolio, error) {
	p := Portfolio{Date: on, Currency: s.Currency}
	positions, err := tx.Positions()
	if err != nil {
		return p, fmt.Errorf("cannot list positions: %w", err)
	}
	txs, err := tx.Transactions("", on)
	if err != nil {
		return p, fmt.Errorf("cannot list transactions: %w", err)
	}
	realized := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.RealizedPnL.Valid {
			realized[t.Code] = realized[t.Code].Add(t.RealizedPnL.Decimal)
			p.Realized = p.Realized.Add(t.RealizedPnL.Decimal)
		}
	}

	for _, pos := range positions {
		if pos.Code == s.CashCode {
			p.Cash = p.Cash.Add(pos.Shares)
			continue
		}
		ins, _, err := tx.Instrument(pos.Code)
		if err != nil {
			return p, fmt.Errorf("cannot read instrument %q: %w", pos.Code, err)
		}
		// every cash instrument adds to the balance, overdrawn or not
		if ins.Type == Cash {
			p.Cash = p.Cash.Add(pos.Shares)
			continue
		}
		if !pos.Held() {
			continue
		}
		day, price, found, err := tx.Close(pos.Code, on)
		if err != nil {
			return p, fmt.Errorf("cannot read close of %q: %w", pos.Code, err)
		}
		h := Holding{Position: pos, CategoryID: ins.CategoryID, Price: price, PriceDate: day, Realized: realized[pos.Code]}
		if !found {
			h.Price, h.PriceFallback = pos.AvgCost, true
		}
		h.MarketValue = pos.Shares.Mul(h.Price)
		h.Unrealized = h.MarketValue.Sub(pos.Cost())
		if cost := pos.Cost(); cost.IsPositive() {
			h.UnrealizedRate = h.Unrealized.Div(cost).InexactFloat64()
		}
		p.Holdings = append(p.Holdings, h)
		p.MarketValue = p.MarketValue.Add(h.MarketValue)
		p.Unrealized = p.Unrealized.Add(h.Unrealized)
	}
	slices.SortFunc(p.Holdings, func(a, b Holding) int { return strings.Compare(a.Code, b.Code) })
	return p, nil
}
