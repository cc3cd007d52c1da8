package folio

import (
	"math"
	"slices"

	"github.com/etnz/folio/date"
)

// Solver parameters of XIRR.
const (
	xirrGuess      = 0.10
	xirrIterations = 100
	xirrTolerance  = 1e-8
	xirrFloor      = -0.999999
	xirrFlat       = 1e-12
)

// CashFlow is a dated signed amount: negative when money goes in the
// investment, positive when it comes out.
type CashFlow struct {
	Date   date.Date
	Amount float64
}

// XIRR returns the annualized rate r solving Σ aᵢ·(1+r)^tᵢ = 0 where tᵢ
// is the distance in years of 365 days from flow i to the latest flow.
//
// It uses Newton-Raphson from 10%, never lets r go below −0.999999 and
// stops when two iterates differ by less than 1e-8. It returns
// ErrInsufficientData with fewer than two flows, ErrNoSolution on a
// non-finite iterate or a flat derivative and ErrNotConverged when the
// iteration budget is exhausted.
func XIRR(flows []CashFlow) (float64, error) {
	if len(flows) < 2 {
		return 0, ErrInsufficientData
	}
	last := slices.MaxFunc(flows, func(a, b CashFlow) int { return a.Date.Compare(b.Date) }).Date
	t := make([]float64, len(flows))
	for i, f := range flows {
		t[i] = float64(last.DaysSince(f.Date)) / 365
	}

	r := xirrGuess
	for range xirrIterations {
		var f, df float64
		for i, cf := range flows {
			f += cf.Amount * math.Pow(1+r, t[i])
			df += cf.Amount * t[i] * math.Pow(1+r, t[i]-1)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || math.IsNaN(df) || math.IsInf(df, 0) || math.Abs(df) < xirrFlat {
			return 0, ErrNoSolution
		}
		next := max(r-f/df, xirrFloor)
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, ErrNoSolution
		}
		if math.Abs(next-r) < xirrTolerance {
			return next, nil
		}
		r = next
	}
	return 0, ErrNotConverged
}

// TransactionFlows maps ledger rows to cash flows, in chronological order.
// Cash mirrors and zero amounts produce no flow.
//
//	BUY  → −(gross + fee)
//	SELL → +(gross − fee)
//	DIV  → +gross
//	FEE  → −(fee, or gross when fee is zero)
//	ADJ  → +amount, sign preserved
func TransactionFlows(txs []Transaction) []CashFlow {
	var flows []CashFlow
	for _, t := range txs {
		if t.IsMirror() {
			continue
		}
		g := t.Gross()
		var a float64
		switch t.Action {
		case Buy:
			a = -g.Add(t.Fee).InexactFloat64()
		case Sell:
			a = g.Sub(t.Fee).InexactFloat64()
		case Dividend:
			a = g.InexactFloat64()
		case Fee:
			if t.Fee.IsZero() {
				a = -g.InexactFloat64()
			} else {
				a = -t.Fee.InexactFloat64()
			}
		case Adjust:
			if t.Amount.Valid {
				a = t.Amount.Decimal.InexactFloat64()
			}
		}
		if a != 0 {
			flows = append(flows, CashFlow{Date: t.Date, Amount: a})
		}
	}
	slices.SortStableFunc(flows, func(a, b CashFlow) int { return a.Date.Compare(b.Date) })
	return flows
}
