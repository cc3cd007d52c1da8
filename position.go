package folio

import (
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// Position is the current average-cost holding of one instrument.
type Position struct {
	Code       string          `json:"code"`
	Shares     decimal.Decimal `json:"shares"`
	AvgCost    decimal.Decimal `json:"avg_cost"`
	LastUpdate date.Date       `json:"last_update"`
	// OpeningDate is the first day of the current holding episode, zero when unknown.
	OpeningDate date.Date `json:"opening_date"`
}

// Held reports whether the position has shares.
func (p Position) Held() bool { return p.Shares.IsPositive() }

// Cost returns the cost basis of the position.
func (p Position) Cost() decimal.Decimal { return p.Shares.Mul(p.AvgCost) }

// ApplyTransaction computes the effect of one transaction on an
// average-cost position.
//
// BUY adds the quantity and folds price and fee into the average cost.
// SELL removes the quantity, rounded to ShareDigits, keeps the average
// cost while shares remain and realizes quantity × (price − avg) − fee.
// Other actions leave the position unchanged.
//
// The returned share balance may be negative: callers decide whether a
// SELL beyond the position is acceptable.
func ApplyTransaction(shares, avg decimal.Decimal, action Action, quantity, price, fee decimal.Decimal) (newShares, newAvg, realized decimal.Decimal) {
	switch action {
	case Buy:
		newShares = shares.Add(quantity)
		if newShares.IsZero() {
			return newShares, decimal.Zero, decimal.Zero
		}
		cost := shares.Mul(avg).Add(quantity.Mul(price)).Add(fee)
		return newShares, cost.Div(newShares), decimal.Zero
	case Sell:
		newShares = RoundShares(shares.Sub(quantity))
		newAvg = decimal.Zero
		if newShares.IsPositive() {
			newAvg = avg
		}
		realized = quantity.Mul(price.Sub(avg)).Sub(fee)
		return newShares, newAvg, realized
	default:
		return shares, avg, decimal.Zero
	}
}

// Apply is ApplyTransaction on p. It rejects a SELL that would bring
// shares below −1e-6 and clamps smaller negative residues to zero.
func (p Position) Apply(action Action, quantity, price, fee decimal.Decimal) (Position, decimal.Decimal, error) {
	shares, avg, realized := ApplyTransaction(p.Shares, p.AvgCost, action, quantity, price, fee)
	if shares.LessThan(epsilon.Neg()) {
		return p, decimal.Zero, &InvariantError{
			Code: p.Code,
			Err:  ErrSellExceedsPosition,
			Msg:  "selling " + quantity.String() + " out of " + p.Shares.String(),
		}
	}
	if shares.IsNegative() {
		shares = decimal.Zero
	}
	p.Shares, p.AvgCost = shares, avg
	return p, realized, nil
}

// applyCash moves the cash balance by delta. Cash is carried at an
// average cost of one unit per share.
func applyCash(p Position, delta decimal.Decimal) Position {
	p.Shares = p.Shares.Add(delta)
	p.AvgCost = decimal.Zero
	if !p.Shares.IsZero() {
		p.AvgCost = decimal.NewFromInt(1)
	}
	return p
}
