package folio

import "github.com/shopspring/decimal"

// CashMirror returns the cash transaction that mirrors a transaction on a
// tradable instrument: its action and its non negative amount. ok is false
// when the mirror amount is zero and no cash row must be written.
//
//	BUY  → cash SELL of gross + fee
//	SELL → cash BUY of max(0, gross − fee)
//	DIV  → cash BUY of gross
//	FEE  → cash SELL of fee, or gross when fee is zero
//	ADJ  → cash BUY or SELL of |amount|
func CashMirror(action Action, quantity decimal.Decimal, price, amount decimal.NullDecimal, fee decimal.Decimal) (mirror Action, value decimal.Decimal, ok bool) {
	g := gross(quantity, price, amount)
	switch action {
	case Buy:
		mirror, value = Sell, g.Add(fee)
	case Sell:
		mirror, value = Buy, decimal.Max(decimal.Zero, g.Sub(fee))
	case Dividend:
		mirror, value = Buy, g
	case Fee:
		mirror, value = Sell, fee
		if fee.IsZero() {
			value = g
		}
	case Adjust:
		a := decimal.Zero
		if amount.Valid {
			a = amount.Decimal
		}
		mirror, value = Buy, a.Abs()
		if a.IsNegative() {
			mirror = Sell
		}
	default:
		return "", decimal.Zero, false
	}
	if value.IsZero() {
		return "", decimal.Zero, false
	}
	return mirror, value, true
}

// mirrorOf builds the cash row mirroring t, nil if none is due.
func mirrorOf(t Transaction, cashCode string) *Transaction {
	action, value, ok := CashMirror(t.Action, t.Quantity, t.Price, t.Amount, t.Fee)
	if !ok {
		return nil
	}
	quantity := value
	if action == Sell {
		quantity = value.Neg()
	}
	return &Transaction{
		Code:     cashCode,
		Date:     t.Date,
		Action:   action,
		Quantity: quantity,
		Price:    decimal.NewNullDecimal(one),
		Amount:   decimal.NewNullDecimal(value),
		Notes:    "cash " + t.Action.String() + " " + t.Code,
		GroupID:  t.ID,
	}
}
