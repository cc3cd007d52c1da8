package folio

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultMoneyDigits is used when the currency is unknown to go-money.
const DefaultMoneyDigits = 2

// Money is a monetary value ready for presentation or persistence.
//
// Computations are done on decimal.Decimal at full precision. Money is
// the boundary where amounts get rounded to the currency fraction.
type Money struct {
	value decimal.Decimal
	cur   string
}

// M returns Money for value in currency.
func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: D(value), cur: currency}
}

// digits returns the number of decimals of the currency.
func digits(cur string) int32 {
	if c := money.GetCurrency(cur); c != nil {
		return int32(c.Fraction)
	}
	return DefaultMoneyDigits
}

// RoundMoney rounds an amount to the fraction of currency.
func RoundMoney(v decimal.Decimal, currency string) decimal.Decimal {
	return v.Round(digits(currency))
}

// Currency returns the money's currency code.
func (m Money) Currency() string { return m.cur }

// Decimal returns the amount rounded to the currency fraction.
func (m Money) Decimal() decimal.Decimal { return RoundMoney(m.value, m.cur) }

func (m Money) IsZero() bool     { return m.Decimal().IsZero() }
func (m Money) IsNegative() bool { return m.Decimal().IsNegative() }

// String returns the amount formatted with the currency symbol.
func (m Money) String() string {
	c := money.GetCurrency(m.cur)
	if c == nil {
		return m.Decimal().StringFixed(DefaultMoneyDigits) + " " + m.cur
	}
	return c.Formatter().Format(m.value.Shift(int32(c.Fraction)).Round(0).IntPart())
}

// SignedString returns the amount with an explicit sign, "-" for zero.
func (m Money) SignedString() string {
	switch {
	case m.IsZero():
		return "-"
	case m.value.IsPositive():
		return "+" + m.String()
	default:
		return m.String()
	}
}
