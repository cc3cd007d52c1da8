package folio

import (
	"errors"
	"fmt"

	"github.com/etnz/folio/date"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Transaction is one immutable ledger row.
//
// Quantity is signed: positive for BUY, negative for SELL. Every row
// belongs to a group: an original transaction's GroupID is its own ID,
// its cash mirror carries the same GroupID.
type Transaction struct {
	ID          uint64
	Code        string
	Date        date.Date
	Action      Action
	Quantity    decimal.Decimal
	Price       decimal.NullDecimal
	Amount      decimal.NullDecimal
	Fee         decimal.Decimal
	Notes       string
	GroupID     uint64
	RealizedPnL decimal.NullDecimal
}

// Gross returns the amount if present, otherwise |quantity| × price.
func (t Transaction) Gross() decimal.Decimal {
	return gross(t.Quantity, t.Price, t.Amount)
}

func gross(quantity decimal.Decimal, price, amount decimal.NullDecimal) decimal.Decimal {
	if amount.Valid {
		return amount.Decimal
	}
	if !price.Valid {
		return decimal.Zero
	}
	return quantity.Abs().Mul(price.Decimal)
}

// IsMirror reports whether t was generated as the cash mirror of another row.
func (t Transaction) IsMirror() bool { return t.GroupID != 0 && t.GroupID != t.ID }

// MarshalJSON writes the transaction with a stable field order, omitting absent values.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("date", t.Date)
	w.Append("code", t.Code)
	w.Append("action", t.Action)
	w.Append("quantity", t.Quantity)
	w.Optional("price", t.Price)
	w.Optional("amount", t.Amount)
	if !t.Fee.IsZero() {
		w.Append("fee", t.Fee)
	}
	w.Optional("notes", t.Notes)
	w.Append("group", t.GroupID)
	w.Optional("realized", t.RealizedPnL)
	return w.MarshalJSON()
}

// UnmarshalJSON reads what MarshalJSON writes.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       uint64              `json:"id"`
		Date     date.Date           `json:"date"`
		Code     string              `json:"code"`
		Action   Action              `json:"action"`
		Quantity decimal.Decimal     `json:"quantity"`
		Price    decimal.NullDecimal `json:"price"`
		Amount   decimal.NullDecimal `json:"amount"`
		Fee      decimal.Decimal     `json:"fee"`
		Notes    string              `json:"notes"`
		Group    uint64              `json:"group"`
		Realized decimal.NullDecimal `json:"realized"`
	}
	if err := decodeStrict(b, &raw); err != nil {
		return err
	}
	*t = Transaction{
		ID: raw.ID, Code: raw.Code, Date: raw.Date, Action: raw.Action,
		Quantity: raw.Quantity, Price: raw.Price, Amount: raw.Amount, Fee: raw.Fee,
		Notes: raw.Notes, GroupID: raw.Group, RealizedPnL: raw.Realized,
	}
	return nil
}

// TransactionInput is a transaction as submitted by a user, before it is
// validated and applied.
type TransactionInput struct {
	Code     string              `json:"code" validate:"required,max=32"`
	Date     date.Date           `json:"date"`
	Action   Action              `json:"action" validate:"required,action"`
	Quantity decimal.Decimal     `json:"quantity"`
	Price    decimal.NullDecimal `json:"price"`
	Amount   decimal.NullDecimal `json:"amount"`
	Fee      decimal.Decimal     `json:"fee"`
	Notes    string              `json:"notes" validate:"max=500"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("action", func(fl validator.FieldLevel) bool {
		return Action(fl.Field().String()).Valid()
	})
	v.RegisterValidation("level", func(fl validator.FieldLevel) bool {
		return Level(fl.Field().String()).Valid()
	})
	return v
}

// checkStruct runs struct tag validation and converts the first failure into a ValidationError.
func checkStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		f := fields[0]
		if f.Param() != "" {
			return invalid(f.Field(), "failed %q=%s check", f.Tag(), f.Param())
		}
		return invalid(f.Field(), "failed %q check", f.Tag())
	}
	return fmt.Errorf("cannot validate input: %w", err)
}

// Validate checks the input and normalizes it: default date, absolute quantity,
// price derived from amount for trades. on is used as the default date.
func (in *TransactionInput) Validate(on date.Date) error {
	if err := checkStruct(in); err != nil {
		return err
	}
	if in.Date.IsZero() {
		in.Date = on
	}
	in.Quantity = in.Quantity.Abs()
	if in.Fee.IsNegative() {
		return invalid("fee", "must not be negative, got %s", in.Fee)
	}
	if in.Price.Valid && in.Price.Decimal.IsNegative() {
		return invalid("price", "must not be negative, got %s", in.Price.Decimal)
	}

	switch in.Action {
	case Buy, Sell:
		if !in.Quantity.IsPositive() {
			return invalid("quantity", "%s requires a positive quantity", in.Action)
		}
		if !in.Price.Valid {
			if !in.Amount.Valid {
				return invalid("price", "%s requires a price or an amount", in.Action)
			}
			in.Price = decimal.NewNullDecimal(in.Amount.Decimal.Div(in.Quantity))
		}
		if in.Amount.Valid && in.Amount.Decimal.IsNegative() {
			return invalid("amount", "must not be negative, got %s", in.Amount.Decimal)
		}
	case Dividend:
		if gross(in.Quantity, in.Price, in.Amount).Sign() <= 0 {
			return invalid("amount", "dividend requires a positive amount")
		}
	case Fee:
		if in.Fee.IsZero() {
			if !in.Amount.Valid || in.Amount.Decimal.Sign() <= 0 {
				return invalid("fee", "fee requires a positive fee or amount")
			}
		}
	case Adjust:
		if !in.Amount.Valid || in.Amount.Decimal.IsZero() {
			return invalid("amount", "adjustment requires a non zero amount")
		}
	}
	return nil
}
