package folio

import (
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// InstrumentType is the asset class of an instrument.
type InstrumentType string

const (
	Stock InstrumentType = "STOCK"
	Fund  InstrumentType = "FUND"
	Bond  InstrumentType = "BOND"
	Cash  InstrumentType = "CASH"
)

// Instrument is a tradable security or the cash pseudo-instrument.
type Instrument struct {
	Code       string         `json:"code" yaml:"code" validate:"required,max=32"`
	Name       string         `json:"name,omitempty" yaml:"name"`
	Type       InstrumentType `json:"type" yaml:"type" validate:"omitempty,oneof=STOCK FUND BOND CASH"`
	CategoryID string         `json:"category,omitempty" yaml:"category"`
	// Symbol is the provider symbol used to sync prices, Code when empty.
	Symbol string `json:"symbol,omitempty" yaml:"symbol"`
	Active bool   `json:"active" yaml:"active"`
}

// ProviderSymbol returns the symbol to query price providers with.
func (i Instrument) ProviderSymbol() string {
	if i.Symbol != "" {
		return i.Symbol
	}
	return i.Code
}

// Category groups instruments. TargetWeight is the portfolio weight the
// category should not exceed by more than the overweight band.
type Category struct {
	ID           string          `json:"id" yaml:"id" validate:"required,max=32"`
	Name         string          `json:"name,omitempty" yaml:"name"`
	TargetWeight decimal.Decimal `json:"target,omitempty" yaml:"target"`
}

// Bar is one end-of-day price record.
type Bar struct {
	Code   string              `json:"code"`
	Date   date.Date           `json:"date"`
	Close  decimal.Decimal     `json:"close"`
	Open   decimal.NullDecimal `json:"open,omitempty"`
	High   decimal.NullDecimal `json:"high,omitempty"`
	Low    decimal.NullDecimal `json:"low,omitempty"`
	Volume int64               `json:"volume,omitempty"`
}

// WatchEntry is an instrument followed after its position was closed.
type WatchEntry struct {
	Code    string    `json:"code"`
	AddedOn date.Date `json:"added"`
}

// ValidateInstrument checks i before it is stored.
func ValidateInstrument(i Instrument) error { return checkStruct(i) }

// ValidateCategory checks c before it is stored.
func ValidateCategory(c Category) error {
	if err := checkStruct(c); err != nil {
		return err
	}
	if c.TargetWeight.IsNegative() || c.TargetWeight.GreaterThan(one) {
		return invalid("target", "weight must be within [0, 1], got %s", c.TargetWeight)
	}
	return nil
}
