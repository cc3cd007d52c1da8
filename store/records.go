package store

import (
	"fmt"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// Records are flat, with dates as ISO strings so that badgerhold
// queries compare them in chronological order.

type transactionRecord struct {
	ID       uint64
	Code     string
	Date     string
	Action   string
	Quantity string
	Price    string
	Amount   string
	Fee      string
	Notes    string
	GroupID  uint64
	Realized string
}

type positionRecord struct {
	Code        string
	Shares      string
	AvgCost     string
	LastUpdate  string
	OpeningDate string
}

type instrumentRecord struct {
	Code       string
	Name       string
	Type       string
	CategoryID string
	Symbol     string
	Active     bool
}

type categoryRecord struct {
	ID           string
	Name         string
	TargetWeight string
}

type barRecord struct {
	Code   string
	Date   string
	Close  string
	Open   string
	High   string
	Low    string
	Volume int64
}

type signalRecord struct {
	ID        uint64
	Date      string
	Level     string
	Type      string
	ScopeType string
	ScopeData []string
	// Code and CategoryID hold the single element of INSTRUMENT and CATEGORY scopes.
	Code       string
	CategoryID string
	Message    string
}

type watchRecord struct {
	Code    string
	AddedOn string
}

type settingRecord struct {
	Key   string
	Value string
}

// counterRecord holds the last identifier allocated for a table.
type counterRecord struct {
	Table string
	Last  uint64
}

func formatDate(d date.Date) string { return d.String() }

func parseDate(s string) (date.Date, error) {
	if s == "" {
		return date.Date{}, nil
	}
	return date.ParseISO(s)
}

func formatNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func parseNull(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// decoder accumulates the first parse error of a record.
type decoder struct{ err error }

func (d *decoder) date(s string) date.Date {
	v, err := parseDate(s)
	if err != nil && d.err == nil {
		d.err = err
	}
	return v
}

func (d *decoder) decimal(s string) decimal.Decimal {
	v, err := parseDecimal(s)
	if err != nil && d.err == nil {
		d.err = err
	}
	return v
}

func (d *decoder) null(s string) decimal.NullDecimal {
	v, err := parseNull(s)
	if err != nil && d.err == nil {
		d.err = err
	}
	return v
}

func fromTransaction(t folio.Transaction) transactionRecord {
	return transactionRecord{
		ID:       t.ID,
		Code:     t.Code,
		Date:     formatDate(t.Date),
		Action:   string(t.Action),
		Quantity: t.Quantity.String(),
		Price:    formatNull(t.Price),
		Amount:   formatNull(t.Amount),
		Fee:      t.Fee.String(),
		Notes:    t.Notes,
		GroupID:  t.GroupID,
		Realized: formatNull(t.RealizedPnL),
	}
}

func (r transactionRecord) transaction() (folio.Transaction, error) {
	var d decoder
	t := folio.Transaction{
		ID:          r.ID,
		Code:        r.Code,
		Date:        d.date(r.Date),
		Action:      folio.Action(r.Action),
		Quantity:    d.decimal(r.Quantity),
		Price:       d.null(r.Price),
		Amount:      d.null(r.Amount),
		Fee:         d.decimal(r.Fee),
		Notes:       r.Notes,
		GroupID:     r.GroupID,
		RealizedPnL: d.null(r.Realized),
	}
	if d.err != nil {
		return t, fmt.Errorf("corrupted transaction %d: %w", r.ID, d.err)
	}
	return t, nil
}

func fromPosition(p folio.Position) positionRecord {
	return positionRecord{
		Code:        p.Code,
		Shares:      p.Shares.String(),
		AvgCost:     p.AvgCost.String(),
		LastUpdate:  formatDate(p.LastUpdate),
		OpeningDate: formatDate(p.OpeningDate),
	}
}

func (r positionRecord) position() (folio.Position, error) {
	var d decoder
	p := folio.Position{
		Code:        r.Code,
		Shares:      d.decimal(r.Shares),
		AvgCost:     d.decimal(r.AvgCost),
		LastUpdate:  d.date(r.LastUpdate),
		OpeningDate: d.date(r.OpeningDate),
	}
	if d.err != nil {
		return p, fmt.Errorf("corrupted position %q: %w", r.Code, d.err)
	}
	return p, nil
}

func fromInstrument(i folio.Instrument) instrumentRecord {
	return instrumentRecord{Code: i.Code, Name: i.Name, Type: string(i.Type), CategoryID: i.CategoryID, Symbol: i.Symbol, Active: i.Active}
}

func (r instrumentRecord) instrument() folio.Instrument {
	return folio.Instrument{Code: r.Code, Name: r.Name, Type: folio.InstrumentType(r.Type), CategoryID: r.CategoryID, Symbol: r.Symbol, Active: r.Active}
}

func fromCategory(c folio.Category) categoryRecord {
	return categoryRecord{ID: c.ID, Name: c.Name, TargetWeight: c.TargetWeight.String()}
}

func (r categoryRecord) category() (folio.Category, error) {
	var d decoder
	c := folio.Category{ID: r.ID, Name: r.Name, TargetWeight: d.decimal(r.TargetWeight)}
	if d.err != nil {
		return c, fmt.Errorf("corrupted category %q: %w", r.ID, d.err)
	}
	return c, nil
}

func barKey(code string, on date.Date) string { return code + "/" + on.String() }

func fromBar(b folio.Bar) barRecord {
	return barRecord{
		Code:   b.Code,
		Date:   formatDate(b.Date),
		Close:  b.Close.String(),
		Open:   formatNull(b.Open),
		High:   formatNull(b.High),
		Low:    formatNull(b.Low),
		Volume: b.Volume,
	}
}

func (r barRecord) bar() (folio.Bar, error) {
	var d decoder
	b := folio.Bar{
		Code:   r.Code,
		Date:   d.date(r.Date),
		Close:  d.decimal(r.Close),
		Open:   d.null(r.Open),
		High:   d.null(r.High),
		Low:    d.null(r.Low),
		Volume: r.Volume,
	}
	if d.err != nil {
		return b, fmt.Errorf("corrupted bar %s: %w", barKey(r.Code, b.Date), d.err)
	}
	return b, nil
}

func fromSignal(s folio.Signal) signalRecord {
	typ, data := folio.EncodeScope(s.Scope)
	return signalRecord{
		ID:         s.ID,
		Date:       formatDate(s.Date),
		Level:      string(s.Level),
		Type:       string(s.Type),
		ScopeType:  string(typ),
		ScopeData:  data,
		Code:       s.Code(),
		CategoryID: s.CategoryID(),
		Message:    s.Message,
	}
}

func (r signalRecord) signal() (folio.Signal, error) {
	var d decoder
	s := folio.Signal{
		ID:      r.ID,
		Date:    d.date(r.Date),
		Level:   folio.Level(r.Level),
		Type:    folio.SignalType(r.Type),
		Message: r.Message,
	}
	if d.err != nil {
		return s, fmt.Errorf("corrupted signal %d: %w", r.ID, d.err)
	}
	scope, err := folio.DecodeScope(folio.ScopeType(r.ScopeType), r.ScopeData)
	if err != nil {
		return s, fmt.Errorf("corrupted signal %d: %w", r.ID, err)
	}
	s.Scope = scope
	return s, nil
}
