package folio

import (
	"context"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
)

// Store is the persistent table set behind the engines.
type Store interface {
	// Update runs fn in one atomic unit of work. Any error returned by fn
	// rolls back every write made through its Tx.
	Update(ctx context.Context, fn func(Tx) error) error
	// View runs fn with a read-only Tx.
	View(ctx context.Context, fn func(Tx) error) error
}

// SignalFilter selects signals. Zero fields do not filter.
type SignalFilter struct {
	Types []SignalType
	// Code matches the single instrument of INSTRUMENT scopes.
	Code     string
	From, To date.Date
}

// Tx gives access to the tables within a unit of work.
type Tx interface {
	// InsertTransaction stores t. A zero t.ID is assigned the next
	// identifier and a zero GroupID is set to t.ID.
	InsertTransaction(t *Transaction) error
	// Transactions lists the rows of an instrument ("" for all) dated on or
	// before upTo (zero for no bound), in chronological then ID order.
	Transactions(code string, upTo date.Date) ([]Transaction, error)

	Position(code string) (Position, bool, error)
	SavePosition(p Position) error
	Positions() ([]Position, error)

	Instrument(code string) (Instrument, bool, error)
	Instruments() ([]Instrument, error)
	ActiveInstruments() ([]Instrument, error)
	SaveInstrument(i Instrument) error
	Category(id string) (Category, bool, error)
	Categories() ([]Category, error)
	SaveCategory(c Category) error

	// Close returns the latest close on or before a day.
	Close(code string, on date.Date) (date.Date, decimal.Decimal, bool, error)
	// Bars lists bars of an instrument ("" for all) within [from, to] in
	// chronological order, zero bounds are open.
	Bars(code string, from, to date.Date) ([]Bar, error)
	SaveBar(b Bar) error

	// InsertSignal stores s, assigning the next identifier to a zero s.ID.
	InsertSignal(s *Signal) error
	Signals(f SignalFilter) ([]Signal, error)
	// DeleteSignals removes every signal of the given types.
	DeleteSignals(types ...SignalType) (int, error)

	Watch(e WatchEntry) error
	Watchlist() ([]WatchEntry, error)

	Settings() (map[string]string, error)
	SetSetting(key, value string) error

	// Clear removes every record from every table.
	Clear() error
}

// ResolveSettings overrides base with the values of the configuration table.
func ResolveSettings(ctx context.Context, s Store, base Settings) (Settings, error) {
	err := s.View(ctx, func(tx Tx) error {
		kv, err := tx.Settings()
		if err != nil {
			return err
		}
		return base.Apply(kv)
	})
	return base, err
}
