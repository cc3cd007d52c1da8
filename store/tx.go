package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
	"github.com/timshannon/badgerhold/v4"
)

// tx implements folio.Tx on one badger transaction.
type tx struct {
	db       *badgerhold.Store
	txn      *badger.Txn
	writable bool
}

var _ folio.Tx = (*tx)(nil)

var errReadOnly = errors.New("read-only transaction")

func (t *tx) check() error {
	if !t.writable {
		return errReadOnly
	}
	return nil
}

// all is a query matching every record keyed by field.
func all(field string) *badgerhold.Query { return badgerhold.Where(field).Ne("") }

// within narrows q to records whose Date is in [from, to], zero bounds are open.
func within(q *badgerhold.Query, from, to date.Date) *badgerhold.Query {
	if !from.IsZero() {
		q = q.And("Date").Ge(from.String())
	}
	if !to.IsZero() {
		q = q.And("Date").Le(to.String())
	}
	return q
}

// nextID allocates the identifier following max(last allocated, floor).
func (t *tx) nextID(table string, floor uint64) (uint64, error) {
	var c counterRecord
	err := t.db.TxGet(t.txn, table, &c)
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return 0, fmt.Errorf("cannot read %s counter: %w", table, err)
	}
	c.Table = table
	if floor > c.Last {
		c.Last = floor
	} else {
		c.Last++
	}
	if err := t.db.TxUpsert(t.txn, table, c); err != nil {
		return 0, fmt.Errorf("cannot write %s counter: %w", table, err)
	}
	return c.Last, nil
}

func (t *tx) InsertTransaction(tr *folio.Transaction) error {
	if err := t.check(); err != nil {
		return err
	}
	id, err := t.nextID("transactions", tr.ID)
	if err != nil {
		return err
	}
	tr.ID = id
	if tr.GroupID == 0 {
		tr.GroupID = id
	}
	return t.db.TxInsert(t.txn, id, fromTransaction(*tr))
}

func (t *tx) Transactions(code string, upTo date.Date) ([]folio.Transaction, error) {
	q := all("Code")
	if code != "" {
		q = badgerhold.Where("Code").Eq(code)
	}
	var records []transactionRecord
	if err := t.db.TxFind(t.txn, &records, within(q, date.Date{}, upTo).SortBy("Date", "ID")); err != nil {
		return nil, err
	}
	out := make([]folio.Transaction, 0, len(records))
	for _, r := range records {
		tr, err := r.transaction()
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

func (t *tx) Position(code string) (folio.Position, bool, error) {
	var r positionRecord
	err := t.db.TxGet(t.txn, code, &r)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return folio.Position{}, false, nil
	}
	if err != nil {
		return folio.Position{}, false, err
	}
	p, err := r.position()
	return p, err == nil, err
}

func (t *tx) SavePosition(p folio.Position) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.db.TxUpsert(t.txn, p.Code, fromPosition(p))
}

func (t *tx) Positions() ([]folio.Position, error) {
	var records []positionRecord
	if err := t.db.TxFind(t.txn, &records, all("Code").SortBy("Code")); err != nil {
		return nil, err
	}
	out := make([]folio.Position, 0, len(records))
	for _, r := range records {
		p, err := r.position()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (t *tx) Instrument(code string) (folio.Instrument, bool, error) {
	var r instrumentRecord
	err := t.db.TxGet(t.txn, code, &r)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return folio.Instrument{}, false, nil
	}
	if err != nil {
		return folio.Instrument{}, false, err
	}
	return r.instrument(), true, nil
}

func (t *tx) findInstruments(q *badgerhold.Query) ([]folio.Instrument, error) {
	var records []instrumentRecord
	if err := t.db.TxFind(t.txn, &records, q.SortBy("Code")); err != nil {
		return nil, err
	}
	out := make([]folio.Instrument, len(records))
	for i, r := range records {
		out[i] = r.instrument()
	}
	return out, nil
}

func (t *tx) Instruments() ([]folio.Instrument, error) { return t.findInstruments(all("Code")) }

func (t *tx) ActiveInstruments() ([]folio.Instrument, error) {
	instruments, err := t.Instruments()
	if err != nil {
		return nil, err
	}
	active := instruments[:0]
	for _, i := range instruments {
		if i.Active {
			active = append(active, i)
		}
	}
	return active, nil
}

func (t *tx) SaveInstrument(i folio.Instrument) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.db.TxUpsert(t.txn, i.Code, fromInstrument(i))
}

func (t *tx) Category(id string) (folio.Category, bool, error) {
	var r categoryRecord
	err := t.db.TxGet(t.txn, id, &r)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return folio.Category{}, false, nil
	}
	if err != nil {
		return folio.Category{}, false, err
	}
	c, err := r.category()
	return c, err == nil, err
}

func (t *tx) Categories() ([]folio.Category, error) {
	var records []categoryRecord
	if err := t.db.TxFind(t.txn, &records, all("ID").SortBy("ID")); err != nil {
		return nil, err
	}
	out := make([]folio.Category, 0, len(records))
	for _, r := range records {
		c, err := r.category()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (t *tx) SaveCategory(c folio.Category) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.db.TxUpsert(t.txn, c.ID, fromCategory(c))
}

func (t *tx) Close(code string, on date.Date) (date.Date, decimal.Decimal, bool, error) {
	var records []barRecord
	q := within(badgerhold.Where("Code").Eq(code), date.Date{}, on).SortBy("Date").Reverse().Limit(1)
	if err := t.db.TxFind(t.txn, &records, q); err != nil {
		return date.Date{}, decimal.Zero, false, err
	}
	if len(records) == 0 {
		return date.Date{}, decimal.Zero, false, nil
	}
	b, err := records[0].bar()
	if err != nil {
		return date.Date{}, decimal.Zero, false, err
	}
	return b.Date, b.Close, true, nil
}

func (t *tx) Bars(code string, from, to date.Date) ([]folio.Bar, error) {
	q := all("Code")
	if code != "" {
		q = badgerhold.Where("Code").Eq(code)
	}
	var records []barRecord
	if err := t.db.TxFind(t.txn, &records, within(q, from, to).SortBy("Date", "Code")); err != nil {
		return nil, err
	}
	out := make([]folio.Bar, 0, len(records))
	for _, r := range records {
		b, err := r.bar()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (t *tx) SaveBar(b folio.Bar) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.db.TxUpsert(t.txn, barKey(b.Code, b.Date), fromBar(b))
}

func (t *tx) InsertSignal(s *folio.Signal) error {
	if err := t.check(); err != nil {
		return err
	}
	if s.Scope == nil {
		return folio.ErrNoScope
	}
	id, err := t.nextID("signals", s.ID)
	if err != nil {
		return err
	}
	s.ID = id
	return t.db.TxInsert(t.txn, id, fromSignal(*s))
}

func (t *tx) Signals(f folio.SignalFilter) ([]folio.Signal, error) {
	q := all("Type")
	if f.Code != "" {
		q = badgerhold.Where("Code").Eq(f.Code)
	}
	if len(f.Types) > 0 {
		q = q.And("Type").In(typeValues(f.Types)...)
	}
	var records []signalRecord
	if err := t.db.TxFind(t.txn, &records, within(q, f.From, f.To).SortBy("Date", "ID")); err != nil {
		return nil, err
	}
	out := make([]folio.Signal, 0, len(records))
	for _, r := range records {
		s, err := r.signal()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func typeValues(types []folio.SignalType) []any {
	values := make([]any, len(types))
	for i, typ := range types {
		values[i] = string(typ)
	}
	return values
}

func (t *tx) DeleteSignals(types ...folio.SignalType) (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	if len(types) == 0 {
		return 0, nil
	}
	var records []signalRecord
	if err := t.db.TxFind(t.txn, &records, badgerhold.Where("Type").In(typeValues(types)...)); err != nil {
		return 0, err
	}
	for _, r := range records {
		if err := t.db.TxDelete(t.txn, r.ID, signalRecord{}); err != nil {
			return 0, fmt.Errorf("cannot delete signal %d: %w", r.ID, err)
		}
	}
	return len(records), nil
}

func (t *tx) Watch(e folio.WatchEntry) error {
	if err := t.check(); err != nil {
		return err
	}
	var r watchRecord
	err := t.db.TxGet(t.txn, e.Code, &r)
	if err == nil {
		return nil // already watched
	}
	if !errors.Is(err, badgerhold.ErrNotFound) {
		return err
	}
	return t.db.TxInsert(t.txn, e.Code, watchRecord{Code: e.Code, AddedOn: formatDate(e.AddedOn)})
}

func (t *tx) Watchlist() ([]folio.WatchEntry, error) {
	var records []watchRecord
	if err := t.db.TxFind(t.txn, &records, all("Code").SortBy("Code")); err != nil {
		return nil, err
	}
	out := make([]folio.WatchEntry, 0, len(records))
	for _, r := range records {
		on, err := parseDate(r.AddedOn)
		if err != nil {
			return nil, fmt.Errorf("corrupted watch entry %q: %w", r.Code, err)
		}
		out = append(out, folio.WatchEntry{Code: r.Code, AddedOn: on})
	}
	return out, nil
}

func (t *tx) Settings() (map[string]string, error) {
	var records []settingRecord
	if err := t.db.TxFind(t.txn, &records, all("Key")); err != nil {
		return nil, err
	}
	kv := make(map[string]string, len(records))
	for _, r := range records {
		kv[r.Key] = r.Value
	}
	return kv, nil
}

func (t *tx) SetSetting(key, value string) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.db.TxUpsert(t.txn, key, settingRecord{Key: key, Value: value})
}

func (t *tx) Clear() error {
	if err := t.check(); err != nil {
		return err
	}
	tables := []struct {
		record any
		field  string
	}{
		{&transactionRecord{}, "Code"},
		{&positionRecord{}, "Code"},
		{&instrumentRecord{}, "Code"},
		{&categoryRecord{}, "ID"},
		{&barRecord{}, "Code"},
		{&signalRecord{}, "Type"},
		{&watchRecord{}, "Code"},
		{&settingRecord{}, "Key"},
		{&counterRecord{}, "Table"},
	}
	for _, table := range tables {
		if err := t.db.TxDeleteMatching(t.txn, table.record, all(table.field)); err != nil {
			return err
		}
	}
	return nil
}
