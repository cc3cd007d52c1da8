package folio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/etnz/folio/date"
)

// Backup is the full content of a Store.
type Backup struct {
	Settings     map[string]string
	Categories   []Category
	Instruments  []Instrument
	Positions    []Position
	Transactions []Transaction
	Signals      []Signal
	Bars         []Bar
	Watchlist    []WatchEntry
}

// Record kinds of the backup format.
const (
	kindSetting     = "setting"
	kindCategory    = "category"
	kindInstrument  = "instrument"
	kindPosition    = "position"
	kindTransaction = "transaction"
	kindSignal      = "signal"
	kindBar         = "bar"
	kindWatch       = "watch"
)

type backupLine struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EncodeBackup writes b as JSON lines, one record per line, each tagged
// with its kind. Records are written in dependency order.
func EncodeBackup(w io.Writer, b Backup) error {
	enc := json.NewEncoder(w)
	write := func(kind string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("cannot encode %s: %w", kind, err)
		}
		return enc.Encode(backupLine{Kind: kind, Data: data})
	}
	for _, k := range slices.Sorted(maps.Keys(b.Settings)) {
		if err := write(kindSetting, setting{Key: k, Value: b.Settings[k]}); err != nil {
			return err
		}
	}
	for _, v := range b.Categories {
		if err := write(kindCategory, v); err != nil {
			return err
		}
	}
	for _, v := range b.Instruments {
		if err := write(kindInstrument, v); err != nil {
			return err
		}
	}
	for _, v := range b.Positions {
		if err := write(kindPosition, v); err != nil {
			return err
		}
	}
	for _, v := range b.Transactions {
		if err := write(kindTransaction, v); err != nil {
			return err
		}
	}
	for _, v := range b.Signals {
		if err := write(kindSignal, v); err != nil {
			return err
		}
	}
	for _, v := range b.Bars {
		if err := write(kindBar, v); err != nil {
			return err
		}
	}
	for _, v := range b.Watchlist {
		if err := write(kindWatch, v); err != nil {
			return err
		}
	}
	return nil
}

// DecodeBackup reads what EncodeBackup writes.
func DecodeBackup(r io.Reader) (Backup, error) {
	b := Backup{Settings: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var l backupLine
		if err := json.Unmarshal(line, &l); err != nil {
			return b, fmt.Errorf("line %d: cannot identify record: %w", n, err)
		}
		var err error
		switch l.Kind {
		case kindSetting:
			var s setting
			if err = decodeStrict(l.Data, &s); err == nil {
				b.Settings[s.Key] = s.Value
			}
		case kindCategory:
			b.Categories, err = decodeAppend(l.Data, b.Categories)
		case kindInstrument:
			b.Instruments, err = decodeAppend(l.Data, b.Instruments)
		case kindPosition:
			b.Positions, err = decodeAppend(l.Data, b.Positions)
		case kindTransaction:
			b.Transactions, err = decodeAppend(l.Data, b.Transactions)
		case kindSignal:
			b.Signals, err = decodeAppend(l.Data, b.Signals)
		case kindBar:
			b.Bars, err = decodeAppend(l.Data, b.Bars)
		case kindWatch:
			b.Watchlist, err = decodeAppend(l.Data, b.Watchlist)
		default:
			err = fmt.Errorf("unknown kind %q", l.Kind)
		}
		if err != nil {
			return b, fmt.Errorf("line %d: %w", n, err)
		}
	}
	return b, scanner.Err()
}

func decodeAppend[T any](data []byte, to []T) ([]T, error) {
	var v T
	if err := decodeStrict(data, &v); err != nil {
		return to, err
	}
	return append(to, v), nil
}

// decodeStrict unmarshals b into v, rejecting unknown fields.
func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Export reads the whole content of s.
func Export(ctx context.Context, s Store) (Backup, error) {
	var b Backup
	err := s.View(ctx, func(tx Tx) error {
		var err error
		if b.Settings, err = tx.Settings(); err != nil {
			return err
		}
		if b.Categories, err = tx.Categories(); err != nil {
			return err
		}
		if b.Instruments, err = tx.Instruments(); err != nil {
			return err
		}
		if b.Positions, err = tx.Positions(); err != nil {
			return err
		}
		if b.Transactions, err = tx.Transactions("", date.Date{}); err != nil {
			return err
		}
		if b.Signals, err = tx.Signals(SignalFilter{}); err != nil {
			return err
		}
		if b.Bars, err = tx.Bars("", date.Date{}, date.Date{}); err != nil {
			return err
		}
		b.Watchlist, err = tx.Watchlist()
		return err
	})
	return b, err
}

// Restore replaces the whole content of s with b in one unit of work.
func Restore(ctx context.Context, s Store, b Backup) error {
	return s.Update(ctx, func(tx Tx) error {
		if err := tx.Clear(); err != nil {
			return fmt.Errorf("cannot clear store: %w", err)
		}
		for _, k := range slices.Sorted(maps.Keys(b.Settings)) {
			if err := tx.SetSetting(k, b.Settings[k]); err != nil {
				return err
			}
		}
		for _, c := range b.Categories {
			if err := tx.SaveCategory(c); err != nil {
				return err
			}
		}
		for _, i := range b.Instruments {
			if err := tx.SaveInstrument(i); err != nil {
				return err
			}
		}
		for _, p := range b.Positions {
			if err := tx.SavePosition(p); err != nil {
				return err
			}
		}
		for _, t := range b.Transactions {
			if err := tx.InsertTransaction(&t); err != nil {
				return err
			}
		}
		for _, sig := range b.Signals {
			if err := tx.InsertSignal(&sig); err != nil {
				return err
			}
		}
		for _, bar := range b.Bars {
			if err := tx.SaveBar(bar); err != nil {
				return err
			}
		}
		for _, w := range b.Watchlist {
			if err := tx.Watch(w); err != nil {
				return err
			}
		}
		return nil
	})
}

// DecodeInputs reads transaction inputs, one JSON object per line:
//
//	{"date":"2024-01-02","action":"BUY","code":"AAPL","quantity":10,"price":185.5,"fee":1}
//
// Blank lines and lines starting with # are skipped.
func DecodeInputs(r io.Reader) ([]TransactionInput, error) {
	var inputs []TransactionInput
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		var in TransactionInput
		if err := decodeStrict(line, &in); err != nil {
			return inputs, fmt.Errorf("line %d: %w", n, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, scanner.Err()
}
