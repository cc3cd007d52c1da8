package folio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/folio/date"
	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// Ledger records transactions and keeps positions and the cash balance
// consistent with them.
//
// Every submission runs in one unit of work of the store: the ledger row,
// the position update, the cash mirror row and the cash update commit
// together or not at all. Writes to one instrument must be serialized by
// the caller.
type Ledger struct {
	store    Store
	settings Settings
	today    func() date.Date
}

// NewLedger returns a Ledger over store.
func NewLedger(store Store, settings Settings) *Ledger {
	return &Ledger{store: store, settings: settings, today: date.Today}
}

// Settings returns the settings the ledger runs with.
func (l *Ledger) Settings() Settings { return l.settings }

// Submit validates and applies one transaction.
func (l *Ledger) Submit(ctx context.Context, in TransactionInput) Receipt {
	var r Receipt
	err := l.store.Update(ctx, func(tx Tx) error {
		var err error
		r, err = l.submit(tx, in)
		return err
	})
	if err != nil {
		r = receipt(err)
		if r.Outcome == Rejected {
			log.Info().Str("code", in.Code).Str("action", string(in.Action)).Str("reason", r.Reason).Msg("transaction rejected")
		} else {
			log.Error().Err(err).Str("code", in.Code).Msg("transaction failed")
		}
		return r
	}
	log.Debug().Uint64("id", r.Transaction.ID).Str("code", r.Transaction.Code).Str("action", string(r.Transaction.Action)).Msg("transaction committed")
	return r
}

func (l *Ledger) submit(tx Tx, in TransactionInput) (Receipt, error) {
	if err := in.Validate(l.today()); err != nil {
		return Receipt{}, err
	}
	ins, found, err := tx.Instrument(in.Code)
	if err != nil {
		return Receipt{}, fmt.Errorf("cannot read instrument %q: %w", in.Code, err)
	}
	if !found {
		return Receipt{}, &NotFoundError{Kind: "instrument", IDs: []string{in.Code}}
	}

	t := Transaction{
		Code:     in.Code,
		Date:     in.Date,
		Action:   in.Action,
		Quantity: in.Quantity,
		Price:    in.Price,
		Amount:   in.Amount,
		Fee:      in.Fee,
		Notes:    in.Notes,
	}
	if l.isCash(ins) {
		return l.adjustCash(tx, t)
	}
	if t.Action == Sell {
		t.Quantity = t.Quantity.Neg()
	}

	pos, err := l.position(tx, t.Code)
	if err != nil {
		return Receipt{}, err
	}
	r := Receipt{Outcome: OK}
	if t.Action == Buy || t.Action == Sell {
		wasHeld := pos.Held()
		next, realized, err := pos.Apply(t.Action, in.Quantity, in.Price.Decimal, in.Fee)
		if err != nil {
			return Receipt{}, err
		}
		next.LastUpdate = t.Date
		if t.Action == Buy && !wasHeld {
			next.OpeningDate = t.Date
		}
		if t.Action == Sell {
			t.RealizedPnL = decimal.NewNullDecimal(realized)
		}
		if err := tx.SavePosition(next); err != nil {
			return Receipt{}, fmt.Errorf("cannot save position %q: %w", t.Code, err)
		}
		pos = next
		if t.Action == Sell && !next.Held() {
			if err := tx.Watch(WatchEntry{Code: t.Code, AddedOn: t.Date}); err != nil {
				return Receipt{}, fmt.Errorf("cannot enroll %q in the watchlist: %w", t.Code, err)
			}
			r.Watched = true
		}
	}
	if err := tx.InsertTransaction(&t); err != nil {
		return Receipt{}, fmt.Errorf("cannot insert transaction: %w", err)
	}
	r.Transaction, r.Position = t, pos

	if m := mirrorOf(t, l.settings.CashCode); m != nil {
		cash, err := l.moveCash(tx, m.Quantity, t.Date)
		if err != nil {
			return Receipt{}, err
		}
		if err := tx.InsertTransaction(m); err != nil {
			return Receipt{}, fmt.Errorf("cannot insert cash mirror: %w", err)
		}
		r.Mirror, r.Cash = m, &cash
	}
	return r, nil
}

func (l *Ledger) isCash(i Instrument) bool {
	return i.Code == l.settings.CashCode || i.Type == Cash
}

// adjustCash applies an ADJ transaction directly to a cash instrument.
func (l *Ledger) adjustCash(tx Tx, t Transaction) (Receipt, error) {
	if t.Action != Adjust {
		return Receipt{}, invalid("action", "cash instrument %q only accepts ADJ transactions, got %s", t.Code, t.Action)
	}
	t.Quantity = t.Amount.Decimal
	t.Price = decimal.NewNullDecimal(one)
	cash, err := l.moveCashOf(tx, t.Code, t.Quantity, t.Date)
	if err != nil {
		return Receipt{}, err
	}
	if err := tx.InsertTransaction(&t); err != nil {
		return Receipt{}, fmt.Errorf("cannot insert transaction: %w", err)
	}
	return Receipt{Outcome: OK, Transaction: t, Position: cash, Cash: &cash}, nil
}

// moveCash moves the configured cash balance by delta, creating the cash
// instrument on first use.
func (l *Ledger) moveCash(tx Tx, delta decimal.Decimal, on date.Date) (Position, error) {
	code := l.settings.CashCode
	_, found, err := tx.Instrument(code)
	if err != nil {
		return Position{}, fmt.Errorf("cannot read cash instrument: %w", err)
	}
	if !found {
		if err := tx.SaveInstrument(Instrument{Code: code, Name: "Cash", Type: Cash, Active: true}); err != nil {
			return Position{}, fmt.Errorf("cannot create cash instrument %q: %w", code, err)
		}
	}
	return l.moveCashOf(tx, code, delta, on)
}

func (l *Ledger) moveCashOf(tx Tx, code string, delta decimal.Decimal, on date.Date) (Position, error) {
	pos, err := l.position(tx, code)
	if err != nil {
		return Position{}, err
	}
	next := applyCash(pos, delta)
	if l.settings.EnforceCashBalance && next.Shares.LessThan(epsilon.Neg()) {
		return Position{}, &InvariantError{
			Code: code,
			Err:  ErrInsufficientCash,
			Msg:  fmt.Sprintf("moving %s out of a balance of %s", delta.Neg(), pos.Shares),
		}
	}
	next.LastUpdate = on
	if next.OpeningDate.IsZero() {
		next.OpeningDate = on
	}
	if err := tx.SavePosition(next); err != nil {
		return Position{}, fmt.Errorf("cannot save cash position: %w", err)
	}
	return next, nil
}

// position returns the position of code, an empty one if there is none.
func (l *Ledger) position(tx Tx, code string) (Position, error) {
	pos, found, err := tx.Position(code)
	if err != nil {
		return Position{}, fmt.Errorf("cannot read position %q: %w", code, err)
	}
	if !found {
		pos = Position{Code: code}
	}
	return pos, nil
}

// BatchReceipt is the result of an import.
type BatchReceipt struct {
	RunID    string
	Receipts []Receipt
	// Err joins the error of every item that did not commit.
	Err error
}

// Committed returns the number of items that committed.
func (b BatchReceipt) Committed() int {
	n := 0
	for _, r := range b.Receipts {
		if r.Outcome == OK {
			n++
		}
	}
	return n
}

// Import submits each input in its own unit of work, in order. A failed
// item is recorded in its receipt and does not stop the batch.
func (l *Ledger) Import(ctx context.Context, inputs []TransactionInput) BatchReceipt {
	b := BatchReceipt{RunID: uuid.New().String(), Receipts: make([]Receipt, 0, len(inputs))}
	var errs []error
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		r := l.Submit(ctx, in)
		if r.Outcome != OK {
			log.Warn().Str("run", b.RunID).Int("item", i).Str("code", in.Code).Str("reason", r.Reason).Msg("import item failed")
			errs = append(errs, fmt.Errorf("item %d (%s %s): %w", i, in.Action, in.Code, r.Err))
		}
		b.Receipts = append(b.Receipts, r)
	}
	b.Err = errors.Join(errs...)
	log.Info().Str("run", b.RunID).Int("items", len(inputs)).Int("committed", b.Committed()).Msg("import done")
	return b
}

// SetOpening seeds the position of code without any ledger row or cash effect.
func (l *Ledger) SetOpening(ctx context.Context, code string, shares, avgCost decimal.Decimal, opening date.Date) (Position, error) {
	switch {
	case shares.IsNegative():
		return Position{}, invalid("shares", "must not be negative, got %s", shares)
	case avgCost.IsNegative():
		return Position{}, invalid("avg_cost", "must not be negative, got %s", avgCost)
	case shares.IsZero() && !avgCost.IsZero():
		return Position{}, invalid("avg_cost", "must be zero for an empty position, got %s", avgCost)
	}
	var pos Position
	err := l.store.Update(ctx, func(tx Tx) error {
		ins, found, err := tx.Instrument(code)
		if err != nil {
			return fmt.Errorf("cannot read instrument %q: %w", code, err)
		}
		if !found {
			return &NotFoundError{Kind: "instrument", IDs: []string{code}}
		}
		prev, err := l.position(tx, code)
		if err != nil {
			return err
		}
		if prev.Held() {
			log.Warn().Str("code", code).Str("shares", prev.Shares.String()).Msg("opening position replaces a held position")
		}
		pos = Position{Code: code, Shares: shares, AvgCost: avgCost, LastUpdate: opening, OpeningDate: opening}
		if l.isCash(ins) {
			pos = applyCash(Position{Code: code, LastUpdate: opening, OpeningDate: opening}, shares)
		}
		return tx.SavePosition(pos)
	})
	return pos, err
}

// ApplyCorporateActions folds actions into the position of code and
// records an ADJ row describing them. Cash paid by a merger is booked as
// the row amount and mirrored into cash.
func (l *Ledger) ApplyCorporateActions(ctx context.Context, code string, on date.Date, actions ...CorporateAction) Receipt {
	if len(actions) == 0 {
		return receipt(invalid("actions", "at least one corporate action is required"))
	}
	if on.IsZero() {
		on = l.today()
	}
	var r Receipt
	err := l.store.Update(ctx, func(tx Tx) error {
		ins, found, err := tx.Instrument(code)
		if err != nil {
			return fmt.Errorf("cannot read instrument %q: %w", code, err)
		}
		if !found {
			return &NotFoundError{Kind: "instrument", IDs: []string{code}}
		}
		if l.isCash(ins) {
			return invalid("code", "corporate actions do not apply to cash instrument %q", code)
		}
		pos, err := l.position(tx, code)
		if err != nil {
			return err
		}
		next, realized, proceeds := pos, decimal.Zero, decimal.Zero
		names := make([]string, 0, len(actions))
		for _, a := range actions {
			if m, ok := a.(Merger); ok && m.CashPerShare.Valid {
				proceeds = proceeds.Add(next.Shares.Mul(m.CashPerShare.Decimal))
			}
			var gain decimal.Decimal
			next, gain, err = FoldCorporateActions(next, a)
			if err != nil {
				return err
			}
			realized = realized.Add(gain)
			names = append(names, a.String())
		}
		next.LastUpdate = on
		if err := tx.SavePosition(next); err != nil {
			return fmt.Errorf("cannot save position %q: %w", code, err)
		}

		t := Transaction{
			Code:     code,
			Date:     on,
			Action:   Adjust,
			Quantity: next.Shares.Sub(pos.Shares),
			Notes:    "corporate " + strings.Join(names, " "),
		}
		if !proceeds.IsZero() {
			t.Amount = decimal.NewNullDecimal(proceeds)
		}
		if !realized.IsZero() {
			t.RealizedPnL = decimal.NewNullDecimal(realized)
		}
		if err := tx.InsertTransaction(&t); err != nil {
			return fmt.Errorf("cannot insert transaction: %w", err)
		}
		r = Receipt{Outcome: OK, Transaction: t, Position: next}
		if m := mirrorOf(t, l.settings.CashCode); m != nil {
			cash, err := l.moveCash(tx, m.Quantity, on)
			if err != nil {
				return err
			}
			if err := tx.InsertTransaction(m); err != nil {
				return fmt.Errorf("cannot insert cash mirror: %w", err)
			}
			r.Mirror, r.Cash = m, &cash
		}
		return nil
	})
	if err != nil {
		return receipt(err)
	}
	log.Info().Str("code", code).Str("actions", r.Transaction.Notes).Msg("corporate actions applied")
	return r
}
