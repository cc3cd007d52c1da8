package folio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/folio/date"
	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// SignalEngine classifies positions and records trading signals.
type SignalEngine struct {
	store    Store
	settings Settings
	today    func() date.Date
}

// NewSignalEngine returns a SignalEngine over store.
func NewSignalEngine(store Store, settings Settings) *SignalEngine {
	return &SignalEngine{store: store, settings: settings, today: date.Today}
}

// Statuses classifies every held position on a day, without recording anything.
func (e *SignalEngine) Statuses(ctx context.Context, on date.Date) ([]PositionStatus, error) {
	var statuses []PositionStatus
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		statuses, err = e.statuses(tx, on)
		return err
	})
	return statuses, err
}

func (e *SignalEngine) statuses(tx Tx, on date.Date) ([]PositionStatus, error) {
	positions, err := tx.Positions()
	if err != nil {
		return nil, fmt.Errorf("cannot list positions: %w", err)
	}
	var statuses []PositionStatus
	for _, p := range positions {
		if p.Code == e.settings.CashCode {
			continue
		}
		day, price, found, err := tx.Close(p.Code, on)
		if err != nil {
			return nil, fmt.Errorf("cannot read close of %q: %w", p.Code, err)
		}
		if st, ok := ClassifyPosition(p, price, day, found, e.settings); ok {
			statuses = append(statuses, st)
		}
	}
	slices.SortFunc(statuses, func(a, b PositionStatus) int { return strings.Compare(a.Position.Code, b.Position.Code) })
	return statuses, nil
}

// Evaluation is the outcome of a daily evaluation.
type Evaluation struct {
	Date     date.Date
	Statuses []PositionStatus
	Recorded []Signal
	// Suppressed counts triggers dropped by de-duplication.
	Suppressed int
	// Err joins the per instrument failures.
	Err error
}

// Evaluate records the signals of a day: stop-gain and stop-loss for held
// positions, structural turning points for active instruments and
// overweight categories. Each instrument is recorded in its own unit of
// work so that one failure does not stop the others.
func (e *SignalEngine) Evaluate(ctx context.Context, on date.Date) (Evaluation, error) {
	ev := Evaluation{Date: on}
	var active []Instrument
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		if ev.Statuses, err = e.statuses(tx, on); err != nil {
			return err
		}
		active, err = tx.ActiveInstruments()
		return err
	})
	if err != nil {
		return ev, err
	}

	var errs []error
	record := func(code string, fn func(Tx) (*Signal, bool, error)) {
		var (
			s     *Signal
			fired bool
		)
		err := e.store.Update(ctx, func(tx Tx) error {
			var err error
			s, fired, err = fn(tx)
			return err
		})
		switch {
		case err != nil:
			log.Warn().Err(err).Str("code", code).Msg("signal evaluation failed")
			errs = append(errs, fmt.Errorf("%s: %w", code, err))
		case s != nil:
			ev.Recorded = append(ev.Recorded, *s)
		case fired:
			ev.Suppressed++
		}
	}

	for _, st := range ev.Statuses {
		typ, ok := thresholdType(st.Status)
		if !ok {
			continue
		}
		record(st.Position.Code, func(tx Tx) (*Signal, bool, error) {
			s, err := e.recordThreshold(tx, st.Position.Code, typ, on, thresholdMessage(st))
			return s, true, err
		})
	}
	for _, ins := range active {
		if ins.Type == Cash || ins.Code == e.settings.CashCode {
			continue
		}
		record(ins.Code, func(tx Tx) (*Signal, bool, error) {
			return e.recordStructure(tx, ins.Code, on)
		})
	}
	var weights []Signal
	err = e.store.Update(ctx, func(tx Tx) error {
		var err error
		weights, err = e.recordOverweight(tx, on)
		return err
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("overweight: %w", err))
	}
	ev.Recorded = append(ev.Recorded, weights...)
	ev.Err = errors.Join(errs...)
	log.Info().Str("date", on.String()).Int("recorded", len(ev.Recorded)).Int("suppressed", ev.Suppressed).Msg("signals evaluated")
	return ev, nil
}

func thresholdType(s Status) (SignalType, bool) {
	switch s {
	case StatusStopGain:
		return StopGain, true
	case StatusStopLoss:
		return StopLoss, true
	}
	return "", false
}

func thresholdMessage(st PositionStatus) string {
	msg := fmt.Sprintf("return %s at %s against an average cost of %s", Ratio(st.ReturnRate), st.Price, st.Position.AvgCost)
	if st.PriceFallback {
		msg += " (no price)"
	}
	return msg
}

// recordThreshold records a stop-gain or stop-loss signal unless one of
// the same type was raised for code within the lookback window. It
// returns nil when the trigger is suppressed.
func (e *SignalEngine) recordThreshold(tx Tx, code string, typ SignalType, on date.Date, msg string) (*Signal, error) {
	existing, err := tx.Signals(SignalFilter{Types: []SignalType{typ}, Code: code, From: on.Add(-e.settings.LookbackDays), To: on})
	if err != nil {
		return nil, fmt.Errorf("cannot list signals: %w", err)
	}
	if sameDay(existing, on) || withinLookback(existing, on, e.settings.LookbackDays) {
		return nil, nil
	}
	level := Medium
	if typ == StopLoss {
		level = High
	}
	s := &Signal{Date: on, Level: level, Type: typ, Scope: InstrumentScope(code), Message: msg}
	if err := tx.InsertSignal(s); err != nil {
		return nil, fmt.Errorf("cannot insert signal: %w", err)
	}
	log.Info().Str("code", code).Str("type", string(typ)).Str("date", on.String()).Msg("signal recorded")
	return s, nil
}

// recordStructure records the structural signal firing on day for code,
// unless one of the same type was raised within the trading-day window.
// found reports whether the detector fired at all.
func (e *SignalEngine) recordStructure(tx Tx, code string, on date.Date) (s *Signal, found bool, err error) {
	bars, err := tx.Bars(code, date.Date{}, on)
	if err != nil {
		return nil, false, fmt.Errorf("cannot list bars: %w", err)
	}
	n := len(bars)
	if n == 0 || bars[n-1].Date != on {
		return nil, false, nil
	}
	typ, ok := DetectStructure(closes(bars))
	if !ok {
		return nil, false, nil
	}
	start := windowStart(bars, n-1, e.settings.StructureWindow)
	existing, err := tx.Signals(SignalFilter{Types: []SignalType{typ}, Code: code, From: start, To: on})
	if err != nil {
		return nil, true, fmt.Errorf("cannot list signals: %w", err)
	}
	if sameDay(existing, on) || withinBars(existing, start, on) {
		return nil, true, nil
	}
	s = &Signal{Date: on, Level: Medium, Type: typ, Scope: InstrumentScope(code), Message: structureMessage(typ, bars[n-1].Close)}
	if err := tx.InsertSignal(s); err != nil {
		return nil, true, fmt.Errorf("cannot insert signal: %w", err)
	}
	log.Info().Str("code", code).Str("type", string(typ)).Str("date", on.String()).Msg("signal recorded")
	return s, true, nil
}

func structureMessage(typ SignalType, close decimal.Decimal) string {
	if typ == BuyStructure {
		return "nine closes in a row below the close four bars earlier, last close " + close.String()
	}
	return "nine closes in a row above the close four bars earlier, last close " + close.String()
}

func closes(bars []Bar) []float64 {
	c := make([]float64, len(bars))
	for i, b := range bars {
		c[i] = b.Close.InexactFloat64()
	}
	return c
}

// ManualSignal is a signal created by a user.
type ManualSignal struct {
	Date      date.Date  `json:"date"`
	Level     Level      `json:"level" validate:"required,level"`
	Type      SignalType `json:"type" validate:"required,max=32"`
	ScopeType ScopeType  `json:"scope_type" validate:"required"`
	ScopeData []string   `json:"scope_data" validate:"dive,required"`
	Message   string     `json:"message" validate:"max=1000"`
}

// CreateManual records a user signal. It bypasses de-duplication but every
// instrument code and category id of its scope must exist.
func (e *SignalEngine) CreateManual(ctx context.Context, m ManualSignal) (Signal, error) {
	if err := checkStruct(m); err != nil {
		return Signal{}, err
	}
	scope, err := DecodeScope(m.ScopeType, m.ScopeData)
	if err != nil {
		return Signal{}, err
	}
	if m.Date.IsZero() {
		m.Date = e.today()
	}
	s := Signal{Date: m.Date, Level: m.Level, Type: m.Type, Scope: scope, Message: m.Message}
	err = e.store.Update(ctx, func(tx Tx) error {
		if err := checkReferences(tx, scope); err != nil {
			return err
		}
		return tx.InsertSignal(&s)
	})
	if err != nil {
		return Signal{}, err
	}
	log.Info().Uint64("id", s.ID).Str("type", string(s.Type)).Str("scope", string(m.ScopeType)).Msg("manual signal recorded")
	return s, nil
}

// checkReferences returns a NotFoundError per kind of unknown identifier.
func checkReferences(tx Tx, scope Scope) error {
	codes, categories := referenced(scope)
	var missingCodes, missingCategories []string
	for _, c := range codes {
		_, found, err := tx.Instrument(c)
		if err != nil {
			return fmt.Errorf("cannot read instrument %q: %w", c, err)
		}
		if !found {
			missingCodes = append(missingCodes, c)
		}
	}
	for _, id := range categories {
		_, found, err := tx.Category(id)
		if err != nil {
			return fmt.Errorf("cannot read category %q: %w", id, err)
		}
		if !found {
			missingCategories = append(missingCategories, id)
		}
	}
	var errs []error
	if len(missingCodes) > 0 {
		errs = append(errs, &NotFoundError{Kind: "instrument", IDs: missingCodes})
	}
	if len(missingCategories) > 0 {
		errs = append(errs, &NotFoundError{Kind: "category", IDs: missingCategories})
	}
	return errors.Join(errs...)
}

// Match returns the signals of a day applying to an instrument.
func (e *SignalEngine) Match(ctx context.Context, code string, on date.Date) ([]Signal, error) {
	var matched []Signal
	err := e.store.View(ctx, func(tx Tx) error {
		ins, found, err := tx.Instrument(code)
		if err != nil {
			return fmt.Errorf("cannot read instrument %q: %w", code, err)
		}
		if !found {
			return &NotFoundError{Kind: "instrument", IDs: []string{code}}
		}
		signals, err := tx.Signals(SignalFilter{From: on, To: on})
		if err != nil {
			return fmt.Errorf("cannot list signals: %w", err)
		}
		matched = MatchScope(signals, ins)
		return nil
	})
	return matched, err
}

// List returns the signals selected by f.
func (e *SignalEngine) List(ctx context.Context, f SignalFilter) ([]Signal, error) {
	var signals []Signal
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		signals, err = tx.Signals(f)
		return err
	})
	return signals, err
}

// RebuildReport is the outcome of a rebuild.
type RebuildReport struct {
	RunID    string
	Types    []SignalType
	Deleted  int
	Recorded map[SignalType]int
	// Err joins the per instrument failures.
	Err error
}

// Rebuild deletes every signal of the given types, all derived types when
// none are given, then replays each instrument. Stop-gain and stop-loss
// are replayed for held positions from their opening date and stop at
// their first trigger: a rebuild reports the onset of each condition, once
// per holding. Structural signals are replayed for every active
// instrument, held or not, as Evaluate raises them.
func (e *SignalEngine) Rebuild(ctx context.Context, types ...SignalType) (RebuildReport, error) {
	if len(types) == 0 {
		types = DerivedTypes
	}
	for _, t := range types {
		if !slices.Contains(DerivedTypes, t) {
			return RebuildReport{}, invalid("type", "%s signals cannot be rebuilt", t)
		}
	}
	r := RebuildReport{RunID: uuid.New().String(), Types: types, Recorded: make(map[SignalType]int)}
	var targets []replayTarget
	err := e.store.Update(ctx, func(tx Tx) error {
		var err error
		if r.Deleted, err = tx.DeleteSignals(types...); err != nil {
			return fmt.Errorf("cannot delete signals: %w", err)
		}
		targets, err = e.replayTargets(tx)
		return err
	})
	if err != nil {
		return r, err
	}

	var errs []error
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		var recorded []Signal
		err := e.store.Update(ctx, func(tx Tx) error {
			var err error
			recorded, err = e.replay(tx, t, types)
			return err
		})
		if err != nil {
			log.Warn().Err(err).Str("run", r.RunID).Str("code", t.pos.Code).Msg("rebuild failed")
			errs = append(errs, fmt.Errorf("%s: %w", t.pos.Code, err))
			continue
		}
		for _, s := range recorded {
			r.Recorded[s.Type]++
		}
	}
	r.Err = errors.Join(errs...)
	log.Info().Str("run", r.RunID).Int("deleted", r.Deleted).Int("instruments", len(targets)).Msg("signals rebuilt")
	return r, nil
}

// replayTarget is an instrument to replay: held positions get threshold
// signals, active instruments get structural ones.
type replayTarget struct {
	pos    Position
	held   bool
	active bool
}

// replayTargets lists held positions then active instruments, cash excluded.
func (e *SignalEngine) replayTargets(tx Tx) ([]replayTarget, error) {
	positions, err := tx.Positions()
	if err != nil {
		return nil, fmt.Errorf("cannot list positions: %w", err)
	}
	active, err := tx.ActiveInstruments()
	if err != nil {
		return nil, fmt.Errorf("cannot list active instruments: %w", err)
	}
	var targets []replayTarget
	index := make(map[string]int)
	for _, p := range positions {
		if p.Code == e.settings.CashCode || !p.Held() {
			continue
		}
		index[p.Code] = len(targets)
		targets = append(targets, replayTarget{pos: p, held: true})
	}
	for _, ins := range active {
		if ins.Type == Cash || ins.Code == e.settings.CashCode {
			continue
		}
		if i, ok := index[ins.Code]; ok {
			targets[i].active = true
			continue
		}
		p, _, err := tx.Position(ins.Code)
		if err != nil {
			return nil, fmt.Errorf("cannot read position %q: %w", ins.Code, err)
		}
		p.Code = ins.Code
		index[ins.Code] = len(targets)
		targets = append(targets, replayTarget{pos: p, active: true})
	}
	return targets, nil
}

// replay scans the bars of an instrument from its opening date, or from
// its first bar when it has none.
func (e *SignalEngine) replay(tx Tx, t replayTarget, types []SignalType) ([]Signal, error) {
	p := t.pos
	from := p.OpeningDate
	if from.IsZero() && t.held {
		txs, err := tx.Transactions(p.Code, date.Date{})
		if err != nil {
			return nil, fmt.Errorf("cannot list transactions: %w", err)
		}
		if len(txs) > 0 {
			from = txs[0].Date
		}
	}
	bars, err := tx.Bars(p.Code, from, e.today())
	if err != nil {
		return nil, fmt.Errorf("cannot list bars: %w", err)
	}

	var out []Signal
	insert := func(s Signal) error {
		if err := tx.InsertSignal(&s); err != nil {
			return fmt.Errorf("cannot insert signal: %w", err)
		}
		out = append(out, s)
		return nil
	}

	wantGain, wantLoss := slices.Contains(types, StopGain), slices.Contains(types, StopLoss)
	if t.held && (wantGain || wantLoss) && p.AvgCost.IsPositive() {
		for _, b := range bars {
			if !wantGain && !wantLoss {
				break
			}
			st, _ := ClassifyPosition(p, b.Close, b.Date, true, e.settings)
			typ, ok := thresholdType(st.Status)
			if !ok || (typ == StopGain && !wantGain) || (typ == StopLoss && !wantLoss) {
				continue
			}
			level := Medium
			if typ == StopLoss {
				level = High
			}
			if err := insert(Signal{Date: b.Date, Level: level, Type: typ, Scope: InstrumentScope(p.Code), Message: thresholdMessage(st)}); err != nil {
				return nil, err
			}
			if typ == StopGain {
				wantGain = false
			} else {
				wantLoss = false
			}
		}
	}

	if !t.active {
		return out, nil
	}
	last := map[SignalType]int{}
	for _, ev := range ScanStructure(closes(bars)) {
		if !slices.Contains(types, ev.Type) {
			continue
		}
		if j, ok := last[ev.Type]; ok && ev.Index-j < e.settings.StructureWindow {
			continue
		}
		last[ev.Type] = ev.Index
		b := bars[ev.Index]
		if err := insert(Signal{Date: b.Date, Level: Medium, Type: ev.Type, Scope: InstrumentScope(p.Code), Message: structureMessage(ev.Type, b.Close)}); err != nil {
			return nil, err
		}
	}
	return out, nil
}
