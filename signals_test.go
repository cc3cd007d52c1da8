package folio_test

import (
	"context"
	"testing"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveBars(t *testing.T, s *store.Store, code string, from date.Date, closes ...float64) {
	t.Helper()
	err := s.Update(context.Background(), func(tx folio.Tx) error {
		for i, c := range closes {
			if err := tx.SaveBar(folio.Bar{Code: code, Date: from.Add(i), Close: folio.D(c)}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func types(signals []folio.Signal) []folio.SignalType {
	out := make([]folio.SignalType, len(signals))
	for i, s := range signals {
		out[i] = s.Type
	}
	return out
}

func TestEvaluateThresholds(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, stock("MCD", "food"), stock("KO", "food"))
	settings := folio.DefaultSettings()
	_, err := folio.NewLedger(s, settings).SetOpening(ctx, "MCD", folio.D(10), folio.D(100), date.New(2025, 1, 2))
	require.NoError(t, err)
	_, err = folio.NewLedger(s, settings).SetOpening(ctx, "KO", folio.D(10), folio.D(60), date.New(2025, 1, 2))
	require.NoError(t, err)
	saveBars(t, s, "MCD", date.New(2025, 3, 3), 125)
	saveBars(t, s, "KO", date.New(2025, 3, 3), 54)
	e := folio.NewSignalEngine(s, settings)

	ev, err := e.Evaluate(ctx, date.New(2025, 3, 3))
	require.NoError(t, err)
	require.NoError(t, ev.Err)
	require.Len(t, ev.Statuses, 2)
	assert.Equal(t, folio.StatusStopLoss, ev.Statuses[0].Status)
	assert.Equal(t, folio.StatusStopGain, ev.Statuses[1].Status)
	require.Len(t, ev.Recorded, 2)
	assert.Equal(t, []folio.SignalType{folio.StopLoss, folio.StopGain}, types(ev.Recorded))
	assert.Equal(t, folio.High, ev.Recorded[0].Level)
	assert.Equal(t, "KO", ev.Recorded[0].Code())

	// same day, then within the lookback window
	for _, on := range []date.Date{date.New(2025, 3, 3), date.New(2025, 3, 20)} {
		ev, err = e.Evaluate(ctx, on)
		require.NoError(t, err)
		assert.Empty(t, ev.Recorded, on)
		assert.Equal(t, 2, ev.Suppressed, on)
	}

	ev, err = e.Evaluate(ctx, date.New(2025, 4, 10))
	require.NoError(t, err)
	assert.Len(t, ev.Recorded, 2)

	all, err := e.List(ctx, folio.SignalFilter{Code: "MCD"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEvaluateStructure(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, stock("KO", "food"))
	from := date.New(2025, 1, 1)
	closes := make([]float64, folio.StructureMinBars)
	for i := range closes {
		closes[i] = 70 - float64(i)
	}
	saveBars(t, s, "KO", from, closes...)
	e := folio.NewSignalEngine(s, folio.DefaultSettings())
	last := from.Add(folio.StructureMinBars - 1)

	ev, err := e.Evaluate(ctx, last.Add(-1))
	require.NoError(t, err)
	assert.Empty(t, ev.Recorded)

	ev, err = e.Evaluate(ctx, last)
	require.NoError(t, err)
	require.Len(t, ev.Recorded, 1)
	assert.Equal(t, folio.BuyStructure, ev.Recorded[0].Type)
	assert.Equal(t, last, ev.Recorded[0].Date)

	ev, err = e.Evaluate(ctx, last)
	require.NoError(t, err)
	assert.Empty(t, ev.Recorded)
	assert.Equal(t, 1, ev.Suppressed)

	// no bar on the day
	ev, err = e.Evaluate(ctx, last.Add(1))
	require.NoError(t, err)
	assert.Empty(t, ev.Recorded)
	assert.Zero(t, ev.Suppressed)
}

func TestEvaluateOverweight(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, stock("MCD", "food"), stock("AAPL", "tech"))
	err := s.Update(ctx, func(tx folio.Tx) error {
		return tx.SaveCategory(folio.Category{ID: "tech", Name: "Technology", TargetWeight: folio.D(0.3)})
	})
	require.NoError(t, err)
	settings := folio.DefaultSettings()
	settings.StopGainPct = 10
	l := folio.NewLedger(s, settings)
	deposit(t, l, date.New(2025, 1, 1), 1000)
	r := l.Submit(ctx, folio.TransactionInput{Code: "AAPL", Date: date.New(2025, 1, 2), Action: folio.Buy, Quantity: folio.D(3), Price: folio.Optional(100)})
	require.Equal(t, folio.OK, r.Outcome, r.Reason)
	saveBars(t, s, "AAPL", date.New(2025, 1, 2), 100, 200)
	e := folio.NewSignalEngine(s, settings)

	// 300 out of 1000 is within 0.3 + 0.05
	ev, err := e.Evaluate(ctx, date.New(2025, 1, 2))
	require.NoError(t, err)
	assert.Empty(t, ev.Recorded)

	// 600 out of 1300
	ev, err = e.Evaluate(ctx, date.New(2025, 1, 3))
	require.NoError(t, err)
	require.Len(t, ev.Recorded, 1)
	assert.Equal(t, folio.Overweight, ev.Recorded[0].Type)
	assert.Equal(t, "tech", ev.Recorded[0].CategoryID())

	ev, err = e.Evaluate(ctx, date.New(2025, 1, 3))
	require.NoError(t, err)
	assert.Empty(t, ev.Recorded)
}

func TestRebuild(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, stock("MCD", "food"))
	settings := folio.DefaultSettings()
	_, err := folio.NewLedger(s, settings).SetOpening(ctx, "MCD", folio.D(10), folio.D(100), date.New(2025, 1, 1))
	require.NoError(t, err)
	saveBars(t, s, "MCD", date.New(2024, 12, 30), 130, 100, 105, 110, 125, 85)
	e := folio.NewSignalEngine(s, settings)

	_, err = e.CreateManual(ctx, folio.ManualSignal{Date: date.New(2025, 1, 1), Level: folio.Info, Type: "NOTE", ScopeType: folio.ScopeInstrument, ScopeData: []string{"MCD"}})
	require.NoError(t, err)
	_, err = e.CreateManual(ctx, folio.ManualSignal{Date: date.New(2025, 1, 1), Level: folio.Medium, Type: folio.StopGain, ScopeType: folio.ScopeInstrument, ScopeData: []string{"MCD"}})
	require.NoError(t, err)

	r, err := e.Rebuild(ctx)
	require.NoError(t, err)
	require.NoError(t, r.Err)
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, 1, r.Deleted)
	assert.Equal(t, map[folio.SignalType]int{folio.StopGain: 1, folio.StopLoss: 1}, r.Recorded)

	signals, err := e.List(ctx, folio.SignalFilter{Code: "MCD"})
	require.NoError(t, err)
	require.Len(t, signals, 3)
	assert.Equal(t, []folio.SignalType{"NOTE", folio.StopGain, folio.StopLoss}, types(signals))
	assert.Equal(t, date.New(2025, 1, 3), signals[1].Date)
	assert.Equal(t, date.New(2025, 1, 4), signals[2].Date)

	_, err = e.Rebuild(ctx, "NOTE")
	var invalid *folio.ValidationError
	assert.ErrorAs(t, err, &invalid)
}

func TestManualSignalsAndMatch(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, stock("MCD", "food"), stock("KO", "food"), folio.Instrument{Code: "OLD", CategoryID: "tech"})
	e := folio.NewSignalEngine(s, folio.DefaultSettings())
	on := date.New(2025, 3, 14)

	_, err := e.CreateManual(ctx, folio.ManualSignal{Date: on, Level: folio.Low, Type: "NOTE", ScopeType: folio.ScopeMultiInstrument, ScopeData: []string{"MCD", "NOPE"}})
	var notFound *folio.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"NOPE"}, notFound.IDs)

	_, err = e.CreateManual(ctx, folio.ManualSignal{Date: on, Level: "URGENT", Type: "NOTE", ScopeType: folio.ScopeAllInstruments})
	var invalid *folio.ValidationError
	require.ErrorAs(t, err, &invalid)

	food, err := e.CreateManual(ctx, folio.ManualSignal{Date: on, Level: folio.Low, Type: "REVIEW", ScopeType: folio.ScopeCategory, ScopeData: []string{"food"}, Message: "rebalance"})
	require.NoError(t, err)
	all, err := e.CreateManual(ctx, folio.ManualSignal{Date: on, Level: folio.Info, Type: "EARNINGS", ScopeType: folio.ScopeAllInstruments})
	require.NoError(t, err)
	_, err = e.CreateManual(ctx, folio.ManualSignal{Date: on.Add(1), Level: folio.Info, Type: "EARNINGS", ScopeType: folio.ScopeAllCategories})
	require.NoError(t, err)

	matched, err := e.Match(ctx, "KO", on)
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, food.ID, matched[0].ID)
	assert.Equal(t, all.ID, matched[1].ID)

	matched, err = e.Match(ctx, "OLD", on)
	require.NoError(t, err)
	assert.Empty(t, matched)

	matched, err = e.Match(ctx, "OLD", on.Add(1))
	require.NoError(t, err)
	assert.Len(t, matched, 1)

	_, err = e.Match(ctx, "NOPE", on)
	assert.ErrorAs(t, err, &notFound)
}

// saveTradingBars saves closes on consecutive weekdays from a Monday and
// returns their dates.
func saveTradingBars(t *testing.T, s *store.Store, code string, from date.Date, closes ...float64) []date.Date {
	t.Helper()
	days := make([]date.Date, 0, len(closes))
	for on := from; len(days) < len(closes); on = on.Add(1) {
		if wd := on.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, on)
	}
	err := s.Update(context.Background(), func(tx folio.Tx) error {
		for i, c := range closes {
			if err := tx.SaveBar(folio.Bar{Code: code, Date: days[i], Close: folio.D(c)}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return days
}

func TestEvaluateStructureWindowInBars(t *testing.T) {
	ctx := context.Background()
	closes := make([]float64, folio.StructureMinBars)
	for i := range closes {
		closes[i] = 70 - float64(i)
	}

	tests := []struct {
		name     string
		earlier  int // bar index of a previous BUY_STRUCTURE
		recorded int
	}{
		// 9 bars back spans 12 calendar days with the weekend
		{"first bar of the window", len(closes) - folio.DefaultSettings().StructureWindow, 0},
		{"one bar before the window", len(closes) - folio.DefaultSettings().StructureWindow - 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openStore(t, stock("KO", "food"))
			days := saveTradingBars(t, s, "KO", date.New(2025, 1, 6), closes...)
			last := days[len(days)-1]
			require.Greater(t, last.DaysSince(days[tt.earlier]), 9)
			require.NoError(t, s.Update(ctx, func(tx folio.Tx) error {
				return tx.InsertSignal(&folio.Signal{Date: days[tt.earlier], Level: folio.Medium, Type: folio.BuyStructure, Scope: folio.InstrumentScope("KO")})
			}))

			ev, err := folio.NewSignalEngine(s, folio.DefaultSettings()).Evaluate(ctx, last)
			require.NoError(t, err)
			assert.Len(t, ev.Recorded, tt.recorded)
			assert.Equal(t, 1-tt.recorded, ev.Suppressed)
		})
	}
}

func TestRebuildStructureOfWatchedInstrument(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, stock("KO", "food"))
	closes := make([]float64, folio.StructureMinBars)
	for i := range closes {
		closes[i] = 70 - float64(i)
	}
	days := saveTradingBars(t, s, "KO", date.New(2025, 1, 6), closes...)
	last := days[len(days)-1]
	e := folio.NewSignalEngine(s, folio.DefaultSettings())

	ev, err := e.Evaluate(ctx, last)
	require.NoError(t, err)
	require.Len(t, ev.Recorded, 1)

	r, err := e.Rebuild(ctx, folio.BuyStructure)
	require.NoError(t, err)
	require.NoError(t, r.Err)
	assert.Equal(t, 1, r.Deleted)
	assert.Equal(t, map[folio.SignalType]int{folio.BuyStructure: 1}, r.Recorded)

	signals, err := e.List(ctx, folio.SignalFilter{Code: "KO"})
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, last, signals[0].Date)

	// an inactive instrument gets no structural signal back
	require.NoError(t, s.Update(ctx, func(tx folio.Tx) error {
		ko := stock("KO", "food")
		ko.Active = false
		return tx.SaveInstrument(ko)
	}))
	r, err = e.Rebuild(ctx, folio.BuyStructure)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Deleted)
	assert.Empty(t, r.Recorded)
}
